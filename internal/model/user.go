package model

import "time"

type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DisplayName returns the user's name, or a generic fallback when the
// profile has none. Used to address summary emails.
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return "Student"
}
