package model

import "time"

// Schedule item status values. The reconciliation job only ever moves
// pending items to missed; completed items are owned by the user.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusMissed    = "missed"
)

// ScheduleItem is one dated task within a study plan. Date is a calendar
// date in YYYY-MM-DD form; all reconciliation compares whole days.
type ScheduleItem struct {
	ID     string `json:"id"`
	Day    string `json:"day"`
	Date   string `json:"date"`
	Topic  string `json:"topic"`
	Tasks  string `json:"tasks"`
	Status string `json:"status"`
}

// StudyPlan owns an ordered, chronological list of schedule items for one
// user and one topic. The schedule is persisted as a single JSON document
// so a status update is one atomic row write.
type StudyPlan struct {
	ID                     string         `json:"id"`
	UserID                 int64          `json:"user_id"`
	Topic                  string         `json:"topic"`
	Notes                  string         `json:"notes,omitempty"`
	AutoDeleteOnCompletion bool           `json:"auto_delete_on_completion"`
	Schedule               []ScheduleItem `json:"schedule"`
	CreatedAt              time.Time      `json:"created_at"`
	UpdatedAt              time.Time      `json:"updated_at"`
}

// ValidStatus reports whether s is a known schedule item status.
func ValidStatus(s string) bool {
	return s == StatusPending || s == StatusCompleted || s == StatusMissed
}
