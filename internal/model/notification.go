package model

import "time"

// Notification type constants
const (
	NotifTypeWarning  = "warning"
	NotifTypeReminder = "reminder"
	NotifTypeUpdate   = "update"
)

// Notification is a per-user message created by the reconciliation job.
// DedupDate is the calendar date of the run that created it; together with
// PlanID and Type it keys duplicate suppression across same-day runs.
type Notification struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	PlanID    string    `json:"plan_id"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	Read      bool      `json:"read"`
	DedupDate string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}
