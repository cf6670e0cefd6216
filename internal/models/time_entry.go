package models

import "time"

// TaskTimeEntry is time a user logged against a task. An entry with a nil
// StartedAt or EndedAt is still in progress.
type TaskTimeEntry struct {
	ID              int64      `json:"id"`
	TaskID          int64      `json:"task_id"`
	UserID          int64      `json:"user_id"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`
	DurationMinutes int        `json:"duration_minutes"`
	IsBillable      bool       `json:"is_billable"`
	BillingRate     *float64   `json:"billing_rate,omitempty"`
	Description     string     `json:"description"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// IsComplete reports whether both ends of the entry are known.
func (e *TaskTimeEntry) IsComplete() bool {
	return e.StartedAt != nil && e.EndedAt != nil
}

// BillingAmount is duration in hours times the rate; zero for non-billable
// entries or entries without a rate.
func (e *TaskTimeEntry) BillingAmount() float64 {
	if !e.IsBillable || e.BillingRate == nil {
		return 0
	}
	return float64(e.DurationMinutes) / 60 * *e.BillingRate
}

func (e *TaskTimeEntry) DurationHours() float64 {
	return float64(e.DurationMinutes) / 60
}

// TimeLogRow is one exported time entry.
type TimeLogRow struct {
	EntryID         int64      `json:"entry_id"`
	TaskID          int64      `json:"task_id"`
	TaskTitle       string     `json:"task_title"`
	UserID          int64      `json:"user_id"`
	UserName        string     `json:"user_name"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`
	DurationMinutes int        `json:"duration_minutes"`
	DurationHours   float64    `json:"duration_hours"`
	IsBillable      bool       `json:"is_billable"`
	BillingRate     *float64   `json:"billing_rate,omitempty"`
	BillingAmount   float64    `json:"billing_amount"`
	Description     string     `json:"description"`
}
