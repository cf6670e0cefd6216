// internal/models/task.go
package models

import "time"

// TaskStatus defines the possible statuses for a task.
type TaskStatus string

const (
	StatusNew        TaskStatus = "new"
	StatusInProgress TaskStatus = "in_progress"
	StatusCompleted  TaskStatus = "completed"
	StatusCancelled  TaskStatus = "cancelled"
)

type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityNormal TaskPriority = "normal"
	PriorityHigh   TaskPriority = "high"
	PriorityUrgent TaskPriority = "urgent"
)

// Task is a unit of project work. ParentID nests it under another task as a subtask.
type Task struct {
	ID              int64        `json:"id"`
	ParentID        *int64       `json:"parent_id,omitempty"`
	CreatorID       int64        `json:"creator_id"`
	AssigneeID      *int64       `json:"assignee_id,omitempty"`
	Title           string       `json:"title"`
	Description     string       `json:"description"`
	StartDate       *time.Time   `json:"start_date,omitempty"`
	EndDate         *time.Time   `json:"end_date,omitempty"`
	PercentComplete float64      `json:"percent_complete"`
	Priority        TaskPriority `json:"priority"`
	Status          TaskStatus   `json:"status"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
	DeletedAt       *time.Time   `json:"-"`
}

func (t *Task) IsCompleted() bool {
	return t.Status == StatusCompleted
}

// TaskFilter defines the available parameters for filtering tasks.
type TaskFilter struct {
	ProjectID  *int64
	ParentID   *int64
	AssigneeID *int64
	Status     *TaskStatus
}

// TaskSchedule is the dependency-derived view of a task's dates.
type TaskSchedule struct {
	TaskID               int64      `json:"task_id"`
	StartDate            *time.Time `json:"start_date,omitempty"`
	EarliestStartDate    *time.Time `json:"earliest_start_date,omitempty"`
	ViolatesDependencies bool       `json:"violates_dependencies"`
	Blocked              bool       `json:"blocked"`
	DependencyIDs        []int64    `json:"dependency_ids"`
}

// TaskBilling aggregates a task's billable time entries.
type TaskBilling struct {
	TaskID             int64   `json:"task_id"`
	TotalBillableTime  int     `json:"total_billable_minutes"`
	TotalBillingAmount float64 `json:"total_billing_amount"`
	PercentComplete    float64 `json:"percent_complete"`
}
