package models

import "time"

type Project struct {
	ID              int64      `json:"id"`
	Name            string     `json:"name"`
	Description     string     `json:"description"`
	OwnerID         int64      `json:"owner_id"`
	Budget          *float64   `json:"budget,omitempty"`
	ActualCost      float64    `json:"actual_cost"`
	Currency        string     `json:"currency"`
	PercentComplete float64    `json:"percent_complete"`
	IsTemplate      bool       `json:"is_template"`
	TemplateID      *int64     `json:"template_id,omitempty"`
	StartDate       *time.Time `json:"start_date,omitempty"`
	EndDate         *time.Time `json:"end_date,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// TeamMember is a row of the project_team pivot.
type TeamMember struct {
	ProjectID            int64     `json:"project_id"`
	UserID               int64     `json:"user_id"`
	Role                 string    `json:"role"`
	AllocationPercentage float64   `json:"allocation_percentage"`
	CreatedAt            time.Time `json:"created_at"`
}

// TaskBudgetLine is the per-task part of a budget summary.
type TaskBudgetLine struct {
	TaskID          int64   `json:"task_id"`
	TaskTitle       string  `json:"task_title"`
	BillableMinutes int     `json:"billable_minutes"`
	BillableHours   float64 `json:"billable_hours"`
	BillingAmount   float64 `json:"billing_amount"`
	EntriesCount    int     `json:"entries_count"`
}

type BudgetSummary struct {
	ProjectID            int64            `json:"project_id"`
	ProjectName          string           `json:"project_name"`
	Currency             string           `json:"currency"`
	Budget               *float64         `json:"budget"`
	ActualCost           float64          `json:"actual_cost"`
	Variance             *float64         `json:"budget_variance"`
	Utilization          *float64         `json:"budget_utilization"`
	IsOverBudget         bool             `json:"is_over_budget"`
	Tasks                []TaskBudgetLine `json:"tasks"`
	TotalBillableMinutes int              `json:"total_billable_minutes"`
	TotalBillableHours   float64          `json:"total_billable_hours"`
}
