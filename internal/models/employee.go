package models

import (
	"fmt"
	"time"
)

type Employee struct {
	ID                   int64     `json:"id"`
	UserID               *int64    `json:"user_id,omitempty"`
	FullName             string    `json:"full_name"`
	Email                string    `json:"email"`
	CapacityHoursPerWeek float64   `json:"capacity_hours_per_week"`
	CreatedAt            time.Time `json:"created_at"`
}

// TargetKind discriminates what an allocation points at.
type TargetKind string

const (
	TargetProject TargetKind = "project"
	TargetTask    TargetKind = "task"
)

// AllocationTarget is either a project or a task.
type AllocationTarget struct {
	Kind TargetKind `json:"kind"`
	ID   int64      `json:"id"`
}

func ProjectTarget(id int64) AllocationTarget { return AllocationTarget{Kind: TargetProject, ID: id} }
func TaskTarget(id int64) AllocationTarget { return AllocationTarget{Kind: TargetTask, ID: id} }

func (t AllocationTarget) Valid() bool {
	return (t.Kind == TargetProject || t.Kind == TargetTask) && t.ID > 0
}

func (t AllocationTarget) String() string {
	return fmt.Sprintf("%s#%d", t.Kind, t.ID)
}

// Allocation commits a share of an employee's capacity to a target for a date range.
type Allocation struct {
	ID                   int64            `json:"id"`
	EmployeeID           int64            `json:"employee_id"`
	Target               AllocationTarget `json:"target"`
	AllocationPercentage float64          `json:"allocation_percentage"`
	StartDate            time.Time        `json:"start_date"`
	EndDate              time.Time        `json:"end_date"`
	CreatedAt            time.Time        `json:"created_at"`
}

// OverlapsWith uses closed ranges: touching endpoints count as overlap.
func (a *Allocation) OverlapsWith(start, end time.Time) bool {
	return !a.StartDate.After(end) && !start.After(a.EndDate)
}

// CapacityReport is the allocation state of an employee over a window.
type CapacityReport struct {
	EmployeeID        int64     `json:"employee_id"`
	Start             time.Time `json:"start"`
	End               time.Time `json:"end"`
	TotalAllocation   float64   `json:"total_allocation"`
	AvailableCapacity float64   `json:"available_capacity"`
	IsOverAllocated   bool      `json:"is_over_allocated"`
}
