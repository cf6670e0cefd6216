package services

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"projectcrm/internal/apperr"
	"projectcrm/internal/models"
	"projectcrm/internal/planning"
)

func (f *fixture) employee(t *testing.T) *models.Employee {
	t.Helper()
	e, err := f.allocs.CreateEmployee(context.Background(), &models.Employee{FullName: "Dana", Email: "dana@example.com"})
	require.NoError(t, err)
	return e
}

func TestAllocateToCapacity(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	emp := f.employee(t)
	assert.Equal(t, 40.0, emp.CapacityHoursPerWeek)
	task := f.task("T")
	proj, err := f.projects.Create(ctx, &models.Project{Name: "P"})
	require.NoError(t, err)

	_, err = f.allocs.AllocateTo(ctx, emp.ID, models.ProjectTarget(proj.ID), 60, day(0), day(9))
	require.NoError(t, err)

	_, err = f.allocs.AllocateTo(ctx, emp.ID, models.TaskTarget(task.ID), 50, day(5), day(14))
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrCapacityExceeded)
	assert.Equal(t, "Allocation would exceed capacity", err.Error())

	// touching endpoints overlap
	_, err = f.allocs.AllocateTo(ctx, emp.ID, models.TaskTarget(task.ID), 50, day(9), day(12))
	assert.ErrorIs(t, err, apperr.ErrCapacityExceeded)

	_, err = f.allocs.AllocateTo(ctx, emp.ID, models.TaskTarget(task.ID), 50, day(10), day(14))
	require.NoError(t, err)

	_, err = f.allocs.AllocateTo(ctx, emp.ID, models.TaskTarget(task.ID), 40, day(0), day(3))
	require.NoError(t, err)

	allocs, err := f.allocs.ListAllocations(ctx, emp.ID)
	require.NoError(t, err)
	assert.Len(t, allocs, 3)

	report, err := f.allocs.CapacityReport(ctx, emp.ID, day(0), day(3))
	require.NoError(t, err)
	assert.Equal(t, 100.0, report.TotalAllocation)
	assert.Equal(t, 0.0, report.AvailableCapacity)
	assert.False(t, report.IsOverAllocated)
}

func TestAllocateToCapacityAlert(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	emp := f.employee(t)
	task := f.task("T")

	_, err := f.allocs.AllocateTo(ctx, emp.ID, models.TaskTarget(task.ID), 70, day(0), day(4))
	require.NoError(t, err)
	assert.Empty(t, f.notifier.subjects)

	_, err = f.allocs.AllocateTo(ctx, emp.ID, models.TaskTarget(task.ID), 40, day(2), day(6))
	assert.ErrorIs(t, err, apperr.ErrCapacityExceeded)
	assert.Equal(t, []string{fmt.Sprintf("Employee %d would exceed capacity", emp.ID)}, f.notifier.subjects)

	// validation failures are not capacity alerts
	_, err = f.allocs.AllocateTo(ctx, emp.ID, models.TaskTarget(task.ID), 140, day(0), day(1))
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	assert.Len(t, f.notifier.subjects, 1)
}

func TestAllocateToValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	emp := f.employee(t)
	task := f.task("T")

	tests := []struct {
		name    string
		target  models.AllocationTarget
		pct     float64
		wantErr error
	}{
		{"zero percent", models.TaskTarget(task.ID), 0, apperr.ErrInvalidInput},
		{"over 100", models.TaskTarget(task.ID), 101, apperr.ErrInvalidInput},
		{"bad target", models.AllocationTarget{Kind: "deal", ID: 1}, 10, apperr.ErrInvalidInput},
		{"missing project", models.ProjectTarget(999), 10, apperr.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.allocs.AllocateTo(ctx, emp.ID, tt.target, tt.pct, day(0), day(1))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	_, err := f.allocs.AllocateTo(ctx, emp.ID, models.TaskTarget(task.ID), 10, day(3), day(1))
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	_, err = f.allocs.AllocateTo(ctx, 999, models.TaskTarget(task.ID), 10, day(0), day(1))
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestAllocateToConcurrentNeverExceedsCapacity(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	emp := f.employee(t)
	task := f.task("T")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = f.allocs.AllocateTo(ctx, emp.ID, models.TaskTarget(task.ID), 15, day(0), day(4))
		}()
	}
	wg.Wait()

	allocs, err := f.allocs.ListAllocations(ctx, emp.ID)
	require.NoError(t, err)
	assert.Len(t, allocs, 6)
	assert.LessOrEqual(t, planning.TotalAllocation(allocs, day(0), day(4)), planning.FullCapacity)
}
