package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"projectcrm/internal/apperr"
	"projectcrm/internal/models"
)

func TestTimeEntryCreateRules(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	ana := f.user("ana")
	ben := f.user("ben")
	t1 := f.task("T1")
	t2 := f.task("T2")

	first, err := f.entries.Create(ctx, &models.TaskTimeEntry{TaskID: t1.ID, UserID: ana.ID, StartedAt: clock(9, 0), EndedAt: clock(11, 0)})
	require.NoError(t, err)
	assert.Equal(t, 120, first.DurationMinutes)

	tests := []struct {
		name    string
		entry   models.TaskTimeEntry
		wantErr error
	}{
		{"overlap across tasks", models.TaskTimeEntry{TaskID: t2.ID, UserID: ana.ID, StartedAt: clock(10, 0), EndedAt: clock(12, 0)}, apperr.ErrOverlappingTimeEntry},
		{"duplicate", models.TaskTimeEntry{TaskID: t2.ID, UserID: ana.ID, StartedAt: clock(9, 0), EndedAt: clock(11, 0)}, apperr.ErrDuplicateTimeEntry},
		{"other user", models.TaskTimeEntry{TaskID: t1.ID, UserID: ben.ID, StartedAt: clock(10, 0), EndedAt: clock(12, 0)}, nil},
		{"back to back", models.TaskTimeEntry{TaskID: t1.ID, UserID: ana.ID, StartedAt: clock(11, 0), EndedAt: clock(12, 0)}, nil},
		{"in progress", models.TaskTimeEntry{TaskID: t1.ID, UserID: ana.ID, StartedAt: clock(9, 30)}, nil},
		{"in progress, negative duration", models.TaskTimeEntry{TaskID: t1.ID, UserID: ana.ID, StartedAt: clock(16, 0), DurationMinutes: -30}, apperr.ErrInvalidInput},
		{"ends before start", models.TaskTimeEntry{TaskID: t1.ID, UserID: ana.ID, StartedAt: clock(15, 0), EndedAt: clock(14, 0)}, apperr.ErrInvalidInput},
		{"unknown task", models.TaskTimeEntry{TaskID: 999, UserID: ana.ID, StartedAt: clock(18, 0), EndedAt: clock(19, 0)}, apperr.ErrNotFound},
		{"unknown user", models.TaskTimeEntry{TaskID: t1.ID, UserID: 999, StartedAt: clock(18, 0), EndedAt: clock(19, 0)}, apperr.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := tt.entry
			_, err := f.entries.Create(ctx, &e)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestTimeEntryRejectedWriteLeavesStoreUnchanged(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	ana := f.user("ana")
	task := f.task("T")

	_, err := f.entries.Create(ctx, &models.TaskTimeEntry{TaskID: task.ID, UserID: ana.ID, StartedAt: clock(9, 0), EndedAt: clock(10, 0)})
	require.NoError(t, err)
	_, err = f.entries.Create(ctx, &models.TaskTimeEntry{TaskID: task.ID, UserID: ana.ID, StartedAt: clock(9, 30), EndedAt: clock(10, 30)})
	require.Error(t, err)

	list, err := f.entries.ListByTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestTimeEntryUpdateExcludesItself(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	ana := f.user("ana")
	task := f.task("T")

	e, err := f.entries.Create(ctx, &models.TaskTimeEntry{TaskID: task.ID, UserID: ana.ID, StartedAt: clock(9, 0), EndedAt: clock(11, 0)})
	require.NoError(t, err)
	other, err := f.entries.Create(ctx, &models.TaskTimeEntry{TaskID: task.ID, UserID: ana.ID, StartedAt: clock(13, 0), EndedAt: clock(14, 0)})
	require.NoError(t, err)

	moved, err := f.entries.Update(ctx, e.ID, &models.TaskTimeEntry{StartedAt: clock(9, 30), EndedAt: clock(11, 30)})
	require.NoError(t, err)
	assert.Equal(t, 120, moved.DurationMinutes)

	_, err = f.entries.Update(ctx, other.ID, &models.TaskTimeEntry{StartedAt: clock(11, 0), EndedAt: clock(12, 0)})
	assert.ErrorIs(t, err, apperr.ErrOverlappingTimeEntry)

	require.NoError(t, f.entries.Delete(ctx, other.ID))
	_, err = f.entries.GetByID(ctx, other.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
