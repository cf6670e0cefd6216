package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"

	"projectcrm/internal/models"
)

type TimeEntryRepository interface {
	Store(ctx context.Context, e *models.TaskTimeEntry) error
	Update(ctx context.Context, e *models.TaskTimeEntry) error
	FindByID(ctx context.Context, id int64) (*models.TaskTimeEntry, error)
	Delete(ctx context.Context, id int64) error

	ListByTask(ctx context.Context, taskID int64) ([]models.TaskTimeEntry, error)
	ListByTasks(ctx context.Context, taskIDs []int64) (map[int64][]models.TaskTimeEntry, error)
	// ListForUserBetween returns the user's entries that may collide with [from, to]:
	// everything starting no later than to and not ended before from.
	ListForUserBetween(ctx context.Context, userID int64, from, to time.Time) ([]models.TaskTimeEntry, error)
}

type timeEntryRepository struct {
	db *sql.DB
}

func NewTimeEntryRepository(db *sql.DB) TimeEntryRepository {
	return &timeEntryRepository{db: db}
}

const timeEntryColumns = `id, task_id, user_id, started_at, ended_at, duration_minutes,
       is_billable, billing_rate, description, created_at, updated_at`

func scanTimeEntry(row interface{ Scan(...any) error }, e *models.TaskTimeEntry) error {
	return row.Scan(
		&e.ID, &e.TaskID, &e.UserID, &e.StartedAt, &e.EndedAt, &e.DurationMinutes,
		&e.IsBillable, &e.BillingRate, &e.Description, &e.CreatedAt, &e.UpdatedAt,
	)
}

func scanTimeEntries(rows *sql.Rows) ([]models.TaskTimeEntry, error) {
	defer rows.Close()
	var out []models.TaskTimeEntry
	for rows.Next() {
		var e models.TaskTimeEntry
		if err := scanTimeEntry(rows, &e); err != nil {
			return nil, dbErr("scan time entry", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *timeEntryRepository) Store(ctx context.Context, e *models.TaskTimeEntry) error {
	const q = `
		INSERT INTO task_time_entries (
			task_id, user_id, started_at, ended_at, duration_minutes,
			is_billable, billing_rate, description, created_at, updated_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NOW(),NOW())
		RETURNING id, created_at, updated_at`
	err := conn(ctx, r.db).QueryRowContext(ctx, q,
		e.TaskID, e.UserID, e.StartedAt, e.EndedAt, e.DurationMinutes,
		e.IsBillable, e.BillingRate, e.Description,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return dbErr("store time entry", err)
	}
	return nil
}

func (r *timeEntryRepository) Update(ctx context.Context, e *models.TaskTimeEntry) error {
	const q = `
		UPDATE task_time_entries SET
			task_id=$1, started_at=$2, ended_at=$3, duration_minutes=$4,
			is_billable=$5, billing_rate=$6, description=$7, updated_at=NOW()
		WHERE id=$8`
	res, err := conn(ctx, r.db).ExecContext(ctx, q,
		e.TaskID, e.StartedAt, e.EndedAt, e.DurationMinutes,
		e.IsBillable, e.BillingRate, e.Description, e.ID,
	)
	if err != nil {
		return dbErr("update time entry", err)
	}
	return affectedOrNotFound(res, "time entry")
}

func (r *timeEntryRepository) FindByID(ctx context.Context, id int64) (*models.TaskTimeEntry, error) {
	e := &models.TaskTimeEntry{}
	row := conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+timeEntryColumns+` FROM task_time_entries WHERE id = $1`, id)
	if err := scanTimeEntry(row, e); err != nil {
		return nil, notFoundOr("time entry", err)
	}
	return e, nil
}

func (r *timeEntryRepository) Delete(ctx context.Context, id int64) error {
	res, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM task_time_entries WHERE id = $1`, id)
	if err != nil {
		return dbErr("delete time entry", err)
	}
	return affectedOrNotFound(res, "time entry")
}

func (r *timeEntryRepository) ListByTask(ctx context.Context, taskID int64) ([]models.TaskTimeEntry, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx,
		`SELECT `+timeEntryColumns+` FROM task_time_entries WHERE task_id = $1 ORDER BY started_at NULLS LAST, id`, taskID)
	if err != nil {
		return nil, dbErr("list time entries", err)
	}
	return scanTimeEntries(rows)
}

func (r *timeEntryRepository) ListByTasks(ctx context.Context, taskIDs []int64) (map[int64][]models.TaskTimeEntry, error) {
	out := make(map[int64][]models.TaskTimeEntry, len(taskIDs))
	if len(taskIDs) == 0 {
		return out, nil
	}
	rows, err := conn(ctx, r.db).QueryContext(ctx,
		`SELECT `+timeEntryColumns+` FROM task_time_entries
		WHERE task_id = ANY($1) ORDER BY task_id, started_at NULLS LAST, id`, pq.Array(taskIDs))
	if err != nil {
		return nil, dbErr("list time entries", err)
	}
	entries, err := scanTimeEntries(rows)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		out[e.TaskID] = append(out[e.TaskID], e)
	}
	return out, nil
}

func (r *timeEntryRepository) ListForUserBetween(ctx context.Context, userID int64, from, to time.Time) ([]models.TaskTimeEntry, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx, `
		SELECT `+timeEntryColumns+`
		FROM task_time_entries
		WHERE user_id = $1
		  AND started_at IS NOT NULL
		  AND started_at <= $3
		  AND (ended_at IS NULL OR ended_at >= $2)
		ORDER BY started_at, id`, userID, from, to)
	if err != nil {
		return nil, dbErr("list user time entries", err)
	}
	return scanTimeEntries(rows)
}
