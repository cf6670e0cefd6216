package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"projectcrm/internal/hierarchy"
	"projectcrm/internal/models"
)

type TaskRepository interface {
	Store(ctx context.Context, task *models.Task) error
	FindByID(ctx context.Context, id int64) (*models.Task, error)
	FindAll(ctx context.Context, filter models.TaskFilter) ([]models.Task, error)
	Update(ctx context.Context, task *models.Task) error
	SoftDelete(ctx context.Context, id int64) error

	UpdateStatus(ctx context.Context, id int64, to models.TaskStatus) error
	UpdatePercentComplete(ctx context.Context, id int64, pct float64) error

	// subtasks
	ListSubtasks(ctx context.Context, parentID int64) ([]models.Task, error)
	ParentChain(ctx context.Context, id int64) ([]hierarchy.Link, error)

	// dependencies
	AddDependency(ctx context.Context, taskID, dependsOnID int64) error
	RemoveDependency(ctx context.Context, taskID, dependsOnID int64) error
	DependencyIDs(ctx context.Context, taskID int64) ([]int64, error)
	ListDependencies(ctx context.Context, taskID int64) ([]models.Task, error)
}

type taskRepository struct {
	db    *sql.DB
	links parentLinks
}

func NewTaskRepository(db *sql.DB) TaskRepository {
	return &taskRepository{
		db:    db,
		links: parentLinks{db: db, table: "tasks", column: "parent_id", what: "task"},
	}
}

const taskColumns = `t.id, t.parent_id, t.creator_id, t.assignee_id, t.title, t.description,
       t.start_date, t.end_date, t.percent_complete, t.priority, t.status,
       t.created_at, t.updated_at`

func scanTask(row interface{ Scan(...any) error }, t *models.Task) error {
	return row.Scan(
		&t.ID, &t.ParentID, &t.CreatorID, &t.AssigneeID, &t.Title, &t.Description,
		&t.StartDate, &t.EndDate, &t.PercentComplete, &t.Priority, &t.Status,
		&t.CreatedAt, &t.UpdatedAt,
	)
}

func scanTasks(rows *sql.Rows) ([]models.Task, error) {
	defer rows.Close()
	var tasks []models.Task
	for rows.Next() {
		var t models.Task
		if err := scanTask(rows, &t); err != nil {
			return nil, dbErr("scan task", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *taskRepository) Store(ctx context.Context, task *models.Task) error {
	query := `
		INSERT INTO tasks (
			parent_id, creator_id, assignee_id, title, description,
			start_date, end_date, percent_complete, priority, status, created_at, updated_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		RETURNING id, created_at, updated_at`
	err := conn(ctx, r.db).QueryRowContext(ctx, query,
		task.ParentID, task.CreatorID, task.AssigneeID, task.Title, task.Description,
		task.StartDate, task.EndDate, task.PercentComplete, task.Priority, task.Status,
		task.CreatedAt, task.UpdatedAt,
	).Scan(&task.ID, &task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		return dbErr("store task", err)
	}
	return nil
}

func (r *taskRepository) FindByID(ctx context.Context, id int64) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks t WHERE t.id = $1 AND t.deleted_at IS NULL`
	task := &models.Task{}
	if err := scanTask(conn(ctx, r.db).QueryRowContext(ctx, query, id), task); err != nil {
		return nil, notFoundOr("task", err)
	}
	return task, nil
}

func (r *taskRepository) FindAll(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	baseQuery := `SELECT ` + taskColumns + ` FROM tasks t`

	conditions := []string{"t.deleted_at IS NULL"}
	args := []interface{}{}
	argID := 1

	if filter.ProjectID != nil {
		baseQuery += fmt.Sprintf(" JOIN project_tasks pt ON pt.task_id = t.id AND pt.project_id = $%d", argID)
		args = append(args, *filter.ProjectID)
		argID++
	}
	if filter.ParentID != nil {
		conditions = append(conditions, fmt.Sprintf("t.parent_id = $%d", argID))
		args = append(args, *filter.ParentID)
		argID++
	}
	if filter.AssigneeID != nil {
		conditions = append(conditions, fmt.Sprintf("t.assignee_id = $%d", argID))
		args = append(args, *filter.AssigneeID)
		argID++
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("t.status = $%d", argID))
		args = append(args, *filter.Status)
		argID++
	}

	baseQuery += " WHERE " + strings.Join(conditions, " AND ")
	baseQuery += " ORDER BY t.id"

	rows, err := conn(ctx, r.db).QueryContext(ctx, baseQuery, args...)
	if err != nil {
		return nil, dbErr("list tasks", err)
	}
	return scanTasks(rows)
}

func (r *taskRepository) Update(ctx context.Context, task *models.Task) error {
	query := `
		UPDATE tasks SET
			parent_id=$1, assignee_id=$2, title=$3, description=$4, start_date=$5,
			end_date=$6, percent_complete=$7, priority=$8, status=$9, updated_at=$10
		WHERE id=$11 AND deleted_at IS NULL`
	res, err := conn(ctx, r.db).ExecContext(ctx, query,
		task.ParentID, task.AssigneeID, task.Title, task.Description, task.StartDate,
		task.EndDate, task.PercentComplete, task.Priority, task.Status, task.UpdatedAt, task.ID,
	)
	if err != nil {
		return dbErr("update task", err)
	}
	return affectedOrNotFound(res, "task")
}

func (r *taskRepository) SoftDelete(ctx context.Context, id int64) error {
	res, err := conn(ctx, r.db).ExecContext(ctx,
		`UPDATE tasks SET deleted_at = $1 WHERE id = $2 AND deleted_at IS NULL`, time.Now(), id)
	if err != nil {
		return dbErr("delete task", err)
	}
	return affectedOrNotFound(res, "task")
}

func (r *taskRepository) UpdateStatus(ctx context.Context, id int64, to models.TaskStatus) error {
	res, err := conn(ctx, r.db).ExecContext(ctx,
		`UPDATE tasks SET status=$1, updated_at=NOW() WHERE id=$2 AND deleted_at IS NULL`, to, id)
	if err != nil {
		return dbErr("update task status", err)
	}
	return affectedOrNotFound(res, "task")
}

func (r *taskRepository) UpdatePercentComplete(ctx context.Context, id int64, pct float64) error {
	res, err := conn(ctx, r.db).ExecContext(ctx,
		`UPDATE tasks SET percent_complete=$1, updated_at=NOW() WHERE id=$2 AND deleted_at IS NULL`, pct, id)
	if err != nil {
		return dbErr("update task progress", err)
	}
	return affectedOrNotFound(res, "task")
}

func (r *taskRepository) ListSubtasks(ctx context.Context, parentID int64) ([]models.Task, error) {
	return r.FindAll(ctx, models.TaskFilter{ParentID: &parentID})
}

func (r *taskRepository) ParentChain(ctx context.Context, id int64) ([]hierarchy.Link, error) {
	return r.links.ParentChain(ctx, id)
}

func (r *taskRepository) AddDependency(ctx context.Context, taskID, dependsOnID int64) error {
	_, err := conn(ctx, r.db).ExecContext(ctx, `
		INSERT INTO task_dependencies (task_id, depends_on_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING`, taskID, dependsOnID)
	if err != nil {
		return dbErr("add task dependency", err)
	}
	return nil
}

func (r *taskRepository) RemoveDependency(ctx context.Context, taskID, dependsOnID int64) error {
	res, err := conn(ctx, r.db).ExecContext(ctx,
		`DELETE FROM task_dependencies WHERE task_id = $1 AND depends_on_id = $2`, taskID, dependsOnID)
	if err != nil {
		return dbErr("remove task dependency", err)
	}
	return affectedOrNotFound(res, "task dependency")
}

func (r *taskRepository) DependencyIDs(ctx context.Context, taskID int64) ([]int64, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx,
		`SELECT depends_on_id FROM task_dependencies WHERE task_id = $1 ORDER BY depends_on_id`, taskID)
	if err != nil {
		return nil, dbErr("list task dependencies", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, dbErr("scan task dependency", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *taskRepository) ListDependencies(ctx context.Context, taskID int64) ([]models.Task, error) {
	query := `SELECT ` + taskColumns + `
		FROM tasks t
		JOIN task_dependencies d ON d.depends_on_id = t.id
		WHERE d.task_id = $1 AND t.deleted_at IS NULL
		ORDER BY t.id`
	rows, err := conn(ctx, r.db).QueryContext(ctx, query, taskID)
	if err != nil {
		return nil, dbErr("list task dependencies", err)
	}
	return scanTasks(rows)
}
