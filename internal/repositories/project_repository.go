package repositories

import (
	"context"
	"database/sql"

	"projectcrm/internal/models"
)

type ProjectRepository interface {
	Store(ctx context.Context, p *models.Project) error
	FindByID(ctx context.Context, id int64) (*models.Project, error)
	List(ctx context.Context, includeTemplates bool) ([]models.Project, error)
	Update(ctx context.Context, p *models.Project) error
	UpdateActualCost(ctx context.Context, id int64, cost float64) error
	UpdatePercentComplete(ctx context.Context, id int64, pct float64) error

	AttachTask(ctx context.Context, projectID, taskID int64) error
	DetachTask(ctx context.Context, projectID, taskID int64) error
	ListTasks(ctx context.Context, projectID int64) ([]models.Task, error)

	AddTeamMember(ctx context.Context, m *models.TeamMember) error
	ListTeam(ctx context.Context, projectID int64) ([]models.TeamMember, error)
}

type projectRepository struct {
	db    *sql.DB
	tasks TaskRepository
}

func NewProjectRepository(db *sql.DB) ProjectRepository {
	return &projectRepository{db: db, tasks: NewTaskRepository(db)}
}

const projectColumns = `id, name, description, owner_id, budget, actual_cost, currency,
       percent_complete, is_template, template_id, start_date, end_date, created_at, updated_at`

func scanProject(row interface{ Scan(...any) error }, p *models.Project) error {
	return row.Scan(
		&p.ID, &p.Name, &p.Description, &p.OwnerID, &p.Budget, &p.ActualCost, &p.Currency,
		&p.PercentComplete, &p.IsTemplate, &p.TemplateID, &p.StartDate, &p.EndDate,
		&p.CreatedAt, &p.UpdatedAt,
	)
}

func (r *projectRepository) Store(ctx context.Context, p *models.Project) error {
	const q = `
		INSERT INTO projects (
			name, description, owner_id, budget, actual_cost, currency, percent_complete,
			is_template, template_id, start_date, end_date, created_at, updated_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,NOW(),NOW())
		RETURNING id, created_at, updated_at`
	err := conn(ctx, r.db).QueryRowContext(ctx, q,
		p.Name, p.Description, p.OwnerID, p.Budget, p.ActualCost, p.Currency, p.PercentComplete,
		p.IsTemplate, p.TemplateID, p.StartDate, p.EndDate,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return dbErr("store project", err)
	}
	return nil
}

func (r *projectRepository) FindByID(ctx context.Context, id int64) (*models.Project, error) {
	p := &models.Project{}
	row := conn(ctx, r.db).QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id)
	if err := scanProject(row, p); err != nil {
		return nil, notFoundOr("project", err)
	}
	return p, nil
}

func (r *projectRepository) List(ctx context.Context, includeTemplates bool) ([]models.Project, error) {
	q := `SELECT ` + projectColumns + ` FROM projects`
	if !includeTemplates {
		q += ` WHERE is_template = FALSE`
	}
	q += ` ORDER BY id`

	rows, err := conn(ctx, r.db).QueryContext(ctx, q)
	if err != nil {
		return nil, dbErr("list projects", err)
	}
	defer rows.Close()

	var out []models.Project
	for rows.Next() {
		var p models.Project
		if err := scanProject(rows, &p); err != nil {
			return nil, dbErr("scan project", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *projectRepository) Update(ctx context.Context, p *models.Project) error {
	const q = `
		UPDATE projects SET
			name=$1, description=$2, budget=$3, currency=$4, is_template=$5,
			start_date=$6, end_date=$7, updated_at=NOW()
		WHERE id=$8`
	res, err := conn(ctx, r.db).ExecContext(ctx, q,
		p.Name, p.Description, p.Budget, p.Currency, p.IsTemplate, p.StartDate, p.EndDate, p.ID)
	if err != nil {
		return dbErr("update project", err)
	}
	return affectedOrNotFound(res, "project")
}

func (r *projectRepository) UpdateActualCost(ctx context.Context, id int64, cost float64) error {
	res, err := conn(ctx, r.db).ExecContext(ctx,
		`UPDATE projects SET actual_cost=$1, updated_at=NOW() WHERE id=$2`, cost, id)
	if err != nil {
		return dbErr("update project actual cost", err)
	}
	return affectedOrNotFound(res, "project")
}

func (r *projectRepository) UpdatePercentComplete(ctx context.Context, id int64, pct float64) error {
	res, err := conn(ctx, r.db).ExecContext(ctx,
		`UPDATE projects SET percent_complete=$1, updated_at=NOW() WHERE id=$2`, pct, id)
	if err != nil {
		return dbErr("update project progress", err)
	}
	return affectedOrNotFound(res, "project")
}

func (r *projectRepository) AttachTask(ctx context.Context, projectID, taskID int64) error {
	_, err := conn(ctx, r.db).ExecContext(ctx,
		`INSERT INTO project_tasks (project_id, task_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		projectID, taskID)
	if err != nil {
		return dbErr("attach task", err)
	}
	return nil
}

func (r *projectRepository) DetachTask(ctx context.Context, projectID, taskID int64) error {
	res, err := conn(ctx, r.db).ExecContext(ctx,
		`DELETE FROM project_tasks WHERE project_id = $1 AND task_id = $2`, projectID, taskID)
	if err != nil {
		return dbErr("detach task", err)
	}
	return affectedOrNotFound(res, "project task")
}

func (r *projectRepository) ListTasks(ctx context.Context, projectID int64) ([]models.Task, error) {
	return r.tasks.FindAll(ctx, models.TaskFilter{ProjectID: &projectID})
}

func (r *projectRepository) AddTeamMember(ctx context.Context, m *models.TeamMember) error {
	const q = `
		INSERT INTO project_team (project_id, user_id, role, allocation_percentage, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (project_id, user_id)
		DO UPDATE SET role = EXCLUDED.role, allocation_percentage = EXCLUDED.allocation_percentage
		RETURNING created_at`
	if err := conn(ctx, r.db).QueryRowContext(ctx, q, m.ProjectID, m.UserID, m.Role, m.AllocationPercentage).
		Scan(&m.CreatedAt); err != nil {
		return dbErr("add team member", err)
	}
	return nil
}

func (r *projectRepository) ListTeam(ctx context.Context, projectID int64) ([]models.TeamMember, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx, `
		SELECT project_id, user_id, role, allocation_percentage, created_at
		FROM project_team WHERE project_id = $1 ORDER BY user_id`, projectID)
	if err != nil {
		return nil, dbErr("list team", err)
	}
	defer rows.Close()

	var out []models.TeamMember
	for rows.Next() {
		var m models.TeamMember
		if err := rows.Scan(&m.ProjectID, &m.UserID, &m.Role, &m.AllocationPercentage, &m.CreatedAt); err != nil {
			return nil, dbErr("scan team member", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
