package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"projectcrm/internal/apperr"
	"projectcrm/internal/models"
	"projectcrm/internal/notify"
	"projectcrm/internal/planning"
	"projectcrm/internal/repositories"
)

type ProjectService interface {
	Create(ctx context.Context, p *models.Project) (*models.Project, error)
	GetByID(ctx context.Context, id int64) (*models.Project, error)
	List(ctx context.Context, includeTemplates bool) ([]models.Project, error)
	Update(ctx context.Context, id int64, updateData *models.Project) (*models.Project, error)

	AttachTask(ctx context.Context, projectID, taskID int64) error
	DetachTask(ctx context.Context, projectID, taskID int64) error
	ListTasks(ctx context.Context, projectID int64) ([]models.Task, error)

	AddTeamMember(ctx context.Context, m *models.TeamMember) (*models.TeamMember, error)
	ListTeam(ctx context.Context, projectID int64) ([]models.TeamMember, error)

	RecalculatePercentComplete(ctx context.Context, id int64) (float64, error)
	UpdateActualCost(ctx context.Context, id int64) (*models.Project, error)
	RecalculateAllCosts(ctx context.Context) (int, error)
	BudgetSummary(ctx context.Context, id int64) (*models.BudgetSummary, error)
	ExportTimeLogs(ctx context.Context, id int64) ([]models.TimeLogRow, error)

	CreateFromTemplate(ctx context.Context, templateID int64, name string, start *time.Time, ownerID int64) (*models.Project, error)
}

type projectService struct {
	repo     repositories.ProjectRepository
	tasks    repositories.TaskRepository
	entries  repositories.TimeEntryRepository
	users    repositories.UserRepository
	tx       repositories.TxRunner
	notifier notify.Notifier
	log      *zap.SugaredLogger
}

func NewProjectService(
	repo repositories.ProjectRepository,
	tasks repositories.TaskRepository,
	entries repositories.TimeEntryRepository,
	users repositories.UserRepository,
	tx repositories.TxRunner,
	notifier notify.Notifier,
	log *zap.SugaredLogger,
) ProjectService {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &projectService{
		repo:     repo,
		tasks:    tasks,
		entries:  entries,
		users:    users,
		tx:       tx,
		notifier: notifier,
		log:      log,
	}
}

func validateProject(p *models.Project) error {
	if strings.TrimSpace(p.Name) == "" {
		return apperr.InvalidInput("name is required")
	}
	if p.Budget != nil && *p.Budget < 0 {
		return apperr.InvalidInput("budget must not be negative")
	}
	if p.StartDate != nil && p.EndDate != nil && p.EndDate.Before(*p.StartDate) {
		return apperr.InvalidInput("end_date must not be before start_date")
	}
	return nil
}

func (s *projectService) Create(ctx context.Context, p *models.Project) (*models.Project, error) {
	if p.Currency == "" {
		p.Currency = "USD"
	}
	p.Currency = strings.ToUpper(p.Currency)
	if err := validateProject(p); err != nil {
		return nil, err
	}
	p.ActualCost = 0
	p.PercentComplete = 0
	if err := s.repo.Store(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *projectService) GetByID(ctx context.Context, id int64) (*models.Project, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *projectService) List(ctx context.Context, includeTemplates bool) ([]models.Project, error) {
	return s.repo.List(ctx, includeTemplates)
}

func (s *projectService) Update(ctx context.Context, id int64, updateData *models.Project) (*models.Project, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	existing.Name = updateData.Name
	existing.Description = updateData.Description
	existing.Budget = updateData.Budget
	if updateData.Currency != "" {
		existing.Currency = strings.ToUpper(updateData.Currency)
	}
	existing.IsTemplate = updateData.IsTemplate
	existing.StartDate = updateData.StartDate
	existing.EndDate = updateData.EndDate
	if err := validateProject(existing); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

func (s *projectService) AttachTask(ctx context.Context, projectID, taskID int64) error {
	if _, err := s.repo.FindByID(ctx, projectID); err != nil {
		return err
	}
	if _, err := s.tasks.FindByID(ctx, taskID); err != nil {
		return err
	}
	return s.repo.AttachTask(ctx, projectID, taskID)
}

func (s *projectService) DetachTask(ctx context.Context, projectID, taskID int64) error {
	return s.repo.DetachTask(ctx, projectID, taskID)
}

func (s *projectService) ListTasks(ctx context.Context, projectID int64) ([]models.Task, error) {
	if _, err := s.repo.FindByID(ctx, projectID); err != nil {
		return nil, err
	}
	return s.repo.ListTasks(ctx, projectID)
}

func (s *projectService) AddTeamMember(ctx context.Context, m *models.TeamMember) (*models.TeamMember, error) {
	if m.AllocationPercentage < 0 || m.AllocationPercentage > 100 {
		return nil, apperr.InvalidInput("allocation_percentage must be between 0 and 100")
	}
	if m.Role == "" {
		m.Role = "member"
	}
	if _, err := s.repo.FindByID(ctx, m.ProjectID); err != nil {
		return nil, err
	}
	if _, err := s.users.GetByID(ctx, m.UserID); err != nil {
		return nil, err
	}
	if err := s.repo.AddTeamMember(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *projectService) ListTeam(ctx context.Context, projectID int64) ([]models.TeamMember, error) {
	if _, err := s.repo.FindByID(ctx, projectID); err != nil {
		return nil, err
	}
	return s.repo.ListTeam(ctx, projectID)
}

func (s *projectService) RecalculatePercentComplete(ctx context.Context, id int64) (float64, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return 0, err
	}
	tasks, err := s.repo.ListTasks(ctx, id)
	if err != nil {
		return 0, err
	}
	pct := planning.ClampPercent(planning.ProjectPercentComplete(tasks))
	if err := s.repo.UpdatePercentComplete(ctx, id, pct); err != nil {
		return 0, err
	}
	return pct, nil
}

// loadEntries returns the project's tasks and their time entries keyed by task id.
func (s *projectService) loadEntries(ctx context.Context, id int64) ([]models.Task, map[int64][]models.TaskTimeEntry, error) {
	tasks, err := s.repo.ListTasks(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	ids := make([]int64, 0, len(tasks))
	for i := range tasks {
		ids = append(ids, tasks[i].ID)
	}
	byTask, err := s.entries.ListByTasks(ctx, ids)
	if err != nil {
		return nil, nil, err
	}
	return tasks, byTask, nil
}

// UpdateActualCost recomputes actual_cost from the billable entries of every
// attached task. Crossing the budget line sends an alert.
func (s *projectService) UpdateActualCost(ctx context.Context, id int64) (*models.Project, error) {
	var (
		project *models.Project
		wasOver bool
		nowOver bool
	)
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		p, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		wasOver = planning.IsOverBudget(*p)

		_, byTask, err := s.loadEntries(ctx, id)
		if err != nil {
			return err
		}
		p.ActualCost = planning.ActualCost(byTask)
		if err := s.repo.UpdateActualCost(ctx, id, p.ActualCost); err != nil {
			return err
		}
		nowOver = planning.IsOverBudget(*p)
		project = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	if nowOver && !wasOver {
		s.alertOverBudget(ctx, project)
	}
	return project, nil
}

func (s *projectService) alertOverBudget(ctx context.Context, p *models.Project) {
	subject := fmt.Sprintf("Project %q is over budget", p.Name)
	body := fmt.Sprintf("Actual cost %.2f %s exceeds budget %.2f %s.", p.ActualCost, p.Currency, *p.Budget, p.Currency)
	if err := s.notifier.Notify(ctx, subject, body); err != nil {
		s.log.Warnw("[project][budget] alert failed", "project_id", p.ID, "err", err)
		return
	}
	s.log.Infow("[project][budget] over-budget alert sent", "project_id", p.ID, "actual_cost", p.ActualCost)
}

// RecalculateAllCosts refreshes actual_cost on every non-template project and
// returns how many were updated.
func (s *projectService) RecalculateAllCosts(ctx context.Context) (int, error) {
	projects, err := s.repo.List(ctx, false)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, p := range projects {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		if _, err := s.UpdateActualCost(ctx, p.ID); err != nil {
			return n, fmt.Errorf("project %d: %w", p.ID, err)
		}
		n++
	}
	return n, nil
}

func (s *projectService) BudgetSummary(ctx context.Context, id int64) (*models.BudgetSummary, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	tasks, byTask, err := s.loadEntries(ctx, id)
	if err != nil {
		return nil, err
	}
	summary := planning.BudgetSummary(*p, tasks, byTask)
	return &summary, nil
}

func (s *projectService) ExportTimeLogs(ctx context.Context, id int64) ([]models.TimeLogRow, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, err
	}
	tasks, byTask, err := s.loadEntries(ctx, id)
	if err != nil {
		return nil, err
	}
	seen := map[int64]struct{}{}
	var userIDs []int64
	for _, entries := range byTask {
		for _, e := range entries {
			if _, ok := seen[e.UserID]; !ok {
				seen[e.UserID] = struct{}{}
				userIDs = append(userIDs, e.UserID)
			}
		}
	}
	names, err := s.users.NamesByIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}
	return planning.TimeLogs(tasks, byTask, names), nil
}

// CreateFromTemplate copies a template project with its tasks, subtask links and
// dependencies. Task dates shift so the earliest template task starts on start.
func (s *projectService) CreateFromTemplate(ctx context.Context, templateID int64, name string, start *time.Time, ownerID int64) (*models.Project, error) {
	var out *models.Project
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		tpl, err := s.repo.FindByID(ctx, templateID)
		if err != nil {
			return err
		}
		if !tpl.IsTemplate {
			return apperr.InvalidTemplateOperation()
		}
		tasks, err := s.repo.ListTasks(ctx, templateID)
		if err != nil {
			return err
		}

		shift := templateShift(tpl, tasks, start)
		p := &models.Project{
			Name:        name,
			Description: tpl.Description,
			OwnerID:     ownerID,
			Budget:      tpl.Budget,
			Currency:    tpl.Currency,
			TemplateID:  &tpl.ID,
			StartDate:   shiftDate(tpl.StartDate, shift),
			EndDate:     shiftDate(tpl.EndDate, shift),
		}
		if strings.TrimSpace(p.Name) == "" {
			p.Name = tpl.Name
		}
		if err := validateProject(p); err != nil {
			return err
		}
		if err := s.repo.Store(ctx, p); err != nil {
			return err
		}

		copies, err := s.copyTasks(ctx, p.ID, tasks, shift, ownerID)
		if err != nil {
			return err
		}
		if err := s.copyDependencies(ctx, tasks, copies); err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// templateShift is the offset moving the template's earliest date onto start.
func templateShift(tpl *models.Project, tasks []models.Task, start *time.Time) time.Duration {
	if start == nil {
		return 0
	}
	earliest := tpl.StartDate
	for i := range tasks {
		d := tasks[i].StartDate
		if d != nil && (earliest == nil || d.Before(*earliest)) {
			earliest = d
		}
	}
	if earliest == nil {
		return 0
	}
	return start.Sub(*earliest)
}

func shiftDate(d *time.Time, shift time.Duration) *time.Time {
	if d == nil {
		return nil
	}
	t := d.Add(shift)
	return &t
}

// copyTasks stores fresh copies of tasks under projectID and returns old id -> new id.
func (s *projectService) copyTasks(ctx context.Context, projectID int64, tasks []models.Task, shift time.Duration, ownerID int64) (map[int64]int64, error) {
	copies := make(map[int64]int64, len(tasks))
	now := time.Now()
	for _, t := range tasks {
		c := &models.Task{
			CreatorID:   ownerID,
			AssigneeID:  t.AssigneeID,
			Title:       t.Title,
			Description: t.Description,
			StartDate:   shiftDate(t.StartDate, shift),
			EndDate:     shiftDate(t.EndDate, shift),
			Priority:    t.Priority,
			Status:      models.StatusNew,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.tasks.Store(ctx, c); err != nil {
			return nil, err
		}
		if err := s.repo.AttachTask(ctx, projectID, c.ID); err != nil {
			return nil, err
		}
		copies[t.ID] = c.ID
	}

	// subtask links only survive when the parent was copied too
	for _, t := range tasks {
		if t.ParentID == nil {
			continue
		}
		parent, ok := copies[*t.ParentID]
		if !ok {
			continue
		}
		c, err := s.tasks.FindByID(ctx, copies[t.ID])
		if err != nil {
			return nil, err
		}
		c.ParentID = &parent
		if err := s.tasks.Update(ctx, c); err != nil {
			return nil, err
		}
	}
	return copies, nil
}

func (s *projectService) copyDependencies(ctx context.Context, tasks []models.Task, copies map[int64]int64) error {
	for _, t := range tasks {
		deps, err := s.tasks.DependencyIDs(ctx, t.ID)
		if err != nil {
			return err
		}
		for _, d := range deps {
			target, ok := copies[d]
			if !ok {
				continue
			}
			if err := s.tasks.AddDependency(ctx, copies[t.ID], target); err != nil {
				return err
			}
		}
	}
	return nil
}
