package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"projectcrm/internal/apperr"
	"projectcrm/internal/hierarchy"
	"projectcrm/internal/models"
	"projectcrm/internal/planning"
	"projectcrm/internal/repositories"
)

type TaskService interface {
	Create(ctx context.Context, task *models.Task) (*models.Task, error)
	GetByID(ctx context.Context, id int64) (*models.Task, error)
	GetAll(ctx context.Context, filter models.TaskFilter) ([]models.Task, error)
	Update(ctx context.Context, id int64, updateData *models.Task) (*models.Task, error)
	Delete(ctx context.Context, id int64) error

	UpdateStatus(ctx context.Context, id int64, to models.TaskStatus) (*models.Task, error)
	SetParent(ctx context.Context, id int64, parentID *int64) (*models.Task, error)

	AddDependency(ctx context.Context, taskID, dependsOnID int64) error
	RemoveDependency(ctx context.Context, taskID, dependsOnID int64) error
	Schedule(ctx context.Context, id int64) (*models.TaskSchedule, error)

	RecalculatePercentComplete(ctx context.Context, id int64) (float64, error)
	Billing(ctx context.Context, id int64) (*models.TaskBilling, error)
}

type taskService struct {
	repo    repositories.TaskRepository
	entries repositories.TimeEntryRepository
	tx      repositories.TxRunner
}

func NewTaskService(repo repositories.TaskRepository, entries repositories.TimeEntryRepository, tx repositories.TxRunner) TaskService {
	return &taskService{repo: repo, entries: entries, tx: tx}
}

func validateTask(task *models.Task) error {
	if strings.TrimSpace(task.Title) == "" {
		return apperr.InvalidInput("title is required")
	}
	if task.StartDate != nil && task.EndDate != nil && task.EndDate.Before(*task.StartDate) {
		return apperr.InvalidInput("end_date must not be before start_date")
	}
	if task.PercentComplete < 0 || task.PercentComplete > 100 {
		return apperr.InvalidInput("percent_complete must be between 0 and 100")
	}
	return nil
}

func (s *taskService) Create(ctx context.Context, task *models.Task) (*models.Task, error) {
	if task.Status == "" {
		task.Status = models.StatusNew
	}
	if task.Priority == "" {
		task.Priority = models.PriorityNormal
	}
	if err := validateTask(task); err != nil {
		return nil, err
	}
	if task.ParentID != nil {
		if _, err := s.repo.FindByID(ctx, *task.ParentID); err != nil {
			return nil, err
		}
	}
	now := time.Now()
	task.CreatedAt = now
	task.UpdatedAt = now

	if err := s.repo.Store(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *taskService) GetByID(ctx context.Context, id int64) (*models.Task, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *taskService) GetAll(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	return s.repo.FindAll(ctx, filter)
}

func (s *taskService) Update(ctx context.Context, id int64, updateData *models.Task) (*models.Task, error) {
	var out *models.Task
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		existing, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := s.checkParent(ctx, id, updateData.ParentID); err != nil {
			return err
		}
		if updateData.Status != "" && !canTransition(existing.Status, updateData.Status, TaskTransitions) {
			return apperr.InvalidInput(fmt.Sprintf("cannot move task from %s to %s", existing.Status, updateData.Status))
		}

		existing.ParentID = updateData.ParentID
		existing.AssigneeID = updateData.AssigneeID
		existing.Title = updateData.Title
		existing.Description = updateData.Description
		existing.StartDate = updateData.StartDate
		existing.EndDate = updateData.EndDate
		existing.PercentComplete = updateData.PercentComplete
		if updateData.Priority != "" {
			existing.Priority = updateData.Priority
		}
		if updateData.Status != "" {
			existing.Status = updateData.Status
		}
		if err := validateTask(existing); err != nil {
			return err
		}
		existing.UpdatedAt = time.Now()

		if err := s.repo.Update(ctx, existing); err != nil {
			return err
		}
		out = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *taskService) Delete(ctx context.Context, id int64) error {
	return s.repo.SoftDelete(ctx, id)
}

func (s *taskService) UpdateStatus(ctx context.Context, id int64, to models.TaskStatus) (*models.Task, error) {
	task, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, known := TaskTransitions[to]; !known {
		return nil, apperr.InvalidInput(fmt.Sprintf("unknown status %q", to))
	}
	if !canTransition(task.Status, to, TaskTransitions) {
		return nil, apperr.InvalidInput(fmt.Sprintf("cannot move task from %s to %s", task.Status, to))
	}
	if err := s.repo.UpdateStatus(ctx, id, to); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, id)
}

// checkParent rejects parentID when it would make task id its own ancestor.
func (s *taskService) checkParent(ctx context.Context, id int64, parentID *int64) error {
	if parentID == nil {
		return nil
	}
	links, err := s.repo.ParentChain(ctx, *parentID)
	if err != nil {
		return err
	}
	chain := hierarchy.ArenaOf(links)
	if !chain.Has(*parentID) {
		return apperr.NotFound("parent task")
	}
	if chain.WouldCreateCycle(id, parentID) {
		return apperr.CyclicHierarchy()
	}
	return nil
}

func (s *taskService) SetParent(ctx context.Context, id int64, parentID *int64) (*models.Task, error) {
	var out *models.Task
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		task, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := s.checkParent(ctx, id, parentID); err != nil {
			return err
		}
		task.ParentID = parentID
		task.UpdatedAt = time.Now()
		if err := s.repo.Update(ctx, task); err != nil {
			return err
		}
		out = task
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *taskService) AddDependency(ctx context.Context, taskID, dependsOnID int64) error {
	return s.tx.InTx(ctx, func(ctx context.Context) error {
		if _, err := s.repo.FindByID(ctx, taskID); err != nil {
			return err
		}
		if _, err := s.repo.FindByID(ctx, dependsOnID); err != nil {
			return err
		}
		cyclic, err := planning.WouldCreateDependencyCycle(taskID, dependsOnID, func(id int64) ([]int64, error) {
			return s.repo.DependencyIDs(ctx, id)
		})
		if err != nil {
			return err
		}
		if cyclic {
			return apperr.CyclicHierarchy()
		}
		return s.repo.AddDependency(ctx, taskID, dependsOnID)
	})
}

func (s *taskService) RemoveDependency(ctx context.Context, taskID, dependsOnID int64) error {
	return s.repo.RemoveDependency(ctx, taskID, dependsOnID)
}

func (s *taskService) Schedule(ctx context.Context, id int64) (*models.TaskSchedule, error) {
	task, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	deps, err := s.repo.ListDependencies(ctx, id)
	if err != nil {
		return nil, err
	}
	sched := planning.BuildSchedule(*task, deps)
	return &sched, nil
}

// RecalculatePercentComplete stores the mean of the direct subtasks' progress.
// A task without subtasks keeps its own value.
func (s *taskService) RecalculatePercentComplete(ctx context.Context, id int64) (float64, error) {
	task, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return 0, err
	}
	subtasks, err := s.repo.ListSubtasks(ctx, id)
	if err != nil {
		return 0, err
	}
	pct := planning.ClampPercent(planning.TaskPercentComplete(task.PercentComplete, subtasks))
	if pct == task.PercentComplete {
		return pct, nil
	}
	if err := s.repo.UpdatePercentComplete(ctx, id, pct); err != nil {
		return 0, err
	}
	return pct, nil
}

func (s *taskService) Billing(ctx context.Context, id int64) (*models.TaskBilling, error) {
	task, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	entries, err := s.entries.ListByTask(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.TaskBilling{
		TaskID:             id,
		TotalBillableTime:  planning.TotalBillableTime(entries),
		TotalBillingAmount: planning.TotalBillingAmount(entries),
		PercentComplete:    task.PercentComplete,
	}, nil
}
