package services

import (
	"context"

	"projectcrm/internal/apperr"
	"projectcrm/internal/models"
	"projectcrm/internal/planning"
	"projectcrm/internal/repositories"
)

type TimeEntryService interface {
	Create(ctx context.Context, e *models.TaskTimeEntry) (*models.TaskTimeEntry, error)
	Update(ctx context.Context, id int64, updateData *models.TaskTimeEntry) (*models.TaskTimeEntry, error)
	GetByID(ctx context.Context, id int64) (*models.TaskTimeEntry, error)
	ListByTask(ctx context.Context, taskID int64) ([]models.TaskTimeEntry, error)
	Delete(ctx context.Context, id int64) error
}

type timeEntryService struct {
	entries repositories.TimeEntryRepository
	tasks   repositories.TaskRepository
	users   repositories.UserRepository
	tx      repositories.TxRunner
}

func NewTimeEntryService(
	entries repositories.TimeEntryRepository,
	tasks repositories.TaskRepository,
	users repositories.UserRepository,
	tx repositories.TxRunner,
) TimeEntryService {
	return &timeEntryService{entries: entries, tasks: tasks, users: users, tx: tx}
}

func validateEntryFields(e *models.TaskTimeEntry) error {
	if e.TaskID == 0 || e.UserID == 0 {
		return apperr.InvalidInput("task_id and user_id are required")
	}
	if e.BillingRate != nil && *e.BillingRate < 0 {
		return apperr.InvalidInput("billing_rate must not be negative")
	}
	return planning.NormalizeTimeEntry(e)
}

// save validates e against the user's other entries and persists it. The user
// row stays locked until the transaction ends, so two writers for the same user
// cannot both pass the overlap check.
func (s *timeEntryService) save(ctx context.Context, e *models.TaskTimeEntry, store func(context.Context, *models.TaskTimeEntry) error) error {
	return s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.users.LockForUpdate(ctx, e.UserID); err != nil {
			return err
		}
		if e.IsComplete() {
			existing, err := s.entries.ListForUserBetween(ctx, e.UserID, *e.StartedAt, *e.EndedAt)
			if err != nil {
				return err
			}
			if err := planning.ValidateTimeEntry(*e, existing); err != nil {
				return err
			}
		}
		return store(ctx, e)
	})
}

func (s *timeEntryService) Create(ctx context.Context, e *models.TaskTimeEntry) (*models.TaskTimeEntry, error) {
	e.ID = 0
	if err := validateEntryFields(e); err != nil {
		return nil, err
	}
	if _, err := s.tasks.FindByID(ctx, e.TaskID); err != nil {
		return nil, err
	}
	if err := s.save(ctx, e, s.entries.Store); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *timeEntryService) Update(ctx context.Context, id int64, updateData *models.TaskTimeEntry) (*models.TaskTimeEntry, error) {
	existing, err := s.entries.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	existing.StartedAt = updateData.StartedAt
	existing.EndedAt = updateData.EndedAt
	existing.DurationMinutes = updateData.DurationMinutes
	existing.IsBillable = updateData.IsBillable
	existing.BillingRate = updateData.BillingRate
	existing.Description = updateData.Description
	if updateData.TaskID != 0 && updateData.TaskID != existing.TaskID {
		if _, err := s.tasks.FindByID(ctx, updateData.TaskID); err != nil {
			return nil, err
		}
		existing.TaskID = updateData.TaskID
	}
	if err := validateEntryFields(existing); err != nil {
		return nil, err
	}
	if err := s.save(ctx, existing, s.entries.Update); err != nil {
		return nil, err
	}
	return existing, nil
}

func (s *timeEntryService) GetByID(ctx context.Context, id int64) (*models.TaskTimeEntry, error) {
	return s.entries.FindByID(ctx, id)
}

func (s *timeEntryService) ListByTask(ctx context.Context, taskID int64) ([]models.TaskTimeEntry, error) {
	if _, err := s.tasks.FindByID(ctx, taskID); err != nil {
		return nil, err
	}
	return s.entries.ListByTask(ctx, taskID)
}

func (s *timeEntryService) Delete(ctx context.Context, id int64) error {
	return s.entries.Delete(ctx, id)
}
