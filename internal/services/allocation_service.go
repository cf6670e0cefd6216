package services

import (
	"context"
	"errors"
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

type AllocationService interface {
	CreateEmployee(ctx context.Context, e *models.Employee) (*models.Employee, error)
	GetEmployee(ctx context.Context, id int64) (*models.Employee, error)

	// AllocateTo books pct of the employee's capacity on target over [start, end].
	// Nothing is written when the booking would push the employee past 100%;
	// the rejection is reported to the notifier as a capacity alert.
	AllocateTo(ctx context.Context, employeeID int64, target models.AllocationTarget, pct float64, start, end time.Time) (*models.Allocation, error)
	ListAllocations(ctx context.Context, employeeID int64) ([]models.Allocation, error)
	CapacityReport(ctx context.Context, employeeID int64, start, end time.Time) (*models.CapacityReport, error)
}

type allocationService struct {
	employees repositories.EmployeeRepository
	tasks     repositories.TaskRepository
	projects  repositories.ProjectRepository
	tx        repositories.TxRunner
	notifier  notify.Notifier
	log       *zap.SugaredLogger
}

func NewAllocationService(
	employees repositories.EmployeeRepository,
	tasks repositories.TaskRepository,
	projects repositories.ProjectRepository,
	tx repositories.TxRunner,
	notifier notify.Notifier,
	log *zap.SugaredLogger,
) AllocationService {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &allocationService{
		employees: employees,
		tasks:     tasks,
		projects:  projects,
		tx:        tx,
		notifier:  notifier,
		log:       log,
	}
}

func (s *allocationService) CreateEmployee(ctx context.Context, e *models.Employee) (*models.Employee, error) {
	if strings.TrimSpace(e.FullName) == "" {
		return nil, apperr.InvalidInput("full_name is required")
	}
	if e.CapacityHoursPerWeek < 0 {
		return nil, apperr.InvalidInput("capacity_hours_per_week must not be negative")
	}
	if e.CapacityHoursPerWeek == 0 {
		e.CapacityHoursPerWeek = 40
	}
	if err := s.employees.Store(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *allocationService) GetEmployee(ctx context.Context, id int64) (*models.Employee, error) {
	return s.employees.FindByID(ctx, id)
}

func (s *allocationService) checkTarget(ctx context.Context, target models.AllocationTarget) error {
	if !target.Valid() {
		return apperr.InvalidInput("allocation target must be a project or a task")
	}
	switch target.Kind {
	case models.TargetProject:
		_, err := s.projects.FindByID(ctx, target.ID)
		return err
	default:
		_, err := s.tasks.FindByID(ctx, target.ID)
		return err
	}
}

func (s *allocationService) AllocateTo(ctx context.Context, employeeID int64, target models.AllocationTarget, pct float64, start, end time.Time) (*models.Allocation, error) {
	if err := planning.ValidateAllocationRange(pct, start, end); err != nil {
		return nil, err
	}
	if err := s.checkTarget(ctx, target); err != nil {
		return nil, err
	}

	var out *models.Allocation
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		// serializes concurrent bookings for the same employee
		if err := s.employees.LockForUpdate(ctx, employeeID); err != nil {
			return err
		}
		existing, err := s.employees.ListAllocationsBetween(ctx, employeeID, start, end)
		if err != nil {
			return err
		}
		if err := planning.CheckAllocation(existing, pct, start, end); err != nil {
			return err
		}
		a := &models.Allocation{
			EmployeeID:           employeeID,
			Target:               target,
			AllocationPercentage: pct,
			StartDate:            start,
			EndDate:              end,
		}
		if err := s.employees.StoreAllocation(ctx, a); err != nil {
			return err
		}
		out = a
		return nil
	})
	if errors.Is(err, apperr.ErrCapacityExceeded) {
		s.alertCapacity(ctx, employeeID, pct, start, end)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *allocationService) alertCapacity(ctx context.Context, employeeID int64, pct float64, start, end time.Time) {
	subject := fmt.Sprintf("Employee %d would exceed capacity", employeeID)
	body := fmt.Sprintf("A %.0f%% booking for %s..%s was rejected.", pct, start.Format("2006-01-02"), end.Format("2006-01-02"))
	if err := s.notifier.Notify(ctx, subject, body); err != nil {
		s.log.Warnw("[allocation][capacity] alert failed", "employee_id", employeeID, "err", err)
		return
	}
	s.log.Infow("[allocation][capacity] capacity alert sent", "employee_id", employeeID, "pct", pct)
}

func (s *allocationService) ListAllocations(ctx context.Context, employeeID int64) ([]models.Allocation, error) {
	if _, err := s.employees.FindByID(ctx, employeeID); err != nil {
		return nil, err
	}
	return s.employees.ListAllocations(ctx, employeeID)
}

func (s *allocationService) CapacityReport(ctx context.Context, employeeID int64, start, end time.Time) (*models.CapacityReport, error) {
	if start.IsZero() || end.IsZero() || end.Before(start) {
		return nil, apperr.InvalidInput("a valid [start, end] window is required")
	}
	if _, err := s.employees.FindByID(ctx, employeeID); err != nil {
		return nil, err
	}
	allocs, err := s.employees.ListAllocationsBetween(ctx, employeeID, start, end)
	if err != nil {
		return nil, err
	}
	report := planning.CapacityReport(employeeID, allocs, start, end)
	return &report, nil
}
