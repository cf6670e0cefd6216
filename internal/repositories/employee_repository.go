package repositories

import (
	"context"
	"database/sql"
	"time"

	"projectcrm/internal/models"
)

type EmployeeRepository interface {
	Store(ctx context.Context, e *models.Employee) error
	FindByID(ctx context.Context, id int64) (*models.Employee, error)
	// LockForUpdate holds the employee row until the surrounding transaction ends.
	LockForUpdate(ctx context.Context, id int64) error

	StoreAllocation(ctx context.Context, a *models.Allocation) error
	ListAllocations(ctx context.Context, employeeID int64) ([]models.Allocation, error)
	ListAllocationsBetween(ctx context.Context, employeeID int64, start, end time.Time) ([]models.Allocation, error)
}

type employeeRepository struct {
	db *sql.DB
}

func NewEmployeeRepository(db *sql.DB) EmployeeRepository {
	return &employeeRepository{db: db}
}

func (r *employeeRepository) Store(ctx context.Context, e *models.Employee) error {
	const q = `
		INSERT INTO employees (user_id, full_name, email, capacity_hours_per_week, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id, created_at`
	if err := conn(ctx, r.db).QueryRowContext(ctx, q, e.UserID, e.FullName, e.Email, e.CapacityHoursPerWeek).
		Scan(&e.ID, &e.CreatedAt); err != nil {
		return dbErr("store employee", err)
	}
	return nil
}

func (r *employeeRepository) FindByID(ctx context.Context, id int64) (*models.Employee, error) {
	const q = `
		SELECT id, user_id, full_name, email, capacity_hours_per_week, created_at
		FROM employees WHERE id = $1`
	e := &models.Employee{}
	if err := conn(ctx, r.db).QueryRowContext(ctx, q, id).
		Scan(&e.ID, &e.UserID, &e.FullName, &e.Email, &e.CapacityHoursPerWeek, &e.CreatedAt); err != nil {
		return nil, notFoundOr("employee", err)
	}
	return e, nil
}

func (r *employeeRepository) LockForUpdate(ctx context.Context, id int64) error {
	var locked int64
	if err := conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT id FROM employees WHERE id = $1 FOR UPDATE`, id).Scan(&locked); err != nil {
		return notFoundOr("employee", err)
	}
	return nil
}

func (r *employeeRepository) StoreAllocation(ctx context.Context, a *models.Allocation) error {
	const q = `
		INSERT INTO allocations (
			employee_id, allocatable_type, allocatable_id, allocation_percentage, start_date, end_date, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING id, created_at`
	if err := conn(ctx, r.db).QueryRowContext(ctx, q,
		a.EmployeeID, a.Target.Kind, a.Target.ID, a.AllocationPercentage, a.StartDate, a.EndDate,
	).Scan(&a.ID, &a.CreatedAt); err != nil {
		return dbErr("store allocation", err)
	}
	return nil
}

const allocationColumns = `id, employee_id, allocatable_type, allocatable_id, allocation_percentage,
       start_date, end_date, created_at`

func (r *employeeRepository) ListAllocations(ctx context.Context, employeeID int64) ([]models.Allocation, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx,
		`SELECT `+allocationColumns+` FROM allocations WHERE employee_id = $1 ORDER BY start_date, id`, employeeID)
	if err != nil {
		return nil, dbErr("list allocations", err)
	}
	return scanAllocations(rows)
}

// ListAllocationsBetween returns allocations overlapping [start, end], endpoints included.
func (r *employeeRepository) ListAllocationsBetween(ctx context.Context, employeeID int64, start, end time.Time) ([]models.Allocation, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx, `
		SELECT `+allocationColumns+`
		FROM allocations
		WHERE employee_id = $1 AND start_date <= $3 AND end_date >= $2
		ORDER BY start_date, id`, employeeID, start, end)
	if err != nil {
		return nil, dbErr("list allocations", err)
	}
	return scanAllocations(rows)
}

func scanAllocations(rows *sql.Rows) ([]models.Allocation, error) {
	defer rows.Close()
	var out []models.Allocation
	for rows.Next() {
		var a models.Allocation
		if err := rows.Scan(
			&a.ID, &a.EmployeeID, &a.Target.Kind, &a.Target.ID, &a.AllocationPercentage,
			&a.StartDate, &a.EndDate, &a.CreatedAt,
		); err != nil {
			return nil, dbErr("scan allocation", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
