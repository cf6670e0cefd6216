package repositories

import (
	"context"
	"database/sql"

	"projectcrm/internal/hierarchy"
	"projectcrm/internal/models"
)

type CompanyRepository interface {
	Store(ctx context.Context, c *models.Company) error
	FindByID(ctx context.Context, id int64) (*models.Company, error)
	ParentOf(ctx context.Context, id int64) (*int64, error)
	SetParent(ctx context.Context, id int64, parent *int64) error
	ParentChain(ctx context.Context, id int64) ([]hierarchy.Link, error)
}

type companyRepository struct {
	parentLinks
	db *sql.DB
}

func NewCompanyRepository(db *sql.DB) CompanyRepository {
	return &companyRepository{
		parentLinks: parentLinks{db: db, table: "companies", column: "parent_company_id", what: "company"},
		db:          db,
	}
}

func (r *companyRepository) Store(ctx context.Context, c *models.Company) error {
	const q = `
		INSERT INTO companies (name, parent_company_id, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		RETURNING id, created_at, updated_at`
	if err := conn(ctx, r.db).QueryRowContext(ctx, q, c.Name, c.ParentCompanyID).
		Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return dbErr("store company", err)
	}
	return nil
}

func (r *companyRepository) FindByID(ctx context.Context, id int64) (*models.Company, error) {
	const q = `SELECT id, name, parent_company_id, created_at, updated_at FROM companies WHERE id = $1`
	c := &models.Company{}
	if err := conn(ctx, r.db).QueryRowContext(ctx, q, id).
		Scan(&c.ID, &c.Name, &c.ParentCompanyID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, notFoundOr("company", err)
	}
	return c, nil
}
