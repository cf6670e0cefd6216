package repositories

import (
	"context"
	"database/sql"

	"projectcrm/internal/hierarchy"
	"projectcrm/internal/models"
)

type AccountRepository interface {
	Store(ctx context.Context, a *models.Account) error
	FindByID(ctx context.Context, id int64) (*models.Account, error)
	List(ctx context.Context, limit, offset int) ([]models.Account, error)
	ParentOf(ctx context.Context, id int64) (*int64, error)
	SetParent(ctx context.Context, id int64, parent *int64) error
	ParentChain(ctx context.Context, id int64) ([]hierarchy.Link, error)
}

type accountRepository struct {
	parentLinks
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) AccountRepository {
	return &accountRepository{
		parentLinks: parentLinks{db: db, table: "accounts", column: "parent_id", what: "account"},
		db:          db,
	}
}

func (r *accountRepository) Store(ctx context.Context, a *models.Account) error {
	const q = `
		INSERT INTO accounts (name, parent_id, owner_id, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING id, created_at, updated_at`
	if err := conn(ctx, r.db).QueryRowContext(ctx, q, a.Name, a.ParentID, a.OwnerID).
		Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return dbErr("store account", err)
	}
	return nil
}

func (r *accountRepository) FindByID(ctx context.Context, id int64) (*models.Account, error) {
	const q = `SELECT id, name, parent_id, owner_id, created_at, updated_at FROM accounts WHERE id = $1`
	a := &models.Account{}
	if err := conn(ctx, r.db).QueryRowContext(ctx, q, id).
		Scan(&a.ID, &a.Name, &a.ParentID, &a.OwnerID, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, notFoundOr("account", err)
	}
	return a, nil
}

func (r *accountRepository) List(ctx context.Context, limit, offset int) ([]models.Account, error) {
	const q = `
		SELECT id, name, parent_id, owner_id, created_at, updated_at
		FROM accounts ORDER BY id LIMIT $1 OFFSET $2`
	rows, err := conn(ctx, r.db).QueryContext(ctx, q, limit, offset)
	if err != nil {
		return nil, dbErr("list accounts", err)
	}
	defer rows.Close()

	var out []models.Account
	for rows.Next() {
		var a models.Account
		if err := rows.Scan(&a.ID, &a.Name, &a.ParentID, &a.OwnerID, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, dbErr("scan account", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
