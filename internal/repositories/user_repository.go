package repositories

import (
	"context"
	"database/sql"
	"strings"

	"github.com/lib/pq"

	"projectcrm/internal/apperr"
	"projectcrm/internal/models"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	NamesByIDs(ctx context.Context, ids []int64) (map[int64]string, error)
	// LockForUpdate holds the user row until the surrounding transaction ends.
	LockForUpdate(ctx context.Context, id int64) error
}

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	const q = `
		INSERT INTO users (full_name, email, password_hash, role_id, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id, created_at`
	err := conn(ctx, r.db).QueryRowContext(ctx, q,
		user.FullName, strings.ToLower(user.Email), user.PasswordHash, user.RoleID,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if asPQ(err, &pqErr) && pqErr.Code == "23505" {
			return apperr.New(apperr.CodeConflict, "email already registered")
		}
		return dbErr("create user", err)
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	const q = `SELECT id, full_name, email, password_hash, role_id, created_at FROM users WHERE id = $1`
	u := &models.User{}
	if err := conn(ctx, r.db).QueryRowContext(ctx, q, id).
		Scan(&u.ID, &u.FullName, &u.Email, &u.PasswordHash, &u.RoleID, &u.CreatedAt); err != nil {
		return nil, notFoundOr("user", err)
	}
	return u, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	const q = `SELECT id, full_name, email, password_hash, role_id, created_at FROM users WHERE email = $1`
	u := &models.User{}
	if err := conn(ctx, r.db).QueryRowContext(ctx, q, strings.ToLower(email)).
		Scan(&u.ID, &u.FullName, &u.Email, &u.PasswordHash, &u.RoleID, &u.CreatedAt); err != nil {
		return nil, notFoundOr("user", err)
	}
	return u, nil
}

func (r *userRepository) NamesByIDs(ctx context.Context, ids []int64) (map[int64]string, error) {
	out := make(map[int64]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := conn(ctx, r.db).QueryContext(ctx,
		`SELECT id, full_name FROM users WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, dbErr("load user names", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, dbErr("scan user name", err)
		}
		out[id] = name
	}
	return out, rows.Err()
}

func (r *userRepository) LockForUpdate(ctx context.Context, id int64) error {
	var locked int64
	if err := conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT id FROM users WHERE id = $1 FOR UPDATE`, id).Scan(&locked); err != nil {
		return notFoundOr("user", err)
	}
	return nil
}
