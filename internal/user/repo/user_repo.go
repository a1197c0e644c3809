package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ovaphlow/pitchfork/service-auth-go/internal/user/entity"
)

// UserRepo provides data access for users table using sqlx.
type UserRepo struct {
	db *sqlx.DB
}

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{db: db} }

// EnsureTable creates the users table if not exists (idempotent).
// This is a convenience for early development; prefer migrations in production.
func (r *UserRepo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  username VARCHAR(64) NOT NULL UNIQUE,
  email VARCHAR(64) NOT NULL UNIQUE,
  full_name VARCHAR(64),
  password_hash VARCHAR(256) NOT NULL,
  disabled BOOLEAN NOT NULL DEFAULT false,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);
`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

const selectUser = `SELECT id, username, email, full_name, password_hash, disabled, created_at, updated_at FROM users`

// Create inserts a new user row. A unique violation maps to entity.ErrDuplicate.
func (r *UserRepo) Create(ctx context.Context, u *entity.User) error {
	const q = `INSERT INTO users (id, username, email, full_name, password_hash, disabled, created_at, updated_at)
		VALUES (:id, :username, :email, :full_name, :password_hash, :disabled, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, q, u); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return entity.ErrDuplicate
		}
		return err
	}
	return nil
}

// FindByUsername fetches by username or returns entity.ErrNotFound.
func (r *UserRepo) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	return r.get(ctx, selectUser+` WHERE username=$1`, username)
}

// FindByEmail fetches by email or returns entity.ErrNotFound.
func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.get(ctx, selectUser+` WHERE email=$1`, email)
}

// Deactivate marks a user as disabled.
func (r *UserRepo) Deactivate(ctx context.Context, username string) error {
	const q = `UPDATE users SET disabled=true, updated_at=NOW() WHERE username=$1`
	res, err := r.db.ExecContext(ctx, q, username)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return entity.ErrNotFound
	}
	return nil
}

func (r *UserRepo) get(ctx context.Context, q string, arg any) (*entity.User, error) {
	var row entity.User
	if err := r.db.GetContext(ctx, &row, q, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entity.ErrNotFound
		}
		return nil, err
	}
	return &row, nil
}
