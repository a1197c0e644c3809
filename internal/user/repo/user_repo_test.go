package repo

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/pitchfork/service-auth-go/internal/user/entity"
)

var userColumns = []string{"id", "username", "email", "full_name", "password_hash", "disabled", "created_at", "updated_at"}

func newMockRepo(t *testing.T) (*UserRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewUserRepo(sqlx.NewDb(db, "postgres")), mock
}

func TestUserRepoFindByUsername(t *testing.T) {
	r, mock := newMockRepo(t)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(selectUser + ` WHERE username=$1`)).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow("1", "alice", "alice@example.com", "Alice", "$2a$04$hash", true, now, now))

	u, err := r.FindByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "1", u.ID)
	assert.Equal(t, "alice@example.com", u.Email)
	require.NotNil(t, u.FullName)
	assert.Equal(t, "Alice", *u.FullName)
	assert.True(t, u.Disabled)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepoFindByEmailNotFound(t *testing.T) {
	r, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(selectUser + ` WHERE email=$1`)).
		WithArgs("ghost@example.com").
		WillReturnError(sql.ErrNoRows)

	_, err := r.FindByEmail(context.Background(), "ghost@example.com")
	assert.ErrorIs(t, err, entity.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepoCreate(t *testing.T) {
	r, mock := newMockRepo(t)
	now := time.Now().UTC()
	u := &entity.User{ID: "42", Username: "bob", Email: "bob@example.com", PasswordHash: "h", CreatedAt: now, UpdatedAt: now}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs("42", "bob", "bob@example.com", sqlmock.AnyArg(), "h", false, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, r.Create(context.Background(), u))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepoCreateDuplicate(t *testing.T) {
	r, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})

	err := r.Create(context.Background(), &entity.User{ID: "1", Username: "bob"})
	assert.ErrorIs(t, err, entity.ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepoDeactivate(t *testing.T) {
	r, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET disabled=true")).
		WithArgs("alice").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET disabled=true")).
		WithArgs("ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, r.Deactivate(context.Background(), "alice"))
	assert.ErrorIs(t, r.Deactivate(context.Background(), "ghost"), entity.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepoEnsureTable(t *testing.T) {
	r, mock := newMockRepo(t)
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS users")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, r.EnsureTable(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
