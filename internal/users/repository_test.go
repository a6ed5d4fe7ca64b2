package users

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userRowColumns = []string{"id", "email", "password_hash", "name", "phone", "role", "status", "created_at", "updated_at"}

func newMockRepo(t *testing.T) (Repository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRepository(sqlx.NewDb(db, "sqlmock")), mock
}

func TestRepository_Create(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("ana@example.com", "hash", "Ana", nil, "client", "active").
		WillReturnRows(sqlmock.NewRows(userRowColumns).
			AddRow(1, "ana@example.com", "hash", "Ana", nil, "client", "active", now, now))

	user, err := repo.Create(context.Background(), &User{
		Email: "ana@example.com", PasswordHash: "hash", Name: "Ana", Role: "client", Status: "active",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), user.ID)
	assert.Nil(t, user.Phone)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Create_DuplicateEmail(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`INSERT INTO users`).
		WillReturnError(&pq.Error{Code: "23505"})

	_, err := repo.Create(context.Background(), &User{Email: "ana@example.com"})
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestRepository_FindByID_NotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT .* FROM users WHERE id = \$1`).
		WithArgs(int64(9)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), 9)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestRepository_List_WithFilters(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectQuery(`SELECT .* FROM users WHERE role = \$1 AND status = \$2 ORDER BY created_at DESC`).
		WithArgs("franchisee", "pending").
		WillReturnRows(sqlmock.NewRows(userRowColumns).
			AddRow(2, "b@example.com", "h", "Bruno", "+5511", "franchisee", "pending", now, now))

	users, err := repo.List(context.Background(), ListFilter{Role: "franchisee", Status: "pending"})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "+5511", *users[0].Phone)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_UpdateStatus(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectQuery(`UPDATE users SET status = \$2`).
		WithArgs(int64(2), "active").
		WillReturnRows(sqlmock.NewRows(userRowColumns).
			AddRow(2, "b@example.com", "h", "Bruno", nil, "franchisee", "active", now, now))

	user, err := repo.UpdateStatus(context.Background(), 2, "active")
	require.NoError(t, err)
	assert.Equal(t, "active", user.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}
