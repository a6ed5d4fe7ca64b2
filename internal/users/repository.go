package users

import (
	"context"
	"database/sql"
	"errors"

	"optical-franchise/internal/common/database"

	"github.com/jmoiron/sqlx"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailExists  = errors.New("email already exists")
)

const userColumns = `id, email, password_hash, name, phone, role, status, created_at, updated_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, u *User) (*User, error) {
	query := `
		INSERT INTO users (email, password_hash, name, phone, role, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + userColumns

	var created User
	err := r.db.GetContext(ctx, &created, query, u.Email, u.PasswordHash, u.Name, u.Phone, u.Role, u.Status)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrEmailExists
		}
		return nil, err
	}
	return &created, nil
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`

	var u User
	if err := r.db.GetContext(ctx, &u, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *repository) FindByID(ctx context.Context, id int64) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var u User
	if err := r.db.GetContext(ctx, &u, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]User, error) {
	f := database.NewFilter().
		AddIf(filter.Role != "", "role = ?", filter.Role).
		AddIf(filter.Status != "", "status = ?", filter.Status)

	query := `SELECT ` + userColumns + ` FROM users` + f.Where() + ` ORDER BY created_at DESC`

	users := []User{}
	if err := r.db.SelectContext(ctx, &users, query, f.Args()...); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id int64, status string) (*User, error) {
	query := `
		UPDATE users SET status = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns

	var u User
	if err := r.db.GetContext(ctx, &u, query, id, status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}
