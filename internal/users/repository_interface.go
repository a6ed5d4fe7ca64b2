package users

import "context"

type Repository interface {
	Create(ctx context.Context, u *User) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id int64) (*User, error)
	List(ctx context.Context, filter ListFilter) ([]User, error)
	UpdateStatus(ctx context.Context, id int64, status string) (*User, error)
}
