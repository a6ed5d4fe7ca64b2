package franchises

import "context"

type Repository interface {
	Create(ctx context.Context, ownerID int64, req CreateFranchiseRequest) (*Franchise, error)
	FindByID(ctx context.Context, id int64) (*Franchise, error)
	List(ctx context.Context, filter ListFilter) ([]Franchise, error)
	Update(ctx context.Context, id int64, req UpdateFranchiseRequest) (*Franchise, error)
	// UpdateStatus moves a franchise from one status to another and returns
	// ErrStatusChanged when the row is no longer in from.
	UpdateStatus(ctx context.Context, id int64, from, to string) (*Franchise, error)
	OwnerContact(ctx context.Context, id int64) (*OwnerContact, error)
	IsOwner(ctx context.Context, franchiseID, userID int64) (bool, error)
}
