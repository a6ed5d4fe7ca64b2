package franchises

import (
	"context"
	"database/sql"
	"errors"

	"optical-franchise/internal/common/database"

	"github.com/jmoiron/sqlx"
)

var (
	ErrFranchiseNotFound = errors.New("franchise not found")
	ErrStatusChanged     = errors.New("franchise status changed concurrently")
	ErrOwnerNotFound     = errors.New("owner does not exist")
)

const franchiseColumns = `id, owner_id, name, cnpj, address, city, state, phone, email, status, created_at, updated_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, ownerID int64, req CreateFranchiseRequest) (*Franchise, error) {
	query := `
		INSERT INTO franchises (owner_id, name, cnpj, address, city, state, phone, email, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'pending')
		RETURNING ` + franchiseColumns

	var f Franchise
	err := r.db.GetContext(ctx, &f, query,
		ownerID, req.Name, req.CNPJ, req.Address, req.City, req.State, req.Phone, req.Email)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return nil, ErrOwnerNotFound
		}
		return nil, err
	}
	return &f, nil
}

func (r *repository) FindByID(ctx context.Context, id int64) (*Franchise, error) {
	query := `SELECT ` + franchiseColumns + ` FROM franchises WHERE id = $1`

	var f Franchise
	if err := r.db.GetContext(ctx, &f, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFranchiseNotFound
		}
		return nil, err
	}
	return &f, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Franchise, error) {
	f := database.NewFilter().
		AddIf(filter.OwnerID != nil, "owner_id = ?", derefID(filter.OwnerID)).
		AddIf(filter.Status != "", "status = ?", filter.Status)

	query := `SELECT ` + franchiseColumns + ` FROM franchises` + f.Where() + ` ORDER BY created_at DESC`

	franchises := []Franchise{}
	if err := r.db.SelectContext(ctx, &franchises, query, f.Args()...); err != nil {
		return nil, err
	}
	return franchises, nil
}

func (r *repository) Update(ctx context.Context, id int64, req UpdateFranchiseRequest) (*Franchise, error) {
	query := `
		UPDATE franchises SET
			name = COALESCE($2, name),
			cnpj = COALESCE($3, cnpj),
			address = COALESCE($4, address),
			city = COALESCE($5, city),
			state = COALESCE($6, state),
			phone = COALESCE($7, phone),
			email = COALESCE($8, email),
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + franchiseColumns

	var f Franchise
	err := r.db.GetContext(ctx, &f, query,
		id, req.Name, req.CNPJ, req.Address, req.City, req.State, req.Phone, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFranchiseNotFound
		}
		return nil, err
	}
	return &f, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id int64, from, to string) (*Franchise, error) {
	query := `
		UPDATE franchises SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING ` + franchiseColumns

	var f Franchise
	if err := r.db.GetContext(ctx, &f, query, id, from, to); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStatusChanged
		}
		return nil, err
	}
	return &f, nil
}

func (r *repository) OwnerContact(ctx context.Context, id int64) (*OwnerContact, error) {
	query := `
		SELECT u.email, u.name, u.phone
		FROM franchises f
		JOIN users u ON u.id = f.owner_id
		WHERE f.id = $1`

	var contact OwnerContact
	if err := r.db.GetContext(ctx, &contact, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFranchiseNotFound
		}
		return nil, err
	}
	return &contact, nil
}

func (r *repository) IsOwner(ctx context.Context, franchiseID, userID int64) (bool, error) {
	var owned bool
	err := r.db.GetContext(ctx, &owned,
		`SELECT EXISTS (SELECT 1 FROM franchises WHERE id = $1 AND owner_id = $2)`, franchiseID, userID)
	return owned, err
}

func derefID(id *int64) int64 {
	if id == nil {
		return 0
	}
	return *id
}
