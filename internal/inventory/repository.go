package inventory

import (
	"context"
	"database/sql"
	"errors"

	"optical-franchise/internal/common/database"

	"github.com/jmoiron/sqlx"
)

var (
	ErrItemNotFound      = errors.New("inventory item not found")
	ErrInvalidReference  = errors.New("product or franchise does not exist")
	ErrInvalidThresholds = errors.New("stock thresholds violate inventory constraints")
	ErrQuantityRange     = errors.New("quantity is out of range")
)

const itemColumns = `i.id, i.product_id, i.franchise_id, i.quantity, i.min_stock, i.max_stock,
	i.created_at, i.updated_at, p.name AS product_name, p.sku AS product_sku, f.owner_id AS franchise_owner_id`

const itemJoins = ` JOIN products p ON p.id = i.product_id JOIN franchises f ON f.id = i.franchise_id`

type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]Item, error)
	FindByID(ctx context.Context, id int64) (*Item, error)
	Upsert(ctx context.Context, req UpsertRequest) (*Item, error)
	Update(ctx context.Context, id int64, req UpdateRequest) (*Item, error)
	Adjust(ctx context.Context, id int64, delta int) (*Item, error)
	IsFranchiseOwner(ctx context.Context, franchiseID, userID int64) (bool, error)
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Item, error) {
	f := database.NewFilter()
	if filter.FranchiseID != nil {
		f.Add("i.franchise_id = ?", *filter.FranchiseID)
	}
	if filter.OwnerID != nil {
		f.Add("f.owner_id = ?", *filter.OwnerID)
	}

	f.Cond(filter.LowStock, "i.quantity <= i.min_stock")

	query := `SELECT ` + itemColumns + ` FROM inventory i` + itemJoins + f.Where() + ` ORDER BY p.name ASC`

	items := []Item{}
	if err := r.db.SelectContext(ctx, &items, query, f.Args()...); err != nil {
		return nil, err
	}
	for i := range items {
		items[i].classify()
	}
	return items, nil
}

func (r *repository) FindByID(ctx context.Context, id int64) (*Item, error) {
	var item Item
	err := r.db.GetContext(ctx, &item, `SELECT `+itemColumns+` FROM inventory i`+itemJoins+` WHERE i.id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}
	item.classify()
	return &item, nil
}

func (r *repository) Upsert(ctx context.Context, req UpsertRequest) (*Item, error) {
	query := `
		WITH i AS (
			INSERT INTO inventory (product_id, franchise_id, quantity, min_stock, max_stock)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (product_id, franchise_id) DO UPDATE SET
				quantity = EXCLUDED.quantity,
				min_stock = EXCLUDED.min_stock,
				max_stock = EXCLUDED.max_stock,
				updated_at = NOW()
			RETURNING *
		)
		SELECT ` + itemColumns + ` FROM i` + itemJoins

	var item Item
	err := r.db.GetContext(ctx, &item, query, req.ProductID, req.FranchiseID, req.Quantity, req.MinStock, req.MaxStock)
	if err != nil {
		if database.IsForeignKeyViolation(err) || errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidReference
		}
		if database.IsCheckViolation(err) {
			return nil, ErrInvalidThresholds
		}
		return nil, err
	}
	item.classify()
	return &item, nil
}

func (r *repository) Update(ctx context.Context, id int64, req UpdateRequest) (*Item, error) {
	query := `
		WITH i AS (
			UPDATE inventory SET
				quantity = COALESCE($2, quantity),
				min_stock = COALESCE($3, min_stock),
				max_stock = COALESCE($4, max_stock),
				updated_at = NOW()
			WHERE id = $1
			RETURNING *
		)
		SELECT ` + itemColumns + ` FROM i` + itemJoins

	return r.returning(ctx, query, id, req.Quantity, req.MinStock, req.MaxStock)
}

// Adjust applies a relative change in a single statement so concurrent
// adjustments do not overwrite each other.
func (r *repository) Adjust(ctx context.Context, id int64, delta int) (*Item, error) {
	query := `
		WITH i AS (
			UPDATE inventory SET quantity = quantity + $2, updated_at = NOW()
			WHERE id = $1
			RETURNING *
		)
		SELECT ` + itemColumns + ` FROM i` + itemJoins

	return r.returning(ctx, query, id, delta)
}

func (r *repository) IsFranchiseOwner(ctx context.Context, franchiseID, userID int64) (bool, error) {
	var owned bool
	err := r.db.GetContext(ctx, &owned,
		`SELECT EXISTS(SELECT 1 FROM franchises WHERE id = $1 AND owner_id = $2)`, franchiseID, userID)
	return owned, err
}

func (r *repository) returning(ctx context.Context, query string, args ...interface{}) (*Item, error) {
	var item Item
	if err := r.db.GetContext(ctx, &item, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		if database.IsCheckViolation(err) {
			return nil, ErrInvalidThresholds
		}
		if database.IsNumericOutOfRange(err) {
			return nil, ErrQuantityRange
		}
		return nil, err
	}
	item.classify()
	return &item, nil
}
