package products

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"optical-franchise/internal/common/database"

	"github.com/jmoiron/sqlx"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrSKUExists       = errors.New("a product with this sku already exists")
	ErrProductInUse    = errors.New("product is referenced by inventory")
)

const productColumns = `id, sku, name, category, brand, description, price_cents, cost_cents, active, created_at, updated_at`

type Repository interface {
	Create(ctx context.Context, req CreateProductRequest) (*Product, error)
	FindByID(ctx context.Context, id int64) (*Product, error)
	List(ctx context.Context, filter ListFilter) ([]Product, error)
	Update(ctx context.Context, id int64, req UpdateProductRequest) (*Product, error)
	Delete(ctx context.Context, id int64) error
	Search(ctx context.Context, term string, limit int) ([]Product, error)
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, req CreateProductRequest) (*Product, error) {
	active := true
	if req.Active != nil {
		active = *req.Active
	}

	query := `
		INSERT INTO products (sku, name, category, brand, description, price_cents, cost_cents, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + productColumns

	var p Product
	err := r.db.GetContext(ctx, &p, query,
		req.SKU, req.Name, req.Category, req.Brand, req.Description, req.PriceCents, req.CostCents, active)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrSKUExists
		}
		return nil, err
	}
	return &p, nil
}

func (r *repository) FindByID(ctx context.Context, id int64) (*Product, error) {
	var p Product
	err := r.db.GetContext(ctx, &p, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Product, error) {
	f := database.NewFilter().AddIf(filter.Category != "", "category = ?", filter.Category)
	if filter.Active != nil {
		f.Add("active = ?", *filter.Active)
	}
	query := `SELECT ` + productColumns + ` FROM products` + f.Where() + ` ORDER BY name ASC`

	products := []Product{}
	if err := r.db.SelectContext(ctx, &products, query, f.Args()...); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *repository) Update(ctx context.Context, id int64, req UpdateProductRequest) (*Product, error) {
	query := `
		UPDATE products SET
			name = COALESCE($2, name),
			category = COALESCE($3, category),
			brand = COALESCE($4, brand),
			description = COALESCE($5, description),
			price_cents = COALESCE($6, price_cents),
			cost_cents = COALESCE($7, cost_cents),
			active = COALESCE($8, active),
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + productColumns

	var p Product
	err := r.db.GetContext(ctx, &p, query,
		id, req.Name, req.Category, req.Brand, req.Description, req.PriceCents, req.CostCents, req.Active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return ErrProductInUse
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrProductNotFound
	}
	return nil
}

// Search is the relational fallback used when no search index is configured.
func (r *repository) Search(ctx context.Context, term string, limit int) ([]Product, error) {
	pattern := "%" + escapeLike(term) + "%"
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE name ILIKE $1 OR brand ILIKE $1 OR category ILIKE $1 OR description ILIKE $1
		ORDER BY name ASC
		LIMIT $2`

	products := []Product{}
	if err := r.db.SelectContext(ctx, &products, query, pattern, limit); err != nil {
		return nil, err
	}
	return products, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
