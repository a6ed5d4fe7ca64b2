package products

import "time"

type Product struct {
	ID          int64     `db:"id" json:"id"`
	SKU         string    `db:"sku" json:"sku"`
	Name        string    `db:"name" json:"name"`
	Category    string    `db:"category" json:"category"`
	Brand       *string   `db:"brand" json:"brand,omitempty"`
	Description *string   `db:"description" json:"description,omitempty"`
	PriceCents  int64     `db:"price_cents" json:"priceCents"`
	CostCents   *int64    `db:"cost_cents" json:"costCents,omitempty"`
	Active      bool      `db:"active" json:"active"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

type CreateProductRequest struct {
	SKU         string  `json:"sku" binding:"required,max=64"`
	Name        string  `json:"name" binding:"required,max=255"`
	Category    string  `json:"category" binding:"required,max=64"`
	Brand       *string `json:"brand" binding:"omitempty,max=128"`
	Description *string `json:"description"`
	PriceCents  int64   `json:"priceCents" binding:"gte=0"`
	CostCents   *int64  `json:"costCents" binding:"omitempty,gte=0"`
	Active      *bool   `json:"active"`
}

type UpdateProductRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=255"`
	Category    *string `json:"category" binding:"omitempty,min=1,max=64"`
	Brand       *string `json:"brand" binding:"omitempty,max=128"`
	Description *string `json:"description"`
	PriceCents  *int64  `json:"priceCents" binding:"omitempty,gte=0"`
	CostCents   *int64  `json:"costCents" binding:"omitempty,gte=0"`
	Active      *bool   `json:"active"`
}

type ListFilter struct {
	Category string
	Active   *bool
}

// SearchResult is returned by GET /api/products/search. Source names the
// backend that answered ("elasticsearch" or "postgres").
type SearchResult struct {
	Products []Product `json:"products"`
	Total    int64     `json:"total"`
	Source   string    `json:"source"`
}
