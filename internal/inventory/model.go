package inventory

import "time"

const (
	StockLow  = "low"
	StockOK   = "ok"
	StockOver = "over"
)

// Item is one product's stock at one franchise. Thresholds are advisory:
// quantities outside them are stored as given and reported via StockLevel.
type Item struct {
	ID          int64     `db:"id" json:"id"`
	ProductID   int64     `db:"product_id" json:"productId"`
	FranchiseID int64     `db:"franchise_id" json:"franchiseId"`
	Quantity    int       `db:"quantity" json:"quantity"`
	MinStock    int       `db:"min_stock" json:"minStock"`
	MaxStock    *int      `db:"max_stock" json:"maxStock,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`

	ProductName      string `db:"product_name" json:"productName"`
	ProductSKU       string `db:"product_sku" json:"productSku"`
	FranchiseOwnerID int64  `db:"franchise_owner_id" json:"-"`
	StockLevel       string `db:"-" json:"stockLevel"`
}

// stockLevel classifies quantity against the thresholds. Reaching the
// minimum already counts as low.
func stockLevel(quantity, minStock int, maxStock *int) string {
	switch {
	case quantity <= minStock:
		return StockLow
	case maxStock != nil && quantity > *maxStock:
		return StockOver
	default:
		return StockOK
	}
}

func (i *Item) classify() {
	i.StockLevel = stockLevel(i.Quantity, i.MinStock, i.MaxStock)
}

// Quantities and deltas are capped at one million units per request.
type UpsertRequest struct {
	ProductID   int64 `json:"productId" binding:"required,gt=0"`
	FranchiseID int64 `json:"franchiseId" binding:"required,gt=0"`
	Quantity    int   `json:"quantity" binding:"min=-1000000,max=1000000"`
	MinStock    int   `json:"minStock" binding:"gte=0,max=1000000"`
	MaxStock    *int  `json:"maxStock" binding:"omitempty,gte=0,max=1000000"`
}

type UpdateRequest struct {
	Quantity *int `json:"quantity" binding:"omitempty,min=-1000000,max=1000000"`
	MinStock *int `json:"minStock" binding:"omitempty,gte=0,max=1000000"`
	MaxStock *int `json:"maxStock" binding:"omitempty,gte=0,max=1000000"`
}

type AdjustRequest struct {
	Delta  int    `json:"delta" binding:"required,min=-1000000,max=1000000"`
	Reason string `json:"reason" binding:"omitempty,max=255"`
}

type ListFilter struct {
	FranchiseID *int64
	OwnerID     *int64
	LowStock    bool
}
