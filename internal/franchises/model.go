package franchises

import (
	"time"

	"optical-franchise/internal/api"
)

const (
	StatusPending  = "pending"
	StatusActive   = "active"
	StatusRejected = "rejected"
)

// Decisions only leave pending. Repeating a decision is a no-op.
var lifecycle = api.Lifecycle{
	StatusPending: {StatusActive, StatusRejected},
}

type Franchise struct {
	ID        int64     `db:"id" json:"id"`
	OwnerID   int64     `db:"owner_id" json:"ownerId"`
	Name      string    `db:"name" json:"name"`
	CNPJ      *string   `db:"cnpj" json:"cnpj,omitempty"`
	Address   *string   `db:"address" json:"address,omitempty"`
	City      string    `db:"city" json:"city"`
	State     string    `db:"state" json:"state"`
	Phone     *string   `db:"phone" json:"phone,omitempty"`
	Email     *string   `db:"email" json:"email,omitempty"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

type CreateFranchiseRequest struct {
	Name    string  `json:"name" binding:"required"`
	CNPJ    *string `json:"cnpj"`
	Address *string `json:"address"`
	City    string  `json:"city" binding:"required"`
	State   string  `json:"state" binding:"required,len=2"`
	Phone   *string `json:"phone"`
	Email   *string `json:"email" binding:"omitempty,email"`
	// OwnerID is honored for admins only; franchisees always own what they create.
	OwnerID *int64 `json:"ownerId"`
}

type UpdateFranchiseRequest struct {
	Name    *string `json:"name" binding:"omitempty,min=1"`
	CNPJ    *string `json:"cnpj"`
	Address *string `json:"address"`
	City    *string `json:"city" binding:"omitempty,min=1"`
	State   *string `json:"state" binding:"omitempty,len=2"`
	Phone   *string `json:"phone"`
	Email   *string `json:"email" binding:"omitempty,email"`
}

type ListFilter struct {
	OwnerID *int64
	Status  string
}

type OwnerContact struct {
	Email string  `db:"email"`
	Name  string  `db:"name"`
	Phone *string `db:"phone"`
}
