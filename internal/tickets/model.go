package tickets

import (
	"time"

	"optical-franchise/internal/api"
)

const (
	StatusOpen       = "open"
	StatusInProgress = "in_progress"
	StatusResolved   = "resolved"
	StatusClosed     = "closed"
)

var lifecycle = api.Lifecycle{
	StatusOpen:       {StatusInProgress, StatusClosed},
	StatusInProgress: {StatusResolved, StatusClosed},
	StatusResolved:   {StatusClosed},
}

type Ticket struct {
	ID          int64     `db:"id" json:"id"`
	UserID      int64     `db:"user_id" json:"userId"`
	Subject     string    `db:"subject" json:"subject"`
	Description string    `db:"description" json:"description"`
	Category    string    `db:"category" json:"category"`
	Priority    string    `db:"priority" json:"priority"`
	Status      string    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

type CreateTicketRequest struct {
	Subject     string `json:"subject" binding:"required,max=255"`
	Description string `json:"description" binding:"required"`
	Category    string `json:"category" binding:"omitempty,oneof=technical billing appointment measurement other"`
	Priority    string `json:"priority" binding:"omitempty,oneof=low medium high urgent"`
}

type UpdateTicketRequest struct {
	Status   *string `json:"status" binding:"omitempty,oneof=open in_progress resolved closed"`
	Priority *string `json:"priority" binding:"omitempty,oneof=low medium high urgent"`
	Category *string `json:"category" binding:"omitempty,oneof=technical billing appointment measurement other"`
}

type ListFilter struct {
	UserID *int64
	Status string
}
