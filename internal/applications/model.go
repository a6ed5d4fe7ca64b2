package applications

import (
	"time"

	"optical-franchise/internal/api"
)

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

var lifecycle = api.Lifecycle{
	StatusPending: {StatusApproved, StatusRejected},
}

// Application is a prospective franchisee's intake form.
type Application struct {
	ID                      int64      `db:"id" json:"id"`
	ApplicantName           string     `db:"applicant_name" json:"applicantName"`
	Email                   string     `db:"email" json:"email"`
	Phone                   *string    `db:"phone" json:"phone,omitempty"`
	City                    string     `db:"city" json:"city"`
	State                   string     `db:"state" json:"state"`
	InvestmentCapacityCents *int64     `db:"investment_capacity_cents" json:"investmentCapacityCents,omitempty"`
	Experience              *string    `db:"experience" json:"experience,omitempty"`
	Message                 *string    `db:"message" json:"message,omitempty"`
	Status                  string     `db:"status" json:"status"`
	ReviewedBy              *int64     `db:"reviewed_by" json:"reviewedBy,omitempty"`
	ReviewedAt              *time.Time `db:"reviewed_at" json:"reviewedAt,omitempty"`
	ReviewNotes             *string    `db:"review_notes" json:"reviewNotes,omitempty"`
	CreatedAt               time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt               time.Time  `db:"updated_at" json:"updatedAt"`
}

type CreateApplicationRequest struct {
	ApplicantName           string  `json:"applicantName" binding:"required,max=255"`
	Email                   string  `json:"email" binding:"required,email,max=255"`
	Phone                   *string `json:"phone" binding:"omitempty,max=32"`
	City                    string  `json:"city" binding:"required,max=128"`
	State                   string  `json:"state" binding:"required,len=2"`
	InvestmentCapacityCents *int64  `json:"investmentCapacityCents" binding:"omitempty,gte=0"`
	Experience              *string `json:"experience"`
	Message                 *string `json:"message"`
}

type DecisionRequest struct {
	Notes *string `json:"notes" binding:"omitempty,max=2000"`
}

// Decision is the review applied to a pending application.
type Decision struct {
	Status     string
	ReviewerID int64
	Notes      *string
}
