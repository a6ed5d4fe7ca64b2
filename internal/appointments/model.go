package appointments

import (
	"time"

	"optical-franchise/internal/api"
)

const (
	StatusScheduled = "scheduled"
	StatusConfirmed = "confirmed"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusNoShow    = "no_show"
)

var lifecycle = api.Lifecycle{
	StatusScheduled: {StatusConfirmed, StatusCancelled, StatusNoShow, StatusCompleted},
	StatusConfirmed: {StatusCompleted, StatusCancelled, StatusNoShow},
}

type Appointment struct {
	ID          int64     `db:"id" json:"id"`
	UserID      int64     `db:"user_id" json:"userId"`
	FranchiseID *int64    `db:"franchise_id" json:"franchiseId,omitempty"`
	ScheduledAt time.Time `db:"scheduled_at" json:"scheduledAt"`
	ServiceType string    `db:"service_type" json:"serviceType"`
	Status      string    `db:"status" json:"status"`
	Notes       *string   `db:"notes" json:"notes,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`

	FranchiseOwnerID *int64 `db:"franchise_owner_id" json:"-"`
}

type CreateAppointmentRequest struct {
	FranchiseID *int64    `json:"franchiseId" binding:"omitempty,gt=0"`
	ScheduledAt time.Time `json:"scheduledAt" binding:"required"`
	ServiceType string    `json:"serviceType" binding:"required,max=64"`
	Notes       *string   `json:"notes"`
	// UserID books on behalf of a client; staff only.
	UserID *int64 `json:"userId" binding:"omitempty,gt=0"`
}

type UpdateAppointmentRequest struct {
	ScheduledAt *time.Time `json:"scheduledAt"`
	Notes       *string    `json:"notes"`
	Status      *string    `json:"status" binding:"omitempty,oneof=scheduled confirmed completed cancelled no_show"`
}

type ListFilter struct {
	UserID         *int64
	FranchiseOwner *int64
	Status         string
}

type Contact struct {
	Name  string  `db:"name"`
	Email string  `db:"email"`
	Phone *string `db:"phone"`
}
