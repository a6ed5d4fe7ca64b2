package appointments

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"optical-franchise/internal/common/database"

	"github.com/jmoiron/sqlx"
)

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrFranchiseNotFound   = errors.New("franchise not found")
	ErrStatusChanged       = errors.New("appointment changed concurrently")
	ErrInvalidReference    = errors.New("user or franchise does not exist")
)

const appointmentColumns = `a.id, a.user_id, a.franchise_id, a.scheduled_at, a.service_type, a.status, a.notes, a.created_at, a.updated_at, f.owner_id AS franchise_owner_id`

type Repository interface {
	Create(ctx context.Context, userID int64, req CreateAppointmentRequest) (*Appointment, error)
	FindByID(ctx context.Context, id int64) (*Appointment, error)
	List(ctx context.Context, filter ListFilter) ([]Appointment, error)
	// Update applies the change only if the row is still in expectedStatus.
	Update(ctx context.Context, id int64, expectedStatus string, scheduledAt *time.Time, notes, status *string) (*Appointment, error)
	FranchiseStatus(ctx context.Context, franchiseID int64) (string, error)
	UserContact(ctx context.Context, userID int64) (*Contact, error)
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, userID int64, req CreateAppointmentRequest) (*Appointment, error) {
	query := `
		WITH a AS (
			INSERT INTO appointments (user_id, franchise_id, scheduled_at, service_type, notes, status)
			VALUES ($1, $2, $3, $4, $5, 'scheduled')
			RETURNING *
		)
		SELECT ` + appointmentColumns + `
		FROM a LEFT JOIN franchises f ON f.id = a.franchise_id`

	var a Appointment
	err := r.db.GetContext(ctx, &a, query, userID, req.FranchiseID, req.ScheduledAt, req.ServiceType, req.Notes)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return nil, ErrInvalidReference
		}
		return nil, err
	}
	return &a, nil
}

func (r *repository) FindByID(ctx context.Context, id int64) (*Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments a LEFT JOIN franchises f ON f.id = a.franchise_id
		WHERE a.id = $1`

	var a Appointment
	if err := r.db.GetContext(ctx, &a, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Appointment, error) {
	f := database.NewFilter().
		AddIf(filter.UserID != nil, "a.user_id = ?", deref(filter.UserID)).
		AddIf(filter.FranchiseOwner != nil, "f.owner_id = ?", deref(filter.FranchiseOwner)).
		AddIf(filter.Status != "", "a.status = ?", filter.Status)

	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments a LEFT JOIN franchises f ON f.id = a.franchise_id` +
		f.Where() + ` ORDER BY a.scheduled_at ASC`

	appointments := []Appointment{}
	if err := r.db.SelectContext(ctx, &appointments, query, f.Args()...); err != nil {
		return nil, err
	}
	return appointments, nil
}

func (r *repository) Update(ctx context.Context, id int64, expectedStatus string, scheduledAt *time.Time, notes, status *string) (*Appointment, error) {
	query := `
		WITH a AS (
			UPDATE appointments SET
				scheduled_at = COALESCE($3, scheduled_at),
				notes = COALESCE($4, notes),
				status = COALESCE($5, status),
				updated_at = NOW()
			WHERE id = $1 AND status = $2
			RETURNING *
		)
		SELECT ` + appointmentColumns + `
		FROM a LEFT JOIN franchises f ON f.id = a.franchise_id`

	var a Appointment
	if err := r.db.GetContext(ctx, &a, query, id, expectedStatus, scheduledAt, notes, status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStatusChanged
		}
		return nil, err
	}
	return &a, nil
}

func (r *repository) FranchiseStatus(ctx context.Context, franchiseID int64) (string, error) {
	var status string
	err := r.db.GetContext(ctx, &status, `SELECT status FROM franchises WHERE id = $1`, franchiseID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrFranchiseNotFound
	}
	return status, err
}

func (r *repository) UserContact(ctx context.Context, userID int64) (*Contact, error) {
	var c Contact
	if err := r.db.GetContext(ctx, &c, `SELECT name, email, phone FROM users WHERE id = $1`, userID); err != nil {
		return nil, err
	}
	return &c, nil
}

func deref(id *int64) int64 {
	if id == nil {
		return 0
	}
	return *id
}
