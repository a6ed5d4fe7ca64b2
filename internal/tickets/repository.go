package tickets

import (
	"context"
	"database/sql"
	"errors"

	"optical-franchise/internal/common/database"

	"github.com/jmoiron/sqlx"
)

var (
	ErrTicketNotFound = errors.New("support ticket not found")
	ErrStatusChanged  = errors.New("ticket status changed concurrently")
	ErrInvalidField   = errors.New("category, priority or status is not allowed")
)

const ticketColumns = `id, user_id, subject, description, category, priority, status, created_at, updated_at`

type Repository interface {
	Create(ctx context.Context, userID int64, req CreateTicketRequest) (*Ticket, error)
	FindByID(ctx context.Context, id int64) (*Ticket, error)
	List(ctx context.Context, filter ListFilter) ([]Ticket, error)
	Update(ctx context.Context, id int64, expectedStatus string, req UpdateTicketRequest) (*Ticket, error)
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, userID int64, req CreateTicketRequest) (*Ticket, error) {
	category := req.Category
	if category == "" {
		category = "other"
	}
	priority := req.Priority
	if priority == "" {
		priority = "medium"
	}

	query := `
		INSERT INTO support_tickets (user_id, subject, description, category, priority)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + ticketColumns

	var t Ticket
	if err := r.db.GetContext(ctx, &t, query, userID, req.Subject, req.Description, category, priority); err != nil {
		if database.IsCheckViolation(err) {
			return nil, ErrInvalidField
		}
		return nil, err
	}
	return &t, nil
}

func (r *repository) FindByID(ctx context.Context, id int64) (*Ticket, error) {
	var t Ticket
	err := r.db.GetContext(ctx, &t, `SELECT `+ticketColumns+` FROM support_tickets WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]Ticket, error) {
	f := database.NewFilter().AddIf(filter.Status != "", "status = ?", filter.Status)
	if filter.UserID != nil {
		f.Add("user_id = ?", *filter.UserID)
	}
	query := `SELECT ` + ticketColumns + ` FROM support_tickets` + f.Where() + ` ORDER BY created_at DESC`

	list := []Ticket{}
	if err := r.db.SelectContext(ctx, &list, query, f.Args()...); err != nil {
		return nil, err
	}
	return list, nil
}

func (r *repository) Update(ctx context.Context, id int64, expectedStatus string, req UpdateTicketRequest) (*Ticket, error) {
	query := `
		UPDATE support_tickets SET
			status = COALESCE($3, status),
			priority = COALESCE($4, priority),
			category = COALESCE($5, category),
			updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING ` + ticketColumns

	var t Ticket
	err := r.db.GetContext(ctx, &t, query, id, expectedStatus, req.Status, req.Priority, req.Category)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStatusChanged
		}
		if database.IsCheckViolation(err) {
			return nil, ErrInvalidField
		}
		return nil, err
	}
	return &t, nil
}
