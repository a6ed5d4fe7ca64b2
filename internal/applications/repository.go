package applications

import (
	"context"
	"database/sql"
	"errors"

	"optical-franchise/internal/common/database"

	"github.com/jmoiron/sqlx"
)

var (
	ErrApplicationNotFound = errors.New("franchise application not found")
	ErrStatusChanged       = errors.New("application status changed concurrently")
)

const applicationColumns = `id, applicant_name, email, phone, city, state, investment_capacity_cents,
	experience, message, status, reviewed_by, reviewed_at, review_notes, created_at, updated_at`

type Repository interface {
	Create(ctx context.Context, req CreateApplicationRequest) (*Application, error)
	FindByID(ctx context.Context, id int64) (*Application, error)
	List(ctx context.Context, status string) ([]Application, error)
	Decide(ctx context.Context, id int64, expectedStatus string, decision Decision) (*Application, error)
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, req CreateApplicationRequest) (*Application, error) {
	query := `
		INSERT INTO franchise_applications
			(applicant_name, email, phone, city, state, investment_capacity_cents, experience, message)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + applicationColumns

	var a Application
	err := r.db.GetContext(ctx, &a, query,
		req.ApplicantName, req.Email, req.Phone, req.City, req.State,
		req.InvestmentCapacityCents, req.Experience, req.Message)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *repository) FindByID(ctx context.Context, id int64) (*Application, error) {
	var a Application
	err := r.db.GetContext(ctx, &a, `SELECT `+applicationColumns+` FROM franchise_applications WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrApplicationNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *repository) List(ctx context.Context, status string) ([]Application, error) {
	f := database.NewFilter().AddIf(status != "", "status = ?", status)
	query := `SELECT ` + applicationColumns + ` FROM franchise_applications` + f.Where() + ` ORDER BY created_at DESC`

	list := []Application{}
	if err := r.db.SelectContext(ctx, &list, query, f.Args()...); err != nil {
		return nil, err
	}
	return list, nil
}

// Decide records the review only while the row still has expectedStatus.
func (r *repository) Decide(ctx context.Context, id int64, expectedStatus string, decision Decision) (*Application, error) {
	query := `
		UPDATE franchise_applications SET
			status = $3,
			reviewed_by = $4,
			reviewed_at = NOW(),
			review_notes = $5,
			updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING ` + applicationColumns

	var a Application
	err := r.db.GetContext(ctx, &a, query, id, expectedStatus, decision.Status, decision.ReviewerID, decision.Notes)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStatusChanged
		}
		return nil, err
	}
	return &a, nil
}
