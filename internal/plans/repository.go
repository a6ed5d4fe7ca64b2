package plans

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"optical-franchise/internal/common/database"

	"github.com/jmoiron/sqlx"
)

var (
	ErrPlanNotFound = errors.New("plan not found")
	ErrTierExists   = errors.New("a plan with this tier already exists")
	ErrNoActivePlan = errors.New("no active plan")
	ErrUserNotFound = errors.New("user does not exist")
)

const planColumns = `id, name, tier, description, consultations_limit, measurements_limit, price_cents, active, created_at, updated_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) ListPlans(ctx context.Context, activeOnly bool) ([]Plan, error) {
	f := database.NewFilter().AddIf(activeOnly, "active = ?", true)
	query := `SELECT ` + planColumns + ` FROM plans` + f.Where() + ` ORDER BY price_cents ASC`

	plans := []Plan{}
	if err := r.db.SelectContext(ctx, &plans, query, f.Args()...); err != nil {
		return nil, err
	}
	return plans, nil
}

func (r *repository) FindPlan(ctx context.Context, id int64) (*Plan, error) {
	var p Plan
	err := r.db.GetContext(ctx, &p, `SELECT `+planColumns+` FROM plans WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *repository) CreatePlan(ctx context.Context, req CreatePlanRequest) (*Plan, error) {
	active := true
	if req.Active != nil {
		active = *req.Active
	}

	query := `
		INSERT INTO plans (name, tier, description, consultations_limit, measurements_limit, price_cents, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + planColumns

	var p Plan
	err := r.db.GetContext(ctx, &p, query,
		req.Name, req.Tier, req.Description, req.ConsultationsLimit, req.MeasurementsLimit, req.PriceCents, active)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrTierExists
		}
		return nil, err
	}
	return &p, nil
}

func (r *repository) UpdatePlan(ctx context.Context, id int64, req UpdatePlanRequest) (*Plan, error) {
	query := `
		UPDATE plans SET
			name = COALESCE($2, name),
			description = COALESCE($3, description),
			consultations_limit = COALESCE($4, consultations_limit),
			measurements_limit = COALESCE($5, measurements_limit),
			price_cents = COALESCE($6, price_cents),
			active = COALESCE($7, active),
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + planColumns

	var p Plan
	err := r.db.GetContext(ctx, &p, query,
		id, req.Name, req.Description, req.ConsultationsLimit, req.MeasurementsLimit, req.PriceCents, req.Active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *repository) Subscribe(ctx context.Context, userID int64, plan *Plan, endsAt *time.Time) (*UserPlan, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`UPDATE user_plans SET status = 'cancelled' WHERE user_id = $1 AND status = 'active'`, userID)
	if err != nil {
		return nil, err
	}

	var up UserPlan
	err = tx.GetContext(ctx, &up, `
		INSERT INTO user_plans (user_id, plan_id, starts_at, ends_at, status)
		VALUES ($1, $2, NOW(), $3, 'active')
		RETURNING id, user_id, plan_id, starts_at, ends_at, status, created_at`,
		userID, plan.ID, endsAt)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit subscription: %w", err)
	}

	up.PlanName = plan.Name
	up.PlanTier = plan.Tier
	return &up, nil
}

func (r *repository) ActiveUserPlan(ctx context.Context, userID int64) (*UserPlan, error) {
	query := `
		SELECT up.id, up.user_id, up.plan_id, up.starts_at, up.ends_at, up.status, up.created_at,
		       p.name AS plan_name, p.tier AS plan_tier
		FROM user_plans up
		JOIN plans p ON p.id = up.plan_id
		WHERE up.user_id = $1
		  AND up.status = 'active'
		  AND (up.ends_at IS NULL OR up.ends_at > NOW())
		ORDER BY up.starts_at DESC
		LIMIT 1`

	var up UserPlan
	if err := r.db.GetContext(ctx, &up, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoActivePlan
		}
		return nil, err
	}
	return &up, nil
}
