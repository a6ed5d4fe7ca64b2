package plans

import (
	"context"
	"time"
)

type Repository interface {
	ListPlans(ctx context.Context, activeOnly bool) ([]Plan, error)
	FindPlan(ctx context.Context, id int64) (*Plan, error)
	CreatePlan(ctx context.Context, req CreatePlanRequest) (*Plan, error)
	UpdatePlan(ctx context.Context, id int64, req UpdatePlanRequest) (*Plan, error)
	// Subscribe cancels the user's active subscription and starts a new one
	// in a single transaction.
	Subscribe(ctx context.Context, userID int64, plan *Plan, endsAt *time.Time) (*UserPlan, error)
	ActiveUserPlan(ctx context.Context, userID int64) (*UserPlan, error)
}
