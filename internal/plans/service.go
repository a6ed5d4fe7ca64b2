package plans

import (
	"context"
	"errors"
	"time"

	"optical-franchise/internal/api"
	apperrors "optical-franchise/internal/common/errors"
	"optical-franchise/internal/common/logger"
)

type Service interface {
	ListPlans(ctx context.Context, includeInactive bool) ([]Plan, error)
	CreatePlan(ctx context.Context, req CreatePlanRequest) (*Plan, error)
	UpdatePlan(ctx context.Context, id int64, req UpdatePlanRequest) (*Plan, error)
	Subscribe(ctx context.Context, caller api.Principal, req SubscribeRequest) (*UserPlan, error)
	// ActivePlan returns nil when the user has no current subscription.
	ActivePlan(ctx context.Context, userID int64) (*UserPlan, error)
}

type service struct {
	repo   Repository
	cache  *ActivePlanCache
	logger logger.Logger
	now    func() time.Time
}

func NewService(repo Repository, cache *ActivePlanCache, log logger.Logger) Service {
	return &service{repo: repo, cache: cache, logger: log, now: time.Now}
}

func (s *service) ListPlans(ctx context.Context, includeInactive bool) ([]Plan, error) {
	plans, err := s.repo.ListPlans(ctx, !includeInactive)
	if err != nil {
		return nil, apperrors.NewDatabaseQueryFailedError("list plans", err)
	}
	return plans, nil
}

func (s *service) CreatePlan(ctx context.Context, req CreatePlanRequest) (*Plan, error) {
	plan, err := s.repo.CreatePlan(ctx, req)
	if err != nil {
		if errors.Is(err, ErrTierExists) {
			return nil, apperrors.NewDuplicateResourceError("Plan", "tier "+req.Tier+" already exists")
		}
		return nil, apperrors.NewDatabaseQueryFailedError("create plan", err)
	}
	return plan, nil
}

func (s *service) UpdatePlan(ctx context.Context, id int64, req UpdatePlanRequest) (*Plan, error) {
	plan, err := s.repo.UpdatePlan(ctx, id, req)
	if err != nil {
		if errors.Is(err, ErrPlanNotFound) {
			return nil, apperrors.NewResourceNotFoundError("Plan", "")
		}
		return nil, apperrors.NewDatabaseQueryFailedError("update plan", err)
	}
	return plan, nil
}

func (s *service) Subscribe(ctx context.Context, caller api.Principal, req SubscribeRequest) (*UserPlan, error) {
	userID := caller.UserID
	if req.UserID != nil {
		if !caller.IsAdmin() && *req.UserID != caller.UserID {
			return nil, apperrors.NewForbiddenError("only admins may subscribe other users")
		}
		userID = *req.UserID
	}

	plan, err := s.repo.FindPlan(ctx, req.PlanID)
	if err != nil {
		if errors.Is(err, ErrPlanNotFound) {
			return nil, apperrors.NewResourceNotFoundError("Plan", "")
		}
		return nil, apperrors.NewDatabaseQueryFailedError("get plan", err)
	}
	if !plan.Active {
		return nil, apperrors.NewValidationError("Plan is not available", plan.Tier)
	}

	var endsAt *time.Time
	if req.DurationDays != nil {
		t := s.now().UTC().AddDate(0, 0, *req.DurationDays)
		endsAt = &t
	}

	up, err := s.repo.Subscribe(ctx, userID, plan, endsAt)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, apperrors.NewValidationError("Invalid userId", err.Error())
		}
		return nil, apperrors.NewDatabaseQueryFailedError("subscribe", err)
	}
	s.cache.Invalidate(ctx, userID)

	s.logger.Info("User subscribed to plan", map[string]interface{}{
		"userId": userID,
		"planId": plan.ID,
		"tier":   plan.Tier,
	})
	return up, nil
}

func (s *service) ActivePlan(ctx context.Context, userID int64) (*UserPlan, error) {
	if up, ok := s.cache.Get(ctx, userID); ok {
		if !up.ExpiredAt(s.now()) {
			return up, nil
		}
		s.cache.Invalidate(ctx, userID)
	}

	up, err := s.repo.ActiveUserPlan(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNoActivePlan) {
			return nil, nil
		}
		return nil, apperrors.NewDatabaseQueryFailedError("get active plan", err)
	}
	s.cache.Set(ctx, up)
	return up, nil
}
