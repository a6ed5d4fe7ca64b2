package franchises

import (
	"context"
	"errors"

	"optical-franchise/internal/api"
	apperrors "optical-franchise/internal/common/errors"
	"optical-franchise/internal/common/logger"
	"optical-franchise/internal/notify"
)

type Service interface {
	Create(ctx context.Context, caller api.Principal, req CreateFranchiseRequest) (*Franchise, error)
	Get(ctx context.Context, caller api.Principal, id int64) (*Franchise, error)
	List(ctx context.Context, caller api.Principal, status string) ([]Franchise, error)
	Update(ctx context.Context, caller api.Principal, id int64, req UpdateFranchiseRequest) (*Franchise, error)
	Approve(ctx context.Context, id int64) (*Franchise, error)
	Reject(ctx context.Context, id int64) (*Franchise, error)
}

type service struct {
	repo     Repository
	notifier notify.Sender
	logger   logger.Logger
}

func NewService(repo Repository, notifier notify.Sender, log logger.Logger) Service {
	return &service{repo: repo, notifier: notifier, logger: log}
}

func (s *service) Create(ctx context.Context, caller api.Principal, req CreateFranchiseRequest) (*Franchise, error) {
	ownerID := caller.UserID
	if caller.IsAdmin() {
		if req.OwnerID == nil {
			return nil, apperrors.NewValidationError("ownerId is required", "admins must name the franchise owner")
		}
		ownerID = *req.OwnerID
	}

	f, err := s.repo.Create(ctx, ownerID, req)
	if err != nil {
		if errors.Is(err, ErrOwnerNotFound) {
			return nil, apperrors.NewValidationError("Invalid ownerId", err.Error())
		}
		return nil, apperrors.NewDatabaseQueryFailedError("create franchise", err)
	}

	s.logger.Info("Franchise created", map[string]interface{}{
		"franchiseId": f.ID,
		"ownerId":     f.OwnerID,
	})
	return f, nil
}

func (s *service) Get(ctx context.Context, caller api.Principal, id int64) (*Franchise, error) {
	f, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin() && f.OwnerID != caller.UserID {
		return nil, apperrors.NewResourceNotFoundError("Franchise", "")
	}
	return f, nil
}

func (s *service) List(ctx context.Context, caller api.Principal, status string) ([]Franchise, error) {
	filter := ListFilter{Status: status}
	if !caller.IsAdmin() {
		filter.OwnerID = &caller.UserID
	}

	franchises, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, apperrors.NewDatabaseQueryFailedError("list franchises", err)
	}
	return franchises, nil
}

func (s *service) Update(ctx context.Context, caller api.Principal, id int64, req UpdateFranchiseRequest) (*Franchise, error) {
	if _, err := s.Get(ctx, caller, id); err != nil {
		return nil, err
	}

	f, err := s.repo.Update(ctx, id, req)
	if err != nil {
		if errors.Is(err, ErrFranchiseNotFound) {
			return nil, apperrors.NewResourceNotFoundError("Franchise", "")
		}
		return nil, apperrors.NewDatabaseQueryFailedError("update franchise", err)
	}
	return f, nil
}

func (s *service) Approve(ctx context.Context, id int64) (*Franchise, error) {
	return s.decide(ctx, id, StatusActive, notify.TypeFranchiseApproved)
}

func (s *service) Reject(ctx context.Context, id int64) (*Franchise, error) {
	return s.decide(ctx, id, StatusRejected, notify.TypeFranchiseRejected)
}

// decide applies an admin decision. Repeating the current decision returns
// the row unchanged and sends nothing.
func (s *service) decide(ctx context.Context, id int64, target, notification string) (*Franchise, error) {
	current, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status == target {
		return current, nil
	}
	if !lifecycle.CanTransition(current.Status, target) {
		return nil, apperrors.NewInvalidStateTransitionError("Franchise", current.Status, target)
	}

	updated, err := s.repo.UpdateStatus(ctx, id, current.Status, target)
	if errors.Is(err, ErrStatusChanged) {
		// Lost a race with another decision; report what won.
		latest, findErr := s.find(ctx, id)
		if findErr != nil {
			return nil, findErr
		}
		if latest.Status == target {
			return latest, nil
		}
		return nil, apperrors.NewInvalidStateTransitionError("Franchise", latest.Status, target)
	}
	if err != nil {
		return nil, apperrors.NewDatabaseQueryFailedError("update franchise status", err)
	}

	s.logger.Info("Franchise decision recorded", map[string]interface{}{
		"franchiseId": id,
		"from":        current.Status,
		"to":          target,
	})
	s.notifyOwner(ctx, updated, notification)
	return updated, nil
}

func (s *service) notifyOwner(ctx context.Context, f *Franchise, notification string) {
	contact, err := s.repo.OwnerContact(ctx, f.ID)
	if err != nil {
		s.logger.Warn("Franchise owner lookup failed, skipping notification", map[string]interface{}{
			"franchiseId": f.ID,
			"error":       err.Error(),
		})
		return
	}

	result := s.notifier.Notify(ctx, notify.Message{
		Type:  notification,
		Email: contact.Email,
		Data: map[string]interface{}{
			"franchiseName": f.Name,
			"ownerName":     contact.Name,
		},
	})
	if result.Status == notify.StatusFailed {
		s.logger.Warn("Franchise decision notification failed", map[string]interface{}{
			"franchiseId":    f.ID,
			"notificationId": result.NotificationID,
		})
	}
}

func (s *service) find(ctx context.Context, id int64) (*Franchise, error) {
	f, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrFranchiseNotFound) {
			return nil, apperrors.NewResourceNotFoundError("Franchise", "")
		}
		return nil, apperrors.NewDatabaseQueryFailedError("get franchise", err)
	}
	return f, nil
}
