package tickets

import (
	"context"
	"errors"

	"optical-franchise/internal/api"
	apperrors "optical-franchise/internal/common/errors"
	"optical-franchise/internal/common/logger"
)

type Service interface {
	Create(ctx context.Context, caller api.Principal, req CreateTicketRequest) (*Ticket, error)
	List(ctx context.Context, caller api.Principal, status string) ([]Ticket, error)
	Update(ctx context.Context, caller api.Principal, id int64, req UpdateTicketRequest) (*Ticket, error)
}

type service struct {
	repo   Repository
	logger logger.Logger
}

func NewService(repo Repository, log logger.Logger) Service {
	return &service{repo: repo, logger: log}
}

func (s *service) Create(ctx context.Context, caller api.Principal, req CreateTicketRequest) (*Ticket, error) {
	t, err := s.repo.Create(ctx, caller.UserID, req)
	if err != nil {
		if errors.Is(err, ErrInvalidField) {
			return nil, apperrors.NewValidationError("Invalid support ticket", err.Error())
		}
		return nil, apperrors.NewDatabaseQueryFailedError("create support ticket", err)
	}

	s.logger.Info("Support ticket opened", map[string]interface{}{
		"ticketId": t.ID,
		"userId":   t.UserID,
		"priority": t.Priority,
	})
	return t, nil
}

func (s *service) List(ctx context.Context, caller api.Principal, status string) ([]Ticket, error) {
	filter := ListFilter{Status: status}
	if !caller.IsAdmin() {
		filter.UserID = &caller.UserID
	}

	list, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, apperrors.NewDatabaseQueryFailedError("list support tickets", err)
	}
	return list, nil
}

// Update changes status, priority or category. Owners and admins may update;
// a status change must follow the ticket lifecycle.
func (s *service) Update(ctx context.Context, caller api.Principal, id int64, req UpdateTicketRequest) (*Ticket, error) {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrTicketNotFound) {
			return nil, apperrors.NewResourceNotFoundError("Support ticket", "")
		}
		return nil, apperrors.NewDatabaseQueryFailedError("get support ticket", err)
	}
	if !caller.IsAdmin() && current.UserID != caller.UserID {
		return nil, apperrors.NewResourceNotFoundError("Support ticket", "")
	}

	if req.Status != nil && *req.Status == current.Status {
		req.Status = nil
	}
	if req.Status != nil && !lifecycle.CanTransition(current.Status, *req.Status) {
		return nil, apperrors.NewInvalidStateTransitionError("Support ticket", current.Status, *req.Status)
	}
	if lifecycle.IsTerminal(current.Status) && (req.Priority != nil || req.Category != nil) {
		return nil, apperrors.NewInvalidStateTransitionError("Support ticket", current.Status, current.Status)
	}

	updated, err := s.repo.Update(ctx, id, current.Status, req)
	if err != nil {
		if errors.Is(err, ErrStatusChanged) {
			target := current.Status
			if req.Status != nil {
				target = *req.Status
			}
			return nil, apperrors.NewInvalidStateTransitionError("Support ticket", current.Status, target)
		}
		if errors.Is(err, ErrInvalidField) {
			return nil, apperrors.NewValidationError("Invalid support ticket", err.Error())
		}
		return nil, apperrors.NewDatabaseQueryFailedError("update support ticket", err)
	}

	if updated.Status != current.Status {
		s.logger.Info("Support ticket status changed", map[string]interface{}{
			"ticketId": id,
			"from":     current.Status,
			"to":       updated.Status,
		})
	}
	return updated, nil
}
