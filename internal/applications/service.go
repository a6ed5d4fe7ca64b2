package applications

import (
	"context"
	"errors"
	"strings"

	"optical-franchise/internal/api"
	apperrors "optical-franchise/internal/common/errors"
	"optical-franchise/internal/common/logger"
	"optical-franchise/internal/notify"
)

type Service interface {
	Submit(ctx context.Context, req CreateApplicationRequest) (*Application, error)
	List(ctx context.Context, status string) ([]Application, error)
	Approve(ctx context.Context, reviewer api.Principal, id int64, notes *string) (*Application, error)
	Reject(ctx context.Context, reviewer api.Principal, id int64, notes *string) (*Application, error)
}

type service struct {
	repo     Repository
	notifier notify.Sender
	logger   logger.Logger
}

func NewService(repo Repository, notifier notify.Sender, log logger.Logger) Service {
	return &service{repo: repo, notifier: notifier, logger: log}
}

func (s *service) Submit(ctx context.Context, req CreateApplicationRequest) (*Application, error) {
	req.State = strings.ToUpper(req.State)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	a, err := s.repo.Create(ctx, req)
	if err != nil {
		return nil, apperrors.NewDatabaseQueryFailedError("create franchise application", err)
	}

	s.logger.Info("Franchise application received", map[string]interface{}{
		"applicationId": a.ID,
		"city":          a.City,
		"state":         a.State,
	})
	s.notifyApplicant(ctx, a, notify.TypeApplicationReceived)
	return a, nil
}

func (s *service) List(ctx context.Context, status string) ([]Application, error) {
	list, err := s.repo.List(ctx, status)
	if err != nil {
		return nil, apperrors.NewDatabaseQueryFailedError("list franchise applications", err)
	}
	return list, nil
}

func (s *service) Approve(ctx context.Context, reviewer api.Principal, id int64, notes *string) (*Application, error) {
	return s.decide(ctx, id, Decision{Status: StatusApproved, ReviewerID: reviewer.UserID, Notes: notes}, notify.TypeApplicationApproved)
}

func (s *service) Reject(ctx context.Context, reviewer api.Principal, id int64, notes *string) (*Application, error) {
	return s.decide(ctx, id, Decision{Status: StatusRejected, ReviewerID: reviewer.UserID, Notes: notes}, notify.TypeApplicationRejected)
}

// decide mirrors franchise decisions: a repeat is a no-op without email, any
// other move out of a decided state is a conflict.
func (s *service) decide(ctx context.Context, id int64, decision Decision, notification string) (*Application, error) {
	current, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status == decision.Status {
		return current, nil
	}
	if !lifecycle.CanTransition(current.Status, decision.Status) {
		return nil, apperrors.NewInvalidStateTransitionError("Franchise application", current.Status, decision.Status)
	}

	updated, err := s.repo.Decide(ctx, id, current.Status, decision)
	if errors.Is(err, ErrStatusChanged) {
		latest, findErr := s.find(ctx, id)
		if findErr != nil {
			return nil, findErr
		}
		if latest.Status == decision.Status {
			return latest, nil
		}
		return nil, apperrors.NewInvalidStateTransitionError("Franchise application", latest.Status, decision.Status)
	}
	if err != nil {
		return nil, apperrors.NewDatabaseQueryFailedError("decide franchise application", err)
	}

	s.logger.Info("Franchise application reviewed", map[string]interface{}{
		"applicationId": id,
		"status":        updated.Status,
		"reviewedBy":    decision.ReviewerID,
	})
	s.notifyApplicant(ctx, updated, notification)
	return updated, nil
}

func (s *service) notifyApplicant(ctx context.Context, a *Application, notification string) {
	notes := ""
	if a.ReviewNotes != nil {
		notes = *a.ReviewNotes
	}

	result := s.notifier.Notify(ctx, notify.Message{
		Type:  notification,
		Email: a.Email,
		Data: map[string]interface{}{
			"applicantName": a.ApplicantName,
			"city":          a.City,
			"state":         a.State,
			"reviewNotes":   notes,
		},
	})
	if result.Status == notify.StatusFailed {
		s.logger.Warn("Applicant notification failed", map[string]interface{}{
			"applicationId":  a.ID,
			"type":           notification,
			"notificationId": result.NotificationID,
		})
	}
}

func (s *service) find(ctx context.Context, id int64) (*Application, error) {
	a, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrApplicationNotFound) {
			return nil, apperrors.NewResourceNotFoundError("Franchise application", "")
		}
		return nil, apperrors.NewDatabaseQueryFailedError("get franchise application", err)
	}
	return a, nil
}
