package appointments

import (
	"context"
	"errors"
	"time"

	"optical-franchise/internal/api"
	apperrors "optical-franchise/internal/common/errors"
	"optical-franchise/internal/common/logger"
	"optical-franchise/internal/notify"
)

// scheduledAtLayout is how the confirmation message renders the slot.
const scheduledAtLayout = "02/01/2006 15:04"

type Service interface {
	Create(ctx context.Context, caller api.Principal, req CreateAppointmentRequest) (*Appointment, error)
	Get(ctx context.Context, caller api.Principal, id int64) (*Appointment, error)
	List(ctx context.Context, caller api.Principal, status string) ([]Appointment, error)
	Update(ctx context.Context, caller api.Principal, id int64, req UpdateAppointmentRequest) (*Appointment, error)
}

type service struct {
	repo     Repository
	notifier notify.Sender
	logger   logger.Logger
	location *time.Location
	now      func() time.Time
}

func NewService(repo Repository, notifier notify.Sender, log logger.Logger) Service {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		loc = time.UTC
	}
	return &service{repo: repo, notifier: notifier, logger: log, location: loc, now: time.Now}
}

func (s *service) Create(ctx context.Context, caller api.Principal, req CreateAppointmentRequest) (*Appointment, error) {
	userID := caller.UserID
	if req.UserID != nil && *req.UserID != caller.UserID {
		if caller.Role == api.RoleClient {
			return nil, apperrors.NewForbiddenError("clients book only for themselves")
		}
		userID = *req.UserID
	}

	if !req.ScheduledAt.After(s.now()) {
		return nil, apperrors.NewValidationError("scheduledAt must be in the future", req.ScheduledAt.Format(time.RFC3339))
	}

	if req.FranchiseID != nil {
		status, err := s.repo.FranchiseStatus(ctx, *req.FranchiseID)
		if err != nil {
			if errors.Is(err, ErrFranchiseNotFound) {
				return nil, apperrors.NewValidationError("Invalid franchiseId", "franchise does not exist")
			}
			return nil, apperrors.NewDatabaseQueryFailedError("get franchise", err)
		}
		if status != "active" {
			return nil, apperrors.NewValidationError("Franchise is not accepting appointments", status)
		}
	}

	a, err := s.repo.Create(ctx, userID, req)
	if err != nil {
		if errors.Is(err, ErrInvalidReference) {
			return nil, apperrors.NewValidationError("Invalid reference", err.Error())
		}
		return nil, apperrors.NewDatabaseQueryFailedError("create appointment", err)
	}

	s.logger.Info("Appointment scheduled", map[string]interface{}{
		"appointmentId": a.ID,
		"userId":        a.UserID,
		"scheduledAt":   a.ScheduledAt,
	})
	return a, nil
}

func (s *service) Get(ctx context.Context, caller api.Principal, id int64) (*Appointment, error) {
	a, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, apperrors.NewResourceNotFoundError("Appointment", "")
		}
		return nil, apperrors.NewDatabaseQueryFailedError("get appointment", err)
	}
	if !canView(caller, a) {
		return nil, apperrors.NewResourceNotFoundError("Appointment", "")
	}
	return a, nil
}

func (s *service) List(ctx context.Context, caller api.Principal, status string) ([]Appointment, error) {
	filter := ListFilter{Status: status}
	switch caller.Role {
	case api.RoleAdmin:
	case api.RoleFranchisee:
		filter.FranchiseOwner = &caller.UserID
	default:
		filter.UserID = &caller.UserID
	}

	appointments, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, apperrors.NewDatabaseQueryFailedError("list appointments", err)
	}
	return appointments, nil
}

func (s *service) Update(ctx context.Context, caller api.Principal, id int64, req UpdateAppointmentRequest) (*Appointment, error) {
	current, err := s.Get(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	if lifecycle.IsTerminal(current.Status) {
		return nil, apperrors.NewInvalidStateTransitionError("Appointment", current.Status, requestedStatus(req, current))
	}

	status := req.Status
	if status != nil && *status == current.Status {
		status = nil
	}
	if status != nil {
		if !lifecycle.CanTransition(current.Status, *status) {
			return nil, apperrors.NewInvalidStateTransitionError("Appointment", current.Status, *status)
		}
		if caller.Role == api.RoleClient && *status != StatusCancelled {
			return nil, apperrors.NewForbiddenError("clients may only cancel appointments")
		}
	}

	if req.ScheduledAt != nil && !req.ScheduledAt.After(s.now()) {
		return nil, apperrors.NewValidationError("scheduledAt must be in the future", req.ScheduledAt.Format(time.RFC3339))
	}

	updated, err := s.repo.Update(ctx, id, current.Status, req.ScheduledAt, req.Notes, status)
	if err != nil {
		if errors.Is(err, ErrStatusChanged) {
			return nil, apperrors.NewInvalidStateTransitionError("Appointment", current.Status, requestedStatus(req, current))
		}
		return nil, apperrors.NewDatabaseQueryFailedError("update appointment", err)
	}

	if status != nil {
		s.logger.Info("Appointment status changed", map[string]interface{}{
			"appointmentId": id,
			"from":          current.Status,
			"to":            updated.Status,
		})
		if updated.Status == StatusConfirmed {
			s.notifyConfirmed(ctx, updated)
		}
	}
	return updated, nil
}

func (s *service) notifyConfirmed(ctx context.Context, a *Appointment) {
	contact, err := s.repo.UserContact(ctx, a.UserID)
	if err != nil {
		s.logger.Warn("Appointment contact lookup failed, skipping notification", map[string]interface{}{
			"appointmentId": a.ID,
			"error":         err.Error(),
		})
		return
	}

	msg := notify.Message{
		Type:  notify.TypeAppointmentConfirmed,
		Email: contact.Email,
		Data: map[string]interface{}{
			"userName":    contact.Name,
			"serviceType": a.ServiceType,
			"scheduledAt": a.ScheduledAt.In(s.location).Format(scheduledAtLayout),
		},
	}
	if contact.Phone != nil {
		msg.Phone = *contact.Phone
	}

	result := s.notifier.Notify(ctx, msg)
	if result.Status == notify.StatusFailed {
		s.logger.Warn("Appointment confirmation notification failed", map[string]interface{}{
			"appointmentId":  a.ID,
			"notificationId": result.NotificationID,
		})
	}
}

func canView(caller api.Principal, a *Appointment) bool {
	switch caller.Role {
	case api.RoleAdmin:
		return true
	case api.RoleFranchisee:
		if a.FranchiseOwnerID != nil && *a.FranchiseOwnerID == caller.UserID {
			return true
		}
	}
	return a.UserID == caller.UserID
}

func requestedStatus(req UpdateAppointmentRequest, current *Appointment) string {
	if req.Status != nil {
		return *req.Status
	}
	return current.Status
}
