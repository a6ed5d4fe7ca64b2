package users

import (
	"context"
	"errors"
	"strings"

	"optical-franchise/internal/api"
	apperrors "optical-franchise/internal/common/errors"
	"optical-franchise/internal/common/logger"
)

// Compared against when the email is unknown so both paths cost one bcrypt.
const dummyHash = "$2a$10$7EqJtq98hPqEX7fNZaFWoOhi5BWX4Z7B4E5.bnRx6eEJzlRMMLTyG"

type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*User, error)
	Create(ctx context.Context, req CreateUserRequest) (*User, error)
	Authenticate(ctx context.Context, req LoginRequest) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	List(ctx context.Context, filter ListFilter) ([]User, error)
	Approve(ctx context.Context, id int64) (*User, error)
	Reject(ctx context.Context, id int64) (*User, error)
}

// SessionRevoker drops every live session of a user.
type SessionRevoker interface {
	DeleteAll(ctx context.Context, userID int64) (int64, error)
}

type service struct {
	repo     Repository
	sessions SessionRevoker
	logger   logger.Logger
}

// NewService builds the user service. sessions may be nil when no login
// sessions exist, as in the admin CLI.
func NewService(repo Repository, sessions SessionRevoker, log logger.Logger) Service {
	return &service{repo: repo, sessions: sessions, logger: log}
}

// Register creates a self-service account. Clients are active immediately,
// franchisees wait for an admin.
func (s *service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	role := req.Role
	if role == "" {
		role = api.RoleClient
	}
	status := StatusActive
	if role == api.RoleFranchisee {
		status = StatusPending
	}
	return s.create(ctx, req.Email, req.Password, req.Name, req.Phone, role, status)
}

func (s *service) Create(ctx context.Context, req CreateUserRequest) (*User, error) {
	return s.create(ctx, req.Email, req.Password, req.Name, req.Phone, req.Role, StatusActive)
}

func (s *service) create(ctx context.Context, email, password, name string, phone *string, role, status string) (*User, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user, err := s.repo.Create(ctx, &User{
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: hash,
		Name:         strings.TrimSpace(name),
		Phone:        phone,
		Role:         role,
		Status:       status,
	})
	if err != nil {
		return nil, s.mapError("create user", err)
	}

	s.logger.Info("User created", map[string]interface{}{
		"userId": user.ID,
		"role":   user.Role,
		"status": user.Status,
	})
	return user, nil
}

func (s *service) Authenticate(ctx context.Context, req LoginRequest) (*User, error) {
	user, err := s.repo.FindByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			CheckPassword(dummyHash, req.Password)
			return nil, apperrors.NewAuthenticationError("invalid email or password")
		}
		return nil, s.mapError("find user", err)
	}

	if !CheckPassword(user.PasswordHash, req.Password) {
		return nil, apperrors.NewAuthenticationError("invalid email or password")
	}
	if user.Status != StatusActive {
		return nil, apperrors.NewAccountNotActiveError(user.Status)
	}
	return user, nil
}

func (s *service) GetByID(ctx context.Context, id int64) (*User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapError("get user", err)
	}
	return user, nil
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]User, error) {
	users, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, s.mapError("list users", err)
	}
	return users, nil
}

func (s *service) Approve(ctx context.Context, id int64) (*User, error) {
	return s.setStatus(ctx, id, StatusActive)
}

func (s *service) Reject(ctx context.Context, id int64) (*User, error) {
	return s.setStatus(ctx, id, StatusInactive)
}

func (s *service) setStatus(ctx context.Context, id int64, status string) (*User, error) {
	user, err := s.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, s.mapError("update user status", err)
	}
	s.logger.Info("User status changed", map[string]interface{}{
		"userId": id,
		"status": status,
	})

	// Inactive accounts lose access immediately, not at session expiry.
	if status == StatusInactive && s.sessions != nil {
		revoked, err := s.sessions.DeleteAll(ctx, id)
		if err != nil {
			s.logger.Error("Failed to revoke sessions", map[string]interface{}{
				"userId": id,
				"error":  err.Error(),
			})
			return nil, apperrors.NewExternalServiceError("redis", err)
		}
		s.logger.Info("Sessions revoked", map[string]interface{}{
			"userId":  id,
			"revoked": revoked,
		})
	}
	return user, nil
}

func (s *service) mapError(op string, err error) error {
	switch {
	case errors.Is(err, ErrUserNotFound):
		return apperrors.NewResourceNotFoundError("User", err.Error())
	case errors.Is(err, ErrEmailExists):
		return apperrors.NewDuplicateResourceError("User", "email already registered")
	default:
		return apperrors.NewDatabaseQueryFailedError(op, err)
	}
}
