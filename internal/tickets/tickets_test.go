package tickets

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"optical-franchise/internal/api"
	apperrors "optical-franchise/internal/common/errors"
	"optical-franchise/internal/common/logger"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockRepository is a mock implementation of Repository
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, userID int64, req CreateTicketRequest) (*Ticket, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Ticket), args.Error(1)
}

func (m *MockRepository) FindByID(ctx context.Context, id int64) (*Ticket, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Ticket), args.Error(1)
}

func (m *MockRepository) List(ctx context.Context, filter ListFilter) ([]Ticket, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Ticket), args.Error(1)
}

func (m *MockRepository) Update(ctx context.Context, id int64, expectedStatus string, req UpdateTicketRequest) (*Ticket, error) {
	args := m.Called(ctx, id, expectedStatus, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Ticket), args.Error(1)
}

var (
	owner = api.Principal{UserID: 10, Role: api.RoleClient}
	admin = api.Principal{UserID: 1, Role: api.RoleAdmin}
)

func init() {
	gin.SetMode(gin.TestMode)
}

func ticketIn(status string) *Ticket {
	return &Ticket{ID: 4, UserID: 10, Subject: "Óculos com risco", Description: "Lente veio riscada", Category: "other", Priority: "medium", Status: status}
}

func strPtr(s string) *string { return &s }

func assertCode(t *testing.T, err error, code apperrors.ErrorCode) {
	t.Helper()
	var stdErr *apperrors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, code, stdErr.Code)
}

func TestUpdate_Lifecycle(t *testing.T) {
	tests := []struct {
		name     string
		current  string
		target   string
		wantCode apperrors.ErrorCode
	}{
		{name: "open to in_progress", current: StatusOpen, target: StatusInProgress},
		{name: "open to closed", current: StatusOpen, target: StatusClosed},
		{name: "in_progress to resolved", current: StatusInProgress, target: StatusResolved},
		{name: "in_progress to closed", current: StatusInProgress, target: StatusClosed},
		{name: "resolved to closed", current: StatusResolved, target: StatusClosed},
		{name: "open to resolved", current: StatusOpen, target: StatusResolved, wantCode: apperrors.ErrCodeInvalidStateTransition},
		{name: "resolved to open", current: StatusResolved, target: StatusOpen, wantCode: apperrors.ErrCodeInvalidStateTransition},
		{name: "closed to open", current: StatusClosed, target: StatusOpen, wantCode: apperrors.ErrCodeInvalidStateTransition},
		{name: "closed to in_progress", current: StatusClosed, target: StatusInProgress, wantCode: apperrors.ErrCodeInvalidStateTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			svc := NewService(repo, logger.NewTestLogger(t))
			req := UpdateTicketRequest{Status: strPtr(tt.target)}

			repo.On("FindByID", mock.Anything, int64(4)).Return(ticketIn(tt.current), nil)
			if tt.wantCode == "" {
				repo.On("Update", mock.Anything, int64(4), tt.current, req).Return(ticketIn(tt.target), nil)
			}

			got, err := svc.Update(context.Background(), admin, 4, req)
			if tt.wantCode != "" {
				assertCode(t, err, tt.wantCode)
				repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.target, got.Status)
			repo.AssertExpectations(t)
		})
	}
}

func TestUpdate_OtherUsersTicketIsHidden(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo, logger.NewTestLogger(t))

	repo.On("FindByID", mock.Anything, int64(4)).Return(ticketIn(StatusOpen), nil)

	_, err := svc.Update(context.Background(), api.Principal{UserID: 11, Role: api.RoleClient}, 4, UpdateTicketRequest{Status: strPtr(StatusClosed)})
	assertCode(t, err, apperrors.ErrCodeResourceNotFound)
}

func TestUpdate_OwnerMayClose(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo, logger.NewTestLogger(t))
	req := UpdateTicketRequest{Status: strPtr(StatusClosed)}

	repo.On("FindByID", mock.Anything, int64(4)).Return(ticketIn(StatusOpen), nil)
	repo.On("Update", mock.Anything, int64(4), StatusOpen, req).Return(ticketIn(StatusClosed), nil)

	got, err := svc.Update(context.Background(), owner, 4, req)
	require.NoError(t, err)
	assert.Equal(t, StatusClosed, got.Status)
}

func TestUpdate_LostRace(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo, logger.NewTestLogger(t))
	req := UpdateTicketRequest{Status: strPtr(StatusInProgress)}

	repo.On("FindByID", mock.Anything, int64(4)).Return(ticketIn(StatusOpen), nil)
	repo.On("Update", mock.Anything, int64(4), StatusOpen, req).Return(nil, ErrStatusChanged)

	_, err := svc.Update(context.Background(), admin, 4, req)
	assertCode(t, err, apperrors.ErrCodeInvalidStateTransition)
}

func TestUpdate_ClosedTicketIsFrozen(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo, logger.NewTestLogger(t))

	repo.On("FindByID", mock.Anything, int64(4)).Return(ticketIn(StatusClosed), nil)

	_, err := svc.Update(context.Background(), admin, 4, UpdateTicketRequest{Priority: strPtr("urgent")})
	assertCode(t, err, apperrors.ErrCodeInvalidStateTransition)
}

func TestList_ScopedToOwner(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo, logger.NewTestLogger(t))

	repo.On("List", mock.Anything, ListFilter{UserID: &owner.UserID, Status: StatusOpen}).Return([]Ticket{*ticketIn(StatusOpen)}, nil)
	repo.On("List", mock.Anything, ListFilter{}).Return([]Ticket{}, nil)

	list, err := svc.List(context.Background(), owner, StatusOpen)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	list, err = svc.List(context.Background(), admin, "")
	require.NoError(t, err)
	assert.Empty(t, list)
	repo.AssertExpectations(t)
}

// ==========================
// Repository and Handler Tests
// ==========================

var ticketRowColumns = []string{"id", "user_id", "subject", "description", "category", "priority", "status", "created_at", "updated_at"}

func TestHandler_CreateAppliesDefaults(t *testing.T) {
	db, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	log := logger.NewTestLogger(t)
	h := NewHandler(NewService(NewRepository(sqlx.NewDb(db, "sqlmock")), log), apperrors.NewErrorHandler(log))
	r := gin.New()
	r.POST("/api/support-tickets", func(c *gin.Context) { api.SetPrincipal(c, owner) }, h.Create)

	now := time.Now()
	sqlMock.ExpectQuery(`INSERT INTO support_tickets`).
		WithArgs(int64(10), "Troca de lente", "Quero trocar", "other", "medium").
		WillReturnRows(sqlmock.NewRows(ticketRowColumns).
			AddRow(1, 10, "Troca de lente", "Quero trocar", "other", "medium", StatusOpen, now, now))

	req := httptest.NewRequest(http.MethodPost, "/api/support-tickets",
		strings.NewReader(`{"subject": "Troca de lente", "description": "Quero trocar"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NoError(t, sqlMock.ExpectationsWereMet())

	req = httptest.NewRequest(http.MethodPost, "/api/support-tickets",
		strings.NewReader(`{"subject": "X", "description": "Y", "priority": "critical"}`))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreate_CheckViolationIsValidationError(t *testing.T) {
	db, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	svc := NewService(NewRepository(sqlx.NewDb(db, "sqlmock")), logger.NewTestLogger(t))
	sqlMock.ExpectQuery(`INSERT INTO support_tickets`).
		WillReturnError(&pq.Error{Code: "23514"})

	_, err = svc.Create(context.Background(), owner, CreateTicketRequest{Subject: "X", Description: "Y", Category: "warranty"})

	assertCode(t, err, apperrors.ErrCodeValidationFailed)
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}
