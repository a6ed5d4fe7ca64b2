package franchises

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"optical-franchise/internal/api"
	apperrors "optical-franchise/internal/common/errors"
	"optical-franchise/internal/common/logger"
	"optical-franchise/internal/notify"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mock Implementations
// ==========================

type MockNotifier struct {
	messages []notify.Message
	status   string
}

func (m *MockNotifier) Notify(ctx context.Context, msg notify.Message) notify.Result {
	m.messages = append(m.messages, msg)
	status := m.status
	if status == "" {
		status = notify.StatusSent
	}
	return notify.Result{NotificationID: "n-1", Status: status}
}

// ==========================
// Test Helper Functions
// ==========================

var franchiseRowColumns = []string{"id", "owner_id", "name", "cnpj", "address", "city", "state", "phone", "email", "status", "created_at", "updated_at"}

func init() {
	gin.SetMode(gin.TestMode)
}

func franchiseRow(id, owner int64, status string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(franchiseRowColumns).
		AddRow(id, owner, "Ótica Centro", nil, nil, "São Paulo", "SP", nil, nil, status, now, now)
}

func createTestService(t *testing.T) (Service, sqlmock.Sqlmock, *MockNotifier) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	notifier := &MockNotifier{}
	svc := NewService(NewRepository(sqlx.NewDb(db, "sqlmock")), notifier, logger.NewTestLogger(t))
	return svc, mock, notifier
}

func createTestRouter(t *testing.T, svc Service, caller api.Principal) *gin.Engine {
	h := NewHandler(svc, apperrors.NewErrorHandler(logger.NewTestLogger(t)))
	r := gin.New()
	r.Use(func(c *gin.Context) { api.SetPrincipal(c, caller) })
	r.GET("/api/franchises", h.List)
	r.POST("/api/franchises", h.Create)
	r.GET("/api/franchises/:id", h.Get)
	r.PATCH("/api/franchises/:id", h.Update)
	r.PATCH("/api/franchises/:id/approve", h.Approve)
	r.PATCH("/api/franchises/:id/reject", h.Reject)
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeFranchise(t *testing.T, w *httptest.ResponseRecorder) Franchise {
	var f Franchise
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &f))
	return f
}

var admin = api.Principal{UserID: 1, Role: api.RoleAdmin}

// ==========================
// Decision Tests
// ==========================

func TestApprove_TwiceIsIdempotent(t *testing.T) {
	svc, mock, notifier := createTestService(t)
	r := createTestRouter(t, svc, admin)

	mock.ExpectQuery(`SELECT .* FROM franchises WHERE id = \$1`).
		WithArgs(int64(10)).
		WillReturnRows(franchiseRow(10, 2, StatusPending))
	mock.ExpectQuery(`UPDATE franchises SET status = \$3`).
		WithArgs(int64(10), StatusPending, StatusActive).
		WillReturnRows(franchiseRow(10, 2, StatusActive))
	mock.ExpectQuery(`SELECT u.email, u.name, u.phone`).
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"email", "name", "phone"}).AddRow("dono@example.com", "Bruno", nil))

	w := do(r, http.MethodPatch, "/api/franchises/10/approve", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, StatusActive, decodeFranchise(t, w).Status)

	mock.ExpectQuery(`SELECT .* FROM franchises WHERE id = \$1`).
		WithArgs(int64(10)).
		WillReturnRows(franchiseRow(10, 2, StatusActive))

	w = do(r, http.MethodPatch, "/api/franchises/10/approve", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, StatusActive, decodeFranchise(t, w).Status)

	require.Len(t, notifier.messages, 1)
	assert.Equal(t, notify.TypeFranchiseApproved, notifier.messages[0].Type)
	assert.Equal(t, "dono@example.com", notifier.messages[0].Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDecide_InvalidTransitions(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		current string
	}{
		{name: "reject active", path: "/api/franchises/10/reject", current: StatusActive},
		{name: "approve rejected", path: "/api/franchises/10/approve", current: StatusRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, mock, notifier := createTestService(t)
			r := createTestRouter(t, svc, admin)

			mock.ExpectQuery(`SELECT .* FROM franchises WHERE id = \$1`).
				WillReturnRows(franchiseRow(10, 2, tt.current))

			w := do(r, http.MethodPatch, tt.path, "")
			assert.Equal(t, http.StatusConflict, w.Code)
			assert.Contains(t, w.Body.String(), string(apperrors.ErrCodeInvalidStateTransition))
			assert.Empty(t, notifier.messages)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestDecide_NotFound(t *testing.T) {
	svc, mock, _ := createTestService(t)
	r := createTestRouter(t, svc, admin)

	mock.ExpectQuery(`SELECT .* FROM franchises WHERE id = \$1`).
		WillReturnError(sql.ErrNoRows)

	w := do(r, http.MethodPatch, "/api/franchises/99/reject", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDecide_LostRace(t *testing.T) {
	svc, mock, notifier := createTestService(t)

	mock.ExpectQuery(`SELECT .* FROM franchises WHERE id = \$1`).
		WillReturnRows(franchiseRow(10, 2, StatusPending))
	mock.ExpectQuery(`UPDATE franchises SET status = \$3`).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`SELECT .* FROM franchises WHERE id = \$1`).
		WillReturnRows(franchiseRow(10, 2, StatusRejected))

	_, err := svc.Approve(context.Background(), 10)

	var stdErr *apperrors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, apperrors.ErrCodeInvalidStateTransition, stdErr.Code)
	assert.Empty(t, notifier.messages)
}

func TestDecide_OwnerLookupFailureIsIgnored(t *testing.T) {
	svc, mock, notifier := createTestService(t)

	mock.ExpectQuery(`SELECT .* FROM franchises WHERE id = \$1`).
		WillReturnRows(franchiseRow(10, 2, StatusPending))
	mock.ExpectQuery(`UPDATE franchises SET status = \$3`).
		WillReturnRows(franchiseRow(10, 2, StatusRejected))
	mock.ExpectQuery(`SELECT u.email, u.name, u.phone`).
		WillReturnError(errors.New("connection reset"))

	f, err := svc.Reject(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, f.Status)
	assert.Empty(t, notifier.messages)
}

func TestDecide_NotificationFailureIsIgnored(t *testing.T) {
	svc, mock, notifier := createTestService(t)
	notifier.status = notify.StatusFailed

	mock.ExpectQuery(`SELECT .* FROM franchises WHERE id = \$1`).
		WillReturnRows(franchiseRow(10, 2, StatusPending))
	mock.ExpectQuery(`UPDATE franchises SET status = \$3`).
		WillReturnRows(franchiseRow(10, 2, StatusActive))
	mock.ExpectQuery(`SELECT u.email, u.name, u.phone`).
		WillReturnRows(sqlmock.NewRows([]string{"email", "name", "phone"}).AddRow("dono@example.com", "Bruno", nil))

	f, err := svc.Approve(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, StatusActive, f.Status)
	assert.Len(t, notifier.messages, 1)
}

// ==========================
// CRUD Tests
// ==========================

func TestCreate_FranchiseeOwnsNewFranchise(t *testing.T) {
	svc, mock, _ := createTestService(t)
	r := createTestRouter(t, svc, api.Principal{UserID: 2, Role: api.RoleFranchisee})

	mock.ExpectQuery(`INSERT INTO franchises`).
		WithArgs(int64(2), "Ótica Centro", nil, nil, "São Paulo", "SP", nil, nil).
		WillReturnRows(franchiseRow(11, 2, StatusPending))

	w := do(r, http.MethodPost, "/api/franchises", `{"name":"Ótica Centro","city":"São Paulo","state":"SP","ownerId":99}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, StatusPending, decodeFranchise(t, w).Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_Validation(t *testing.T) {
	svc, mock, _ := createTestService(t)

	r := createTestRouter(t, svc, api.Principal{UserID: 2, Role: api.RoleFranchisee})
	w := do(r, http.MethodPost, "/api/franchises", `{"name":"X","city":"Rio","state":"RJX"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	r = createTestRouter(t, svc, admin)
	w = do(r, http.MethodPost, "/api/franchises", `{"name":"X","city":"Rio","state":"RJ"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestList_ScopedToOwner(t *testing.T) {
	svc, mock, _ := createTestService(t)
	r := createTestRouter(t, svc, api.Principal{UserID: 2, Role: api.RoleFranchisee})

	mock.ExpectQuery(`SELECT .* FROM franchises WHERE owner_id = \$1 AND status = \$2`).
		WithArgs(int64(2), StatusActive).
		WillReturnRows(franchiseRow(10, 2, StatusActive))

	w := do(r, http.MethodGet, "/api/franchises?status=active", "")
	require.Equal(t, http.StatusOK, w.Code)

	var list []Franchise
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGet_OtherOwnerIsHidden(t *testing.T) {
	svc, mock, _ := createTestService(t)
	r := createTestRouter(t, svc, api.Principal{UserID: 3, Role: api.RoleFranchisee})

	mock.ExpectQuery(`SELECT .* FROM franchises WHERE id = \$1`).
		WillReturnRows(franchiseRow(10, 2, StatusActive))

	w := do(r, http.MethodGet, "/api/franchises/10", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdate_PartialFields(t *testing.T) {
	svc, mock, _ := createTestService(t)
	r := createTestRouter(t, svc, admin)

	mock.ExpectQuery(`SELECT .* FROM franchises WHERE id = \$1`).
		WillReturnRows(franchiseRow(10, 2, StatusActive))
	mock.ExpectQuery(`UPDATE franchises SET`).
		WithArgs(int64(10), "Nova Ótica", nil, nil, nil, nil, nil, nil).
		WillReturnRows(franchiseRow(10, 2, StatusActive))

	w := do(r, http.MethodPatch, "/api/franchises/10", `{"name":"Nova Ótica"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
