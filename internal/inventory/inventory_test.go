package inventory

import (
	"encoding/json"
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
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

var itemRowColumns = []string{
	"id", "product_id", "franchise_id", "quantity", "min_stock", "max_stock",
	"created_at", "updated_at", "product_name", "product_sku", "franchise_owner_id",
}

var (
	admin      = api.Principal{UserID: 1, Role: api.RoleAdmin}
	franchisee = api.Principal{UserID: 20, Role: api.RoleFranchisee}
)

func init() {
	gin.SetMode(gin.TestMode)
}

func itemRow(id int64, quantity, minStock int, maxStock interface{}, owner int64) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(itemRowColumns).
		AddRow(id, 4, 5, quantity, minStock, maxStock, now, now, "Armação Aviador", "RB-3025", owner)
}

func createTestRouter(t *testing.T, caller api.Principal) (*gin.Engine, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	log := logger.NewTestLogger(t)
	h := NewHandler(NewService(NewRepository(sqlx.NewDb(db, "sqlmock")), log), apperrors.NewErrorHandler(log))

	r := gin.New()
	r.Use(func(c *gin.Context) { api.SetPrincipal(c, caller) })
	r.GET("/api/inventory", h.List)
	r.POST("/api/inventory", h.Upsert)
	r.PATCH("/api/inventory/:id", h.Update)
	r.POST("/api/inventory/:id/adjust", h.Adjust)
	return r, mock
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeItem(t *testing.T, w *httptest.ResponseRecorder) Item {
	var item Item
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &item))
	return item
}

// ==========================
// Stock Level Tests
// ==========================

func TestStockLevel(t *testing.T) {
	maxStock := 50

	tests := []struct {
		name     string
		quantity int
		minStock int
		maxStock *int
		want     string
	}{
		{name: "below minimum", quantity: 2, minStock: 5, maxStock: &maxStock, want: StockLow},
		{name: "at minimum", quantity: 5, minStock: 5, maxStock: &maxStock, want: StockLow},
		{name: "negative quantity", quantity: -3, minStock: 0, want: StockLow},
		{name: "within range", quantity: 20, minStock: 5, maxStock: &maxStock, want: StockOK},
		{name: "at maximum", quantity: 50, minStock: 5, maxStock: &maxStock, want: StockOK},
		{name: "above maximum", quantity: 51, minStock: 5, maxStock: &maxStock, want: StockOver},
		{name: "no maximum", quantity: 5000, minStock: 5, want: StockOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stockLevel(tt.quantity, tt.minStock, tt.maxStock))
		})
	}
}

// ==========================
// Handler Tests
// ==========================

func TestList_FranchiseeScopedWithLowStock(t *testing.T) {
	r, mock := createTestRouter(t, franchisee)

	mock.ExpectQuery(`FROM inventory i JOIN products p ON p.id = i.product_id JOIN franchises f ON f.id = i.franchise_id WHERE i.franchise_id = \$1 AND f.owner_id = \$2 AND i.quantity <= i.min_stock ORDER BY p.name ASC`).
		WithArgs(int64(5), int64(20)).
		WillReturnRows(itemRow(1, 1, 3, nil, 20))

	w := do(r, http.MethodGet, "/api/inventory?franchiseId=5&lowStock=true", "")
	require.Equal(t, http.StatusOK, w.Code)

	var items []Item
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &items))
	require.Len(t, items, 1)
	assert.Equal(t, StockLow, items[0].StockLevel)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestList_AdminUnscoped(t *testing.T) {
	r, mock := createTestRouter(t, admin)

	mock.ExpectQuery(`FROM inventory i JOIN products p ON p.id = i.product_id JOIN franchises f ON f.id = i.franchise_id ORDER BY p.name ASC`).
		WillReturnRows(itemRow(1, 100, 3, 50, 20))

	w := do(r, http.MethodGet, "/api/inventory", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"stockLevel":"over"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsert(t *testing.T) {
	tests := []struct {
		name       string
		caller     api.Principal
		body       string
		setup      func(mock sqlmock.Sqlmock)
		wantStatus int
	}{
		{
			name:   "franchisee stocks own franchise",
			caller: franchisee,
			body:   `{"productId": 4, "franchiseId": 5, "quantity": 12, "minStock": 3, "maxStock": 40}`,
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT EXISTS`).
					WithArgs(int64(5), int64(20)).
					WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
				mock.ExpectQuery(`ON CONFLICT \(product_id, franchise_id\) DO UPDATE`).
					WithArgs(int64(4), int64(5), 12, 3, 40).
					WillReturnRows(itemRow(1, 12, 3, 40, 20))
			},
			wantStatus: http.StatusOK,
		},
		{
			name:   "franchisee cannot stock another franchise",
			caller: franchisee,
			body:   `{"productId": 4, "franchiseId": 6, "quantity": 12}`,
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT EXISTS`).
					WithArgs(int64(6), int64(20)).
					WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
			},
			wantStatus: http.StatusForbidden,
		},
		{
			name:   "unknown product",
			caller: admin,
			body:   `{"productId": 404, "franchiseId": 5, "quantity": 1}`,
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO inventory`).
					WillReturnError(&pq.Error{Code: "23503"})
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "max below min",
			caller:     admin,
			body:       `{"productId": 4, "franchiseId": 5, "quantity": 1, "minStock": 10, "maxStock": 5}`,
			setup:      func(mock sqlmock.Sqlmock) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing product",
			caller:     admin,
			body:       `{"franchiseId": 5, "quantity": 1}`,
			setup:      func(mock sqlmock.Sqlmock) {},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, mock := createTestRouter(t, tt.caller)
			tt.setup(mock)

			w := do(r, http.MethodPost, "/api/inventory", tt.body)

			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestAdjust_AllowsGoingBelowMinimum(t *testing.T) {
	r, mock := createTestRouter(t, franchisee)

	mock.ExpectQuery(`FROM inventory i .* WHERE i.id = \$1`).
		WithArgs(int64(1)).
		WillReturnRows(itemRow(1, 4, 3, nil, 20))
	mock.ExpectQuery(`UPDATE inventory SET quantity = quantity \+ \$2`).
		WithArgs(int64(1), -6).
		WillReturnRows(itemRow(1, -2, 3, nil, 20))

	w := do(r, http.MethodPost, "/api/inventory/1/adjust", `{"delta": -6, "reason": "venda"}`)
	require.Equal(t, http.StatusOK, w.Code)

	item := decodeItem(t, w)
	assert.Equal(t, -2, item.Quantity)
	assert.Equal(t, StockLow, item.StockLevel)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdjust_ZeroDeltaRejected(t *testing.T) {
	r, mock := createTestRouter(t, admin)

	w := do(r, http.MethodPost, "/api/inventory/1/adjust", `{"delta": 0}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_OtherFranchiseIsHidden(t *testing.T) {
	r, mock := createTestRouter(t, franchisee)

	mock.ExpectQuery(`FROM inventory i .* WHERE i.id = \$1`).
		WithArgs(int64(1)).
		WillReturnRows(itemRow(1, 4, 3, nil, 99))

	w := do(r, http.MethodPatch, "/api/inventory/1", `{"quantity": 10}`)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_Thresholds(t *testing.T) {
	r, mock := createTestRouter(t, admin)

	mock.ExpectQuery(`FROM inventory i .* WHERE i.id = \$1`).
		WithArgs(int64(1)).
		WillReturnRows(itemRow(1, 4, 3, 30, 20))
	mock.ExpectQuery(`UPDATE inventory SET`).
		WithArgs(int64(1), nil, 5, nil).
		WillReturnRows(itemRow(1, 4, 5, 30, 20))

	w := do(r, http.MethodPatch, "/api/inventory/1", `{"minStock": 5}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5, decodeItem(t, w).MinStock)

	mock.ExpectQuery(`FROM inventory i .* WHERE i.id = \$1`).
		WithArgs(int64(1)).
		WillReturnRows(itemRow(1, 4, 5, 30, 20))

	w = do(r, http.MethodPatch, "/api/inventory/1", `{"minStock": 31}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_ConstraintViolationsAreBadRequests(t *testing.T) {
	tests := []struct {
		name string
		code pq.ErrorCode
	}{
		{name: "thresholds changed concurrently", code: "23514"},
		{name: "quantity overflow", code: "22003"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, mock := createTestRouter(t, admin)

			mock.ExpectQuery(`FROM inventory i .* WHERE i.id = \$1`).
				WithArgs(int64(1)).
				WillReturnRows(itemRow(1, 4, 3, 30, 20))
			mock.ExpectQuery(`UPDATE inventory SET`).
				WillReturnError(&pq.Error{Code: tt.code})

			w := do(r, http.MethodPatch, "/api/inventory/1", `{"maxStock": 10}`)

			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.Contains(t, w.Body.String(), string(apperrors.ErrCodeValidationFailed))
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestAdjust_DeltaIsBounded(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "too large", body: `{"delta": 1000001}`},
		{name: "too small", body: `{"delta": -1000001}`},
		{name: "past int32", body: `{"delta": 3000000000}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, mock := createTestRouter(t, admin)

			w := do(r, http.MethodPost, "/api/inventory/1/adjust", tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
