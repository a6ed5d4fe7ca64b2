package plans

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

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redismock/v9"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

var (
	planRowColumns     = []string{"id", "name", "tier", "description", "consultations_limit", "measurements_limit", "price_cents", "active", "created_at", "updated_at"}
	userPlanRowColumns = []string{"id", "user_id", "plan_id", "starts_at", "ends_at", "status", "created_at", "plan_name", "plan_tier"}
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	svc  Service
	mock sqlmock.Sqlmock
	mr   *miniredis.Miniredis
}

func createTestEnv(t *testing.T) *testEnv {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	log := logger.NewTestLogger(t)
	cache := NewActivePlanCache(client, 5*time.Minute, log)
	svc := NewService(NewRepository(sqlx.NewDb(db, "sqlmock")), cache, log)
	return &testEnv{svc: svc, mock: mock, mr: mr}
}

func planRow(id int64, tier string, active bool) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(planRowColumns).
		AddRow(id, strings.ToUpper(tier), tier, nil, 2, 4, 9900, active, now, now)
}

// ==========================
// Active Plan Tests
// ==========================

func TestActivePlan_CachesResult(t *testing.T) {
	env := createTestEnv(t)
	now := time.Now()

	env.mock.ExpectQuery(`FROM user_plans up JOIN plans p`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(userPlanRowColumns).
			AddRow(3, 7, 2, now, nil, UserPlanActive, now, "Gold", TierGold))

	up, err := env.svc.ActivePlan(context.Background(), 7)
	require.NoError(t, err)
	require.NotNil(t, up)
	assert.Equal(t, TierGold, up.PlanTier)

	assert.True(t, env.mr.Exists("user_plan:active:7"))
	assert.Equal(t, 5*time.Minute, env.mr.TTL("user_plan:active:7"))

	// served from cache: no second query expected
	up, err = env.svc.ActivePlan(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(3), up.ID)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestActivePlan_None(t *testing.T) {
	env := createTestEnv(t)

	env.mock.ExpectQuery(`FROM user_plans up JOIN plans p`).
		WillReturnError(sql.ErrNoRows)

	up, err := env.svc.ActivePlan(context.Background(), 7)
	require.NoError(t, err)
	assert.Nil(t, up)
	assert.False(t, env.mr.Exists("user_plan:active:7"))
}

func TestActivePlan_ExpiredCacheEntryIsIgnored(t *testing.T) {
	env := createTestEnv(t)
	past := time.Now().Add(-time.Hour)

	data, err := json.Marshal(UserPlan{ID: 3, UserID: 7, Status: UserPlanActive, EndsAt: &past})
	require.NoError(t, err)
	require.NoError(t, env.mr.Set("user_plan:active:7", string(data)))

	env.mock.ExpectQuery(`FROM user_plans up JOIN plans p`).
		WillReturnError(sql.ErrNoRows)

	up, err := env.svc.ActivePlan(context.Background(), 7)
	require.NoError(t, err)
	assert.Nil(t, up)
	assert.False(t, env.mr.Exists("user_plan:active:7"))
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

// ==========================
// Subscribe Tests
// ==========================

func TestSubscribe_CancelsPreviousAndInvalidatesCache(t *testing.T) {
	env := createTestEnv(t)
	now := time.Now()
	require.NoError(t, env.mr.Set("user_plan:active:7", `{"id":1,"userId":7}`))

	env.mock.ExpectQuery(`SELECT .* FROM plans WHERE id = \$1`).
		WithArgs(int64(2)).
		WillReturnRows(planRow(2, TierGold, true))
	env.mock.ExpectBegin()
	env.mock.ExpectExec(`UPDATE user_plans SET status = 'cancelled'`).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	env.mock.ExpectQuery(`INSERT INTO user_plans`).
		WithArgs(int64(7), int64(2), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "plan_id", "starts_at", "ends_at", "status", "created_at"}).
			AddRow(4, 7, 2, now, now.AddDate(0, 0, 30), UserPlanActive, now))
	env.mock.ExpectCommit()

	days := 30
	up, err := env.svc.Subscribe(context.Background(), api.Principal{UserID: 7, Role: api.RoleClient},
		SubscribeRequest{PlanID: 2, DurationDays: &days})
	require.NoError(t, err)
	assert.Equal(t, int64(4), up.ID)
	assert.Equal(t, TierGold, up.PlanTier)
	assert.False(t, env.mr.Exists("user_plan:active:7"))
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestSubscribe_RollsBackOnInsertFailure(t *testing.T) {
	env := createTestEnv(t)

	env.mock.ExpectQuery(`SELECT .* FROM plans WHERE id = \$1`).
		WillReturnRows(planRow(2, TierGold, true))
	env.mock.ExpectBegin()
	env.mock.ExpectExec(`UPDATE user_plans`).WillReturnResult(sqlmock.NewResult(0, 1))
	env.mock.ExpectQuery(`INSERT INTO user_plans`).WillReturnError(errors.New("disk full"))
	env.mock.ExpectRollback()

	_, err := env.svc.Subscribe(context.Background(), api.Principal{UserID: 7, Role: api.RoleClient}, SubscribeRequest{PlanID: 2})

	var stdErr *apperrors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, apperrors.ErrCodeDatabaseQueryFailed, stdErr.Code)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestSubscribe_Rejections(t *testing.T) {
	other := int64(8)

	tests := []struct {
		name     string
		caller   api.Principal
		req      SubscribeRequest
		setup    func(sqlmock.Sqlmock)
		wantCode apperrors.ErrorCode
	}{
		{
			name:     "client subscribing someone else",
			caller:   api.Principal{UserID: 7, Role: api.RoleClient},
			req:      SubscribeRequest{PlanID: 2, UserID: &other},
			setup:    func(sqlmock.Sqlmock) {},
			wantCode: apperrors.ErrCodeForbidden,
		},
		{
			name:   "unknown plan",
			caller: api.Principal{UserID: 7, Role: api.RoleClient},
			req:    SubscribeRequest{PlanID: 99},
			setup: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(`FROM plans WHERE id`).WillReturnError(sql.ErrNoRows)
			},
			wantCode: apperrors.ErrCodeResourceNotFound,
		},
		{
			name:   "inactive plan",
			caller: api.Principal{UserID: 7, Role: api.RoleClient},
			req:    SubscribeRequest{PlanID: 2},
			setup: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(`FROM plans WHERE id`).WillReturnRows(planRow(2, TierBasic, false))
			},
			wantCode: apperrors.ErrCodeValidationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := createTestEnv(t)
			tt.setup(env.mock)

			_, err := env.svc.Subscribe(context.Background(), tt.caller, tt.req)

			var stdErr *apperrors.StandardError
			require.ErrorAs(t, err, &stdErr)
			assert.Equal(t, tt.wantCode, stdErr.Code)
			assert.NoError(t, env.mock.ExpectationsWereMet())
		})
	}
}

// ==========================
// Cache Failure Tests
// ==========================

func TestActivePlanCache_RedisErrorsAreMisses(t *testing.T) {
	client, mock := redismock.NewClientMock()
	cache := NewActivePlanCache(client, time.Minute, logger.NewTestLogger(t))

	mock.ExpectGet("user_plan:active:7").SetErr(errors.New("connection refused"))
	_, ok := cache.Get(context.Background(), 7)
	assert.False(t, ok)

	mock.ExpectGet("user_plan:active:7").RedisNil()
	_, ok = cache.Get(context.Background(), 7)
	assert.False(t, ok)

	mock.ExpectGet("user_plan:active:7").SetVal("not json")
	_, ok = cache.Get(context.Background(), 7)
	assert.False(t, ok)

	mock.ExpectDel("user_plan:active:7").SetErr(errors.New("connection refused"))
	cache.Invalidate(context.Background(), 7)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActivePlanCache_Set(t *testing.T) {
	client, mock := redismock.NewClientMock()
	cache := NewActivePlanCache(client, time.Minute, logger.NewTestLogger(t))

	up := &UserPlan{ID: 3, UserID: 7, Status: UserPlanActive, PlanTier: TierBasic}
	data, err := json.Marshal(up)
	require.NoError(t, err)

	mock.ExpectSet("user_plan:active:7", data, time.Minute).SetVal("OK")
	cache.Set(context.Background(), up)

	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Handler Tests
// ==========================

func TestListPlans_AllOnlyForAdmins(t *testing.T) {
	tests := []struct {
		name      string
		principal *api.Principal
		query     string
		wantWhere bool
	}{
		{name: "anonymous", query: "?all=true", wantWhere: true},
		{name: "client", principal: &api.Principal{UserID: 2, Role: api.RoleClient}, query: "?all=true", wantWhere: true},
		{name: "admin without flag", principal: &api.Principal{UserID: 1, Role: api.RoleAdmin}, wantWhere: true},
		{name: "admin with flag", principal: &api.Principal{UserID: 1, Role: api.RoleAdmin}, query: "?all=true"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := createTestEnv(t)
			h := NewHandler(env.svc, apperrors.NewErrorHandler(logger.NewTestLogger(t)))

			r := gin.New()
			r.GET("/api/plans", func(c *gin.Context) {
				if tt.principal != nil {
					api.SetPrincipal(c, *tt.principal)
				}
			}, h.ListPlans)

			if tt.wantWhere {
				env.mock.ExpectQuery(`FROM plans WHERE active = \$1 ORDER BY price_cents`).
					WithArgs(true).
					WillReturnRows(planRow(1, TierBasic, true))
			} else {
				env.mock.ExpectQuery(`FROM plans ORDER BY price_cents`).
					WillReturnRows(planRow(1, TierBasic, false))
			}

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/plans"+tt.query, nil))
			assert.Equal(t, http.StatusOK, w.Code)
			assert.NoError(t, env.mock.ExpectationsWereMet())
		})
	}
}

func TestActivePlanHandler_NullWhenNone(t *testing.T) {
	env := createTestEnv(t)
	h := NewHandler(env.svc, apperrors.NewErrorHandler(logger.NewTestLogger(t)))

	r := gin.New()
	r.GET("/api/user-plans/active", func(c *gin.Context) {
		api.SetPrincipal(c, api.Principal{UserID: 7, Role: api.RoleClient})
	}, h.ActivePlan)

	env.mock.ExpectQuery(`FROM user_plans up JOIN plans p`).WillReturnError(sql.ErrNoRows)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/user-plans/active", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"userPlan":null}`, w.Body.String())
}

func TestCreatePlan_DuplicateTier(t *testing.T) {
	env := createTestEnv(t)
	h := NewHandler(env.svc, apperrors.NewErrorHandler(logger.NewTestLogger(t)))
	r := gin.New()
	r.POST("/api/plans", h.CreatePlan)

	env.mock.ExpectQuery(`INSERT INTO plans`).WillReturnError(&pq.Error{Code: "23505"})

	req := httptest.NewRequest(http.MethodPost, "/api/plans", strings.NewReader(`{"name":"Gold","tier":"gold","priceCents":4990}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusConflict, w.Code)
}
