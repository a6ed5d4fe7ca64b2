package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helpers
// ==========================

type testLogger struct {
	warns  []string
	errors []string
}

func (l *testLogger) Warn(msg string, _ map[string]interface{})  { l.warns = append(l.warns, msg) }
func (l *testLogger) Error(msg string, _ map[string]interface{}) { l.errors = append(l.errors, msg) }

func serve(t *testing.T, err error) (*httptest.ResponseRecorder, *testLogger) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := &testLogger{}
	h := NewErrorHandler(log)

	router := gin.New()
	router.GET("/probe", func(c *gin.Context) { h.Respond(c, err) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	router.ServeHTTP(w, req)
	return w, log
}

// ==========================
// HTTP Mapping Tests
// ==========================

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code     ErrorCode
		expected int
	}{
		{ErrCodeValidationFailed, http.StatusBadRequest},
		{ErrCodeInvalidRequestBody, http.StatusBadRequest},
		{ErrCodeResourceNotFound, http.StatusNotFound},
		{ErrCodeInvalidStateTransition, http.StatusConflict},
		{ErrCodeDuplicateResource, http.StatusConflict},
		{ErrCodeAuthentication, http.StatusUnauthorized},
		{ErrCodeForbidden, http.StatusForbidden},
		{ErrCodeRateLimited, http.StatusTooManyRequests},
		{ErrCodeDatabaseQueryFailed, http.StatusInternalServerError},
		{ErrorCode("SOMETHING_ELSE"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.expected, HTTPStatus(tt.code))
		})
	}
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeValidationFailed))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeInvalidStateTransition))
	assert.Equal(t, "DATABASE", GetErrorCategory(ErrCodeDatabaseQueryFailed))
	assert.Equal(t, "AUTH", GetErrorCategory(ErrCodeAuthentication))
	assert.Equal(t, "AUTH", GetErrorCategory(ErrCodeForbidden))
	assert.Equal(t, "EXTERNAL", GetErrorCategory(ErrCodeAIAnalysisFailed))
	assert.Equal(t, "SEARCH", GetErrorCategory(ErrCodeSearchQueryFailed))
	assert.Equal(t, "RESOURCE", GetErrorCategory(ErrCodeResourceNotFound))
	assert.Equal(t, "OTHER", GetErrorCategory(ErrCodeInternal))
}

// ==========================
// Responder Tests
// ==========================

func TestErrorHandler_Respond_ClientError(t *testing.T) {
	w, log := serve(t, NewValidationError("pupillaryDistance is required", "field: pupillaryDistance"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var body Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "pupillaryDistance is required", body.Error)
	assert.Equal(t, ErrCodeValidationFailed, body.Code)
	assert.Equal(t, "field: pupillaryDistance", body.Details)
	assert.Len(t, log.warns, 1)
	assert.Empty(t, log.errors)
}

func TestErrorHandler_Respond_WrappedStandardError(t *testing.T) {
	wrapped := fmt.Errorf("approve: %w", NewResourceNotFoundError("Franchise", "id=9"))
	w, _ := serve(t, wrapped)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Franchise not found")
}

func TestErrorHandler_Respond_HidesServerDetails(t *testing.T) {
	w, log := serve(t, NewDatabaseQueryFailedError("insert measurement", fmt.Errorf("pq: connection refused")))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection refused")
	assert.Len(t, log.errors, 1)
}

func TestErrorHandler_Respond_PlainError(t *testing.T) {
	w, _ := serve(t, fmt.Errorf("boom"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var body Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, ErrCodeInternal, body.Code)
	assert.Equal(t, "Unexpected error", body.Error)
}

func TestErrorHandler_Respond_Timeout(t *testing.T) {
	w, _ := serve(t, fmt.Errorf("query: %w", context.DeadlineExceeded))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Request timed out")
}

func TestStandardError_WithMetadata(t *testing.T) {
	err := NewInvalidStateTransitionError("Franchise", "rejected", "active").WithMetadata("id", int64(3))
	assert.Equal(t, "rejected", err.Metadata["from"])
	assert.Equal(t, int64(3), err.Metadata["id"])
	assert.Equal(t, http.StatusConflict, HTTPStatus(err.Code))
}
