package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/noahdevelopsio/lifeos/api/handlers"
)

func TestHandleHealthz(t *testing.T) {
	handler := handlers.NewHealthHandler(zaptest.NewLogger(t))

	rec := httptest.NewRecorder()
	handler.HandleHealthz(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)
}

func TestHandleReadyz_NoChecks(t *testing.T) {
	handler := handlers.NewHealthHandler(zaptest.NewLogger(t))

	rec := httptest.NewRecorder()
	handler.HandleReadyz(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleReadyz_AllChecksPass(t *testing.T) {
	handler := handlers.NewHealthHandler(zaptest.NewLogger(t))
	handler.RegisterCheck(handlers.CheckFunc{
		CheckName: "database",
		Fn:        func(ctx context.Context) error { return nil },
	})
	handler.RegisterCheck(handlers.CheckFunc{
		CheckName: "redis",
		Fn:        func(ctx context.Context) error { return nil },
	})

	rec := httptest.NewRecorder()
	handler.HandleReadyz(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var status handlers.HealthStatus
	require.NoError(t, jsonUnmarshal(rec, &status))
	assert.Equal(t, "healthy", status.Status)
	assert.Equal(t, "pass", status.Checks["database"].Status)
	assert.Equal(t, "pass", status.Checks["redis"].Status)
}

func TestHandleReadyz_FailingCheckDegrades(t *testing.T) {
	handler := handlers.NewHealthHandler(zaptest.NewLogger(t))
	handler.RegisterCheck(handlers.CheckFunc{
		CheckName: "database",
		Fn:        func(ctx context.Context) error { return nil },
	})
	handler.RegisterCheck(handlers.CheckFunc{
		CheckName: "redis",
		Fn:        func(ctx context.Context) error { return errors.New("connection refused") },
	})

	rec := httptest.NewRecorder()
	handler.HandleReadyz(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var status handlers.HealthStatus
	require.NoError(t, jsonUnmarshal(rec, &status))
	assert.Equal(t, "unhealthy", status.Status)
	assert.Equal(t, "pass", status.Checks["database"].Status)
	assert.Equal(t, "fail", status.Checks["redis"].Status)
	assert.Equal(t, "connection refused", status.Checks["redis"].Message)
}
