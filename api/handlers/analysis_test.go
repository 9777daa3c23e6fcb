package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/noahdevelopsio/lifeos/api/handlers"
	"github.com/noahdevelopsio/lifeos/metrics"
	"github.com/noahdevelopsio/lifeos/testutil/mocks"
	"github.com/noahdevelopsio/lifeos/tracking"
)

func newAnalysisFixture(t *testing.T, secret string) (*metrics.MemoryStore, *handlers.AnalysisHandler) {
	t.Helper()
	logger := zaptest.NewLogger(t)
	store := metrics.NewMemoryStore()
	emit := tracking.NewDispatcher(mocks.NewRecordingSink(), time.Second, logger)
	analyzer := metrics.NewWeeklyAnalyzer(store, emit, logger)
	return store, handlers.NewAnalysisHandler(analyzer, secret, 7, logger)
}

func runRequest(token string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/v1/analysis/run", nil)
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	return req
}

func TestHandleRun_DeniedWithoutConfiguredSecret(t *testing.T) {
	_, handler := newAnalysisFixture(t, "")

	rec := httptest.NewRecorder()
	handler.HandleRun(rec, runRequest("Bearer anything"))

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	resp := decodeEnvelope(t, rec)
	assert.Equal(t, "unauthorized", resp.Error.Code)
}

func TestHandleRun_DeniedForBadCredentials(t *testing.T) {
	_, handler := newAnalysisFixture(t, "s3cret")

	for name, token := range map[string]string{
		"missing header": "",
		"wrong token":    "Bearer nope",
		"no bearer":      "s3cret",
	} {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.HandleRun(rec, runRequest(token))
			require.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestHandleRun_EmptyWindow(t *testing.T) {
	_, handler := newAnalysisFixture(t, "s3cret")

	rec := httptest.NewRecorder()
	handler.HandleRun(rec, runRequest("Bearer s3cret"))

	require.Equal(t, http.StatusOK, rec.Code)
	data := dataMap(t, decodeEnvelope(t, rec))
	assert.Equal(t, false, data["analyzed"])
	assert.Equal(t, "no evaluations to analyze", data["message"])
}

func TestHandleRun_ReturnsReport(t *testing.T) {
	store, handler := newAnalysisFixture(t, "s3cret")
	for _, score := range []float64{0.9, 0.8} {
		s := score
		row := metrics.NewEvaluationRow("trace", "user-1", tracking.OpChatConversation)
		row.OverallScore = &s
		require.True(t, store.SaveEvaluation(context.Background(), row))
	}

	rec := httptest.NewRecorder()
	handler.HandleRun(rec, runRequest("Bearer s3cret"))

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeEnvelope(t, rec)
	require.True(t, resp.Success)
	data := dataMap(t, resp)
	assert.Equal(t, "last-7-days", data["period"])
	assert.Equal(t, 2.0, data["total_interactions"])
	assert.InDelta(t, 0.85, data["average_quality"], 1e-9)
	assert.Equal(t, metrics.StatusHealthy, data["status"])
}
