package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/noahdevelopsio/lifeos/api/handlers"
	"github.com/noahdevelopsio/lifeos/metrics"
)

func newMetricsFixture(t *testing.T) (*metrics.MemoryStore, *handlers.MetricsHandler) {
	t.Helper()
	logger := zaptest.NewLogger(t)
	store := metrics.NewMemoryStore()
	aggregator := metrics.NewAggregator(store, nil, 0, logger)
	return store, handlers.NewMetricsHandler(aggregator, logger)
}

func seedEval(t *testing.T, store *metrics.MemoryStore, operation string, overall float64) {
	t.Helper()
	row := metrics.NewEvaluationRow("trace", "user-1", operation)
	row.OverallScore = &overall
	require.True(t, store.SaveEvaluation(context.Background(), row))
}

func TestHandleSummary_ReturnsAggregates(t *testing.T) {
	store, handler := newMetricsFixture(t)
	seedEval(t, store, "ai-chat-conversation", 0.8)
	seedEval(t, store, "ai-chat-conversation", 0.6)
	seedEval(t, store, "entry-summarization", 0.9)

	req := httptest.NewRequest(http.MethodGet, "/v1/metrics/summary", nil)
	rec := httptest.NewRecorder()
	handler.HandleSummary(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	data := dataMap(t, decodeEnvelope(t, rec))
	assert.Equal(t, 3.0, data["total_evaluations"])
	assert.Equal(t, float64(metrics.DefaultSummaryWindowDays), data["window_days"])
	assert.Equal(t, false, data["is_demo"])

	usage, ok := data["usage"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 2.0, usage["total_chats"])
	assert.Equal(t, 1.0, usage["total_summarizations"])
}

func TestHandleSummary_EmptyStoreIsDemo(t *testing.T) {
	_, handler := newMetricsFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/metrics/summary", nil)
	rec := httptest.NewRecorder()
	handler.HandleSummary(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	data := dataMap(t, decodeEnvelope(t, rec))
	assert.Equal(t, true, data["is_demo"])
}

func TestHandleSummary_CustomWindow(t *testing.T) {
	store, handler := newMetricsFixture(t)
	seedEval(t, store, "ai-chat-conversation", 0.8)

	req := httptest.NewRequest(http.MethodGet, "/v1/metrics/summary?window_days=7", nil)
	rec := httptest.NewRecorder()
	handler.HandleSummary(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	data := dataMap(t, decodeEnvelope(t, rec))
	assert.Equal(t, 7.0, data["window_days"])
}

func TestHandleSummary_RejectsBadWindow(t *testing.T) {
	_, handler := newMetricsFixture(t)

	for _, raw := range []string{"abc", "0", "-3", "1.5"} {
		t.Run(raw, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/metrics/summary?window_days="+raw, nil)
			rec := httptest.NewRecorder()
			handler.HandleSummary(rec, req)

			require.Equal(t, http.StatusBadRequest, rec.Code)
			resp := decodeEnvelope(t, rec)
			assert.Equal(t, "invalid_request", resp.Error.Code)
		})
	}
}

func TestHandleSummary_IncludesFeedbackStats(t *testing.T) {
	store, handler := newMetricsFixture(t)
	for _, typ := range []string{"up", "up", "up", "down"} {
		row, ok := metrics.NewFeedbackRow("trace", "user-1", typ, "")
		require.True(t, ok)
		require.True(t, store.SaveFeedback(context.Background(), row))
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/metrics/summary", nil)
	rec := httptest.NewRecorder()
	handler.HandleSummary(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	data := dataMap(t, decodeEnvelope(t, rec))
	feedback, ok := data["feedback"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 3.0, feedback["thumbs_up"])
	assert.Equal(t, 1.0, feedback["thumbs_down"])
	assert.InDelta(t, 0.75, feedback["satisfaction_rate"], 1e-9)
}
