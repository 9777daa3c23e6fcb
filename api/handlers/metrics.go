package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/noahdevelopsio/lifeos/metrics"
)

// MetricsHandler serves the dashboard summary endpoint.
type MetricsHandler struct {
	aggregator *metrics.Aggregator
	logger     *zap.Logger
}

func NewMetricsHandler(aggregator *metrics.Aggregator, logger *zap.Logger) *MetricsHandler {
	return &MetricsHandler{
		aggregator: aggregator,
		logger:     logger.With(zap.String("component", "metrics_handler")),
	}
}

// HandleSummary serves GET /v1/metrics/summary. An optional window_days
// query parameter overrides the default 30 day window.
func (h *MetricsHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	windowDays := 0
	if raw := r.URL.Query().Get("window_days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			WriteErrorMessage(w, http.StatusBadRequest, "invalid_request", "window_days must be a positive integer", h.logger)
			return
		}
		windowDays = parsed
	}

	summary, err := h.aggregator.Summary(r.Context(), windowDays)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	WriteSuccess(w, summary)
}
