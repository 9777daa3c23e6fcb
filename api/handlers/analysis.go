package handlers

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/noahdevelopsio/lifeos/metrics"
)

// AnalysisHandler triggers the weekly quality analysis on demand,
// authorized by a shared bearer secret. The scheduler covers the normal
// path; this endpoint exists for operators and external cron services.
type AnalysisHandler struct {
	analyzer   *metrics.WeeklyAnalyzer
	secret     string
	windowDays int
	logger     *zap.Logger
}

func NewAnalysisHandler(analyzer *metrics.WeeklyAnalyzer, secret string, windowDays int, logger *zap.Logger) *AnalysisHandler {
	return &AnalysisHandler{
		analyzer:   analyzer,
		secret:     secret,
		windowDays: windowDays,
		logger:     logger.With(zap.String("component", "analysis_handler")),
	}
}

// HandleRun serves POST /v1/analysis/run.
func (h *AnalysisHandler) HandleRun(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		WriteErrorMessage(w, http.StatusUnauthorized, "unauthorized", "invalid or missing bearer token", h.logger)
		return
	}

	report, err := h.analyzer.Run(r.Context(), h.windowDays)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	if report.Empty {
		WriteSuccess(w, map[string]any{"analyzed": false, "message": "no evaluations to analyze"})
		return
	}
	WriteSuccess(w, report)
}

func (h *AnalysisHandler) authorized(r *http.Request) bool {
	if h.secret == "" {
		return false
	}
	auth := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(h.secret)) == 1
}
