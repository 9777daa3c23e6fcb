package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/noahdevelopsio/lifeos/quality"
)

// FeedbackRequest is one thumbs vote against a trace.
type FeedbackRequest struct {
	TraceID      string `json:"trace_id"`
	UserID       string `json:"user_id"`
	FeedbackType string `json:"feedback_type"`
	Comment      string `json:"comment,omitempty"`
}

// FeedbackHandler serves POST /v1/feedback.
type FeedbackHandler struct {
	recorder *quality.Recorder
	logger   *zap.Logger
}

func NewFeedbackHandler(recorder *quality.Recorder, logger *zap.Logger) *FeedbackHandler {
	return &FeedbackHandler{
		recorder: recorder,
		logger:   logger.With(zap.String("component", "feedback_handler")),
	}
}

func (h *FeedbackHandler) HandleFeedback(w http.ResponseWriter, r *http.Request) {
	if !ValidateContentType(w, r, h.logger) {
		return
	}
	var req FeedbackRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}
	if req.TraceID == "" || req.UserID == "" {
		WriteErrorMessage(w, http.StatusBadRequest, "invalid_request", "trace_id and user_id are required", h.logger)
		return
	}

	if err := h.recorder.RecordFeedback(r.Context(), req.TraceID, req.UserID, req.FeedbackType, req.Comment); err != nil {
		WriteErrorMessage(w, http.StatusBadRequest, "invalid_request", err.Error(), h.logger)
		return
	}
	WriteSuccess(w, map[string]any{"recorded": true})
}
