// Package handlers implements the HTTP API: tracked chat and summarization
// endpoints, feedback ingestion, dashboard metrics, analysis trigger, and
// health checks. All responses share one envelope.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noahdevelopsio/lifeos/llm"
)

// Response is the unified API response envelope.
type Response struct {
	Success   bool       `json:"success"`
	Data      any        `json:"data,omitempty"`
	Error     *ErrorInfo `json:"error,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// ErrorInfo describes a failed request.
type ErrorInfo struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func WriteSuccess(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusOK, Response{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC(),
	})
}

// WriteError maps generation-client errors onto their HTTP status; anything
// else becomes a 500.
func WriteError(w http.ResponseWriter, err error, logger *zap.Logger) {
	status := http.StatusInternalServerError
	info := &ErrorInfo{
		Code:    "internal_error",
		Message: err.Error(),
	}

	var llmErr *llm.Error
	if errors.As(err, &llmErr) {
		info.Code = string(llmErr.Code)
		info.Retryable = llmErr.Retryable
		if llmErr.HTTPStatus != 0 {
			status = llmErr.HTTPStatus
		}
	}

	if logger != nil {
		logger.Error("API error",
			zap.String("code", info.Code),
			zap.Int("status", status),
			zap.Error(err))
	}

	WriteJSON(w, status, Response{
		Success:   false,
		Error:     info,
		Timestamp: time.Now().UTC(),
	})
}

// WriteErrorMessage writes a simple error without an underlying error value.
func WriteErrorMessage(w http.ResponseWriter, status int, code, message string, logger *zap.Logger) {
	if logger != nil {
		logger.Warn("API error",
			zap.String("code", code),
			zap.Int("status", status),
			zap.String("message", message))
	}
	WriteJSON(w, status, Response{
		Success:   false,
		Error:     &ErrorInfo{Code: code, Message: message},
		Timestamp: time.Now().UTC(),
	})
}

// DecodeJSONBody decodes the request body into dst, writing a 400 on
// failure. Unknown fields are rejected.
func DecodeJSONBody(w http.ResponseWriter, r *http.Request, dst any, logger *zap.Logger) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		WriteErrorMessage(w, http.StatusBadRequest, "invalid_request",
			fmt.Sprintf("malformed request body: %v", err), logger)
		return err
	}
	return nil
}

// ValidateContentType requires application/json on body-carrying requests.
func ValidateContentType(w http.ResponseWriter, r *http.Request, logger *zap.Logger) bool {
	ct := r.Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "application/json") {
		WriteErrorMessage(w, http.StatusUnsupportedMediaType, "invalid_request",
			"Content-Type must be application/json", logger)
		return false
	}
	return true
}
