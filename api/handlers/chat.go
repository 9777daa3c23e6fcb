package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noahdevelopsio/lifeos/evaluation"
	"github.com/noahdevelopsio/lifeos/llm"
	"github.com/noahdevelopsio/lifeos/quality"
	"github.com/noahdevelopsio/lifeos/tracking"
)

// postProcessTimeout bounds the async evaluation pipeline for one response.
const postProcessTimeout = 30 * time.Second

// ChatMessage is one turn in the request payload.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the payload for chat and chat-stream endpoints.
type ChatRequest struct {
	UserID            string                 `json:"user_id"`
	Messages          []ChatMessage          `json:"messages"`
	SystemInstruction string                 `json:"system_instruction,omitempty"`
	Context           evaluation.UserContext `json:"context,omitempty"`
}

// SummarizeRequest is the payload for the summarization endpoint.
type SummarizeRequest struct {
	UserID string `json:"user_id"`
	Text   string `json:"text"`
}

// ChatHandler serves tracked generation endpoints. Every successful call is
// handed to the quality processor asynchronously; the response never waits
// for scoring or persistence.
type ChatHandler struct {
	tracker   *tracking.Tracker
	processor *quality.Processor
	logger    *zap.Logger
}

func NewChatHandler(tracker *tracking.Tracker, processor *quality.Processor, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		tracker:   tracker,
		processor: processor,
		logger:    logger.With(zap.String("component", "chat_handler")),
	}
}

// HandleChat serves POST /v1/chat.
func (h *ChatHandler) HandleChat(w http.ResponseWriter, r *http.Request) {
	if !ValidateContentType(w, r, h.logger) {
		return
	}
	var req ChatRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}
	if len(req.Messages) == 0 {
		WriteErrorMessage(w, http.StatusBadRequest, "invalid_request", "messages must not be empty", h.logger)
		return
	}

	res, err := h.tracker.TrackedComplete(r.Context(), tracking.OpChatConversation,
		toMessages(req.Messages), req.SystemInstruction,
		tracking.CallMeta{UserID: req.UserID, Feature: "chat"})
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	h.postProcess(r.Context(), quality.Completion{
		TraceID:      res.TraceID,
		UserID:       req.UserID,
		Operation:    tracking.OpChatConversation,
		Response:     res.Text,
		User:         req.Context,
		DurationMs:   res.DurationMs,
		InputTokens:  res.InputTokens,
		OutputTokens: res.OutputTokens,
		Model:        res.Model,
	})

	WriteSuccess(w, map[string]any{
		"response":     res.Text,
		"trace_id":     res.TraceID,
		"duration_ms":  res.DurationMs,
		"total_tokens": res.TotalTokens,
	})
}

// HandleChatStream serves POST /v1/chat/stream as server-sent events.
// Chunks are forwarded in arrival order; the final event carries the trace
// ID so the client can attach feedback later.
func (h *ChatHandler) HandleChatStream(w http.ResponseWriter, r *http.Request) {
	if !ValidateContentType(w, r, h.logger) {
		return
	}
	var req ChatRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}
	if len(req.Messages) == 0 {
		WriteErrorMessage(w, http.StatusBadRequest, "invalid_request", "messages must not be empty", h.logger)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteErrorMessage(w, http.StatusInternalServerError, "internal_error", "streaming unsupported", h.logger)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	res, err := h.tracker.TrackedStream(r.Context(), tracking.OpChatConversation,
		toMessages(req.Messages), req.SystemInstruction,
		func(chunk string) {
			writeSSEData(w, chunk)
			flusher.Flush()
		},
		tracking.CallMeta{UserID: req.UserID, Feature: "chat"})
	if err != nil {
		// Headers are committed; the failure goes out as an SSE event.
		io.WriteString(w, "event: error\n")
		writeSSEData(w, err.Error())
		flusher.Flush()
		return
	}

	fmt.Fprintf(w, "event: done\ndata: %s\n\n", res.TraceID)
	flusher.Flush()

	h.postProcess(r.Context(), quality.Completion{
		TraceID:      res.TraceID,
		UserID:       req.UserID,
		Operation:    tracking.OpChatConversation,
		Response:     res.Text,
		User:         req.Context,
		DurationMs:   res.DurationMs,
		InputTokens:  res.InputTokens,
		OutputTokens: res.OutputTokens,
		Model:        res.Model,
	})
}

// HandleSummarize serves POST /v1/summarize.
func (h *ChatHandler) HandleSummarize(w http.ResponseWriter, r *http.Request) {
	if !ValidateContentType(w, r, h.logger) {
		return
	}
	var req SummarizeRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}
	if req.Text == "" {
		WriteErrorMessage(w, http.StatusBadRequest, "invalid_request", "text must not be empty", h.logger)
		return
	}

	const system = "Summarize the user's journal entry in two or three warm, encouraging sentences."
	res, err := h.tracker.TrackedComplete(r.Context(), tracking.OpEntrySummarization,
		[]llm.Message{{Role: llm.RoleUser, Content: req.Text}}, system,
		tracking.CallMeta{UserID: req.UserID, Feature: "summarization"})
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	h.postProcess(r.Context(), quality.Completion{
		TraceID:      res.TraceID,
		UserID:       req.UserID,
		Operation:    tracking.OpEntrySummarization,
		Response:     res.Text,
		DurationMs:   res.DurationMs,
		InputTokens:  res.InputTokens,
		OutputTokens: res.OutputTokens,
		Model:        res.Model,
	})

	WriteSuccess(w, map[string]any{
		"summary":     res.Text,
		"trace_id":    res.TraceID,
		"duration_ms": res.DurationMs,
	})
}

// postProcess runs scoring and persistence detached from the request: the
// caller's deadline must not cancel it, and its failure must not surface.
func (h *ChatHandler) postProcess(parent context.Context, c quality.Completion) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), postProcessTimeout)
	go func() {
		defer cancel()
		if _, err := h.processor.Process(ctx, c); err != nil {
			h.logger.Warn("post-processing failed",
				zap.String("trace_id", c.TraceID),
				zap.Error(err))
		}
	}()
}

func toMessages(in []ChatMessage) []llm.Message {
	out := make([]llm.Message, 0, len(in))
	for _, m := range in {
		role := llm.RoleUser
		if m.Role == string(llm.RoleModel) || m.Role == "assistant" {
			role = llm.RoleModel
		}
		out = append(out, llm.Message{Role: role, Content: m.Content})
	}
	return out
}

// writeSSEData frames one payload as an SSE data block. The protocol
// carries one payload line per "data:" field, so a payload containing
// newlines must become one field per line or clients drop the rest.
func writeSSEData(w io.Writer, payload string) {
	for _, line := range strings.Split(payload, "\n") {
		fmt.Fprintf(w, "data: %s\n", line)
	}
	io.WriteString(w, "\n")
}
