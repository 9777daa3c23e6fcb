package tracking

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/noahdevelopsio/lifeos/llm"
	"github.com/noahdevelopsio/lifeos/llm/tokenizer"
)

// Truncation limits for stored inputs/outputs. Full text always reaches the
// caller; only telemetry copies are truncated.
const (
	maxStoredInstruction = 200
	maxStoredOutput      = 500
)

// CallMeta identifies the caller of a tracked operation.
type CallMeta struct {
	UserID  string
	Feature string
	Extra   map[string]any
}

// Result is returned by TrackedComplete and TrackedStream. Text holds the
// full response regardless of what was truncated for telemetry.
type Result struct {
	Text         string
	TraceID      string
	DurationMs   int64
	InputTokens  int
	OutputTokens int
	TotalTokens  int
	Model        string
}

// JSONResult is returned by TrackedJSON.
type JSONResult[T any] struct {
	Value      T
	TraceID    string
	DurationMs int64
}

// Tracker makes exactly one generation-client call per invocation while
// producing exactly one Trace and one terminal Span. It holds no per-call
// state; each invocation owns its own accumulator, so a single Tracker is
// safe for concurrent use.
type Tracker struct {
	client      llm.Client
	emit        *Dispatcher
	environment string
	logger      *zap.Logger
}

func NewTracker(client llm.Client, emit *Dispatcher, environment string, logger *zap.Logger) *Tracker {
	return &Tracker{
		client:      client,
		emit:        emit,
		environment: environment,
		logger:      logger.With(zap.String("component", "tracker")),
	}
}

// Client exposes the wrapped generation client for callers that need
// untracked access (health probes).
func (t *Tracker) Client() llm.Client { return t.client }

// TrackedComplete performs one non-streaming generation call.
// Generation-client failures propagate to the caller after an error span is
// recorded; telemetry failures never do.
func (t *Tracker) TrackedComplete(ctx context.Context, operationName string, messages []llm.Message, systemInstruction string, meta CallMeta) (*Result, error) {
	traceID := NewTraceID()

	t.emit.Trace(ctx, Trace{
		ID:   traceID,
		Name: operationName,
		Input: map[string]any{
			"messages":           messages,
			"system_instruction": truncate(systemInstruction, maxStoredInstruction),
			"model":              t.client.Model(),
		},
		Metadata:  t.callMetadata(meta, nil),
		StartTime: time.Now(),
	})

	start := time.Now()
	text, err := t.client.Complete(ctx, messages, systemInstruction)
	duration := time.Since(start)

	if err != nil {
		t.emitError(ctx, traceID, operationName+"-error", err, duration, nil)
		return nil, err
	}

	inputTokens := tokenizer.EstimateMessages(messages)
	outputTokens := tokenizer.Estimate(text)

	t.emit.Span(ctx, Span{
		TraceID: traceID,
		Name:    operationName + "-completion",
		Input:   lastMessage(messages),
		Output:  truncate(text, maxStoredOutput),
		Metadata: map[string]any{
			"duration_ms":            duration.Milliseconds(),
			"input_tokens_estimate":  inputTokens,
			"output_tokens_estimate": outputTokens,
			"total_tokens_estimate":  inputTokens + outputTokens,
			"model":                  t.client.Model(),
			"success":                true,
		},
	})

	return &Result{
		Text:         text,
		TraceID:      traceID,
		DurationMs:   duration.Milliseconds(),
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		TotalTokens:  inputTokens + outputTokens,
		Model:        t.client.Model(),
	}, nil
}

// TrackedStream performs one streaming generation call. Every chunk the
// client delivers is forwarded to onChunk synchronously, in arrival order,
// while the full text is accumulated for telemetry and the return value.
func (t *Tracker) TrackedStream(ctx context.Context, operationName string, messages []llm.Message, systemInstruction string, onChunk llm.ChunkFunc, meta CallMeta) (*Result, error) {
	traceID := NewTraceID()

	t.emit.Trace(ctx, Trace{
		ID:   traceID,
		Name: operationName,
		Input: map[string]any{
			"messages":      messages,
			"message_count": len(messages),
		},
		Metadata:  t.callMetadata(meta, map[string]any{"streaming": true}),
		StartTime: time.Now(),
	})

	var fullText string
	start := time.Now()
	err := t.client.Stream(ctx, messages, systemInstruction, func(chunk string) {
		fullText += chunk
		onChunk(chunk)
	})
	duration := time.Since(start)

	if err != nil {
		t.emitError(ctx, traceID, operationName+"-stream-error", err, duration, map[string]any{
			"partial_response_length": len(fullText),
		})
		return nil, err
	}

	inputTokens := tokenizer.EstimateMessages(messages)
	outputTokens := tokenizer.Estimate(fullText)

	t.emit.Span(ctx, Span{
		TraceID: traceID,
		Name:    operationName + "-stream-completion",
		Output:  truncate(fullText, maxStoredOutput),
		Metadata: map[string]any{
			"duration_ms":           duration.Milliseconds(),
			"total_tokens_estimate": inputTokens + outputTokens,
			"response_length":       len(fullText),
			"streaming":             true,
			"success":               true,
		},
	})

	return &Result{
		Text:         fullText,
		TraceID:      traceID,
		DurationMs:   duration.Milliseconds(),
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		TotalTokens:  inputTokens + outputTokens,
		Model:        t.client.Model(),
	}, nil
}

// TrackedJSON performs one JSON-mode generation call and decodes the result
// into T. A package-level function because methods cannot carry type
// parameters.
func TrackedJSON[T any](ctx context.Context, t *Tracker, operationName, prompt, systemInstruction string, meta CallMeta) (*JSONResult[T], error) {
	traceID := NewTraceID()

	t.emit.Trace(ctx, Trace{
		ID:   traceID,
		Name: operationName,
		Input: map[string]any{
			"prompt": truncate(prompt, maxStoredOutput),
		},
		Metadata:  t.callMetadata(meta, map[string]any{"mode": "json"}),
		StartTime: time.Now(),
	})

	var value T
	start := time.Now()
	err := t.client.CompleteJSON(ctx, prompt, systemInstruction, &value)
	duration := time.Since(start)

	if err != nil {
		t.emitError(ctx, traceID, operationName+"-json-error", err, duration, nil)
		return nil, err
	}

	t.emit.Span(ctx, Span{
		TraceID: traceID,
		Name:    operationName + "-json-completion",
		Output:  value,
		Metadata: map[string]any{
			"duration_ms": duration.Milliseconds(),
			"mode":        "json",
			"success":     true,
		},
	})

	return &JSONResult[T]{
		Value:      value,
		TraceID:    traceID,
		DurationMs: duration.Milliseconds(),
	}, nil
}

func (t *Tracker) callMetadata(meta CallMeta, extra map[string]any) map[string]any {
	merged := make(map[string]any, len(meta.Extra)+len(extra)+1)
	for k, v := range meta.Extra {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	if meta.Feature != "" {
		merged["feature"] = meta.Feature
	}
	return UserMetadata(meta.UserID, t.environment, merged)
}

func (t *Tracker) emitError(ctx context.Context, traceID, spanName string, err error, duration time.Duration, extra map[string]any) {
	md := map[string]any{
		"error":       err.Error(),
		"error_type":  errorClass(err),
		"duration_ms": duration.Milliseconds(),
		"success":     false,
	}
	for k, v := range extra {
		md[k] = v
	}
	t.emit.Span(ctx, Span{
		TraceID:  traceID,
		Name:     spanName,
		Metadata: md,
	})
}

// errorClass names the failure for telemetry: the unified LLM error code
// when available, the concrete Go type otherwise.
func errorClass(err error) string {
	var llmErr *llm.Error
	if errors.As(err, &llmErr) {
		return string(llmErr.Code)
	}
	return fmt.Sprintf("%T", err)
}

// truncate caps s at n bytes, backing up to a rune boundary so the stored
// copy stays valid UTF-8.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}

func lastMessage(messages []llm.Message) any {
	if len(messages) == 0 {
		return nil
	}
	return messages[len(messages)-1]
}
