// Package llm defines the generation-client boundary: the message types,
// the unified error shape, and the Client interface the tracking layer
// consumes. Concrete adapters live under llm/providers.
package llm

import (
	"context"
	"time"
)

// ErrorCode aligns upstream failures with HTTP status and retryability.
type ErrorCode string

const (
	ErrInvalidRequest  ErrorCode = "LLM_INVALID_REQUEST"
	ErrUnauthorized    ErrorCode = "LLM_UNAUTHORIZED"
	ErrRateLimited     ErrorCode = "LLM_RATE_LIMITED"
	ErrContentFiltered ErrorCode = "LLM_CONTENT_FILTERED"
	ErrUpstreamTimeout ErrorCode = "LLM_UPSTREAM_TIMEOUT"
	ErrUpstreamError   ErrorCode = "LLM_UPSTREAM_ERROR"
)

// Error is the unified error returned by generation clients.
type Error struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	HTTPStatus int       `json:"http_status"`
	Retryable  bool      `json:"retryable"`
	Provider   string    `json:"provider,omitempty"`
}

func (e *Error) Error() string { return e.Message }

type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Message is a single turn of conversation history.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ChunkFunc receives one UTF-8 text fragment per invocation, in arrival order.
type ChunkFunc func(chunk string)

// Client is the generation capability consumed by the tracking layer.
//
// Complete returns the full response text. CompleteJSON instructs the model
// to answer in JSON and unmarshals the result into out. Stream invokes
// onChunk zero or more times, synchronously as fragments arrive; callers
// that need the full text accumulate it themselves.
//
// Timeout and retry policy belong to the implementation, not to callers.
type Client interface {
	Complete(ctx context.Context, messages []Message, systemInstruction string) (string, error)
	CompleteJSON(ctx context.Context, prompt, systemInstruction string, out any) error
	Stream(ctx context.Context, messages []Message, systemInstruction string, onChunk ChunkFunc) error

	// Model returns the model identifier requests are served with,
	// used for cost attribution.
	Model() string

	Name() string
}

// HealthStatus reports the result of a provider liveness probe.
type HealthStatus struct {
	Healthy bool          `json:"healthy"`
	Latency time.Duration `json:"latency"`
}
