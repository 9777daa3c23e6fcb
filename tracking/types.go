// Package tracking wraps every generation call with correlation identifiers
// and telemetry emission: one Trace per user-visible AI operation, one
// terminal Span per underlying call, plus Score and Event records produced
// by downstream evaluation and accounting.
//
// Telemetry emission is best-effort. A slow or failing sink never
// surfaces to the caller; only generation-client failures propagate.
package tracking

import "time"

// Trace is one user-visible AI operation (a chat turn, a summarization,
// a reflection generation). Created at call start, immutable thereafter.
type Trace struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Input     any            `json:"input"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	StartTime time.Time      `json:"start_time"`
}

// Span is the terminal sub-event of a Trace: either a completion or an
// error. At most one per underlying network call.
type Span struct {
	TraceID  string         `json:"trace_id"`
	Name     string         `json:"name"`
	Input    any            `json:"input,omitempty"`
	Output   any            `json:"output,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Score is one named metric result attached to a Trace. Values are in
// [0,1]; user_feedback uses {0,1}.
type Score struct {
	TraceID  string         `json:"trace_id"`
	Name     string         `json:"name"`
	Value    float64        `json:"value"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Event is a free-form telemetry record (alerts, periodic reports,
// feature-usage breadcrumbs).
type Event struct {
	Name       string         `json:"name"`
	Properties map[string]any `json:"properties,omitempty"`
}

// Well-known operation names. Free-form names are allowed; these are the
// ones the aggregator breaks out individually.
const (
	OpChatConversation   = "ai-chat-conversation"
	OpEntrySummarization = "entry-summarization"
	OpWeeklyReflection   = "weekly-reflection"
)

// Canonical metric names for Score records.
const (
	MetricSupportiveness  = "supportiveness"
	MetricActionability   = "actionability"
	MetricPersonalization = "personalization"
	MetricResponseLength  = "response_length"
	MetricOverallQuality  = "overall_quality"
	MetricUserFeedback    = "user_feedback"
)
