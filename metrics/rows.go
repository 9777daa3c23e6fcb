// Package metrics persists per-call evaluation rows and user feedback, and
// derives dashboard summaries and weekly health reports from them.
//
// Writes are soft-failure: a storage outage loses metric rows but never
// fails the user-facing operation that produced them. Reads return errors
// normally.
package metrics

import "time"

// Feedback types. Anything else is rejected before it reaches storage.
const (
	FeedbackUp   = "up"
	FeedbackDown = "down"
)

// EvaluationRow is one persisted evaluation of one generation call. Score
// and performance fields are pointers so a partially evaluated call (an
// evaluator skipped, performance unavailable) stores NULL rather than a
// misleading zero.
type EvaluationRow struct {
	ID                   uint     `gorm:"primaryKey" json:"id"`
	TraceID              string   `gorm:"index;not null" json:"trace_id"`
	UserID               string   `gorm:"index" json:"user_id,omitempty"`
	Operation            string   `gorm:"index;not null" json:"operation"`
	SupportivenessScore  *float64 `json:"supportiveness_score,omitempty"`
	ActionabilityScore   *float64 `json:"actionability_score,omitempty"`
	PersonalizationScore *float64 `json:"personalization_score,omitempty"`
	LengthScore          *float64 `json:"length_score,omitempty"`
	OverallScore         *float64 `json:"overall_score,omitempty"`
	DurationMs           *int64   `json:"duration_ms,omitempty"`
	TokenCount           *int     `json:"token_count,omitempty"`
	EstimatedCost        *float64 `json:"estimated_cost,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (EvaluationRow) TableName() string { return "ai_evaluations" }

// NewEvaluationRow returns a row with identity fields set and CreatedAt
// stamped. Scores and performance fields are attached by the caller as they
// become available.
func NewEvaluationRow(traceID, userID, operation string) *EvaluationRow {
	return &EvaluationRow{
		TraceID:   traceID,
		UserID:    userID,
		Operation: operation,
		CreatedAt: time.Now().UTC(),
	}
}

// FeedbackRow is one thumbs-up or thumbs-down vote against a trace.
type FeedbackRow struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	TraceID      string    `gorm:"index;not null" json:"trace_id"`
	UserID       string    `gorm:"index;not null" json:"user_id"`
	FeedbackType string    `gorm:"not null" json:"feedback_type"`
	Comment      string    `json:"comment,omitempty"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
}

func (FeedbackRow) TableName() string { return "ai_feedback" }

// NewFeedbackRow validates the feedback type and returns a stamped row.
// Returns false when feedbackType is neither FeedbackUp nor FeedbackDown.
func NewFeedbackRow(traceID, userID, feedbackType, comment string) (*FeedbackRow, bool) {
	if feedbackType != FeedbackUp && feedbackType != FeedbackDown {
		return nil, false
	}
	return &FeedbackRow{
		TraceID:      traceID,
		UserID:       userID,
		FeedbackType: feedbackType,
		Comment:      comment,
		CreatedAt:    time.Now().UTC(),
	}, true
}
