package performance

import (
	"context"
	"fmt"
	"time"

	"github.com/noahdevelopsio/lifeos/tracking"
)

// BatchOp is one completed operation inside a batch.
type BatchOp struct {
	TraceID    string
	Operation  string
	DurationMs int64
	Tokens     int
}

// BatchSummary aggregates a batch of operations.
type BatchSummary struct {
	OperationCount  int     `json:"operation_count"`
	TotalDurationMs int64   `json:"total_duration_ms"`
	TotalTokens     int     `json:"total_tokens"`
	AvgDurationMs   float64 `json:"avg_duration_ms"`
	AvgTokens       float64 `json:"avg_tokens"`
}

// TrackBatch summarizes a batch of operations and logs the summary as a
// telemetry event. An empty batch yields a zero summary and no event.
func (a *Accountant) TrackBatch(ctx context.Context, ops []BatchOp) BatchSummary {
	if len(ops) == 0 {
		return BatchSummary{}
	}

	var s BatchSummary
	s.OperationCount = len(ops)
	for _, op := range ops {
		s.TotalDurationMs += op.DurationMs
		s.TotalTokens += op.Tokens
	}
	s.AvgDurationMs = float64(s.TotalDurationMs) / float64(len(ops))
	s.AvgTokens = float64(s.TotalTokens) / float64(len(ops))

	a.emit.Log(ctx, tracking.Event{
		Name: "batch-performance-summary",
		Properties: map[string]any{
			"operation_count":   s.OperationCount,
			"total_duration_ms": s.TotalDurationMs,
			"total_tokens":      s.TotalTokens,
			"avg_duration_ms":   fmt.Sprintf("%.2f", s.AvgDurationMs),
			"avg_tokens":        fmt.Sprintf("%.2f", s.AvgTokens),
			"timestamp":         time.Now().UTC().Format(time.RFC3339),
		},
	})
	return s
}
