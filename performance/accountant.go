package performance

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/noahdevelopsio/lifeos/tracking"
)

// Alert thresholds and the telemetry names the accountant emits under.
// Threshold comparisons are strict: a call at exactly the threshold does
// not alert.
const (
	SlowCallThresholdMs = 5000
	ExpensiveCallUSD    = 0.01
	SpanUsage           = "performance-metrics"
	EventSlowCall       = "performance-alert"
	EventCostAlert      = "cost-alert"
)

// Metrics is the raw measurement of one generation call.
type Metrics struct {
	DurationMs   int64
	InputTokens  int
	OutputTokens int
	TotalTokens  int
	Model        string
}

// Usage is the derived accounting for one call.
type Usage struct {
	DurationMs      int64   `json:"duration_ms"`
	TotalTokens     int     `json:"total_tokens"`
	EstimatedCost   float64 `json:"estimated_cost"`
	TokensPerSecond float64 `json:"tokens_per_second"`
	Model           string  `json:"model"`
}

// Accountant derives cost and throughput from call metrics, records a
// performance span per call, and emits rate-limited alert events for slow
// or expensive calls.
type Accountant struct {
	prices *PriceTable
	emit   *tracking.Dispatcher
	alerts *rate.Limiter
	logger *zap.Logger
}

// NewAccountant builds an Accountant. Alert events are limited to one per
// second with a burst of ten, so a degraded upstream cannot flood the sink.
func NewAccountant(prices *PriceTable, emit *tracking.Dispatcher, logger *zap.Logger) *Accountant {
	return &Accountant{
		prices: prices,
		emit:   emit,
		alerts: rate.NewLimiter(rate.Every(time.Second), 10),
		logger: logger.With(zap.String("component", "performance")),
	}
}

// Track accounts for one call. Missing TotalTokens is derived from the
// directional counts; a missing model name is priced as DefaultModel. A
// zero duration reports the token count itself as throughput rather than
// dividing by zero.
func (a *Accountant) Track(ctx context.Context, traceID, operation string, m Metrics) Usage {
	model := m.Model
	if model == "" {
		model = DefaultModel
	}
	totalTokens := m.TotalTokens
	if totalTokens == 0 {
		totalTokens = m.InputTokens + m.OutputTokens
	}

	cost := a.prices.Lookup(model).Cost(m.InputTokens, m.OutputTokens)

	tokensPerSecond := float64(totalTokens)
	if m.DurationMs > 0 {
		tokensPerSecond = float64(totalTokens) / (float64(m.DurationMs) / 1000)
	}

	a.emit.Span(ctx, tracking.Span{
		TraceID: traceID,
		Name:    SpanUsage,
		Metadata: map[string]any{
			"operation":          operation,
			"duration_ms":        m.DurationMs,
			"input_tokens":       m.InputTokens,
			"output_tokens":      m.OutputTokens,
			"total_tokens":       totalTokens,
			"estimated_cost_usd": strconv.FormatFloat(cost, 'f', 6, 64),
			"tokens_per_second":  fmt.Sprintf("%.2f", tokensPerSecond),
			"model":              model,
			"timestamp":          time.Now().UTC().Format(time.RFC3339),
		},
	})

	if m.DurationMs > SlowCallThresholdMs {
		a.alert(ctx, tracking.Event{
			Name: EventSlowCall,
			Properties: map[string]any{
				"severity":     "warning",
				"operation":    operation,
				"duration_ms":  m.DurationMs,
				"threshold_ms": SlowCallThresholdMs,
				"message":      fmt.Sprintf("%s took %dms (exceeds 5s threshold)", operation, m.DurationMs),
			},
		})
	}

	if cost > ExpensiveCallUSD {
		a.alert(ctx, tracking.Event{
			Name: EventCostAlert,
			Properties: map[string]any{
				"severity":           "info",
				"operation":          operation,
				"estimated_cost_usd": strconv.FormatFloat(cost, 'f', 6, 64),
				"total_tokens":       totalTokens,
				"message":            fmt.Sprintf("%s cost $%.4f (%d tokens)", operation, cost, totalTokens),
			},
		})
	}

	return Usage{
		DurationMs:      m.DurationMs,
		TotalTokens:     totalTokens,
		EstimatedCost:   cost,
		TokensPerSecond: tokensPerSecond,
		Model:           model,
	}
}

func (a *Accountant) alert(ctx context.Context, e tracking.Event) {
	if !a.alerts.Allow() {
		a.logger.Debug("alert suppressed by rate limit", zap.String("event", e.Name))
		return
	}
	a.emit.Log(ctx, e)
}
