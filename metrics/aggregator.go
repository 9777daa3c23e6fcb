package metrics

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/noahdevelopsio/lifeos/tracking"
)

// DefaultSummaryWindowDays is the dashboard lookback window.
const DefaultSummaryWindowDays = 30

// QualityScores are per-metric averages over the window. A metric with no
// non-NULL rows averages to 0.
type QualityScores struct {
	Supportiveness  float64 `json:"supportiveness"`
	Actionability   float64 `json:"actionability"`
	Personalization float64 `json:"personalization"`
	OverallQuality  float64 `json:"overall_quality"`
}

// UsageStats count operations and total spend over the window.
type UsageStats struct {
	TotalChats          int     `json:"total_chats"`
	TotalSummarizations int     `json:"total_summarizations"`
	AvgResponseTimeSec  float64 `json:"avg_response_time_sec"`
	EstimatedCost       float64 `json:"estimated_cost"`
}

// FeedbackStats aggregate thumbs votes. SatisfactionRate is 0 when no votes
// exist.
type FeedbackStats struct {
	ThumbsUp         int     `json:"thumbs_up"`
	ThumbsDown       int     `json:"thumbs_down"`
	SatisfactionRate float64 `json:"satisfaction_rate"`
}

// PerformanceStats aggregate latency and token usage. SlowResponses counts
// calls strictly over the slow-call threshold.
type PerformanceStats struct {
	AvgDurationMs int64 `json:"avg_duration_ms"`
	AvgTokens     int   `json:"avg_tokens"`
	SlowResponses int   `json:"slow_responses"`
}

// MetricsSummary is the dashboard view. It is recomputed from stored rows on
// every read and has no lifecycle of its own. IsDemo marks a summary built
// from an empty store: every numeric field is at its zero default.
type MetricsSummary struct {
	Quality          QualityScores    `json:"quality_scores"`
	Usage            UsageStats       `json:"usage"`
	Feedback         FeedbackStats    `json:"feedback"`
	Performance      PerformanceStats `json:"performance"`
	TotalEvaluations int              `json:"total_evaluations"`
	TotalFeedback    int              `json:"total_feedback"`
	IsDemo           bool             `json:"is_demo"`
	WindowDays       int              `json:"window_days"`
	GeneratedAt      time.Time        `json:"generated_at"`
}

// SummaryCache is an optional read-through cache in front of Summary.
type SummaryCache interface {
	Get(ctx context.Context, key string) (MetricsSummary, bool)
	Set(ctx context.Context, key string, s MetricsSummary, ttl time.Duration)
}

// Aggregator derives MetricsSummary views from a Store.
type Aggregator struct {
	store    Store
	cache    SummaryCache
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewAggregator builds an Aggregator. cache may be nil; then every read
// recomputes from the store.
func NewAggregator(store Store, cache SummaryCache, cacheTTL time.Duration, logger *zap.Logger) *Aggregator {
	return &Aggregator{
		store:    store,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   logger.With(zap.String("component", "aggregator")),
	}
}

// Summary computes the dashboard view over the last windowDays days.
// windowDays <= 0 uses DefaultSummaryWindowDays.
func (a *Aggregator) Summary(ctx context.Context, windowDays int) (MetricsSummary, error) {
	if windowDays <= 0 {
		windowDays = DefaultSummaryWindowDays
	}

	cacheKey := fmt.Sprintf("metrics:summary:%dd", windowDays)
	if a.cache != nil {
		if cached, ok := a.cache.Get(ctx, cacheKey); ok {
			return cached, nil
		}
	}

	since := time.Now().UTC().AddDate(0, 0, -windowDays)
	evals, err := a.store.RecentEvaluations(ctx, since)
	if err != nil {
		return MetricsSummary{}, fmt.Errorf("load evaluations: %w", err)
	}
	feedback, err := a.store.RecentFeedback(ctx, since)
	if err != nil {
		return MetricsSummary{}, fmt.Errorf("load feedback: %w", err)
	}

	s := a.build(evals, feedback, windowDays)
	if a.cache != nil {
		a.cache.Set(ctx, cacheKey, s, a.cacheTTL)
	}
	return s, nil
}

func (a *Aggregator) build(evals []EvaluationRow, feedback []FeedbackRow, windowDays int) MetricsSummary {
	s := MetricsSummary{
		WindowDays:  windowDays,
		GeneratedAt: time.Now().UTC(),
	}
	if len(evals) == 0 && len(feedback) == 0 {
		s.IsDemo = true
		return s
	}

	s.TotalEvaluations = len(evals)
	s.TotalFeedback = len(feedback)

	s.Quality = QualityScores{
		Supportiveness:  avgValid(evals, func(r EvaluationRow) *float64 { return r.SupportivenessScore }),
		Actionability:   avgValid(evals, func(r EvaluationRow) *float64 { return r.ActionabilityScore }),
		Personalization: avgValid(evals, func(r EvaluationRow) *float64 { return r.PersonalizationScore }),
		OverallQuality:  avgValid(evals, func(r EvaluationRow) *float64 { return r.OverallScore }),
	}

	var avgDuration float64
	var validDurations int
	var avgTokens float64
	var validTokens int
	for _, e := range evals {
		switch e.Operation {
		case tracking.OpChatConversation:
			s.Usage.TotalChats++
		case tracking.OpEntrySummarization:
			s.Usage.TotalSummarizations++
		}
		if e.EstimatedCost != nil {
			s.Usage.EstimatedCost += *e.EstimatedCost
		}
		if e.DurationMs != nil {
			avgDuration += float64(*e.DurationMs)
			validDurations++
			if *e.DurationMs > slowCallThresholdMs {
				s.Performance.SlowResponses++
			}
		}
		if e.TokenCount != nil {
			avgTokens += float64(*e.TokenCount)
			validTokens++
		}
	}
	if validDurations > 0 {
		avgDuration /= float64(validDurations)
	}
	if validTokens > 0 {
		avgTokens /= float64(validTokens)
	}
	s.Usage.AvgResponseTimeSec = avgDuration / 1000
	s.Performance.AvgDurationMs = int64(math.Round(avgDuration))
	s.Performance.AvgTokens = int(math.Round(avgTokens))

	for _, f := range feedback {
		switch f.FeedbackType {
		case FeedbackUp:
			s.Feedback.ThumbsUp++
		case FeedbackDown:
			s.Feedback.ThumbsDown++
		}
	}
	if total := s.Feedback.ThumbsUp + s.Feedback.ThumbsDown; total > 0 {
		s.Feedback.SatisfactionRate = float64(s.Feedback.ThumbsUp) / float64(total)
	}

	return s
}

// slowCallThresholdMs mirrors the alerting threshold in the performance
// package. Duplicated as a plain constant to keep metrics free of a
// dependency on alerting.
const slowCallThresholdMs = 5000

// avgValid averages a nullable column over rows, skipping NULLs. Returns 0
// when no row has a value.
func avgValid(rows []EvaluationRow, field func(EvaluationRow) *float64) float64 {
	var sum float64
	var n int
	for _, r := range rows {
		if v := field(r); v != nil {
			sum += *v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
