package metrics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/noahdevelopsio/lifeos/tracking"
)

// Report thresholds.
const (
	lowScoreCutoff   = 0.6
	healthyAvgCutoff = 0.7

	StatusHealthy        = "healthy"
	StatusNeedsAttention = "needs_attention"
)

// Report is the output of one weekly quality analysis run. Empty marks a
// run over a window with no rows; such a run is a success, not an error.
type Report struct {
	Empty                  bool               `json:"empty"`
	Period                 string             `json:"period"`
	TotalInteractions      int                `json:"total_interactions"`
	AverageQuality         float64            `json:"average_quality"`
	LowScoreCount          int                `json:"low_score_count"`
	LowScoreRate           float64            `json:"low_score_rate"`
	MetricAverages         map[string]float64 `json:"metric_averages"`
	LowestPerformingMetric string             `json:"lowest_performing_metric"`
	Status                 string             `json:"status"`
	GeneratedAt            time.Time          `json:"generated_at"`
}

// WeeklyAnalyzer computes periodic quality reports and logs them as
// telemetry events for later inspection.
type WeeklyAnalyzer struct {
	store  Store
	emit   *tracking.Dispatcher
	logger *zap.Logger
}

func NewWeeklyAnalyzer(store Store, emit *tracking.Dispatcher, logger *zap.Logger) *WeeklyAnalyzer {
	return &WeeklyAnalyzer{
		store:  store,
		emit:   emit,
		logger: logger.With(zap.String("component", "weekly_analyzer")),
	}
}

// Run analyzes the last windowDays days of evaluations. windowDays <= 0
// defaults to 7. A NULL score is treated as 0 here: an unevaluated call
// counts against health rather than being invisible to it.
func (a *WeeklyAnalyzer) Run(ctx context.Context, windowDays int) (Report, error) {
	if windowDays <= 0 {
		windowDays = 7
	}
	period := fmt.Sprintf("last-%d-days", windowDays)

	a.emit.Log(ctx, tracking.Event{
		Name: "weekly-ai-quality-analysis",
		Properties: map[string]any{
			"period":        period,
			"timestamp":     time.Now().UTC().Format(time.RFC3339),
			"analysis_type": "automated",
		},
	})

	since := time.Now().UTC().AddDate(0, 0, -windowDays)
	evals, err := a.store.RecentEvaluations(ctx, since)
	if err != nil {
		return Report{}, fmt.Errorf("load evaluations: %w", err)
	}

	if len(evals) == 0 {
		a.logger.Info("no evaluations to analyze", zap.String("period", period))
		return Report{
			Empty:       true,
			Period:      period,
			GeneratedAt: time.Now().UTC(),
		}, nil
	}

	n := float64(len(evals))
	var avgOverall float64
	lowScores := 0
	averages := map[string]float64{
		tracking.MetricSupportiveness:  0,
		tracking.MetricActionability:   0,
		tracking.MetricPersonalization: 0,
	}
	for _, e := range evals {
		overall := deref(e.OverallScore)
		avgOverall += overall
		if overall < lowScoreCutoff {
			lowScores++
		}
		averages[tracking.MetricSupportiveness] += deref(e.SupportivenessScore)
		averages[tracking.MetricActionability] += deref(e.ActionabilityScore)
		averages[tracking.MetricPersonalization] += deref(e.PersonalizationScore)
	}
	avgOverall /= n
	for name := range averages {
		averages[name] /= n
	}

	status := StatusNeedsAttention
	if avgOverall > healthyAvgCutoff {
		status = StatusHealthy
	}

	report := Report{
		Period:                 period,
		TotalInteractions:      len(evals),
		AverageQuality:         avgOverall,
		LowScoreCount:          lowScores,
		LowScoreRate:           float64(lowScores) / n,
		MetricAverages:         averages,
		LowestPerformingMetric: lowestMetric(averages),
		Status:                 status,
		GeneratedAt:            time.Now().UTC(),
	}

	a.emit.Log(ctx, tracking.Event{
		Name: "weekly-ai-quality-report",
		Properties: map[string]any{
			"period":                   report.Period,
			"total_interactions":       report.TotalInteractions,
			"average_quality":          report.AverageQuality,
			"low_score_count":          report.LowScoreCount,
			"low_score_rate":           report.LowScoreRate,
			"metric_averages":          report.MetricAverages,
			"lowest_performing_metric": report.LowestPerformingMetric,
			"status":                   report.Status,
			"timestamp":                report.GeneratedAt.Format(time.RFC3339),
		},
	})

	a.logger.Info("weekly analysis complete",
		zap.String("status", report.Status),
		zap.Float64("average_quality", report.AverageQuality),
		zap.String("lowest_metric", report.LowestPerformingMetric))
	return report, nil
}

// lowestMetric returns the metric with the smallest average. Names are
// visited in sorted order with a strict comparison, so ties resolve to the
// alphabetically first name on every run.
func lowestMetric(averages map[string]float64) string {
	names := make([]string, 0, len(averages))
	for name := range averages {
		names = append(names, name)
	}
	sort.Strings(names)

	lowest := names[0]
	for _, name := range names[1:] {
		if averages[name] < averages[lowest] {
			lowest = name
		}
	}
	return lowest
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
