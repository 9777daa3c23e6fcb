// Package evaluation scores generated responses with deterministic
// heuristics: supportive tone, actionability, personalization, and length
// appropriateness, plus a weighted composite. Every evaluator is a pure
// function over its inputs; the Engine wraps them with score emission.
package evaluation

import (
	"context"
	"math"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/noahdevelopsio/lifeos/tracking"
)

// Target thresholds recorded alongside each score, so health comparisons
// made later use the threshold in effect when the row was written.
const (
	TargetSupportiveness  = 0.70
	TargetActionability   = 0.60
	TargetPersonalization = 0.50
	TargetOverall         = 0.70
)

// Composite weights. Persisted with every overall score.
const (
	weightSupportiveness  = 0.35
	weightActionability   = 0.30
	weightPersonalization = 0.20
	weightLength          = 0.15
)

// Expected response length bounds in characters.
const (
	DefaultMinLength = 100
	DefaultMaxLength = 800
)

// Actionability saturates once this many phrase occurrences are found.
const actionabilityCap = 6

// Result holds the four sub-scores and the weighted composite for one
// response.
type Result struct {
	Supportiveness  float64 `json:"supportiveness"`
	Actionability   float64 `json:"actionability"`
	Personalization float64 `json:"personalization"`
	Length          float64 `json:"length"`
	Overall         float64 `json:"overall"`
}

// Engine runs evaluators and records their scores against a trace.
type Engine struct {
	emit *tracking.Dispatcher
}

func NewEngine(emit *tracking.Dispatcher) *Engine {
	return &Engine{emit: emit}
}

// Supportiveness rewards encouraging vocabulary and penalizes judgmental
// vocabulary, normalized by response length so long responses cannot
// accumulate score from sheer volume.
func (e *Engine) Supportiveness(ctx context.Context, traceID, response string) float64 {
	score, supportive, negative, words := scoreSupportiveness(response)
	e.emit.Score(ctx, tracking.Score{
		TraceID: traceID,
		Name:    tracking.MetricSupportiveness,
		Value:   score,
		Metadata: map[string]any{
			"supportive_words_count": supportive,
			"negative_words_count":   negative,
			"total_words":            words,
			"target":                 TargetSupportiveness,
		},
	})
	return score
}

// Actionability counts occurrences of concrete-suggestion phrases,
// saturating at actionabilityCap.
func (e *Engine) Actionability(ctx context.Context, traceID, response string) float64 {
	score, count := scoreActionability(response)
	e.emit.Score(ctx, tracking.Score{
		TraceID: traceID,
		Name:    tracking.MetricActionability,
		Value:   score,
		Metadata: map[string]any{
			"actionable_phrases_count": count,
			"target":                   TargetActionability,
		},
	})
	return score
}

// Personalization checks whether the response engages with the user's own
// context: their name, an active goal, their streak, a preferred category.
// Each signal contributes 0.25.
func (e *Engine) Personalization(ctx context.Context, traceID, response string, user UserContext) float64 {
	score, signals := scorePersonalization(response, user)
	e.emit.Score(ctx, tracking.Score{
		TraceID: traceID,
		Name:    tracking.MetricPersonalization,
		Value:   score,
		Metadata: map[string]any{
			"mentions_name":           signals.name,
			"mentions_goals":          signals.goals,
			"mentions_streak":         signals.streak,
			"mentions_categories":     signals.categories,
			"personal_elements_count": signals.count(),
			"target":                  TargetPersonalization,
		},
	})
	return score
}

// ResponseLength scores length appropriateness against [DefaultMinLength,
// DefaultMaxLength] characters. In-range responses score 1; short responses
// degrade linearly; long responses degrade hyperbolically with a 0.5 floor.
func (e *Engine) ResponseLength(ctx context.Context, traceID, response string) float64 {
	score := scoreLength(len(response), DefaultMinLength, DefaultMaxLength)
	e.emit.Score(ctx, tracking.Score{
		TraceID: traceID,
		Name:    tracking.MetricResponseLength,
		Value:   score,
		Metadata: map[string]any{
			"response_length": len(response),
			"expected_min":    DefaultMinLength,
			"expected_max":    DefaultMaxLength,
			"is_appropriate":  score >= 0.8,
		},
	})
	return score
}

// OverallQuality runs the four evaluators concurrently and combines them as
// a fixed weighted sum. The sub-scores and the weight vector are persisted
// with the composite so historical reports stay reproducible if weights
// change later.
func (e *Engine) OverallQuality(ctx context.Context, traceID, response string, user UserContext) (Result, error) {
	var res Result
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res.Supportiveness = e.Supportiveness(gctx, traceID, response)
		return nil
	})
	g.Go(func() error {
		res.Actionability = e.Actionability(gctx, traceID, response)
		return nil
	})
	g.Go(func() error {
		res.Personalization = e.Personalization(gctx, traceID, response, user)
		return nil
	})
	g.Go(func() error {
		res.Length = e.ResponseLength(gctx, traceID, response)
		return nil
	})
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	res.Overall = res.Supportiveness*weightSupportiveness +
		res.Actionability*weightActionability +
		res.Personalization*weightPersonalization +
		res.Length*weightLength

	e.emit.Score(ctx, tracking.Score{
		TraceID: traceID,
		Name:    tracking.MetricOverallQuality,
		Value:   res.Overall,
		Metadata: map[string]any{
			"supportiveness_score":  res.Supportiveness,
			"actionability_score":   res.Actionability,
			"personalization_score": res.Personalization,
			"length_score":          res.Length,
			"target":                TargetOverall,
			"weights": map[string]float64{
				"supportiveness":  weightSupportiveness,
				"actionability":   weightActionability,
				"personalization": weightPersonalization,
				"length":          weightLength,
			},
		},
	})
	return res, nil
}

func scoreSupportiveness(response string) (score float64, supportive, negative, words int) {
	lower := strings.ToLower(response)
	words = len(strings.Fields(lower))
	for _, w := range supportiveWords {
		if strings.Contains(lower, w) {
			supportive++
		}
	}
	for _, w := range negativeWords {
		if strings.Contains(lower, w) {
			negative++
		}
	}
	raw := float64(supportive-2*negative) / math.Max(float64(words)/10, 1)
	return clamp01(raw + 0.5), supportive, negative, words
}

func scoreActionability(response string) (score float64, count int) {
	for _, p := range actionablePatterns {
		count += len(p.FindAllStringIndex(response, -1))
	}
	return math.Min(1, float64(count)/actionabilityCap), count
}

type personalSignals struct {
	name       bool
	goals      bool
	streak     bool
	categories bool
}

func (s personalSignals) count() int {
	n := 0
	for _, hit := range []bool{s.name, s.goals, s.streak, s.categories} {
		if hit {
			n++
		}
	}
	return n
}

func scorePersonalization(response string, user UserContext) (float64, personalSignals) {
	lower := strings.ToLower(response)
	var sig personalSignals

	sig.name = user.Name != "" && strings.Contains(lower, strings.ToLower(user.Name))
	for _, goal := range user.ActiveGoals {
		if strings.Contains(lower, strings.ToLower(goal)) {
			sig.goals = true
			break
		}
	}
	if user.CurrentStreak > 0 {
		sig.streak = strings.Contains(lower, "streak") ||
			strings.Contains(lower, strconv.Itoa(user.CurrentStreak))
	}
	for _, cat := range user.PreferredCategories {
		if strings.Contains(lower, strings.ToLower(cat)) {
			sig.categories = true
			break
		}
	}
	return float64(sig.count()) / 4, sig
}

func scoreLength(length, min, max int) float64 {
	switch {
	case length < min:
		return float64(length) / float64(min)
	case length > max:
		return math.Max(0.5, float64(max)/float64(length))
	default:
		return 1
	}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
