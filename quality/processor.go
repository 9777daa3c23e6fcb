// Package quality runs the post-response pipeline: once a tracked call
// completes, the response is scored and its performance accounted for
// concurrently, then both land in the metrics store as one row.
//
// The pipeline is deliberately decoupled from the user-visible call path.
// Callers hand it a finished response; nothing here can delay or fail the
// response itself.
package quality

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noahdevelopsio/lifeos/evaluation"
	"github.com/noahdevelopsio/lifeos/metrics"
	"github.com/noahdevelopsio/lifeos/performance"
)

// Completion describes one finished generation call for post-processing.
type Completion struct {
	TraceID      string
	UserID       string
	Operation    string
	Response     string
	User         evaluation.UserContext
	DurationMs   int64
	InputTokens  int
	OutputTokens int
	Model        string
}

// Processor fans a completed call out to the evaluators and the accountant
// and persists the combined row.
type Processor struct {
	engine     *evaluation.Engine
	accountant *performance.Accountant
	store      metrics.Store
	logger     *zap.Logger
}

func NewProcessor(engine *evaluation.Engine, accountant *performance.Accountant, store metrics.Store, logger *zap.Logger) *Processor {
	return &Processor{
		engine:     engine,
		accountant: accountant,
		store:      store,
		logger:     logger.With(zap.String("component", "quality")),
	}
}

// Process scores and accounts for one completion, then saves the evaluation
// row. Evaluation and accounting run concurrently; neither depends on the
// other's output. Returns the evaluation result for callers that surface
// scores inline.
func (p *Processor) Process(ctx context.Context, c Completion) (evaluation.Result, error) {
	var (
		result evaluation.Result
		usage  performance.Usage
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		result, err = p.engine.OverallQuality(gctx, c.TraceID, c.Response, c.User)
		return err
	})
	g.Go(func() error {
		usage = p.accountant.Track(gctx, c.TraceID, c.Operation, performance.Metrics{
			DurationMs:   c.DurationMs,
			InputTokens:  c.InputTokens,
			OutputTokens: c.OutputTokens,
			Model:        c.Model,
		})
		return nil
	})
	if err := g.Wait(); err != nil {
		return evaluation.Result{}, err
	}

	row := metrics.NewEvaluationRow(c.TraceID, c.UserID, c.Operation)
	row.SupportivenessScore = &result.Supportiveness
	row.ActionabilityScore = &result.Actionability
	row.PersonalizationScore = &result.Personalization
	row.LengthScore = &result.Length
	row.OverallScore = &result.Overall
	row.DurationMs = &usage.DurationMs
	row.TokenCount = &usage.TotalTokens
	row.EstimatedCost = &usage.EstimatedCost

	if !p.store.SaveEvaluation(ctx, row) {
		p.logger.Warn("evaluation row not persisted", zap.String("trace_id", c.TraceID))
	}
	return result, nil
}
