package tracking

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// Sink receives telemetry records. Implementations may forward them to an
// external observability platform, an OTel exporter, or nowhere at all.
// Errors returned here are absorbed by the Dispatcher; implementations
// should still return them so failures can be logged in one place.
//
// Implementations must honor ctx cancellation. The Dispatcher bounds each
// call with a deadline on ctx; a sink that ignores it can stall the
// calling goroutine past the emission budget.
type Sink interface {
	Trace(ctx context.Context, t Trace) error
	Span(ctx context.Context, s Span) error
	Score(ctx context.Context, s Score) error
	Log(ctx context.Context, e Event) error
}

// NoopSink discards everything. Substituted when telemetry is unconfigured,
// so the "telemetry absent" path is exercised by substitution rather than
// environment branching.
type NoopSink struct{}

func NewNoopSink() *NoopSink { return &NoopSink{} }

func (*NoopSink) Trace(context.Context, Trace) error { return nil }
func (*NoopSink) Span(context.Context, Span) error   { return nil }
func (*NoopSink) Score(context.Context, Score) error { return nil }
func (*NoopSink) Log(context.Context, Event) error   { return nil }

// FanoutSink forwards every record to each sink in order. Errors are
// joined so the Dispatcher logs a single failure covering all branches.
type FanoutSink struct {
	sinks []Sink
}

func NewFanoutSink(sinks ...Sink) *FanoutSink { return &FanoutSink{sinks: sinks} }

func (f *FanoutSink) Trace(ctx context.Context, t Trace) error {
	return f.each(func(s Sink) error { return s.Trace(ctx, t) })
}

func (f *FanoutSink) Span(ctx context.Context, sp Span) error {
	return f.each(func(s Sink) error { return s.Span(ctx, sp) })
}

func (f *FanoutSink) Score(ctx context.Context, sc Score) error {
	return f.each(func(s Sink) error { return s.Score(ctx, sc) })
}

func (f *FanoutSink) Log(ctx context.Context, e Event) error {
	return f.each(func(s Sink) error { return s.Log(ctx, e) })
}

func (f *FanoutSink) each(fn func(Sink) error) error {
	var errs []error
	for _, s := range f.sinks {
		if err := fn(s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogSink writes telemetry records to the process log. Useful for local
// development and as a durable fallback when no external sink is reachable.
type LogSink struct {
	logger *zap.Logger
}

func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger.With(zap.String("component", "telemetry_sink"))}
}

func (s *LogSink) Trace(_ context.Context, t Trace) error {
	s.logger.Info("trace",
		zap.String("trace_id", t.ID),
		zap.String("name", t.Name),
		zap.Any("metadata", t.Metadata),
	)
	return nil
}

func (s *LogSink) Span(_ context.Context, sp Span) error {
	s.logger.Info("span",
		zap.String("trace_id", sp.TraceID),
		zap.String("name", sp.Name),
		zap.Any("metadata", sp.Metadata),
	)
	return nil
}

func (s *LogSink) Score(_ context.Context, sc Score) error {
	s.logger.Info("score",
		zap.String("trace_id", sc.TraceID),
		zap.String("name", sc.Name),
		zap.Float64("value", sc.Value),
	)
	return nil
}

func (s *LogSink) Log(_ context.Context, e Event) error {
	s.logger.Info("event",
		zap.String("name", e.Name),
		zap.Any("properties", e.Properties),
	)
	return nil
}
