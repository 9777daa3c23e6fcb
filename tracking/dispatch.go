package tracking

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// defaultDispatchTimeout bounds how long one telemetry emission may hold up
// the calling goroutine when the sink is slow.
const defaultDispatchTimeout = 2 * time.Second

// Dispatcher is the single best-effort emission path for every telemetry
// record in the process. It applies a short timeout, recovers panics, and
// logs failures in one place; callers never see an error. This centralizes
// the non-blocking contract instead of scattering suppression logic across
// call sites.
type Dispatcher struct {
	sink    Sink
	timeout time.Duration
	logger  *zap.Logger
}

// NewDispatcher wraps a sink. A nil sink degrades to a no-op.
func NewDispatcher(sink Sink, timeout time.Duration, logger *zap.Logger) *Dispatcher {
	if sink == nil {
		sink = NewNoopSink()
	}
	if timeout <= 0 {
		timeout = defaultDispatchTimeout
	}
	return &Dispatcher{
		sink:    sink,
		timeout: timeout,
		logger:  logger.With(zap.String("component", "telemetry_dispatch")),
	}
}

func (d *Dispatcher) Trace(ctx context.Context, t Trace) {
	d.emit(ctx, "trace", func(ctx context.Context) error { return d.sink.Trace(ctx, t) })
}

func (d *Dispatcher) Span(ctx context.Context, s Span) {
	d.emit(ctx, "span", func(ctx context.Context) error { return d.sink.Span(ctx, s) })
}

func (d *Dispatcher) Score(ctx context.Context, s Score) {
	d.emit(ctx, "score", func(ctx context.Context) error { return d.sink.Score(ctx, s) })
}

func (d *Dispatcher) Log(ctx context.Context, e Event) {
	d.emit(ctx, "event", func(ctx context.Context) error { return d.sink.Log(ctx, e) })
}

// emit runs one sink call under the dispatch timeout. The parent context's
// values (trace propagation) are kept; its cancellation is not, so telemetry
// for a finished request still gets a chance to flush.
func (d *Dispatcher) emit(ctx context.Context, kind string, fn func(context.Context) error) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("telemetry sink panicked", zap.String("kind", kind), zap.Any("panic", r))
		}
	}()

	emitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
	defer cancel()

	if err := fn(emitCtx); err != nil {
		d.logger.Warn("telemetry emission failed", zap.String("kind", kind), zap.Error(err))
	}
}
