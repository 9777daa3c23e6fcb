package metrics

import (
	"context"
	"strconv"
	"strings"
	"time"

	appmetrics "github.com/noahdevelopsio/lifeos/metrics"
	"github.com/noahdevelopsio/lifeos/performance"
	"github.com/noahdevelopsio/lifeos/tracking"
)

// PipelineSink mirrors pipeline telemetry into the Prometheus instruments.
// Composed next to the primary sink with tracking.NewFanoutSink, so the
// records bound for the observability platform also move the process
// counters. It inspects the records instead of hooking every pipeline
// stage; the stages stay unaware of Prometheus.
type PipelineSink struct {
	collector *Collector
}

func NewPipelineSink(c *Collector) *PipelineSink {
	return &PipelineSink{collector: c}
}

func (s *PipelineSink) Trace(context.Context, tracking.Trace) error { return nil }

// Span counts generations. The accountant's usage span carries the full
// success measurement; tracker error spans carry the failures.
func (s *PipelineSink) Span(_ context.Context, sp tracking.Span) error {
	md := sp.Metadata
	switch {
	case sp.Name == performance.SpanUsage:
		s.collector.RecordGeneration(
			metaString(md, "model"),
			metaString(md, "operation"),
			"success",
			time.Duration(metaInt(md, "duration_ms"))*time.Millisecond,
			int(metaInt(md, "input_tokens")),
			int(metaInt(md, "output_tokens")),
			metaFloat(md, "estimated_cost_usd"),
		)
	case strings.HasSuffix(sp.Name, "-error"):
		s.collector.RecordGeneration(
			"unknown",
			operationOf(sp.Name),
			"error",
			time.Duration(metaInt(md, "duration_ms"))*time.Millisecond,
			0, 0, 0,
		)
	}
	return nil
}

func (s *PipelineSink) Score(_ context.Context, sc tracking.Score) error {
	if sc.Name == tracking.MetricUserFeedback {
		kind := "down"
		if sc.Value >= 1 {
			kind = "up"
		}
		s.collector.RecordFeedback(kind)
		return nil
	}
	s.collector.RecordQualityScore(sc.Name, sc.Value)
	return nil
}

func (s *PipelineSink) Log(_ context.Context, e tracking.Event) error {
	if kind, ok := strings.CutSuffix(e.Name, "-alert"); ok {
		s.collector.RecordAlert(kind)
	}
	return nil
}

// operationOf strips the tracker's span-name suffixes back to the
// operation name.
func operationOf(spanName string) string {
	spanName = strings.TrimSuffix(spanName, "-error")
	spanName = strings.TrimSuffix(spanName, "-stream")
	spanName = strings.TrimSuffix(spanName, "-json")
	return spanName
}

func metaString(md map[string]any, key string) string {
	if v, ok := md[key].(string); ok && v != "" {
		return v
	}
	return "unknown"
}

// metaInt reads a numeric metadata value. Records that round-tripped
// through JSON carry float64 where the emitter stored an int.
func metaInt(md map[string]any, key string) int64 {
	switch v := md[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	}
	return 0
}

// metaFloat reads a float stored either natively or as a formatted string
// (the accountant formats costs to keep telemetry payloads stable).
func metaFloat(md map[string]any, key string) float64 {
	switch v := md[key].(type) {
	case float64:
		return v
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return 0
}

// InstrumentedStore counts persistence outcomes around an inner Store.
type InstrumentedStore struct {
	inner     appmetrics.Store
	collector *Collector
}

func InstrumentStore(inner appmetrics.Store, c *Collector) *InstrumentedStore {
	return &InstrumentedStore{inner: inner, collector: c}
}

func (s *InstrumentedStore) SaveEvaluation(ctx context.Context, row *appmetrics.EvaluationRow) bool {
	ok := s.inner.SaveEvaluation(ctx, row)
	s.collector.RecordRowPersisted(row.TableName(), ok)
	return ok
}

func (s *InstrumentedStore) SaveFeedback(ctx context.Context, row *appmetrics.FeedbackRow) bool {
	ok := s.inner.SaveFeedback(ctx, row)
	s.collector.RecordRowPersisted(row.TableName(), ok)
	return ok
}

func (s *InstrumentedStore) RecentEvaluations(ctx context.Context, since time.Time) ([]appmetrics.EvaluationRow, error) {
	return s.inner.RecentEvaluations(ctx, since)
}

func (s *InstrumentedStore) RecentFeedback(ctx context.Context, since time.Time) ([]appmetrics.FeedbackRow, error) {
	return s.inner.RecentFeedback(ctx, since)
}

// InstrumentedSummaryCache counts hits and misses around an inner
// SummaryCache.
type InstrumentedSummaryCache struct {
	inner     appmetrics.SummaryCache
	collector *Collector
}

func InstrumentSummaryCache(inner appmetrics.SummaryCache, c *Collector) *InstrumentedSummaryCache {
	return &InstrumentedSummaryCache{inner: inner, collector: c}
}

func (c *InstrumentedSummaryCache) Get(ctx context.Context, key string) (appmetrics.MetricsSummary, bool) {
	summary, ok := c.inner.Get(ctx, key)
	if ok {
		c.collector.RecordCacheHit("summary")
	} else {
		c.collector.RecordCacheMiss("summary")
	}
	return summary, ok
}

func (c *InstrumentedSummaryCache) Set(ctx context.Context, key string, s appmetrics.MetricsSummary, ttl time.Duration) {
	c.inner.Set(ctx, key, s, ttl)
}
