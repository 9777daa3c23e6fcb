package tracking

import (
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/noahdevelopsio/lifeos/tracking"

// OTelSink exports telemetry records as OpenTelemetry spans so they flow
// through whatever OTLP backend the deployment configures. Each record
// becomes a zero-duration span carrying the record fields as attributes;
// the correlation identifier links spans belonging to one Trace.
type OTelSink struct {
	tracer oteltrace.Tracer
}

func NewOTelSink() *OTelSink {
	return &OTelSink{tracer: otel.Tracer(instrumentationName)}
}

func (s *OTelSink) Trace(ctx context.Context, t Trace) error {
	_, span := s.tracer.Start(ctx, t.Name,
		oteltrace.WithTimestamp(t.StartTime),
		oteltrace.WithAttributes(
			attribute.String("ai.trace_id", t.ID),
			attribute.String("ai.record", "trace"),
		))
	span.SetAttributes(metadataAttrs(t.Metadata)...)
	span.End()
	return nil
}

func (s *OTelSink) Span(ctx context.Context, sp Span) error {
	_, span := s.tracer.Start(ctx, sp.Name,
		oteltrace.WithAttributes(
			attribute.String("ai.trace_id", sp.TraceID),
			attribute.String("ai.record", "span"),
		))
	span.SetAttributes(metadataAttrs(sp.Metadata)...)
	span.End()
	return nil
}

func (s *OTelSink) Score(ctx context.Context, sc Score) error {
	_, span := s.tracer.Start(ctx, "score."+sc.Name,
		oteltrace.WithAttributes(
			attribute.String("ai.trace_id", sc.TraceID),
			attribute.String("ai.record", "score"),
			attribute.String("ai.metric", sc.Name),
			attribute.Float64("ai.value", sc.Value),
		))
	span.SetAttributes(metadataAttrs(sc.Metadata)...)
	span.End()
	return nil
}

func (s *OTelSink) Log(ctx context.Context, e Event) error {
	_, span := s.tracer.Start(ctx, "event."+e.Name,
		oteltrace.WithAttributes(
			attribute.String("ai.record", "event"),
		))
	span.SetAttributes(metadataAttrs(e.Properties)...)
	span.End()
	return nil
}

// metadataAttrs flattens record metadata into span attributes. Nested
// values are JSON-encoded rather than dropped.
func metadataAttrs(md map[string]any) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(md))
	for k, v := range md {
		key := "ai.meta." + k
		switch tv := v.(type) {
		case string:
			attrs = append(attrs, attribute.String(key, tv))
		case bool:
			attrs = append(attrs, attribute.Bool(key, tv))
		case int:
			attrs = append(attrs, attribute.Int(key, tv))
		case int64:
			attrs = append(attrs, attribute.Int64(key, tv))
		case float64:
			attrs = append(attrs, attribute.Float64(key, tv))
		default:
			if raw, err := json.Marshal(v); err == nil {
				attrs = append(attrs, attribute.String(key, string(raw)))
			} else {
				attrs = append(attrs, attribute.String(key, fmt.Sprintf("%v", v)))
			}
		}
	}
	return attrs
}
