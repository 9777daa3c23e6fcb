package quality

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noahdevelopsio/lifeos/metrics"
	"github.com/noahdevelopsio/lifeos/tracking"
)

// Recorder stores user feedback and mirrors it into telemetry as a
// user_feedback score on the original trace.
type Recorder struct {
	store  metrics.Store
	emit   *tracking.Dispatcher
	logger *zap.Logger
}

func NewRecorder(store metrics.Store, emit *tracking.Dispatcher, logger *zap.Logger) *Recorder {
	return &Recorder{
		store:  store,
		emit:   emit,
		logger: logger.With(zap.String("component", "feedback")),
	}
}

// RecordFeedback persists one vote and scores it against the trace: 1 for
// up, 0 for down. Rejects unknown feedback types; a storage miss is logged
// but not fatal since the telemetry score still lands.
func (r *Recorder) RecordFeedback(ctx context.Context, traceID, userID, feedbackType, comment string) error {
	row, ok := metrics.NewFeedbackRow(traceID, userID, feedbackType, comment)
	if !ok {
		return fmt.Errorf("invalid feedback type %q", feedbackType)
	}

	if !r.store.SaveFeedback(ctx, row) {
		r.logger.Warn("feedback row not persisted", zap.String("trace_id", traceID))
	}

	value := 0.0
	if feedbackType == metrics.FeedbackUp {
		value = 1.0
	}
	r.emit.Score(ctx, tracking.Score{
		TraceID: traceID,
		Name:    tracking.MetricUserFeedback,
		Value:   value,
		Metadata: map[string]any{
			"feedback_type": feedbackType,
			"has_comment":   comment != "",
			"user_id":       userID,
		},
	})
	return nil
}
