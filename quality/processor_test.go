package quality_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/noahdevelopsio/lifeos/evaluation"
	"github.com/noahdevelopsio/lifeos/metrics"
	"github.com/noahdevelopsio/lifeos/performance"
	"github.com/noahdevelopsio/lifeos/quality"
	"github.com/noahdevelopsio/lifeos/testutil/mocks"
	"github.com/noahdevelopsio/lifeos/tracking"
)

func newProcessor(t *testing.T, store metrics.Store) (*quality.Processor, *mocks.RecordingSink) {
	t.Helper()
	logger := zaptest.NewLogger(t)
	sink := mocks.NewRecordingSink()
	emit := tracking.NewDispatcher(sink, time.Second, logger)
	engine := evaluation.NewEngine(emit)
	accountant := performance.NewAccountant(performance.NewPriceTable(), emit, logger)
	return quality.NewProcessor(engine, accountant, store, logger), sink
}

func TestProcess_PersistsFullRow(t *testing.T) {
	store := metrics.NewMemoryStore()
	processor, sink := newProcessor(t, store)

	result, err := processor.Process(context.Background(), quality.Completion{
		TraceID:      "trace-1",
		UserID:       "user-1",
		Operation:    tracking.OpChatConversation,
		Response:     "Great progress this week. Try adding a short evening entry tomorrow.",
		User:         evaluation.UserContext{Name: "Sam"},
		DurationMs:   1500,
		InputTokens:  120,
		OutputTokens: 80,
		Model:        "gemini-2.5-flash-lite",
	})
	require.NoError(t, err)

	rows, err := store.RecentEvaluations(context.Background(), time.Now().UTC().AddDate(0, 0, -1))
	require.NoError(t, err)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, "trace-1", row.TraceID)
	assert.Equal(t, "user-1", row.UserID)
	assert.Equal(t, tracking.OpChatConversation, row.Operation)

	require.NotNil(t, row.OverallScore)
	assert.Equal(t, result.Overall, *row.OverallScore)
	require.NotNil(t, row.SupportivenessScore)
	assert.Equal(t, result.Supportiveness, *row.SupportivenessScore)
	require.NotNil(t, row.LengthScore)
	assert.Equal(t, result.Length, *row.LengthScore)

	require.NotNil(t, row.DurationMs)
	assert.Equal(t, int64(1500), *row.DurationMs)
	require.NotNil(t, row.TokenCount)
	assert.Equal(t, 200, *row.TokenCount)
	require.NotNil(t, row.EstimatedCost)
	assert.Positive(t, *row.EstimatedCost)

	// Five quality scores and one performance span reached the sink.
	assert.Len(t, sink.Scores(), 5)
	spans := sink.Spans()
	require.Len(t, spans, 1)
	assert.Equal(t, "performance-metrics", spans[0].Name)
}

// failingStore rejects every write.
type failingStore struct {
	metrics.Store
}

func (failingStore) SaveEvaluation(context.Context, *metrics.EvaluationRow) bool { return false }
func (failingStore) SaveFeedback(context.Context, *metrics.FeedbackRow) bool     { return false }

func TestProcess_StorageMissIsNotFatal(t *testing.T) {
	processor, _ := newProcessor(t, failingStore{})

	result, err := processor.Process(context.Background(), quality.Completion{
		TraceID:   "trace-1",
		Operation: "op",
		Response:  "some response text",
	})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, result.Overall, 0.0)
}

func TestRecordFeedback_PersistsAndScores(t *testing.T) {
	store := metrics.NewMemoryStore()
	logger := zaptest.NewLogger(t)
	sink := mocks.NewRecordingSink()
	emit := tracking.NewDispatcher(sink, time.Second, logger)
	recorder := quality.NewRecorder(store, emit, logger)

	err := recorder.RecordFeedback(context.Background(), "trace-1", "user-1", metrics.FeedbackUp, "very helpful")
	require.NoError(t, err)

	rows, err := store.RecentFeedback(context.Background(), time.Now().UTC().AddDate(0, 0, -1))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, metrics.FeedbackUp, rows[0].FeedbackType)

	score, ok := sink.ScoreByName(tracking.MetricUserFeedback)
	require.True(t, ok)
	assert.Equal(t, 1.0, score.Value)
	assert.Equal(t, "trace-1", score.TraceID)
	assert.Equal(t, true, score.Metadata["has_comment"])
}

func TestRecordFeedback_DownScoresZero(t *testing.T) {
	logger := zaptest.NewLogger(t)
	sink := mocks.NewRecordingSink()
	emit := tracking.NewDispatcher(sink, time.Second, logger)
	recorder := quality.NewRecorder(metrics.NewMemoryStore(), emit, logger)

	require.NoError(t, recorder.RecordFeedback(context.Background(), "t", "u", metrics.FeedbackDown, ""))

	score, ok := sink.ScoreByName(tracking.MetricUserFeedback)
	require.True(t, ok)
	assert.Equal(t, 0.0, score.Value)
	assert.Equal(t, false, score.Metadata["has_comment"])
}

func TestRecordFeedback_RejectsUnknownType(t *testing.T) {
	logger := zaptest.NewLogger(t)
	sink := mocks.NewRecordingSink()
	emit := tracking.NewDispatcher(sink, time.Second, logger)
	recorder := quality.NewRecorder(metrics.NewMemoryStore(), emit, logger)

	err := recorder.RecordFeedback(context.Background(), "t", "u", "maybe", "")
	require.Error(t, err)
	assert.Empty(t, sink.Scores())
}
