package metrics_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noahdevelopsio/lifeos/metrics"
)

func TestNewFeedbackRow_ValidatesType(t *testing.T) {
	tests := []struct {
		feedbackType string
		ok           bool
	}{
		{metrics.FeedbackUp, true},
		{metrics.FeedbackDown, true},
		{"sideways", false},
		{"", false},
		{"UP", false},
	}
	for _, tt := range tests {
		t.Run(tt.feedbackType, func(t *testing.T) {
			row, ok := metrics.NewFeedbackRow("t", "u", tt.feedbackType, "")
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				require.NotNil(t, row)
				assert.Equal(t, tt.feedbackType, row.FeedbackType)
				assert.False(t, row.CreatedAt.IsZero())
			} else {
				assert.Nil(t, row)
			}
		})
	}
}

func TestMemoryStore_RecentEvaluationsFiltersAndOrders(t *testing.T) {
	store := metrics.NewMemoryStore()
	ctx := context.Background()

	old := metrics.NewEvaluationRow("old", "u", "op")
	old.CreatedAt = time.Now().UTC().AddDate(0, 0, -10)
	require.True(t, store.SaveEvaluation(ctx, old))

	mid := metrics.NewEvaluationRow("mid", "u", "op")
	mid.CreatedAt = time.Now().UTC().AddDate(0, 0, -2)
	require.True(t, store.SaveEvaluation(ctx, mid))

	recent := metrics.NewEvaluationRow("recent", "u", "op")
	require.True(t, store.SaveEvaluation(ctx, recent))

	since := time.Now().UTC().AddDate(0, 0, -7)
	rows, err := store.RecentEvaluations(ctx, since)
	require.NoError(t, err)

	require.Len(t, rows, 2)
	assert.Equal(t, "recent", rows[0].TraceID)
	assert.Equal(t, "mid", rows[1].TraceID)
}

func TestMemoryStore_AssignsIDs(t *testing.T) {
	store := metrics.NewMemoryStore()
	ctx := context.Background()

	a := metrics.NewEvaluationRow("a", "u", "op")
	b := metrics.NewEvaluationRow("b", "u", "op")
	require.True(t, store.SaveEvaluation(ctx, a))
	require.True(t, store.SaveEvaluation(ctx, b))

	assert.NotZero(t, a.ID)
	assert.NotZero(t, b.ID)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestMemoryStore_RecentFeedbackFilters(t *testing.T) {
	store := metrics.NewMemoryStore()
	ctx := context.Background()

	row, ok := metrics.NewFeedbackRow("t1", "u", metrics.FeedbackUp, "helpful")
	require.True(t, ok)
	require.True(t, store.SaveFeedback(ctx, row))

	stale, ok := metrics.NewFeedbackRow("t2", "u", metrics.FeedbackDown, "")
	require.True(t, ok)
	stale.CreatedAt = time.Now().UTC().AddDate(0, 0, -40)
	require.True(t, store.SaveFeedback(ctx, stale))

	rows, err := store.RecentFeedback(ctx, time.Now().UTC().AddDate(0, 0, -30))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "t1", rows[0].TraceID)
	assert.Equal(t, "helpful", rows[0].Comment)
}
