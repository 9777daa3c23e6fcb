package metrics_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/noahdevelopsio/lifeos/metrics"
	"github.com/noahdevelopsio/lifeos/testutil/mocks"
	"github.com/noahdevelopsio/lifeos/tracking"
)

func newSchedulerAnalyzer(t *testing.T) *metrics.WeeklyAnalyzer {
	t.Helper()
	logger := zaptest.NewLogger(t)
	emit := tracking.NewDispatcher(mocks.NewRecordingSink(), time.Second, logger)
	return metrics.NewWeeklyAnalyzer(metrics.NewMemoryStore(), emit, logger)
}

func TestNewScheduler_RejectsBadSpec(t *testing.T) {
	_, err := metrics.NewScheduler(newSchedulerAnalyzer(t), "not a cron spec", zaptest.NewLogger(t))
	assert.Error(t, err)
}

func TestNewScheduler_EmptySpecUsesDefault(t *testing.T) {
	s, err := metrics.NewScheduler(newSchedulerAnalyzer(t), "", zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NotNil(t, s)
}

func TestScheduler_StartStop(t *testing.T) {
	s, err := metrics.NewScheduler(newSchedulerAnalyzer(t), "@weekly", zaptest.NewLogger(t))
	require.NoError(t, err)

	s.Start()
	s.Stop()
}
