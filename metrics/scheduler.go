package metrics

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultAnalysisSchedule runs the weekly analysis Monday 09:00.
const DefaultAnalysisSchedule = "0 9 * * 1"

// Scheduler runs the weekly analyzer on a cron schedule.
type Scheduler struct {
	cron     *cron.Cron
	analyzer *WeeklyAnalyzer
	timeout  time.Duration
	logger   *zap.Logger
}

// NewScheduler registers the analyzer under the given cron expression.
// Empty spec uses DefaultAnalysisSchedule.
func NewScheduler(analyzer *WeeklyAnalyzer, spec string, logger *zap.Logger) (*Scheduler, error) {
	if spec == "" {
		spec = DefaultAnalysisSchedule
	}
	s := &Scheduler{
		cron:     cron.New(),
		analyzer: analyzer,
		timeout:  time.Minute,
		logger:   logger.With(zap.String("component", "analysis_scheduler")),
	}
	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if _, err := s.analyzer.Run(ctx, 7); err != nil {
		s.logger.Error("scheduled analysis failed", zap.Error(err))
	}
}

// Start begins scheduling in a background goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("analysis scheduler started")
}

// Stop waits for a running job to finish and halts scheduling.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("analysis scheduler stopped")
}
