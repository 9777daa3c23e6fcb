package metrics

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// GormStore persists rows through a gorm connection (SQLite for local runs,
// Postgres in deployment). Save failures are logged and swallowed.
type GormStore struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewGormStore migrates the two metric tables and returns the store.
func NewGormStore(db *gorm.DB, logger *zap.Logger) (*GormStore, error) {
	if err := db.AutoMigrate(&EvaluationRow{}, &FeedbackRow{}); err != nil {
		return nil, err
	}
	return &GormStore{
		db:     db,
		logger: logger.With(zap.String("component", "metrics_store")),
	}, nil
}

func (s *GormStore) SaveEvaluation(ctx context.Context, row *EvaluationRow) bool {
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		s.logger.Warn("evaluation save skipped",
			zap.String("trace_id", row.TraceID),
			zap.Error(err))
		return false
	}
	return true
}

func (s *GormStore) SaveFeedback(ctx context.Context, row *FeedbackRow) bool {
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		s.logger.Warn("feedback save skipped",
			zap.String("trace_id", row.TraceID),
			zap.Error(err))
		return false
	}
	return true
}

func (s *GormStore) RecentEvaluations(ctx context.Context, since time.Time) ([]EvaluationRow, error) {
	var rows []EvaluationRow
	err := s.db.WithContext(ctx).
		Where("created_at >= ?", since).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *GormStore) RecentFeedback(ctx context.Context, since time.Time) ([]FeedbackRow, error) {
	var rows []FeedbackRow
	err := s.db.WithContext(ctx).
		Where("created_at >= ?", since).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
