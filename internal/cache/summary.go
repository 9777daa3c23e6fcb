package cache

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noahdevelopsio/lifeos/metrics"
)

// SummaryCache adapts Manager to the aggregator's cache interface. Cache
// errors degrade to a miss; the aggregator then recomputes from the store.
type SummaryCache struct {
	manager *Manager
	logger  *zap.Logger
}

func NewSummaryCache(manager *Manager, logger *zap.Logger) *SummaryCache {
	return &SummaryCache{
		manager: manager,
		logger:  logger.With(zap.String("component", "summary_cache")),
	}
}

func (c *SummaryCache) Get(ctx context.Context, key string) (metrics.MetricsSummary, bool) {
	var s metrics.MetricsSummary
	if err := c.manager.GetJSON(ctx, key, &s); err != nil {
		if !IsCacheMiss(err) {
			c.logger.Warn("summary cache read failed", zap.String("key", key), zap.Error(err))
		}
		return metrics.MetricsSummary{}, false
	}
	return s, true
}

func (c *SummaryCache) Set(ctx context.Context, key string, s metrics.MetricsSummary, ttl time.Duration) {
	if err := c.manager.SetJSON(ctx, key, s, ttl); err != nil {
		c.logger.Warn("summary cache write failed", zap.String("key", key), zap.Error(err))
	}
}
