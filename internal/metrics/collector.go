// Package metrics provides internal Prometheus metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Collector registers and records the service's Prometheus metrics. Quality
// scores are observed as histograms per metric name so dashboards can watch
// score distributions drift, not just averages.
type Collector struct {
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	generationsTotal   *prometheus.CounterVec
	generationDuration *prometheus.HistogramVec
	generationTokens   *prometheus.CounterVec
	generationCost     *prometheus.CounterVec

	qualityScores *prometheus.HistogramVec
	feedbackTotal *prometheus.CounterVec
	alertsTotal   *prometheus.CounterVec
	rowsPersisted *prometheus.CounterVec

	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec

	logger *zap.Logger
}

func NewCollector(namespace string, logger *zap.Logger) *Collector {
	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	c.httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
	c.httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	c.generationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_total",
			Help:      "Total number of tracked generation calls",
		},
		[]string{"model", "operation", "status"},
	)
	c.generationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "Generation call duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"model", "operation"},
	)
	c.generationTokens = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_tokens_total",
			Help:      "Total estimated tokens consumed",
		},
		[]string{"model", "direction"},
	)
	c.generationCost = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_cost_usd_total",
			Help:      "Total estimated generation cost in USD",
		},
		[]string{"model"},
	)

	c.qualityScores = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "quality_score",
			Help:      "Heuristic quality score distribution per metric",
			Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
		},
		[]string{"metric"},
	)
	c.feedbackTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feedback_total",
			Help:      "Total user feedback votes",
		},
		[]string{"type"},
	)
	c.alertsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_total",
			Help:      "Total slow-call and cost alerts raised",
		},
		[]string{"kind"},
	)
	c.rowsPersisted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "metric_rows_persisted_total",
			Help:      "Evaluation and feedback rows written to the store",
		},
		[]string{"table", "status"},
	)

	c.cacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Total cache hits",
		},
		[]string{"cache"},
	)
	c.cacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Total cache misses",
		},
		[]string{"cache"},
	)

	return c
}

func (c *Collector) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	c.httpRequestsTotal.WithLabelValues(method, path, statusCode(status)).Inc()
	c.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func (c *Collector) RecordGeneration(model, operation, status string, duration time.Duration, inputTokens, outputTokens int, cost float64) {
	c.generationsTotal.WithLabelValues(model, operation, status).Inc()
	c.generationDuration.WithLabelValues(model, operation).Observe(duration.Seconds())
	c.generationTokens.WithLabelValues(model, "input").Add(float64(inputTokens))
	c.generationTokens.WithLabelValues(model, "output").Add(float64(outputTokens))
	c.generationCost.WithLabelValues(model).Add(cost)
}

func (c *Collector) RecordQualityScore(metric string, value float64) {
	c.qualityScores.WithLabelValues(metric).Observe(value)
}

func (c *Collector) RecordFeedback(feedbackType string) {
	c.feedbackTotal.WithLabelValues(feedbackType).Inc()
}

func (c *Collector) RecordAlert(kind string) {
	c.alertsTotal.WithLabelValues(kind).Inc()
}

func (c *Collector) RecordRowPersisted(table string, ok bool) {
	status := "ok"
	if !ok {
		status = "failed"
	}
	c.rowsPersisted.WithLabelValues(table, status).Inc()
}

func (c *Collector) RecordCacheHit(cache string)  { c.cacheHits.WithLabelValues(cache).Inc() }
func (c *Collector) RecordCacheMiss(cache string) { c.cacheMisses.WithLabelValues(cache).Inc() }

func statusCode(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
