package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/noahdevelopsio/lifeos/api/handlers"
	"github.com/noahdevelopsio/lifeos/config"
	"github.com/noahdevelopsio/lifeos/evaluation"
	"github.com/noahdevelopsio/lifeos/internal/cache"
	"github.com/noahdevelopsio/lifeos/internal/database"
	collector "github.com/noahdevelopsio/lifeos/internal/metrics"
	"github.com/noahdevelopsio/lifeos/internal/server"
	"github.com/noahdevelopsio/lifeos/internal/telemetry"
	"github.com/noahdevelopsio/lifeos/llm"
	"github.com/noahdevelopsio/lifeos/llm/providers/anthropic"
	"github.com/noahdevelopsio/lifeos/llm/providers/gemini"
	"github.com/noahdevelopsio/lifeos/metrics"
	"github.com/noahdevelopsio/lifeos/performance"
	"github.com/noahdevelopsio/lifeos/quality"
	"github.com/noahdevelopsio/lifeos/tracking"
)

// =============================================================================
// Server wiring
// =============================================================================

// Server owns the full observability pipeline and the two HTTP listeners:
// the API server and the Prometheus metrics server.
type Server struct {
	cfg    *config.Config
	logger *zap.Logger

	httpManager    *server.Manager
	metricsManager *server.Manager

	otelProviders *telemetry.Providers

	// Data layer
	pool     *database.PoolManager
	store    metrics.Store
	cacheMgr *cache.Manager

	// Pipeline
	emit      *tracking.Dispatcher
	scheduler *metrics.Scheduler

	// Handlers
	healthHandler   *handlers.HealthHandler
	chatHandler     *handlers.ChatHandler
	feedbackHandler *handlers.FeedbackHandler
	metricsHandler  *handlers.MetricsHandler
	analysisHandler *handlers.AnalysisHandler

	metricsCollector *collector.Collector
}

// NewServer builds an unstarted server. otelProviders may be nil when
// telemetry is disabled.
func NewServer(cfg *config.Config, logger *zap.Logger, otelProviders *telemetry.Providers) *Server {
	return &Server{
		cfg:           cfg,
		logger:        logger,
		otelProviders: otelProviders,
	}
}

// Start brings up the pipeline and both listeners.
func (s *Server) Start() error {
	s.metricsCollector = collector.NewCollector("lifeos", s.logger)

	s.initDataLayer()

	if err := s.initPipeline(); err != nil {
		return fmt.Errorf("failed to init pipeline: %w", err)
	}

	if err := s.startHTTPServer(); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	if err := s.startMetricsServer(); err != nil {
		return fmt.Errorf("failed to start metrics server: %w", err)
	}

	if s.scheduler != nil {
		s.scheduler.Start()
	}

	s.logger.Info("All servers started",
		zap.Int("http_port", s.cfg.Server.HTTPPort),
		zap.Int("metrics_port", s.cfg.Server.MetricsPort),
	)
	return nil
}

// =============================================================================
// Initialization
// =============================================================================

// initDataLayer opens the metrics store and the optional summary cache.
// Neither is fatal: without a database the store degrades to in-memory,
// without Redis every dashboard read recomputes from the store.
func (s *Server) initDataLayer() {
	db, err := database.Open(s.cfg.Database)
	if err != nil {
		s.logger.Warn("Database not available, falling back to in-memory metrics store", zap.Error(err))
		s.store = metrics.NewMemoryStore()
	} else {
		poolCfg := database.DefaultPoolConfig()
		if s.cfg.Database.MaxOpenConns > 0 {
			poolCfg.MaxOpenConns = s.cfg.Database.MaxOpenConns
		}
		if s.cfg.Database.MaxIdleConns > 0 {
			poolCfg.MaxIdleConns = s.cfg.Database.MaxIdleConns
		}
		if s.cfg.Database.ConnMaxLifetime > 0 {
			poolCfg.ConnMaxLifetime = s.cfg.Database.ConnMaxLifetime
		}
		pool, poolErr := database.NewPoolManager(db, poolCfg, s.logger)
		if poolErr != nil {
			s.logger.Warn("Failed to configure database pool", zap.Error(poolErr))
		} else {
			s.pool = pool
		}

		store, storeErr := metrics.NewGormStore(db, s.logger)
		if storeErr != nil {
			s.logger.Warn("Failed to migrate metrics tables, falling back to in-memory store", zap.Error(storeErr))
			s.store = metrics.NewMemoryStore()
		} else {
			s.store = store
		}
	}

	if s.cfg.Redis.Enabled {
		cacheCfg := cache.DefaultConfig()
		cacheCfg.Addr = s.cfg.Redis.Addr
		cacheCfg.Password = s.cfg.Redis.Password
		cacheCfg.DB = s.cfg.Redis.DB
		if s.cfg.Redis.PoolSize > 0 {
			cacheCfg.PoolSize = s.cfg.Redis.PoolSize
		}
		if s.cfg.Redis.MinIdleConns > 0 {
			cacheCfg.MinIdleConns = s.cfg.Redis.MinIdleConns
		}
		mgr, cacheErr := cache.NewManager(cacheCfg, s.logger)
		if cacheErr != nil {
			s.logger.Warn("Redis not available, summary cache disabled", zap.Error(cacheErr))
		} else {
			s.cacheMgr = mgr
		}
	}

	s.store = collector.InstrumentStore(s.store, s.metricsCollector)
}

// initPipeline constructs the tracking dispatcher, the LLM client, the
// evaluation and performance stages, and the handlers over them.
func (s *Server) initPipeline() error {
	var sink tracking.Sink
	if s.cfg.Telemetry.Enabled {
		sink = tracking.NewOTelSink()
	} else {
		sink = tracking.NewLogSink(s.logger)
	}
	// Every record also feeds the Prometheus instruments.
	sink = tracking.NewFanoutSink(sink, collector.NewPipelineSink(s.metricsCollector))
	s.emit = tracking.NewDispatcher(sink, s.cfg.Tracking.EmitTimeout, s.logger)

	s.healthHandler = handlers.NewHealthHandler(s.logger)
	if s.pool != nil {
		s.healthHandler.RegisterCheck(handlers.CheckFunc{CheckName: "database", Fn: s.pool.Ping})
	}
	if s.cacheMgr != nil {
		s.healthHandler.RegisterCheck(handlers.CheckFunc{CheckName: "redis", Fn: s.cacheMgr.Ping})
	}

	engine := evaluation.NewEngine(s.emit)
	accountant := performance.NewAccountant(performance.NewPriceTable(), s.emit, s.logger)
	processor := quality.NewProcessor(engine, accountant, s.store, s.logger)
	recorder := quality.NewRecorder(s.store, s.emit, s.logger)

	var summaryCache metrics.SummaryCache
	if s.cacheMgr != nil {
		summaryCache = collector.InstrumentSummaryCache(cache.NewSummaryCache(s.cacheMgr, s.logger), s.metricsCollector)
	}
	aggregator := metrics.NewAggregator(s.store, summaryCache, s.cfg.Redis.SummaryTTL, s.logger)
	analyzer := metrics.NewWeeklyAnalyzer(s.store, s.emit, s.logger)

	scheduler, err := metrics.NewScheduler(analyzer, s.cfg.Analysis.Schedule, s.logger)
	if err != nil {
		return fmt.Errorf("invalid analysis schedule %q: %w", s.cfg.Analysis.Schedule, err)
	}
	s.scheduler = scheduler

	if s.cfg.LLM.APIKey != "" {
		client := s.newLLMClient()
		tracker := tracking.NewTracker(client, s.emit, s.cfg.Tracking.Environment, s.logger)
		s.chatHandler = handlers.NewChatHandler(tracker, processor, s.logger)
		s.logger.Info("Chat handler initialized",
			zap.String("provider", s.cfg.LLM.Provider),
			zap.String("model", client.Model()))
	} else {
		s.logger.Info("LLM API key not configured, chat endpoints disabled")
	}

	s.feedbackHandler = handlers.NewFeedbackHandler(recorder, s.logger)
	s.metricsHandler = handlers.NewMetricsHandler(aggregator, s.logger)
	s.analysisHandler = handlers.NewAnalysisHandler(analyzer, s.cfg.Analysis.TriggerSecret, s.cfg.Analysis.WindowDays, s.logger)

	s.logger.Info("Pipeline initialized")
	return nil
}

// newLLMClient selects the configured generation provider. Validate has
// already constrained Provider to a known value.
func (s *Server) newLLMClient() llm.Client {
	switch s.cfg.LLM.Provider {
	case "anthropic":
		return anthropic.New(anthropic.Config{
			APIKey:    s.cfg.LLM.APIKey,
			Model:     s.cfg.LLM.Model,
			BaseURL:   s.cfg.LLM.BaseURL,
			MaxTokens: s.cfg.LLM.MaxTokens,
			Timeout:   s.cfg.LLM.Timeout,
		}, s.logger)
	default:
		return gemini.New(gemini.Config{
			APIKey:  s.cfg.LLM.APIKey,
			Model:   s.cfg.LLM.Model,
			BaseURL: s.cfg.LLM.BaseURL,
			Timeout: s.cfg.LLM.Timeout,
		}, s.logger)
	}
}

// =============================================================================
// HTTP server
// =============================================================================

func (s *Server) startHTTPServer() error {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", s.healthHandler.HandleHealthz)
	mux.HandleFunc("/readyz", s.healthHandler.HandleReadyz)

	if s.chatHandler != nil {
		mux.HandleFunc("/v1/chat", s.chatHandler.HandleChat)
		mux.HandleFunc("/v1/chat/stream", s.chatHandler.HandleChatStream)
		mux.HandleFunc("/v1/summarize", s.chatHandler.HandleSummarize)
		s.logger.Info("Chat API routes registered")
	}

	mux.HandleFunc("/v1/feedback", s.feedbackHandler.HandleFeedback)
	mux.HandleFunc("/v1/metrics/summary", s.metricsHandler.HandleSummary)
	mux.HandleFunc("/v1/analysis/run", s.analysisHandler.HandleRun)

	handler := Chain(mux,
		Recovery(s.logger),
		RequestID(),
		SecurityHeaders(),
		RequestLogger(s.logger),
		MetricsMiddleware(s.metricsCollector),
	)

	serverConfig := server.Config{
		Addr:            fmt.Sprintf(":%d", s.cfg.Server.HTTPPort),
		ReadTimeout:     s.cfg.Server.ReadTimeout,
		WriteTimeout:    s.cfg.Server.WriteTimeout,
		IdleTimeout:     2 * s.cfg.Server.ReadTimeout,
		MaxHeaderBytes:  1 << 20,
		ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
	}

	s.httpManager = server.NewManager(handler, serverConfig, s.logger)
	if err := s.httpManager.Start(); err != nil {
		return err
	}

	s.logger.Info("HTTP server started", zap.Int("port", s.cfg.Server.HTTPPort))
	return nil
}

// =============================================================================
// Metrics server
// =============================================================================

func (s *Server) startMetricsServer() error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	serverConfig := server.Config{
		Addr:            fmt.Sprintf(":%d", s.cfg.Server.MetricsPort),
		ReadTimeout:     s.cfg.Server.ReadTimeout,
		WriteTimeout:    s.cfg.Server.WriteTimeout,
		ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
	}

	s.metricsManager = server.NewManager(mux, serverConfig, s.logger)
	if err := s.metricsManager.Start(); err != nil {
		return err
	}

	s.logger.Info("Metrics server started", zap.Int("port", s.cfg.Server.MetricsPort))
	return nil
}

// =============================================================================
// Shutdown
// =============================================================================

// WaitForShutdown blocks until a termination signal, then shuts everything
// down in reverse dependency order.
func (s *Server) WaitForShutdown() {
	if s.httpManager != nil {
		s.httpManager.WaitForShutdown()
	}
	s.Shutdown()
}

// Shutdown stops the listeners, the scheduler, and the data layer.
func (s *Server) Shutdown() {
	s.logger.Info("Starting graceful shutdown...")

	ctx := context.Background()

	if s.scheduler != nil {
		s.scheduler.Stop()
	}

	if s.httpManager != nil {
		if err := s.httpManager.Shutdown(ctx); err != nil {
			s.logger.Error("HTTP server shutdown error", zap.Error(err))
		}
	}
	if s.metricsManager != nil {
		if err := s.metricsManager.Shutdown(ctx); err != nil {
			s.logger.Error("Metrics server shutdown error", zap.Error(err))
		}
	}

	if s.cacheMgr != nil {
		if err := s.cacheMgr.Close(); err != nil {
			s.logger.Error("Redis shutdown error", zap.Error(err))
		}
	}
	if s.pool != nil {
		if err := s.pool.Close(); err != nil {
			s.logger.Error("Database shutdown error", zap.Error(err))
		}
	}

	if s.otelProviders != nil {
		if err := s.otelProviders.Shutdown(ctx); err != nil {
			s.logger.Error("Telemetry shutdown error", zap.Error(err))
		}
	}

	s.logger.Info("Graceful shutdown complete")
}
