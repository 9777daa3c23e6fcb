// =============================================================================
// lifeos-aiq main entry
// =============================================================================
// AI quality observability service for LifeOS: tracked LLM calls, response
// quality evaluation, performance accounting, and a metrics dashboard API.
//
// Usage:
//
//	lifeos-aiq serve                       # start the service
//	lifeos-aiq serve --config config.yaml  # with a config file
//	lifeos-aiq analyze                     # run one quality analysis pass
//	lifeos-aiq version                     # show version info
//	lifeos-aiq health                      # probe a running instance
// =============================================================================

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/noahdevelopsio/lifeos/config"
	"github.com/noahdevelopsio/lifeos/internal/database"
	"github.com/noahdevelopsio/lifeos/internal/telemetry"
	"github.com/noahdevelopsio/lifeos/metrics"
	"github.com/noahdevelopsio/lifeos/tracking"
)

// =============================================================================
// Version info (injected at build time)
// =============================================================================

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		runServe(os.Args[2:])
	case "analyze":
		runAnalyze(os.Args[2:])
	case "version":
		printVersion()
	case "health":
		runHealthCheck(os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// =============================================================================
// serve command
// =============================================================================

func runServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	fs.Parse(args)

	cfg := loadConfig(*configPath)

	logger := initLogger(cfg.Log)
	defer logger.Sync()

	logger.Info("Starting lifeos-aiq",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit),
	)

	otelProviders, err := telemetry.Init(cfg.Telemetry, logger)
	if err != nil {
		logger.Warn("failed to initialize telemetry", zap.Error(err))
	}

	server := NewServer(cfg, logger, otelProviders)
	if err := server.Start(); err != nil {
		logger.Fatal("Failed to start server", zap.Error(err))
	}

	server.WaitForShutdown()

	logger.Info("lifeos-aiq stopped")
}

// =============================================================================
// analyze command
// =============================================================================

// runAnalyze runs a single quality analysis pass over the stored evaluations
// and prints the report as JSON. Intended for cron-less deployments and for
// inspecting a window on demand.
func runAnalyze(args []string) {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	windowDays := fs.Int("window-days", 0, "Analysis window in days (default from config)")
	fs.Parse(args)

	cfg := loadConfig(*configPath)

	logger := initLogger(cfg.Log)
	defer logger.Sync()

	days := *windowDays
	if days <= 0 {
		days = cfg.Analysis.WindowDays
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to open database", zap.Error(err))
	}
	store, err := metrics.NewGormStore(db, logger)
	if err != nil {
		logger.Fatal("Failed to prepare metrics store", zap.Error(err))
	}

	emit := tracking.NewDispatcher(tracking.NewLogSink(logger), cfg.Tracking.EmitTimeout, logger)
	analyzer := metrics.NewWeeklyAnalyzer(store, emit, logger)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	report, err := analyzer.Run(ctx, days)
	if err != nil {
		logger.Fatal("Analysis failed", zap.Error(err))
	}

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		logger.Fatal("Failed to encode report", zap.Error(err))
	}
	fmt.Println(string(out))
}

// =============================================================================
// health command
// =============================================================================

func runHealthCheck(args []string) {
	fs := flag.NewFlagSet("health", flag.ExitOnError)
	addr := fs.String("addr", "http://localhost:8080", "Server address")
	fs.Parse(args)

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(*addr + "/healthz")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Health check failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(os.Stderr, "Health check failed: status %d\n", resp.StatusCode)
		os.Exit(1)
	}

	fmt.Println("OK")
}

// =============================================================================
// config loading
// =============================================================================

func loadConfig(configPath string) *config.Config {
	loader := config.NewLoader()
	if configPath != "" {
		loader = loader.WithConfigPath(configPath)
	}

	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

// =============================================================================
// version and help
// =============================================================================

func printVersion() {
	fmt.Printf("lifeos-aiq %s\n", Version)
	fmt.Printf("  Build Time: %s\n", BuildTime)
	fmt.Printf("  Git Commit: %s\n", GitCommit)
}

func printUsage() {
	fmt.Println(`lifeos-aiq - LifeOS AI quality observability service

Usage:
  lifeos-aiq <command> [options]

Commands:
  serve     Start the HTTP API and metrics servers
  analyze   Run one quality analysis pass and print the report
  version   Show version information
  health    Check server health
  help      Show this help message

Options for 'serve' and 'analyze':
  --config <path>   Path to configuration file (YAML)

Options for 'analyze':
  --window-days <n> Analysis window in days

Examples:
  lifeos-aiq serve
  lifeos-aiq serve --config /etc/lifeos/aiq.yaml
  lifeos-aiq analyze --window-days 7
  lifeos-aiq health --addr http://localhost:8080
  lifeos-aiq version`)
}

// =============================================================================
// logger initialization
// =============================================================================

func initLogger(cfg config.LogConfig) *zap.Logger {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var encoderConfig zapcore.EncoderConfig
	if cfg.Format == "console" {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	encoding := "json"
	if cfg.Format == "console" {
		encoding = "console"
	}

	outputPaths := cfg.OutputPaths
	if len(outputPaths) == 0 {
		outputPaths = []string{"stdout"}
	}

	zapConfig := zap.Config{
		Level:             zap.NewAtomicLevelAt(level),
		Development:       cfg.Format == "console",
		Encoding:          encoding,
		EncoderConfig:     encoderConfig,
		OutputPaths:       outputPaths,
		ErrorOutputPaths:  []string{"stderr"},
		DisableCaller:     !cfg.EnableCaller,
		DisableStacktrace: !cfg.EnableStacktrace,
	}

	logger, err := zapConfig.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	return logger
}
