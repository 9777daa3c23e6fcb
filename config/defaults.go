package config

import "time"

// DefaultConfig returns the configuration used when nothing overrides it.
// Defaults favor a local single-node run: SQLite storage, no Redis, logging
// sink only.
func DefaultConfig() *Config {
	return &Config{
		Server:    DefaultServerConfig(),
		Database:  DefaultDatabaseConfig(),
		Redis:     DefaultRedisConfig(),
		LLM:       DefaultLLMConfig(),
		Log:       DefaultLogConfig(),
		Telemetry: DefaultTelemetryConfig(),
		Tracking:  DefaultTrackingConfig(),
		Analysis:  DefaultAnalysisConfig(),
	}
}

func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		HTTPPort:        8080,
		MetricsPort:     9091,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		ShutdownTimeout: 15 * time.Second,
	}
}

func DefaultDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Driver:          "sqlite",
		Name:            "lifeos.db",
		SSLMode:         "disable",
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
	}
}

func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Enabled:      false,
		Addr:         "localhost:6379",
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 2,
		SummaryTTL:   5 * time.Minute,
	}
}

func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		Provider:  "gemini",
		Model:     "gemini-2.5-flash-lite",
		MaxTokens: 4096,
		Timeout:   60 * time.Second,
	}
}

func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:       "info",
		Format:      "json",
		OutputPaths: []string{"stdout"},
	}
}

func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:      false,
		OTLPEndpoint: "localhost:4317",
		ServiceName:  "lifeos-aiq",
		SampleRate:   1.0,
	}
}

func DefaultTrackingConfig() TrackingConfig {
	return TrackingConfig{
		Environment: "development",
		EmitTimeout: 2 * time.Second,
	}
}

func DefaultAnalysisConfig() AnalysisConfig {
	return AnalysisConfig{
		Schedule:          "0 9 * * 1",
		WindowDays:        7,
		SummaryWindowDays: 30,
	}
}
