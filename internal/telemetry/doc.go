// Package telemetry wraps OpenTelemetry SDK initialization: a centrally
// configured TracerProvider and MeterProvider with OTLP gRPC export. When
// telemetry is disabled the global providers stay noop and nothing connects
// to an external service.
// This package is internal and should not be imported by external projects.
package telemetry
