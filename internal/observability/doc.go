// doc.go - Package documentation for observability.

// Package observability builds the process-wide logger, tracer and meter.
//
// Logs go through slog with a TracingHandler that stamps trace and span ids
// from the context. Metrics are OpenTelemetry instruments exported through
// the OTel Prometheus exporter into a private client_golang registry.
package observability
