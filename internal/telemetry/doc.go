// Package telemetry centralizes OpenTelemetry SDK initialization: a
// TracerProvider and MeterProvider exporting over OTLP gRPC, or noop
// implementations when telemetry is disabled.
package telemetry
