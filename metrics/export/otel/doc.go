// Package otel publishes controller metrics through an OpenTelemetry Meter.
//
// [NewExporter] registers one Int64ObservableCounter per counter and one
// Int64ObservableGauge per cumulative latency bucket. A single callback reads
// the controller snapshot on each collection. The caller owns the
// MeterProvider.
package otel
