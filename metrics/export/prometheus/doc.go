// Package prometheus exposes controller metrics as a client_golang Collector.
//
// Register an [Exporter] with any prometheus.Registerer, or mount
// [Exporter.Handler], which serves a private registry. Counters are named
// evangelho_*_total; the one histogram is evangelho_provider_latency_seconds.
package prometheus
