// Package control provides the metrics sinks the dispatcher reports read and
// write latency observations to: a bounded in-memory sliding window and a
// Prometheus histogram adapter, both satisfying api.LatencyRecorder.
package control
