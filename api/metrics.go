// File: api/metrics.go
// Author: momentics <momentics@gmail.com>
//
// Metrics sinks are treated as opaque counter endpoints: the dispatcher only
// needs somewhere to report a wall-clock nanosecond observation, never a
// concrete metrics backend. control.LatencyWindow and
// control.PrometheusRecorder both satisfy this.

package api

// LatencyRecorder accepts latency observations in nanoseconds.
type LatencyRecorder interface {
	Observe(nanos int64)
}

// NopLatencyRecorder discards every observation. Used as the default when a
// caller does not inject a recorder.
type NopLatencyRecorder struct{}

// Observe implements LatencyRecorder.
func (NopLatencyRecorder) Observe(int64) {}

// Metrics groups the two stable-named latency endpoints: read_latency and
// write_latency.
type Metrics struct {
	ReadLatency  LatencyRecorder
	WriteLatency LatencyRecorder
}

// WithDefaults fills in NopLatencyRecorder for any unset field, returning a
// Metrics safe to use without nil checks.
func (m Metrics) WithDefaults() Metrics {
	if m.ReadLatency == nil {
		m.ReadLatency = NopLatencyRecorder{}
	}
	if m.WriteLatency == nil {
		m.WriteLatency = NopLatencyRecorder{}
	}
	return m
}
