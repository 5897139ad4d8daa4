// control/metrics.go
// Author: momentics <momentics@gmail.com>
//
// Latency sinks satisfying api.LatencyRecorder, plus a generic snapshot
// registry for whatever else cmd/uringpolld wants to expose (its echoed
// and dropped read counts).

package control

import (
	"sync"
	"time"

	"github.com/eapache/queue"
	"github.com/kestrelnet/uringdispatch/api"
	"github.com/prometheus/client_golang/prometheus"
)

// MetricsRegistry holds mutable and read-only metrics.
type MetricsRegistry struct {
	mu      sync.RWMutex
	metrics map[string]any
	updated time.Time
}

// NewMetricsRegistry creates an empty registry.
func NewMetricsRegistry() *MetricsRegistry {
	return &MetricsRegistry{
		metrics: make(map[string]any),
	}
}

// Set sets or updates a metric key.
func (mr *MetricsRegistry) Set(key string, value any) {
	mr.mu.Lock()
	mr.metrics[key] = value
	mr.updated = time.Now()
	mr.mu.Unlock()
}

// GetSnapshot returns the latest metrics.
func (mr *MetricsRegistry) GetSnapshot() map[string]any {
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	out := make(map[string]any, len(mr.metrics))
	for k, v := range mr.metrics {
		out[k] = v
	}
	return out
}

// LatencyWindow is a bounded sliding window of nanosecond observations,
// backed by eapache/queue's ring buffer, satisfying api.LatencyRecorder.
// read_latency and write_latency are each backed by one of these when no
// Prometheus registry is configured.
type LatencyWindow struct {
	mu       sync.Mutex
	samples  *queue.Queue
	capacity int
	sum      int64
}

// NewLatencyWindow creates a window retaining the most recent capacity
// observations.
func NewLatencyWindow(capacity int) *LatencyWindow {
	if capacity <= 0 {
		capacity = 256
	}
	return &LatencyWindow{samples: queue.New(), capacity: capacity}
}

// Observe implements api.LatencyRecorder.
func (w *LatencyWindow) Observe(nanos int64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.samples.Add(nanos)
	w.sum += nanos
	for w.samples.Length() > w.capacity {
		oldest := w.samples.Remove().(int64)
		w.sum -= oldest
	}
}

// Mean returns the arithmetic mean of the retained window, 0 if empty.
func (w *LatencyWindow) Mean() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := w.samples.Length()
	if n == 0 {
		return 0
	}
	return float64(w.sum) / float64(n)
}

// Len reports how many samples are currently retained.
func (w *LatencyWindow) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.samples.Length()
}

// PrometheusRecorder adapts a prometheus.Histogram to api.LatencyRecorder,
// recording observations in seconds as the Prometheus convention expects.
type PrometheusRecorder struct {
	hist prometheus.Histogram
}

// NewPrometheusRecorder wraps a histogram registered under name/help by the
// caller (typically via prometheus.MustRegister).
func NewPrometheusRecorder(name, help string) *PrometheusRecorder {
	return &PrometheusRecorder{
		hist: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    name,
			Help:    help,
			Buckets: prometheus.ExponentialBuckets(1e-6, 2, 20),
		}),
	}
}

// Collector exposes the underlying histogram for registration with a
// prometheus.Registerer.
func (r *PrometheusRecorder) Collector() prometheus.Collector { return r.hist }

// Observe implements api.LatencyRecorder.
func (r *PrometheusRecorder) Observe(nanos int64) {
	r.hist.Observe(float64(nanos) / float64(time.Second))
}

var (
	_ api.LatencyRecorder = (*LatencyWindow)(nil)
	_ api.LatencyRecorder = (*PrometheusRecorder)(nil)
)
