// control/metrics_test.go
// Author: momentics <momentics@gmail.com>

package control

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLatencyWindowMean(t *testing.T) {
	w := NewLatencyWindow(4)
	for _, v := range []int64{10, 20, 30, 40} {
		w.Observe(v)
	}
	require.Equal(t, 4, w.Len())
	require.Equal(t, 25.0, w.Mean())
}

func TestLatencyWindowEvictsOldest(t *testing.T) {
	w := NewLatencyWindow(2)
	w.Observe(10)
	w.Observe(20)
	w.Observe(30)
	require.Equal(t, 2, w.Len())
	require.Equal(t, 25.0, w.Mean())
}

func TestPrometheusRecorderObserve(t *testing.T) {
	r := NewPrometheusRecorder("test_latency_seconds", "test latency")
	r.Observe(1_500_000)
	require.NotNil(t, r.Collector())
}

func TestMetricsRegistrySnapshot(t *testing.T) {
	reg := NewMetricsRegistry()
	reg.Set("pending_submissions", 3)
	snap := reg.GetSnapshot()
	require.Equal(t, 3, snap["pending_submissions"])
}
