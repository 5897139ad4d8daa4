// File: dispatcher/config.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package dispatcher

import (
	"github.com/kestrelnet/uringdispatch/api"
	"go.uber.org/zap"
)

const (
	defaultRingDepth      = 256
	defaultBatchThreshold = 8
	defaultBatchSize      = 32
)

// Config configures a Dispatcher. Zero-valued fields fall back to the
// defaults DefaultConfig returns.
type Config struct {
	// RingDepth is the submission-queue depth of the real ring created after
	// the availability probe succeeds.
	RingDepth uint32

	// BatchThreshold is the pending-SQE count at which a Registration API
	// call flushes eagerly instead of leaving the flush to the completion
	// loop's end-of-iteration force-flush.
	BatchThreshold int

	// BatchSize bounds how many completions a single loop iteration peeks
	// before processing them.
	BatchSize int

	// Logger receives structured diagnostics: Warn for probe/ring-init
	// failures, Error for SQE exhaustion and fatal wait errors, Debug for
	// per-CQE diagnostics. Defaults to a no-op logger.
	Logger *zap.Logger

	// Metrics receives read/write latency observations. Defaults to
	// api.NopLatencyRecorder for both endpoints.
	Metrics api.Metrics

	// Scheduler spawns and joins the completion loop's background task.
	// Required: a Dispatcher with a nil Scheduler cannot Start.
	Scheduler api.Scheduler

	// InputCallback is invoked when a completion's translated event set
	// includes Readable, Error, or Hangup.
	InputCallback api.Callback

	// OutputCallback is invoked when a completion's translated event set
	// includes Writable, Error, or Hangup.
	OutputCallback api.Callback
}

// DefaultConfig returns a Config with every numeric field at its documented
// default and a no-op logger/metrics. Scheduler and the two callbacks are
// still the caller's responsibility to set.
func DefaultConfig() Config {
	return Config{
		RingDepth:      defaultRingDepth,
		BatchThreshold: defaultBatchThreshold,
		BatchSize:      defaultBatchSize,
		Logger:         zap.NewNop(),
		Metrics:        api.Metrics{}.WithDefaults(),
	}
}

func (c Config) withDefaults() Config {
	if c.RingDepth == 0 {
		c.RingDepth = defaultRingDepth
	}
	if c.BatchThreshold <= 0 {
		c.BatchThreshold = defaultBatchThreshold
	}
	if c.BatchSize <= 0 {
		c.BatchSize = defaultBatchSize
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	c.Metrics = c.Metrics.WithDefaults()
	if c.InputCallback == nil {
		c.InputCallback = func(api.EventToken, api.EventMask, api.TaskAttr) {}
	}
	if c.OutputCallback == nil {
		c.OutputCallback = func(api.EventToken, api.EventMask, api.TaskAttr) {}
	}
	return c
}
