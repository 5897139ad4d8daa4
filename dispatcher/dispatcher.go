// File: dispatcher/dispatcher.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package dispatcher multiplexes readiness notifications for many file
// descriptors onto io_uring one-shot poll operations, re-arming them
// automatically and dispatching callbacks through an injected scheduler.

package dispatcher

import (
	"sync"

	"github.com/kestrelnet/uringdispatch/api"
	"github.com/kestrelnet/uringdispatch/internal/iouring"
	"go.uber.org/zap"
)

// wakeupToken is the reserved sentinel user-data value for the wakeup pipe's
// poll registration. Zero must never be issued as a real event token by
// callers; the dispatcher does not validate this.
const wakeupToken api.EventToken = 0

// Dispatcher is the io_uring-backed readiness multiplexer.
type Dispatcher struct {
	cfg    Config
	logger *zap.Logger

	ring      *iouring.Ring
	available bool

	ctx    *ringContext
	wakeup *wakeupPipe

	mu      sync.Mutex // guards start/stop/join bookkeeping only, not ctx
	taskID  api.TaskID
	started bool
	stop    int32
}

// New runs the availability probe and, on success, constructs the real ring
// and wakeup pipe. A Dispatcher whose probe failed is still returned (not an
// error) in the disabled state: Available() reports false and every public
// operation returns api.ErrDisabled instead of touching a ring that was
// never opened.
func New(cfg Config) (*Dispatcher, error) {
	cfg = cfg.withDefaults()
	d := &Dispatcher{
		cfg:    cfg,
		logger: cfg.Logger,
		ctx:    newRingContext(),
	}

	if !iouring.Available() {
		d.logger.Warn("io_uring unavailable, dispatcher disabled")
		return d, nil
	}

	ring, err := iouring.Open(cfg.RingDepth)
	if err != nil {
		d.logger.Warn("io_uring ring init failed, dispatcher disabled", zap.Error(err))
		return d, nil
	}

	wakeup, err := newWakeupPipe()
	if err != nil {
		ring.Close()
		d.logger.Error("wakeup pipe creation failed, dispatcher disabled", zap.Error(err))
		return d, nil
	}

	d.ring = ring
	d.wakeup = wakeup
	d.available = true
	return d, nil
}

// Available reports whether the availability probe succeeded and this
// Dispatcher can accept Registration API calls and Start.
func (d *Dispatcher) Available() bool {
	return d.available
}

func (d *Dispatcher) checkAvailable() error {
	if !d.available {
		return api.ErrDisabled
	}
	return nil
}

// Close performs the sequence the original's destructor runs
// unconditionally: Stop, Join, ring teardown, pipe close. Safe to call more
// than once and safe to call on a disabled Dispatcher.
func (d *Dispatcher) Close() error {
	d.Stop()
	if err := d.Join(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.available {
		return nil
	}
	d.available = false
	if d.wakeup != nil {
		d.wakeup.close()
	}
	if d.ring != nil {
		return d.ring.Close()
	}
	return nil
}
