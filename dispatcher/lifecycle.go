// File: dispatcher/lifecycle.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package dispatcher

import (
	"sync/atomic"

	"github.com/kestrelnet/uringdispatch/api"
	"go.uber.org/zap"
)

// Start spawns the completion loop as a background task via cfg.Scheduler,
// augmenting attr with AttrNeverQuit and AttrGlobalPriority: the loop must
// not be treated as ordinary, descheduleable work. Fails if the dispatcher
// is disabled or already started.
func (d *Dispatcher) Start(attr api.TaskAttr) error {
	if err := d.checkAvailable(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return api.ErrAlreadyStarted
	}

	augmented := attr | api.AttrNeverQuit | api.AttrGlobalPriority
	id, err := d.cfg.Scheduler.Spawn(augmented, func() { d.run(augmented) })
	if err != nil {
		return err
	}
	d.taskID = id
	d.started = true
	atomic.StoreInt32(&d.stop, 0)
	return nil
}

// Running reports whether the dispatcher is available, started, and has not
// been stopped.
func (d *Dispatcher) Running() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.available && d.started && atomic.LoadInt32(&d.stop) == 0
}

// Stop requests the completion loop exit and unblocks it if it is parked in
// EnterWait. Idempotent.
func (d *Dispatcher) Stop() {
	if !atomic.CompareAndSwapInt32(&d.stop, 0, 1) {
		return
	}
	if d.wakeup != nil {
		if err := d.wakeup.signal(); err != nil {
			d.logger.Warn("wakeup signal failed during Stop", zap.Error(err))
		}
	}
}

// Join blocks until the completion loop has returned. Idempotent: a second
// call with no task recorded returns immediately.
func (d *Dispatcher) Join() error {
	d.mu.Lock()
	id := d.taskID
	started := d.started
	d.mu.Unlock()
	if !started {
		return nil
	}

	if err := d.cfg.Scheduler.Join(id); err != nil {
		return err
	}

	d.mu.Lock()
	d.started = false
	d.taskID = 0
	d.mu.Unlock()
	return nil
}
