// File: dispatcher/loop.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// The completion loop: drain, process, re-arm, force-flush.

package dispatcher

import (
	"sync/atomic"
	"time"

	"github.com/kestrelnet/uringdispatch/api"
	"github.com/kestrelnet/uringdispatch/internal/iouring"
	"go.uber.org/zap"
)

func (d *Dispatcher) run(attr api.TaskAttr) {
	if err := d.pushPollAdd(d.wakeup.readFd, api.Readable, wakeupToken); err != nil {
		d.logger.Error("failed to arm wakeup pipe poll, loop exiting", zap.Error(err))
		return
	}
	if _, err := d.ring.Flush(); err != nil {
		d.logger.Error("failed to submit initial wakeup poll, loop exiting", zap.Error(err))
		return
	}

	batch := make([]iouring.CQE, d.cfg.BatchSize)

	for {
		if atomic.LoadInt32(&d.stop) != 0 {
			return
		}

		n := d.ring.PeekCQE(batch)
		if n == 0 {
			if err := d.ring.EnterWait(1); err != nil {
				if iouring.IsInterrupted(err) {
					continue
				}
				d.logger.Error("completion wait failed, loop exiting", zap.Error(err))
				return
			}
			if atomic.LoadInt32(&d.stop) != 0 {
				return
			}
			continue
		}

		for i := 0; i < n; i++ {
			d.processCompletion(batch[i], attr)
		}

		if _, err := d.ring.Flush(); err != nil {
			d.logger.Error("force-flush after batch failed", zap.Error(err))
		}
	}
}

func (d *Dispatcher) processCompletion(cqe iouring.CQE, attr api.TaskAttr) {
	token := api.EventToken(cqe.UserData)

	if token == wakeupToken {
		d.wakeup.drain()
		if atomic.LoadInt32(&d.stop) == 0 {
			if err := d.pushPollAdd(d.wakeup.readFd, api.Readable, wakeupToken); err != nil {
				d.logger.Error("failed to re-arm wakeup pipe poll", zap.Error(err))
			}
		}
		return
	}

	if cqe.Res < 0 {
		if err := iouring.ResultError(cqe.Res); err != nil && !iouring.IsCanceled(err) {
			d.logger.Debug("completion carried negative result", zap.Error(err), zap.Uint64("token", uint64(token)))
		}
		return
	}

	fd, found := d.ctx.fdFor(token)
	if !found {
		// The registration was removed after this poll was armed: nothing is
		// dispatched and nothing is re-armed.
		return
	}
	// A poll armed before a downgrade can still report Writable; only the
	// fd's current interest, plus Error and Hangup, is delivered.
	events := iouring.TranslatePollResult(cqe.Res) & (d.ctx.maskFor(fd) | api.Error | api.Hangup)

	if events&(api.Readable|api.Error|api.Hangup) != 0 {
		d.timedDispatch(d.cfg.InputCallback, token, events, attr, d.cfg.Metrics.ReadLatency)
	}
	if events&(api.Writable|api.Error|api.Hangup) != 0 {
		d.timedDispatch(d.cfg.OutputCallback, token, events, attr, d.cfg.Metrics.WriteLatency)
	}

	if events&api.Hangup == 0 {
		mask := d.ctx.maskFor(fd)
		if err := d.pushPollAdd(fd, mask, token); err != nil {
			d.logger.Error("failed to re-arm poll", zap.Error(err), zap.Int("fd", fd))
		}
	}
}

func (d *Dispatcher) timedDispatch(cb api.Callback, token api.EventToken, events api.EventMask, attr api.TaskAttr, rec api.LatencyRecorder) {
	start := time.Now()
	func() {
		defer func() { _ = recover() }()
		cb(token, events, attr)
	}()
	rec.Observe(time.Since(start).Nanoseconds())
}
