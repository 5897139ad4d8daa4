// File: dispatcher/registration.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Registration API: RegisterEvent, UnregisterEvent, AddConsumer,
// RemoveConsumer. None of these suspend; callers serialize them against the
// completion loop externally (see ringContext's doc comment).

package dispatcher

import (
	"fmt"

	"github.com/kestrelnet/uringdispatch/api"
	"github.com/kestrelnet/uringdispatch/internal/iouring"
	"go.uber.org/zap"
)

// pushPollAdd stages a poll-add SQE for fd/mask/token, flushing and retrying
// once if the submission queue is full before giving up with ENOMEM.
func (d *Dispatcher) pushPollAdd(fd int, mask api.EventMask, token api.EventToken) error {
	kernelMask := iouring.PollMaskFor(mask)
	if d.ring.PushPollAdd(int32(fd), kernelMask, uint64(token)) {
		return nil
	}
	if _, err := d.ring.Flush(); err != nil {
		d.logger.Error("flush during back-pressure retry failed", zap.Error(err))
	}
	if d.ring.PushPollAdd(int32(fd), kernelMask, uint64(token)) {
		return nil
	}
	return fmt.Errorf("dispatcher: poll-add fd=%d: %w", fd, errENOMEM)
}

// pushPollRemove stages a poll-remove SQE cancelling targetToken's armed
// poll, with the same back-pressure retry.
func (d *Dispatcher) pushPollRemove(targetToken api.EventToken) error {
	if d.ring.PushPollRemove(uint64(targetToken), uint64(targetToken)) {
		return nil
	}
	if _, err := d.ring.Flush(); err != nil {
		d.logger.Error("flush during back-pressure retry failed", zap.Error(err))
	}
	if d.ring.PushPollRemove(uint64(targetToken), uint64(targetToken)) {
		return nil
	}
	return fmt.Errorf("dispatcher: poll-remove token=%d: %w", targetToken, errENOMEM)
}

// conditionalSubmit flushes when enough SQEs have accumulated to amortize
// the submit syscall; otherwise it leaves the flush for the loop's
// end-of-iteration force-flush. Flush failures here are logged, not
// surfaced: the loop retries on every iteration.
func (d *Dispatcher) conditionalSubmit() {
	if int(d.ring.Pending()) < d.cfg.BatchThreshold {
		return
	}
	if _, err := d.ring.Flush(); err != nil {
		d.logger.Error("conditional submit flush failed", zap.Error(err))
	}
}

// RegisterEvent arms a one-shot poll on fd with writable interest, plus
// readable interest if wantRead, and records token<->fd.
func (d *Dispatcher) RegisterEvent(token api.EventToken, fd int, wantRead bool) error {
	if err := d.checkAvailable(); err != nil {
		return err
	}
	mask := api.Writable
	if wantRead {
		mask |= api.Readable
	}
	if err := d.pushPollAdd(fd, mask, token); err != nil {
		return err
	}
	d.ctx.track(fd, token, mask)
	d.conditionalSubmit()
	return nil
}

// UnregisterEvent either downgrades fd to readable-only interest (keepRead)
// or removes it entirely. A downgrade arms a new readable-only poll and
// records Readable as the mask later re-arms use; a poll still armed with
// the old mask is not cancelled, so it completes once more, with Writable
// filtered out by the completion loop.
func (d *Dispatcher) UnregisterEvent(token api.EventToken, fd int, keepRead bool) error {
	if err := d.checkAvailable(); err != nil {
		return err
	}
	if keepRead {
		if err := d.pushPollAdd(fd, api.Readable, token); err != nil {
			return err
		}
		d.ctx.track(fd, token, api.Readable)
		d.conditionalSubmit()
		return nil
	}

	if err := d.pushPollRemove(token); err != nil {
		return err
	}
	d.ctx.untrack(fd)
	d.conditionalSubmit()
	return nil
}

// AddConsumer arms a one-shot poll on fd for readable interest only.
func (d *Dispatcher) AddConsumer(token api.EventToken, fd int) error {
	if err := d.checkAvailable(); err != nil {
		return err
	}
	if err := d.pushPollAdd(fd, api.Readable, token); err != nil {
		return err
	}
	d.ctx.track(fd, token, api.Readable)
	d.conditionalSubmit()
	return nil
}

// RemoveConsumer cancels fd's armed poll and erases its bookkeeping. A no-op
// (success) if fd is not currently tracked, to be safe against double-close
// races. Submit failures here are only logged, since the fd may already be
// closed by the caller.
func (d *Dispatcher) RemoveConsumer(fd int) error {
	if err := d.checkAvailable(); err != nil {
		return err
	}
	token, ok := d.ctx.fdToToken[fd]
	if !ok {
		return nil
	}
	if err := d.pushPollRemove(token); err != nil {
		d.logger.Warn("poll-remove failed for RemoveConsumer", zap.Error(err))
	}
	d.ctx.untrack(fd)
	d.conditionalSubmit()
	return nil
}
