//go:build linux

// File: internal/iouring/poll.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package iouring

import "github.com/kestrelnet/uringdispatch/api"

// PollMaskFor translates the framework's readiness vocabulary into the
// kernel poll(2) event bits IORING_OP_POLL_ADD expects in poll32_events.
// Error and Hangup are always implicitly reported by the kernel regardless
// of whether they're requested, but requesting them explicitly keeps the
// mask self-documenting.
func PollMaskFor(events api.EventMask) uint32 {
	var mask uint32
	if events&api.Readable != 0 {
		mask |= pollIn
	}
	if events&api.Writable != 0 {
		mask |= pollOut
	}
	mask |= pollErr | pollHup
	return mask
}

// TranslatePollResult decodes a completion's poll result bits into the
// framework's readiness vocabulary.
func TranslatePollResult(res int32) api.EventMask {
	if res < 0 {
		return api.Error
	}
	bits := uint32(res)
	var m api.EventMask
	if bits&pollIn != 0 {
		m |= api.Readable
	}
	if bits&pollOut != 0 {
		m |= api.Writable
	}
	if bits&pollErr != 0 {
		m |= api.Error
	}
	if bits&(pollHup|pollNval) != 0 {
		m |= api.Hangup
	}
	return m
}
