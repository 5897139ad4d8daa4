// File: dispatcher/context_property_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package dispatcher

import (
	"testing"
	"testing/quick"

	"github.com/kestrelnet/uringdispatch/api"
)

// ringContextInvariants checks the three invariants ringContext must hold
// after every Registration API call: the fd<->token maps are exact mutual
// inverses, and every tracked fd carries exactly one poll mask entry.
func ringContextInvariants(c *ringContext) bool {
	if len(c.fdToToken) != len(c.tokenToFd) || len(c.fdToToken) != len(c.pollMask) {
		return false
	}
	for fd, token := range c.fdToToken {
		if back, ok := c.tokenToFd[token]; !ok || back != fd {
			return false
		}
		if _, ok := c.pollMask[fd]; !ok {
			return false
		}
	}
	for token, fd := range c.tokenToFd {
		if back, ok := c.fdToToken[fd]; !ok || back != token {
			return false
		}
	}
	return true
}

// TestRingContextInvariantsUnderRandomInterleaving replays random
// interleavings of track/untrack (the primitives RegisterEvent,
// UnregisterEvent, AddConsumer, and RemoveConsumer all reduce to) and checks
// ringContextInvariants after every single step, not just at the end.
func TestRingContextInvariantsUnderRandomInterleaving(t *testing.T) {
	const fdSpace = 8

	prop := func(ops []uint8) bool {
		ctx := newRingContext()
		for _, b := range ops {
			fd := int(b) % fdSpace
			token := api.EventToken(fd + 1) // fixed fd<->token pairing, as every Registration API caller uses

			switch (b / fdSpace) % 3 {
			case 0:
				ctx.track(fd, token, api.Readable)
			case 1:
				ctx.track(fd, token, api.Readable|api.Writable)
			case 2:
				ctx.untrack(fd)
			}

			if !ringContextInvariants(ctx) {
				return false
			}
		}
		return true
	}

	if err := quick.Check(prop, &quick.Config{MaxCount: 1000}); err != nil {
		t.Error(err)
	}
}
