// File: dispatcher/context.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// ringContext is the dispatcher's bookkeeping: the fd<->token maps and the
// per-fd poll mask needed to re-arm one-shot polls. These maps are not
// internally lock-guarded — callers are expected to serialize Registration
// API calls against the completion loop externally (the common case: both
// run on one cooperative scheduler). Callers needing concurrent access from
// multiple threads must wrap the Registration API in a mutex themselves.

package dispatcher

import "github.com/kestrelnet/uringdispatch/api"

type ringContext struct {
	fdToToken map[int]api.EventToken
	tokenToFd map[api.EventToken]int
	pollMask  map[int]api.EventMask
}

func newRingContext() *ringContext {
	return &ringContext{
		fdToToken: make(map[int]api.EventToken),
		tokenToFd: make(map[api.EventToken]int),
		pollMask:  make(map[int]api.EventMask),
	}
}

// track records or overwrites the three map entries for fd.
func (c *ringContext) track(fd int, token api.EventToken, mask api.EventMask) {
	c.fdToToken[fd] = token
	c.tokenToFd[token] = fd
	c.pollMask[fd] = mask
}

// untrack erases all three map entries for fd, returning the token that was
// tracked (if any) and whether anything was removed.
func (c *ringContext) untrack(fd int) (api.EventToken, bool) {
	token, ok := c.fdToToken[fd]
	if !ok {
		return 0, false
	}
	delete(c.fdToToken, fd)
	delete(c.tokenToFd, token)
	delete(c.pollMask, fd)
	return token, true
}

func (c *ringContext) fdFor(token api.EventToken) (int, bool) {
	fd, ok := c.tokenToFd[token]
	return fd, ok
}

func (c *ringContext) maskFor(fd int) api.EventMask {
	return c.pollMask[fd]
}
