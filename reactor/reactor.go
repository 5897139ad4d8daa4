// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>
//
// File: reactor/reactor.go
//
// Reactor is the alternate, level-triggered backend: the same readiness
// vocabulary (api.EventMask/api.EventToken/api.Callback) the io_uring
// dispatcher uses, driven by epoll instead of one-shot poll submissions.
// Like the dispatcher with its automatic re-arm, it re-reports a ready fd on
// every Poll call until the caller acts on it or unregisters it.

package reactor

import "github.com/kestrelnet/uringdispatch/api"

// Reactor watches a set of file descriptors for readiness and dispatches
// api.Callback on every poll iteration a registered fd is ready.
type Reactor interface {
	// Register starts watching fd for events, tagged with token and attr so
	// cb receives them back unchanged on every delivery.
	Register(fd uintptr, events api.EventMask, token api.EventToken, attr api.TaskAttr, cb api.Callback) error

	// Modify changes the event mask watched for an already-registered fd.
	Modify(fd uintptr, events api.EventMask) error

	// Unregister stops watching fd. Unregistering an fd that was never
	// registered is a no-op.
	Unregister(fd uintptr) error

	// Poll blocks up to timeoutMs milliseconds (or indefinitely if < 0)
	// waiting for at least one ready fd, then dispatches callbacks for
	// everything ready. A nil error on return with nothing ready means the
	// timeout expired or the wait was interrupted by a signal.
	Poll(timeoutMs int) error

	// Close releases the reactor's kernel resources.
	Close() error
}

// NewReactor returns the platform's Reactor implementation.
func NewReactor() (Reactor, error) {
	return newPlatformReactor()
}
