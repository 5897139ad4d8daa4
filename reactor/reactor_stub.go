//go:build !linux

// File: reactor/reactor_stub.go
// Author: momentics <momentics@gmail.com>
//
// Stub implementation for platforms without an epoll-based Reactor. The
// dispatcher's io_uring path is Linux-only anyway; this keeps the module
// buildable elsewhere.

package reactor

import "errors"

func newPlatformReactor() (Reactor, error) {
	return nil, errors.New("reactor: this platform is not supported")
}
