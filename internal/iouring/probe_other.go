//go:build !linux

// File: internal/iouring/probe_other.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package iouring

// Available always reports false outside Linux: io_uring is a Linux-only
// kernel facility.
func Available() bool { return false }
