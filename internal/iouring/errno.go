//go:build linux

// File: internal/iouring/errno.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package iouring

import (
	"errors"

	"golang.org/x/sys/unix"
)

// IsCanceled reports whether err wraps ECANCELED, the expected negative CQE
// result after a poll-remove.
func IsCanceled(err error) bool {
	return errors.Is(err, unix.ECANCELED)
}

// IsInterrupted reports whether err wraps EINTR, the signal that a blocking
// wait should simply be retried.
func IsInterrupted(err error) bool {
	return errors.Is(err, unix.EINTR)
}

// ResultError turns a raw negative CQE result into an error wrapping the
// corresponding errno, or nil if res >= 0.
func ResultError(res int32) error {
	if res >= 0 {
		return nil
	}
	return unix.Errno(-res)
}
