// Package api
// Author: momentics <momentics@gmail.com>
//
// Sentinel errors shared by the dispatcher and its collaborators. Kernel-facing
// failures (EINVAL, ENOMEM, ECANCELED, EINTR) are reported as the actual
// golang.org/x/sys/unix errno values wrapped with context rather than re-coded
// here. ErrAlreadyStarted covers a condition the kernel has no errno for;
// ErrDisabled wraps EINVAL, so errors.Is matches either.

package api

import (
	"errors"
	"fmt"
	"syscall"
)

var (
	// ErrAlreadyStarted is returned by Start when the completion loop is already running.
	ErrAlreadyStarted = errors.New("uringdispatch: already started")

	// ErrDisabled is returned by every public operation once the availability
	// probe has determined the dispatcher cannot use io_uring on this kernel.
	ErrDisabled = fmt.Errorf("uringdispatch: disabled, io_uring unavailable: %w", syscall.EINVAL)
)
