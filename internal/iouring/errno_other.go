//go:build !linux

// File: internal/iouring/errno_other.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package iouring

func IsCanceled(err error) bool    { return false }
func IsInterrupted(err error) bool { return false }
func ResultError(res int32) error {
	if res >= 0 {
		return nil
	}
	return ErrUnsupported
}
