//go:build !linux

// File: internal/concurrency/affinity_other.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package concurrency

import "runtime"

// LinuxAffinity degrades to OS-thread locking on non-Linux platforms;
// sched_setaffinity has no portable equivalent.
type LinuxAffinity struct{}

// NewAffinity returns the fallback api.Affinity for non-Linux builds.
func NewAffinity() LinuxAffinity { return LinuxAffinity{} }

// Pin implements api.Affinity.
func (LinuxAffinity) Pin(cpuID int) error {
	runtime.LockOSThread()
	return nil
}

// Unpin implements api.Affinity.
func (LinuxAffinity) Unpin() error {
	runtime.UnlockOSThread()
	return nil
}
