//go:build linux

// File: internal/concurrency/affinity_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package concurrency

import (
	"fmt"
	"runtime"

	"golang.org/x/sys/unix"
)

// LinuxAffinity pins goroutines to CPUs via sched_setaffinity. Pin locks the
// calling goroutine to its OS thread before binding, so the binding survives
// for the lifetime of the call until Unpin releases it.
type LinuxAffinity struct{}

// NewAffinity returns the Linux sched_setaffinity-backed api.Affinity.
func NewAffinity() LinuxAffinity { return LinuxAffinity{} }

// Pin implements api.Affinity.
func (LinuxAffinity) Pin(cpuID int) error {
	runtime.LockOSThread()
	if cpuID < 0 {
		return nil
	}
	var set unix.CPUSet
	set.Zero()
	set.Set(cpuID % runtime.NumCPU())
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		runtime.UnlockOSThread()
		return fmt.Errorf("concurrency: sched_setaffinity cpu=%d: %w", cpuID, err)
	}
	return nil
}

// Unpin implements api.Affinity. It widens the thread's CPU mask to every CPU
// the kernel allows this process before unlocking the OS thread.
func (LinuxAffinity) Unpin() error {
	defer runtime.UnlockOSThread()
	var set unix.CPUSet
	set.Zero()
	for i := 0; i < 1024; i++ { // CPU_SETSIZE; Set ignores ids past the set's size
		set.Set(i)
	}
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return fmt.Errorf("concurrency: sched_setaffinity reset: %w", err)
	}
	return nil
}
