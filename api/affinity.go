// Package api
// Author: momentics <momentics@gmail.com>
//
// CPU affinity contract used to realize AttrGlobalPriority: pinning the
// completion loop's goroutine (and its OS thread) to a single CPU keeps it
// from migrating under load, which is as close as a userspace scheduler can
// get to the "global priority, never preempted" semantics the task
// attribute names.

package api

// Affinity pins or releases the calling goroutine's OS thread.
type Affinity interface {
	// Pin locks the current goroutine to its OS thread and binds that
	// thread to cpuID. cpuID < 0 lets the implementation pick.
	Pin(cpuID int) error
	// Unpin releases any affinity set by Pin and unlocks the OS thread.
	Unpin() error
}
