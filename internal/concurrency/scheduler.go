// File: internal/concurrency/scheduler.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Default api.Scheduler: spawns each task on its own goroutine and tracks it
// for Join. AttrGlobalPriority pins the goroutine's OS thread via Affinity for
// the lifetime of the task; AttrNeverQuit is advisory only (the Go runtime
// scheduler offers no equivalent knob to enforce it).

package concurrency

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/kestrelnet/uringdispatch/api"
)

// ErrUnknownTask is returned by Join when id was never returned by Spawn.
var ErrUnknownTask = errors.New("concurrency: unknown task id")

// Scheduler is a goroutine-backed api.Scheduler.
type Scheduler struct {
	affinity api.Affinity
	nextCPU  int32

	mu    sync.Mutex
	tasks map[api.TaskID]chan struct{}
	next  uint64
}

// NewScheduler builds a Scheduler that pins AttrGlobalPriority tasks using
// affinity. Pass a nil affinity to disable pinning (e.g. on platforms without
// a SchedSetaffinity implementation).
func NewScheduler(affinity api.Affinity) *Scheduler {
	return &Scheduler{
		affinity: affinity,
		tasks:    make(map[api.TaskID]chan struct{}),
	}
}

// Spawn implements api.Scheduler.
func (s *Scheduler) Spawn(attr api.TaskAttr, fn api.TaskFunc) (api.TaskID, error) {
	s.mu.Lock()
	s.next++
	id := api.TaskID(s.next)
	done := make(chan struct{})
	s.tasks[id] = done
	s.mu.Unlock()

	go func() {
		defer close(done)
		if attr.Has(api.AttrGlobalPriority) && s.affinity != nil {
			cpu := int(atomic.AddInt32(&s.nextCPU, 1) - 1)
			if err := s.affinity.Pin(cpu); err == nil {
				defer s.affinity.Unpin()
			}
		}
		fn()
	}()
	return id, nil
}

// Join implements api.Scheduler.
func (s *Scheduler) Join(id api.TaskID) error {
	s.mu.Lock()
	done, ok := s.tasks[id]
	s.mu.Unlock()
	if !ok {
		return ErrUnknownTask
	}
	<-done
	s.mu.Lock()
	delete(s.tasks, id)
	s.mu.Unlock()
	return nil
}
