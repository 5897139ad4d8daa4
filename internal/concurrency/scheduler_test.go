// File: internal/concurrency/scheduler_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package concurrency

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/kestrelnet/uringdispatch/api"
	"github.com/stretchr/testify/require"
)

func TestSchedulerSpawnJoin(t *testing.T) {
	s := NewScheduler(NewAffinity())
	var ran int32
	id, err := s.Spawn(api.AttrNeverQuit, func() {
		atomic.StoreInt32(&ran, 1)
	})
	require.NoError(t, err)
	require.NoError(t, s.Join(id))
	require.Equal(t, int32(1), atomic.LoadInt32(&ran))
}

func TestSchedulerGlobalPriorityRunsAndJoins(t *testing.T) {
	s := NewScheduler(NewAffinity())
	done := make(chan struct{})
	id, err := s.Spawn(api.AttrGlobalPriority, func() {
		close(done)
	})
	require.NoError(t, err)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("task did not run")
	}
	require.NoError(t, s.Join(id))
}

func TestSchedulerJoinUnknown(t *testing.T) {
	s := NewScheduler(nil)
	err := s.Join(api.TaskID(9999))
	require.ErrorIs(t, err, ErrUnknownTask)
}
