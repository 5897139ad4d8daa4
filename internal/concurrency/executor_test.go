// File: internal/concurrency/executor_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package concurrency

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestExecutorRunsSubmittedTasks(t *testing.T) {
	e := NewExecutor(4)
	defer e.Close()

	const n = 200
	var wg sync.WaitGroup
	var count int64
	wg.Add(n)
	for i := 0; i < n; i++ {
		require.NoError(t, e.Submit(func() {
			atomic.AddInt64(&count, 1)
			wg.Done()
		}))
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("tasks did not complete in time")
	}
	require.EqualValues(t, n, atomic.LoadInt64(&count))
}

func TestExecutorSubmitAfterCloseFails(t *testing.T) {
	e := NewExecutor(2)
	e.Close()
	err := e.Submit(func() {})
	require.ErrorIs(t, err, ErrExecutorClosed)
}

func TestExecutorNumWorkers(t *testing.T) {
	e := NewExecutor(2)
	defer e.Close()
	require.Equal(t, 2, e.NumWorkers())
}
