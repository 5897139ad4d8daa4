// File: internal/concurrency/executor.go
// Package concurrency implements a lock-free task executor.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Executor dispatches work across a pool of goroutines, each draining its
// own bounded taskQueue before stealing from a global overflow channel.
// cmd/uringpolld submits dispatcher callbacks here so a slow handler never
// delays the next CQE drain; SubmitCallback gives that a typed entry point
// and records how long a callback waited in queue before it ran.

package concurrency

import (
	"errors"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/kestrelnet/uringdispatch/api"
)

// ErrExecutorClosed is returned by Submit once Close has been called.
var ErrExecutorClosed = errors.New("concurrency: executor closed")

// TaskFunc is a unit of work to execute.
type TaskFunc func()

// workItem is what actually travels through a taskQueue: the work itself
// plus the time it was enqueued, so a worker can report queueing latency.
type workItem struct {
	fn         TaskFunc
	enqueuedAt time.Time
}

// Executor manages a pool of worker goroutines.
type Executor struct {
	globalQueue  chan workItem
	localQueues  []*taskQueue
	workers      []*worker
	closeCh      chan struct{}
	closed       int32
	numWorkers   int32
	queueLatency api.LatencyRecorder

	totalTasks     int64
	completedTasks int64
	droppedTasks   int64
}

// NewExecutor creates a new Executor with the given number of workers.
// If numWorkers <= 0, defaults to runtime.NumCPU(). Queue-wait observations
// go to api.NopLatencyRecorder unless overridden with SetQueueLatencyRecorder.
func NewExecutor(numWorkers int) *Executor {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	e := &Executor{
		globalQueue:  make(chan workItem, numWorkers*4),
		closeCh:      make(chan struct{}),
		numWorkers:   int32(numWorkers),
		queueLatency: api.NopLatencyRecorder{},
	}
	e.localQueues = make([]*taskQueue, numWorkers)
	e.workers = make([]*worker, numWorkers)
	for i := 0; i < numWorkers; i++ {
		e.localQueues[i] = newTaskQueue(1024)
	}
	for i := 0; i < numWorkers; i++ {
		w := &worker{
			id:         i,
			executor:   e,
			localQueue: e.localQueues[i],
			stopCh:     make(chan struct{}),
		}
		e.workers[i] = w
		go w.run()
	}
	return e
}

// SetQueueLatencyRecorder wires where queue-wait observations are reported.
func (e *Executor) SetQueueLatencyRecorder(rec api.LatencyRecorder) {
	if rec == nil {
		rec = api.NopLatencyRecorder{}
	}
	e.queueLatency = rec
}

// Submit enqueues a task for execution, returning ErrExecutorClosed if the
// executor is closed or every queue it tried is full.
func (e *Executor) Submit(task TaskFunc) error {
	if atomic.LoadInt32(&e.closed) == 1 {
		return ErrExecutorClosed
	}
	n := atomic.AddInt64(&e.totalTasks, 1)
	idx := int(n % int64(e.NumWorkers()))
	item := workItem{fn: task, enqueuedAt: time.Now()}
	if e.localQueues[idx].enqueue(item) {
		return nil
	}
	select {
	case e.globalQueue <- item:
		return nil
	case <-e.closeCh:
		return ErrExecutorClosed
	default:
		atomic.AddInt64(&e.droppedTasks, 1)
		return ErrExecutorClosed
	}
}

// SubmitCallback wraps a dispatcher-shaped readiness callback as a task,
// recovering from a panic inside cb the same way the completion loop does
// when it dispatches a callback directly.
func (e *Executor) SubmitCallback(token api.EventToken, events api.EventMask, attr api.TaskAttr, cb api.Callback) error {
	return e.Submit(func() {
		defer func() { _ = recover() }()
		cb(token, events, attr)
	})
}

// NumWorkers returns the current number of active workers.
func (e *Executor) NumWorkers() int {
	return int(atomic.LoadInt32(&e.numWorkers))
}

// Close gracefully shuts down the executor and stops every worker.
func (e *Executor) Close() {
	if atomic.CompareAndSwapInt32(&e.closed, 0, 1) {
		close(e.closeCh)
		for _, w := range e.workers {
			close(w.stopCh)
		}
	}
}

// Stats returns basic executor metrics, including tasks dropped because
// both their local queue and the global overflow queue were full.
func (e *Executor) Stats() map[string]int64 {
	return map[string]int64{
		"total_tasks":     atomic.LoadInt64(&e.totalTasks),
		"completed_tasks": atomic.LoadInt64(&e.completedTasks),
		"dropped_tasks":   atomic.LoadInt64(&e.droppedTasks),
		"pending_tasks":   atomic.LoadInt64(&e.totalTasks) - atomic.LoadInt64(&e.completedTasks),
		"num_workers":     int64(e.NumWorkers()),
	}
}

// worker represents a single executor goroutine.
type worker struct {
	id         int
	executor   *Executor
	localQueue *taskQueue
	stopCh     chan struct{}
	stopped    int32
}

func (w *worker) run() {
	defer atomic.StoreInt32(&w.stopped, 1)
	for {
		select {
		case <-w.stopCh:
			return
		default:
			if item, ok := w.localQueue.dequeue(); ok {
				w.executeTask(item)
				continue
			}
			select {
			case item := <-w.executor.globalQueue:
				w.executeTask(item)
			case <-w.stopCh:
				return
			default:
				time.Sleep(time.Millisecond)
			}
		}
	}
}

// executeTask records queueing latency, runs the task, and recovers from a
// panic to keep the worker alive.
func (w *worker) executeTask(item workItem) {
	w.executor.queueLatency.Observe(time.Since(item.enqueuedAt).Nanoseconds())
	defer func() {
		_ = recover()
		atomic.AddInt64(&w.executor.completedTasks, 1)
	}()
	item.fn()
}
