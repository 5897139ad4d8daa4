// File: internal/concurrency/lock_free_queue.go
// Package concurrency provides a lock-free queue for executors.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Bounded MPMC ring buffer: Executor.Submit can be called concurrently from
// more than one goroutine (the completion loop offloading a callback, a
// periodic stats task, a caller-driven resubmission), so each slot carries
// its own sequence counter rather than relying on a single producer's
// head/tail load-then-store.

package concurrency

import "sync/atomic"

type queueCell struct {
	sequence uint64
	item     workItem
}

// taskQueue is a bounded multi-producer, multi-consumer queue of workItems.
type taskQueue struct {
	buffer     []queueCell
	bufferMask uint64
	enqueuePos uint64
	dequeuePos uint64
}

// newTaskQueue creates a queue with capacity rounded up to a power of two.
func newTaskQueue(capacity int) *taskQueue {
	size := 1
	for size < capacity {
		size <<= 1
	}
	buf := make([]queueCell, size)
	for i := range buf {
		buf[i].sequence = uint64(i)
	}
	return &taskQueue{buffer: buf, bufferMask: uint64(size - 1)}
}

// enqueue adds item; returns false if the queue is full.
func (q *taskQueue) enqueue(item workItem) bool {
	pos := atomic.LoadUint64(&q.enqueuePos)
	for {
		cell := &q.buffer[pos&q.bufferMask]
		seq := atomic.LoadUint64(&cell.sequence)
		switch diff := int64(seq) - int64(pos); {
		case diff == 0:
			if atomic.CompareAndSwapUint64(&q.enqueuePos, pos, pos+1) {
				cell.item = item
				atomic.StoreUint64(&cell.sequence, pos+1)
				return true
			}
		case diff < 0:
			return false
		default:
			pos = atomic.LoadUint64(&q.enqueuePos)
		}
	}
}

// dequeue removes and returns the oldest item; ok is false if empty.
func (q *taskQueue) dequeue() (item workItem, ok bool) {
	pos := atomic.LoadUint64(&q.dequeuePos)
	for {
		cell := &q.buffer[pos&q.bufferMask]
		seq := atomic.LoadUint64(&cell.sequence)
		switch diff := int64(seq) - int64(pos+1); {
		case diff == 0:
			if atomic.CompareAndSwapUint64(&q.dequeuePos, pos, pos+1) {
				item = cell.item
				atomic.StoreUint64(&cell.sequence, pos+q.bufferMask+1)
				return item, true
			}
		case diff < 0:
			return workItem{}, false
		default:
			pos = atomic.LoadUint64(&q.dequeuePos)
		}
	}
}
