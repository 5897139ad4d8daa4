// File: internal/concurrency/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Concurrency primitives backing the dispatcher's scheduler collaborator:
// a goroutine-based api.Scheduler, a Linux CPU-affinity implementation of
// api.Affinity, and a lock-free Executor worker pool for dispatching
// readiness callbacks off the completion loop.
package concurrency
