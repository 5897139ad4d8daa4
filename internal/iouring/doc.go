//go:build linux

// File: internal/iouring/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package iouring wraps the raw io_uring syscalls (io_uring_setup,
// io_uring_enter) needed to drive one-shot poll
// submissions and reap their completions. It deliberately exposes nothing
// beyond IORING_OP_POLL_ADD / IORING_OP_POLL_REMOVE: no read/write SQEs, no
// fixed files, no fixed buffers, no SQPOLL.
package iouring
