// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package reactor provides the level-triggered alternative to the io_uring
// dispatcher: an epoll-backed Reactor sharing the same readiness vocabulary
// (api.EventMask, api.EventToken, api.Callback).
package reactor
