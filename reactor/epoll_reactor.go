//go:build linux

// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>
//
// Package reactor - Linux epoll implementation.

package reactor

import (
	"fmt"
	"sync"
	"syscall"

	"github.com/kestrelnet/uringdispatch/api"
)

type registration struct {
	token api.EventToken
	attr  api.TaskAttr
	cb    api.Callback
}

// epollReactor implements Reactor using Linux epoll in level-triggered mode.
type epollReactor struct {
	epfd int

	mu    sync.Mutex
	regs  map[uintptr]registration
}

func newPlatformReactor() (Reactor, error) {
	epfd, err := syscall.EpollCreate1(syscall.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("reactor: epoll_create1: %w", err)
	}
	return &epollReactor{
		epfd: epfd,
		regs: make(map[uintptr]registration),
	}, nil
}

func toEpollEvents(events api.EventMask) uint32 {
	var e uint32
	if events&api.Readable != 0 {
		e |= syscall.EPOLLIN
	}
	if events&api.Writable != 0 {
		e |= syscall.EPOLLOUT
	}
	return e
}

// Register implements Reactor.
func (r *epollReactor) Register(fd uintptr, events api.EventMask, token api.EventToken, attr api.TaskAttr, cb api.Callback) error {
	ev := syscall.EpollEvent{Events: toEpollEvents(events), Fd: int32(fd)}
	if err := syscall.EpollCtl(r.epfd, syscall.EPOLL_CTL_ADD, int(fd), &ev); err != nil {
		return fmt.Errorf("reactor: epoll_ctl add fd=%d: %w", fd, err)
	}
	r.mu.Lock()
	r.regs[fd] = registration{token: token, attr: attr, cb: cb}
	r.mu.Unlock()
	return nil
}

// Modify implements Reactor.
func (r *epollReactor) Modify(fd uintptr, events api.EventMask) error {
	ev := syscall.EpollEvent{Events: toEpollEvents(events), Fd: int32(fd)}
	if err := syscall.EpollCtl(r.epfd, syscall.EPOLL_CTL_MOD, int(fd), &ev); err != nil {
		return fmt.Errorf("reactor: epoll_ctl mod fd=%d: %w", fd, err)
	}
	return nil
}

// Unregister implements Reactor.
func (r *epollReactor) Unregister(fd uintptr) error {
	r.mu.Lock()
	_, tracked := r.regs[fd]
	delete(r.regs, fd)
	r.mu.Unlock()
	if !tracked {
		return nil
	}
	if err := syscall.EpollCtl(r.epfd, syscall.EPOLL_CTL_DEL, int(fd), nil); err != nil {
		return fmt.Errorf("reactor: epoll_ctl del fd=%d: %w", fd, err)
	}
	return nil
}

// Poll implements Reactor.
func (r *epollReactor) Poll(timeoutMs int) error {
	const maxEvents = 128
	var events [maxEvents]syscall.EpollEvent

	n, err := syscall.EpollWait(r.epfd, events[:], timeoutMs)
	if err != nil {
		if err == syscall.EINTR {
			return nil
		}
		return fmt.Errorf("reactor: epoll_wait: %w", err)
	}

	for i := 0; i < n; i++ {
		ev := events[i]
		fd := uintptr(ev.Fd)

		r.mu.Lock()
		reg, ok := r.regs[fd]
		r.mu.Unlock()
		if !ok {
			continue
		}

		var mask api.EventMask
		if ev.Events&syscall.EPOLLIN != 0 {
			mask |= api.Readable
		}
		if ev.Events&syscall.EPOLLOUT != 0 {
			mask |= api.Writable
		}
		if ev.Events&syscall.EPOLLERR != 0 {
			mask |= api.Error
		}
		if ev.Events&syscall.EPOLLHUP != 0 {
			mask |= api.Hangup
		}

		func() {
			defer func() { _ = recover() }()
			reg.cb(reg.token, mask, reg.attr)
		}()
	}

	return nil
}

// Close implements Reactor.
func (r *epollReactor) Close() error {
	return syscall.Close(r.epfd)
}
