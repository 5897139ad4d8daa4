//go:build linux

// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

package reactor

import (
	"syscall"
	"testing"
	"time"

	"github.com/kestrelnet/uringdispatch/api"
	"github.com/stretchr/testify/require"
)

func TestEpollReactorDeliversReadable(t *testing.T) {
	r, err := NewReactor()
	require.NoError(t, err)
	defer r.Close()

	fds := make([]int, 2)
	require.NoError(t, syscall.Pipe(fds))
	defer syscall.Close(fds[0])
	defer syscall.Close(fds[1])

	delivered := make(chan api.EventMask, 1)
	require.NoError(t, r.Register(uintptr(fds[0]), api.Readable, api.EventToken(42), api.AttrNeverQuit,
		func(token api.EventToken, events api.EventMask, attr api.TaskAttr) {
			require.Equal(t, api.EventToken(42), token)
			delivered <- events
		}))

	_, err = syscall.Write(fds[1], []byte("x"))
	require.NoError(t, err)

	require.NoError(t, r.Poll(1000))

	select {
	case mask := <-delivered:
		require.NotZero(t, mask&api.Readable)
	case <-time.After(time.Second):
		t.Fatal("readiness not delivered")
	}
}

func TestEpollReactorUnregisterIsIdempotent(t *testing.T) {
	r, err := NewReactor()
	require.NoError(t, err)
	defer r.Close()

	require.NoError(t, r.Unregister(999))
	require.NoError(t, r.Unregister(999))
}

func TestEpollReactorLevelTriggeredRepeat(t *testing.T) {
	r, err := NewReactor()
	require.NoError(t, err)
	defer r.Close()

	fds := make([]int, 2)
	require.NoError(t, syscall.Pipe(fds))
	defer syscall.Close(fds[0])
	defer syscall.Close(fds[1])

	var deliveries int
	require.NoError(t, r.Register(uintptr(fds[0]), api.Readable, api.EventToken(1), 0,
		func(token api.EventToken, events api.EventMask, attr api.TaskAttr) {
			deliveries++
		}))

	_, err = syscall.Write(fds[1], []byte("y"))
	require.NoError(t, err)

	require.NoError(t, r.Poll(500))
	require.NoError(t, r.Poll(500)) // level-triggered: still readable, fires again
	require.GreaterOrEqual(t, deliveries, 2)
}
