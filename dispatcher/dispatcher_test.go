//go:build linux

// File: dispatcher/dispatcher_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package dispatcher

import (
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/kestrelnet/uringdispatch/api"
	"github.com/stretchr/testify/require"
)

// goroutineScheduler is a minimal api.Scheduler for tests: every Spawn runs
// on its own goroutine, Join waits on a channel.
type goroutineScheduler struct {
	mu   sync.Mutex
	done map[api.TaskID]chan struct{}
	next uint64
}

func newGoroutineScheduler() *goroutineScheduler {
	return &goroutineScheduler{done: make(map[api.TaskID]chan struct{})}
}

func (s *goroutineScheduler) Spawn(attr api.TaskAttr, fn api.TaskFunc) (api.TaskID, error) {
	s.mu.Lock()
	s.next++
	id := api.TaskID(s.next)
	ch := make(chan struct{})
	s.done[id] = ch
	s.mu.Unlock()
	go func() {
		defer close(ch)
		fn()
	}()
	return id, nil
}

func (s *goroutineScheduler) Join(id api.TaskID) error {
	s.mu.Lock()
	ch := s.done[id]
	s.mu.Unlock()
	<-ch
	return nil
}

type callbackRecorder struct {
	mu    sync.Mutex
	calls []struct {
		token api.EventToken
		mask  api.EventMask
	}
}

func (c *callbackRecorder) callback(token api.EventToken, mask api.EventMask, attr api.TaskAttr) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, struct {
		token api.EventToken
		mask  api.EventMask
	}{token, mask})
}

func (c *callbackRecorder) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

func newTestDispatcher(t *testing.T, input, output api.Callback) *Dispatcher {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Scheduler = newGoroutineScheduler()
	cfg.InputCallback = input
	cfg.OutputCallback = output
	d, err := New(cfg)
	require.NoError(t, err)
	if !d.Available() {
		t.Skip("io_uring not available in this environment")
	}
	return d
}

func pipeFds(t *testing.T) (readFd, writeFd int) {
	t.Helper()
	var fds [2]int
	require.NoError(t, syscall.Pipe(fds[:]))
	return fds[0], fds[1]
}

func TestReadinessDelivery(t *testing.T) {
	in := &callbackRecorder{}
	out := &callbackRecorder{}
	d := newTestDispatcher(t, in.callback, out.callback)
	defer d.Close()

	rFd, wFd := pipeFds(t)
	defer syscall.Close(wFd)

	require.NoError(t, d.Start(0))
	require.NoError(t, d.AddConsumer(api.EventToken(0x5678), rFd))

	_, err := syscall.Write(wFd, []byte("X"))
	require.NoError(t, err)

	require.Eventually(t, func() bool { return in.count() >= 1 }, time.Second, 5*time.Millisecond)
	require.Equal(t, 0, out.count())
	require.Equal(t, api.EventToken(0x5678), in.calls[0].token)
}

func TestAutoRearm(t *testing.T) {
	in := &callbackRecorder{}
	out := &callbackRecorder{}
	d := newTestDispatcher(t, in.callback, out.callback)
	defer d.Close()

	rFd, wFd := pipeFds(t)
	defer syscall.Close(wFd)

	require.NoError(t, d.Start(0))
	require.NoError(t, d.AddConsumer(api.EventToken(0x5678), rFd))

	_, err := syscall.Write(wFd, []byte("X"))
	require.NoError(t, err)
	require.Eventually(t, func() bool { return in.count() >= 1 }, time.Second, 5*time.Millisecond)

	var drain [16]byte
	syscall.Read(rFd, drain[:])

	_, err = syscall.Write(wFd, []byte("Y"))
	require.NoError(t, err)
	require.Eventually(t, func() bool { return in.count() >= 2 }, time.Second, 5*time.Millisecond)
}

func TestDowngrade(t *testing.T) {
	var mu sync.Mutex
	var order []string
	in := func(token api.EventToken, events api.EventMask, attr api.TaskAttr) {
		mu.Lock()
		order = append(order, "in")
		mu.Unlock()
	}
	out := func(token api.EventToken, events api.EventMask, attr api.TaskAttr) {
		mu.Lock()
		order = append(order, "out")
		mu.Unlock()
	}
	orderLen := func() int {
		mu.Lock()
		defer mu.Unlock()
		return len(order)
	}

	d := newTestDispatcher(t, in, out)
	defer d.Close()

	fds, err := syscall.Socketpair(syscall.AF_UNIX, syscall.SOCK_STREAM, 0)
	require.NoError(t, err)
	fdA, fdB := fds[0], fds[1]
	defer syscall.Close(fdA)
	defer syscall.Close(fdB)

	// Prime fdA so it is simultaneously readable (peer already wrote) and
	// writable (its send buffer is empty): one completion should carry both.
	_, err = syscall.Write(fdB, []byte("primed"))
	require.NoError(t, err)

	require.NoError(t, d.Start(0))
	const token = api.EventToken(0xD0)
	require.NoError(t, d.RegisterEvent(token, fdA, true))

	require.Eventually(t, func() bool { return orderLen() >= 2 }, time.Second, 5*time.Millisecond)

	mu.Lock()
	require.Equal(t, []string{"in", "out"}, order[:2])
	mu.Unlock()

	require.NoError(t, d.UnregisterEvent(token, fdA, true))
	require.Equal(t, api.Readable, d.ctx.maskFor(fdA))

	var drain [16]byte
	syscall.Read(fdA, drain[:])

	before := orderLen()
	_, err = syscall.Write(fdB, []byte("more"))
	require.NoError(t, err)

	require.Eventually(t, func() bool { return orderLen() > before }, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	for _, tag := range order[before:] {
		require.Equal(t, "in", tag, "downgraded registration must not dispatch output")
	}
}

func TestRemoveCancels(t *testing.T) {
	in := &callbackRecorder{}
	out := &callbackRecorder{}
	d := newTestDispatcher(t, in.callback, out.callback)
	defer d.Close()

	rFd, wFd := pipeFds(t)
	defer syscall.Close(rFd)
	defer syscall.Close(wFd)

	require.NoError(t, d.Start(0))
	require.NoError(t, d.AddConsumer(api.EventToken(0x9999), rFd))
	require.NoError(t, d.RemoveConsumer(rFd))

	_, err := syscall.Write(wFd, []byte("X"))
	require.NoError(t, err)

	time.Sleep(100 * time.Millisecond)
	require.Equal(t, 0, in.count())
}

func TestGracefulStop(t *testing.T) {
	d := newTestDispatcher(t, func(api.EventToken, api.EventMask, api.TaskAttr) {}, func(api.EventToken, api.EventMask, api.TaskAttr) {})

	var fds [][2]int
	for i := 0; i < 20; i++ {
		r, w := pipeFds(t)
		fds = append(fds, [2]int{r, w})
	}
	defer func() {
		for _, p := range fds {
			syscall.Close(p[0])
			syscall.Close(p[1])
		}
	}()

	require.NoError(t, d.Start(0))
	for i, p := range fds {
		require.NoError(t, d.AddConsumer(api.EventToken(i+1), p[0]))
	}

	done := make(chan struct{})
	go func() {
		d.Stop()
		d.Join()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop/Join did not return within bound")
	}
}

func TestStopTwiceIsIdempotent(t *testing.T) {
	d := newTestDispatcher(t, func(api.EventToken, api.EventMask, api.TaskAttr) {}, func(api.EventToken, api.EventMask, api.TaskAttr) {})
	require.NoError(t, d.Start(0))
	d.Stop()
	d.Stop()
	require.NoError(t, d.Join())
}

func TestBatchUnderLoad(t *testing.T) {
	const n = 50
	in := &callbackRecorder{}
	var fds [][2]int
	// The callback consumes the byte, as a real consumer would: the loop
	// re-arms after every completion, so an unread byte would be reported again.
	consume := func(token api.EventToken, mask api.EventMask, attr api.TaskAttr) {
		var buf [1]byte
		syscall.Read(fds[int(token)-1][0], buf[:])
		in.callback(token, mask, attr)
	}
	d := newTestDispatcher(t, consume, func(api.EventToken, api.EventMask, api.TaskAttr) {})
	defer d.Close()

	for i := 0; i < n; i++ {
		r, w := pipeFds(t)
		fds = append(fds, [2]int{r, w})
	}
	defer func() {
		for _, p := range fds {
			syscall.Close(p[0])
			syscall.Close(p[1])
		}
	}()

	require.NoError(t, d.Start(0))
	for i, p := range fds {
		require.NoError(t, d.AddConsumer(api.EventToken(i+1), p[0]))
	}
	for _, p := range fds {
		_, err := syscall.Write(p[1], []byte("z"))
		require.NoError(t, err)
	}

	require.Eventually(t, func() bool { return in.count() >= n }, 2*time.Second, 10*time.Millisecond)

	seen := make(map[api.EventToken]bool)
	in.mu.Lock()
	for _, c := range in.calls {
		require.False(t, seen[c.token], "duplicate delivery for token %d", c.token)
		seen[c.token] = true
	}
	in.mu.Unlock()
	require.Len(t, seen, n)
}

func TestDisabledDispatcherRejectsOperations(t *testing.T) {
	d := &Dispatcher{cfg: DefaultConfig(), logger: DefaultConfig().Logger, ctx: newRingContext()}
	require.False(t, d.Available())
	require.ErrorIs(t, d.RegisterEvent(1, 0, true), api.ErrDisabled)
	require.ErrorIs(t, d.AddConsumer(1, 0), api.ErrDisabled)
	require.ErrorIs(t, d.RemoveConsumer(0), api.ErrDisabled)
	require.ErrorIs(t, d.UnregisterEvent(1, 0, true), api.ErrDisabled)
}

func TestStartTwiceFails(t *testing.T) {
	d := newTestDispatcher(t, func(api.EventToken, api.EventMask, api.TaskAttr) {}, func(api.EventToken, api.EventMask, api.TaskAttr) {})
	require.NoError(t, d.Start(0))
	require.ErrorIs(t, d.Start(0), api.ErrAlreadyStarted)
	d.Close()
}
