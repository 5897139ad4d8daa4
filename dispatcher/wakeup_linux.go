//go:build linux

// File: dispatcher/wakeup_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// The wakeup pipe is the sole ordering primitive between Stop and the
// completion loop: Stop is a pure producer (a stop flag store, then one
// byte write), the loop is the consumer.

package dispatcher

import "golang.org/x/sys/unix"

type wakeupPipe struct {
	readFd  int
	writeFd int
}

func newWakeupPipe() (*wakeupPipe, error) {
	var fds [2]int
	if err := unix.Pipe2(fds[:], unix.O_CLOEXEC|unix.O_NONBLOCK); err != nil {
		return nil, err
	}
	return &wakeupPipe{readFd: fds[0], writeFd: fds[1]}, nil
}

// signal writes one byte to unblock a loop parked in EnterWait. Writing to a
// non-blocking pipe that is already signalled returns EAGAIN, which is fine:
// the loop only needs to observe the pipe becoming readable once.
func (p *wakeupPipe) signal() error {
	_, err := unix.Write(p.writeFd, []byte{0})
	if err == unix.EAGAIN {
		return nil
	}
	return err
}

// drain discards every pending coalesced wakeup signal, reading 64 bytes at
// a time until the non-blocking pipe is empty.
func (p *wakeupPipe) drain() {
	var buf [64]byte
	for {
		n, err := unix.Read(p.readFd, buf[:])
		if n <= 0 || err != nil {
			return
		}
	}
}

func (p *wakeupPipe) close() {
	unix.Close(p.readFd)
	unix.Close(p.writeFd)
}
