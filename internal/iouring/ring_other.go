//go:build !linux

// File: internal/iouring/ring_other.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package iouring

import "errors"

// ErrUnsupported is returned by every Ring operation on non-Linux platforms.
var ErrUnsupported = errors.New("iouring: not supported on this platform")

// CQE mirrors the Linux CQE decoding shape so callers can share code across
// build tags.
type CQE struct {
	UserData uint64
	Res      int32
	Flags    uint32
}

// Ring is a non-functional stand-in outside Linux; Open always fails.
type Ring struct{}

// Open always returns ErrUnsupported outside Linux.
func Open(entries uint32) (*Ring, error) { return nil, ErrUnsupported }

func (r *Ring) Close() error                                          { return nil }
func (r *Ring) PushPollAdd(fd int32, pollMask uint32, userData uint64) bool { return false }
func (r *Ring) PushPollRemove(targetUserData, userData uint64) bool        { return false }
func (r *Ring) Pending() uint32                                       { return 0 }
func (r *Ring) Flush() (int, error)                                   { return 0, ErrUnsupported }
func (r *Ring) EnterWait(minComplete uint32) error                    { return ErrUnsupported }
func (r *Ring) PeekCQE(out []CQE) int                                  { return 0 }
