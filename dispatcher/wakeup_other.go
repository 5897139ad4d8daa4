//go:build !linux

// File: dispatcher/wakeup_other.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package dispatcher

import "errors"

// errUnsupportedPlatform is returned by newWakeupPipe outside Linux; the
// io_uring dispatcher never gets far enough to need it since its
// availability probe already fails first.
var errUnsupportedPlatform = errors.New("dispatcher: not supported on this platform")

type wakeupPipe struct{}

func newWakeupPipe() (*wakeupPipe, error) { return nil, errUnsupportedPlatform }

func (p *wakeupPipe) signal() error { return errUnsupportedPlatform }
func (p *wakeupPipe) drain()        {}
func (p *wakeupPipe) close()        {}
