//go:build linux

// File: dispatcher/errors_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package dispatcher

import "golang.org/x/sys/unix"

// errENOMEM is returned, wrapped with call-site context, when a
// Registration API call exhausts the submission queue on both the initial
// attempt and the flush-and-retry.
var errENOMEM = unix.ENOMEM
