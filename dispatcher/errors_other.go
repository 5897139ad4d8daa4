//go:build !linux

// File: dispatcher/errors_other.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package dispatcher

import "errors"

var errENOMEM = errors.New("ENOMEM")
