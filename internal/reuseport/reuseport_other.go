//go:build !linux && !darwin && !freebsd && !windows

// Net for platforms without a known SO_REUSEPORT equivalent wired up.

package reuseport

import "syscall"

// SetReusePort is a no-op on platforms this package has no binding for;
// Controller.Listen still works with a single shard, just without
// kernel-level accept load-balancing across several.
func SetReusePort(rawConn syscall.RawConn) error {
	return nil
}
