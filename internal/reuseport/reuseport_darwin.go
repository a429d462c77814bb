// Net for macOS.

package reuseport

import "syscall"

// SetReusePort sets SO_REUSEPORT on rawConn so multiple shards can bind
// the same address and let the kernel load-balance accepts between them.
func SetReusePort(rawConn syscall.RawConn) (err error) {
	ctrlErr := rawConn.Control(func(fd uintptr) {
		err = syscall.SetsockoptInt(int(fd), syscall.SOL_SOCKET, syscall.SO_REUSEPORT, 1)
	})
	if ctrlErr != nil {
		return ctrlErr
	}
	return err
}
