// Net for Windows.

package reuseport

import "syscall"

// SetReusePort has no true SO_REUSEPORT equivalent on Windows; the
// closest approximation is SO_REUSEADDR, which (unlike on Linux) does
// let multiple sockets bind the same address here.
func SetReusePort(rawConn syscall.RawConn) (err error) {
	ctrlErr := rawConn.Control(func(fd uintptr) {
		err = syscall.SetsockoptInt(syscall.Handle(fd), syscall.SOL_SOCKET, syscall.SO_REUSEADDR, 1)
	})
	if ctrlErr != nil {
		return ctrlErr
	}
	return err
}
