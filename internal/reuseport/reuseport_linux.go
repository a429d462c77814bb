// Net for Linux.

package reuseport

import "syscall"

// SetReusePort sets SO_REUSEPORT on rawConn so multiple shards can bind
// the same address and let the kernel load-balance accepts between them.
func SetReusePort(rawConn syscall.RawConn) (err error) {
	const soReusePort = 0xf // for amd64, arm64, riscv64, loong64
	ctrlErr := rawConn.Control(func(fd uintptr) {
		err = syscall.SetsockoptInt(int(fd), syscall.SOL_SOCKET, soReusePort, 1)
	})
	if ctrlErr != nil {
		return ctrlErr
	}
	return err
}
