// Net for FreeBSD.

package reuseport

import "syscall"

// SetReusePort sets SO_REUSEPORT_LB on rawConn so multiple shards can
// bind the same address and let the kernel load-balance accepts between
// them. A maximum of 256 processes can share one socket this way.
func SetReusePort(rawConn syscall.RawConn) (err error) {
	const soReusePortLB = 0x10000 // for amd64, arm64, riscv64
	ctrlErr := rawConn.Control(func(fd uintptr) {
		err = syscall.SetsockoptInt(int(fd), syscall.SOL_SOCKET, soReusePortLB, 1)
	})
	if ctrlErr != nil {
		return ctrlErr
	}
	return err
}
