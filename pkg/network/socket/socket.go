package socket

import (
	"errors"
	"net"
	"os"
	"runtime"
	"syscall"
)

const udpBufferSize = 16 * 1024 * 1024

// NewUDPListener creates a UDP socket listener on a given port with
// enlarged kernel buffers. Genlock slaves bind the sync port with it.
func NewUDPListener(port int) (*net.UDPConn, error) {
	l, err := net.ListenUDP("udp4", &net.UDPAddr{Port: port})
	if err != nil {
		return nil, err
	}
	_ = l.SetReadBuffer(udpBufferSize)
	_ = l.SetWriteBuffer(udpBufferSize)
	return l, nil
}

// NewUDPSender creates an unbound UDP socket aimed at the given
// destination address. The broadcast flag has no effect on Go sockets
// (SO_BROADCAST is set by the runtime when needed) but the address is
// resolved and validated here.
func NewUDPSender(address string) (*net.UDPConn, *net.UDPAddr, error) {
	dst, err := net.ResolveUDPAddr("udp4", address)
	if err != nil {
		return nil, nil, err
	}
	c, err := net.ListenUDP("udp4", &net.UDPAddr{Port: 0})
	if err != nil {
		return nil, nil, err
	}
	_ = c.SetWriteBuffer(udpBufferSize)
	return c, dst, nil
}

// IsPortBusyError tests if the given error is one of
// the port busy errors.
func IsPortBusyError(err error) bool {
	if err == nil {
		return false
	}
	var eOsSyscall *os.SyscallError
	if !errors.As(err, &eOsSyscall) {
		return false
	}
	var errErrno syscall.Errno
	if !errors.As(eOsSyscall, &errErrno) {
		return false
	}
	if errErrno == syscall.EADDRINUSE {
		return true
	}
	const WSAEADDRINUSE = 10048
	if runtime.GOOS == "windows" && errErrno == WSAEADDRINUSE {
		return true
	}
	return false
}
