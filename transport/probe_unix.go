//go:build unix

package transport

import (
	"errors"
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

// CheckPeer inspects the socket state without reading any payload. TCP
// sockets are checked through TCP_INFO, everything else with a
// non-blocking MSG_PEEK recv.
func (s *netSocket) CheckPeer() error {
	sc, ok := s.c.(syscall.Conn)
	if !ok {
		return nil
	}
	rc, err := sc.SyscallConn()
	if err != nil {
		return ioErr("probe", err)
	}
	_, isTCP := s.c.(*net.TCPConn)
	var perr error
	cerr := rc.Control(func(fd uintptr) {
		if isTCP {
			perr = tcpState(int(fd))
		} else {
			perr = peekState(int(fd))
		}
	})
	if cerr != nil {
		return ioErr("probe", cerr)
	}
	return perr
}

func peekState(fd int) error {
	var b [1]byte
	n, _, err := unix.Recvfrom(fd, b[:], unix.MSG_PEEK|unix.MSG_DONTWAIT)
	switch {
	case errors.Is(err, unix.EAGAIN), errors.Is(err, unix.EWOULDBLOCK):
		return nil
	case err != nil:
		return ioErr("probe", err)
	case n == 0:
		return ErrPeerClosed
	}
	return nil
}
