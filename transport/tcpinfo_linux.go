package transport

import "golang.org/x/sys/unix"

// TCP_ESTABLISHED from include/net/tcp_states.h.
const tcpEstablished = 1

func tcpState(fd int) error {
	info, err := unix.GetsockoptTCPInfo(fd, unix.IPPROTO_TCP, unix.TCP_INFO)
	if err != nil {
		return ioErr("getsockopt", err)
	}
	if info.State != tcpEstablished {
		return ErrPeerClosed
	}
	return nil
}
