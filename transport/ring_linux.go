package transport

import (
	"context"
	"net"
	"strconv"
	"syscall"

	"github.com/iceber/iouring-go"
	"golang.org/x/sys/unix"
)

// ringQueueDepth is the submission queue size of per-socket rings.
const ringQueueDepth = 32

// ringSocket is a TCP socket whose connect, send and recv are submitted
// through its own io_uring instance. Receive and send timeouts are not
// applied to ring sockets.
type ringSocket struct {
	iour *iouring.IOURing
	fd   int
}

// DialRing connects to host:port with an io_uring backed socket. The
// returned Buffer behaves exactly like one from Dial.
func DialRing(ctx context.Context, host string, port int, opts Options) (*Buffer, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	s, err := dialRing(ctx, host, port)
	if err != nil {
		return nil, &ConnectionError{Addr: addr, Err: err}
	}
	return NewBuffer(NewEndpoint(s), opts.BufferSize), nil
}

func dialRing(ctx context.Context, host string, port int) (*ringSocket, error) {
	ips, err := net.DefaultResolver.LookupIPAddr(ctx, host)
	if err != nil {
		return nil, ioErr("resolve", err)
	}
	if len(ips) == 0 {
		return nil, ioErr("resolve", &net.DNSError{Err: "no addresses", Name: host, IsNotFound: true})
	}
	ip := ips[0].IP

	var sa syscall.Sockaddr
	family := unix.AF_INET
	if ip4 := ip.To4(); ip4 != nil {
		sa4 := &syscall.SockaddrInet4{Port: port}
		copy(sa4.Addr[:], ip4)
		sa = sa4
	} else {
		family = unix.AF_INET6
		sa6 := &syscall.SockaddrInet6{Port: port}
		copy(sa6.Addr[:], ip.To16())
		sa = sa6
	}

	fd, err := unix.Socket(family, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return nil, ioErr("socket", err)
	}
	_ = unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_NODELAY, 1)

	iour, err := iouring.New(ringQueueDepth)
	if err != nil {
		unix.Close(fd)
		return nil, ioErr("io_uring setup", err)
	}
	s := &ringSocket{iour: iour, fd: fd}

	ch := make(chan iouring.Result, 1)
	connReq, err := iouring.Connect(fd, sa)
	if err != nil {
		s.Close()
		return nil, ioErr("connect", err)
	}
	if _, err := iour.SubmitRequest(connReq, ch); err != nil {
		s.Close()
		return nil, ioErr("connect", err)
	}
	select {
	case res := <-ch:
		if _, err := res.ReturnInt(); err != nil {
			s.Close()
			return nil, ioErr("connect", err)
		}
	case <-ctx.Done():
		s.Close()
		return nil, ioErr("connect", ctx.Err())
	}
	return s, nil
}

func (s *ringSocket) submit(req iouring.PrepRequest) (int, error) {
	ch := make(chan iouring.Result, 1)
	if _, err := s.iour.SubmitRequest(req, ch); err != nil {
		return 0, err
	}
	res := <-ch
	return res.ReturnInt()
}

func (s *ringSocket) Read(p []byte) (int, error) {
	return s.submit(iouring.Recv(s.fd, p, 0))
}

func (s *ringSocket) Write(p []byte) (int, error) {
	return s.submit(iouring.Send(s.fd, p, 0))
}

func (s *ringSocket) Shutdown() error {
	return unix.Shutdown(s.fd, unix.SHUT_RDWR)
}

func (s *ringSocket) Close() error {
	err := unix.Close(s.fd)
	s.iour.Close()
	return err
}

func (s *ringSocket) CheckPeer() error { return tcpState(s.fd) }
