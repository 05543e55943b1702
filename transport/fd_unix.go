//go:build unix

package transport

import (
	"errors"

	"golang.org/x/sys/unix"
)

// fdSocket is a plain file descriptor driven with blocking read/write
// system calls. Timeouts are SO_RCVTIMEO/SO_SNDTIMEO on the descriptor.
type fdSocket struct {
	fd int
}

// NewFDSocket takes ownership of fd. Socket options are best effort: a
// descriptor that is not a socket simply ignores them.
func NewFDSocket(fd int, opts Options) Socket {
	if opts.RecvTimeout > 0 {
		tv := unix.NsecToTimeval(opts.RecvTimeout.Nanoseconds())
		_ = unix.SetsockoptTimeval(fd, unix.SOL_SOCKET, unix.SO_RCVTIMEO, &tv)
		_ = unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_KEEPALIVE, 1)
	}
	if opts.SendTimeout > 0 {
		tv := unix.NsecToTimeval(opts.SendTimeout.Nanoseconds())
		_ = unix.SetsockoptTimeval(fd, unix.SOL_SOCKET, unix.SO_SNDTIMEO, &tv)
	}
	return &fdSocket{fd: fd}
}

// WrapFD turns an already open descriptor into a Buffer that owns it.
func WrapFD(fd int, opts Options) *Buffer {
	return NewBuffer(NewEndpoint(NewFDSocket(fd, opts)), opts.BufferSize)
}

func (s *fdSocket) Read(p []byte) (int, error) {
	for {
		n, err := unix.Read(s.fd, p)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if n < 0 {
			n = 0
		}
		return n, err
	}
}

func (s *fdSocket) Write(p []byte) (int, error) {
	for {
		n, err := unix.Write(s.fd, p)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if n < 0 {
			n = 0
		}
		return n, err
	}
}

func (s *fdSocket) Shutdown() error {
	err := unix.Shutdown(s.fd, unix.SHUT_RDWR)
	if errors.Is(err, unix.ENOTSOCK) || errors.Is(err, unix.ENOTCONN) {
		return nil
	}
	return err
}

func (s *fdSocket) Close() error { return unix.Close(s.fd) }

func (s *fdSocket) CheckPeer() error { return peekState(s.fd) }

// FD returns the owned descriptor.
func (s *fdSocket) FD() int { return s.fd }
