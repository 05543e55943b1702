package transport

import (
	"context"
	"errors"
	"net"
	"os"
	"strconv"
	"time"
)

// Options configures sockets created or wrapped by this package.
type Options struct {
	// RecvTimeout bounds every single recv. Setting it also turns on TCP
	// keepalive with the same idle period.
	RecvTimeout time.Duration
	// SendTimeout bounds every single send.
	SendTimeout time.Duration
	// DialTimeout bounds connect. Zero means only the context applies.
	DialTimeout time.Duration
	// BufferSize is the read window; DefaultBufferSize when zero.
	BufferSize int
}

// netSocket adapts a net.Conn. Timeouts are applied as deadlines right
// before each read and write.
type netSocket struct {
	c        net.Conn
	rto, wto time.Duration
}

func (s *netSocket) Read(p []byte) (int, error) {
	if s.rto > 0 {
		if err := s.c.SetReadDeadline(time.Now().Add(s.rto)); err != nil {
			return 0, err
		}
	}
	return s.c.Read(p)
}

func (s *netSocket) Write(p []byte) (int, error) {
	if s.wto > 0 {
		if err := s.c.SetWriteDeadline(time.Now().Add(s.wto)); err != nil {
			return 0, err
		}
	}
	return s.c.Write(p)
}

type halfCloser interface {
	CloseRead() error
	CloseWrite() error
}

func (s *netSocket) Shutdown() error {
	hc, ok := s.c.(halfCloser)
	if !ok {
		return nil
	}
	return errors.Join(hc.CloseWrite(), hc.CloseRead())
}

func (s *netSocket) Close() error         { return s.c.Close() }
func (s *netSocket) LocalAddr() net.Addr  { return s.c.LocalAddr() }
func (s *netSocket) RemoteAddr() net.Addr { return s.c.RemoteAddr() }

// Conn returns the wrapped connection.
func (s *netSocket) Conn() net.Conn { return s.c }

// setopts applies no-delay and, once a receive timeout is set, keepalive.
func setopts(c net.Conn, opts Options) {
	tc, ok := c.(*net.TCPConn)
	if !ok {
		return
	}
	_ = tc.SetNoDelay(true)
	if opts.RecvTimeout > 0 {
		_ = tc.SetKeepAlive(true)
		if idle := opts.RecvTimeout.Truncate(time.Second); idle > 0 {
			_ = tc.SetKeepAlivePeriod(idle)
		}
	}
}

// NewSocket applies opts to c and returns it as a Socket.
func NewSocket(c net.Conn, opts Options) Socket {
	setopts(c, opts)
	return &netSocket{c: c, rto: opts.RecvTimeout, wto: opts.SendTimeout}
}

// Wrap turns an accepted or dialed connection into a Buffer that owns it.
func Wrap(c net.Conn, opts Options) *Buffer {
	return NewBuffer(NewEndpoint(NewSocket(c, opts)), opts.BufferSize)
}

// Dial connects to host:port over TCP.
func Dial(ctx context.Context, host string, port int, opts Options) (*Buffer, error) {
	return dial(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)), opts)
}

// DialUnix connects to a unix-domain stream socket at path.
func DialUnix(ctx context.Context, path string, opts Options) (*Buffer, error) {
	return dial(ctx, "unix", path, opts)
}

func dial(ctx context.Context, network, addr string, opts Options) (*Buffer, error) {
	d := net.Dialer{Timeout: opts.DialTimeout}
	c, err := d.DialContext(ctx, network, addr)
	if err != nil {
		return nil, &ConnectionError{Addr: addr, Err: ioErr("connect", err)}
	}
	return Wrap(c, opts), nil
}

// Listen binds and listens on host:port over TCP.
func Listen(host string, port int) (net.Listener, error) {
	ln, err := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return nil, ioErr("listen", err)
	}
	return ln, nil
}

// ListenUnix binds a unix-domain stream socket at path, removing a stale
// socket file first.
func ListenUnix(path string) (net.Listener, error) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, ioErr("unlink", err)
	}
	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, ioErr("listen", err)
	}
	return ln, nil
}
