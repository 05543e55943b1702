package httpd

import (
	"context"
	"errors"
	"net"
	"os"
	"runtime"
	"runtime/debug"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"dqx0.com/go/httpd/internal/obs"
	"dqx0.com/go/httpd/transport"
)

// ConnHandler serves one accepted connection. An error or a panic ends that
// connection only; the server logs it and keeps accepting.
type ConnHandler interface {
	ServeConn(b *transport.Buffer) error
}

type ConnHandlerFunc func(b *transport.Buffer) error

func (f ConnHandlerFunc) ServeConn(b *transport.Buffer) error { return f(b) }

// Server accepts connections on one listener and serves each on its own
// goroutine.
type Server struct {
	// Addr is host:port for ListenAndServe and a socket path for
	// ListenAndServeUnix.
	Addr    string
	Handler ConnHandler

	// MaxConns caps concurrently served connections. A connection accepted
	// at the cap is shut down and closed before any byte is read. Zero
	// means no cap.
	MaxConns int

	// RecvTimeout and SendTimeout bound every single recv and send on
	// accepted sockets. A receive timeout also enables TCP keepalive.
	RecvTimeout time.Duration
	SendTimeout time.Duration
	BufferSize  int

	// Priority, when positive, moves every connection goroutine onto its own
	// OS thread running under a real-time policy at this static priority.
	// The process exits if the policy cannot be applied.
	Priority  int
	Scheduler SchedPolicy // nil means RealtimePolicy

	Logger obs.Logger
	Meter  obs.Meter

	mu     sync.Mutex
	ln     net.Listener
	sem    *semaphore.Weighted
	closed bool

	active atomic.Int64
	wg     sync.WaitGroup
}

// exit is swapped out by tests.
var exit = os.Exit

func (s *Server) ListenAndServe() error {
	addr := s.Addr
	if addr == "" {
		addr = ":8080"
	}
	host, ps, err := net.SplitHostPort(addr)
	if err != nil {
		return err
	}
	port, err := strconv.Atoi(ps)
	if err != nil {
		return err
	}
	ln, err := transport.Listen(host, port)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// ListenAndServeUnix serves on a unix-domain socket at s.Addr. A stale
// socket file left by a previous process is removed first.
func (s *Server) ListenAndServeUnix() error {
	ln, err := transport.ListenUnix(s.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts on ln until accept fails, which is also how Close stops it.
// The returned error is ErrServerClosed after Close and the accept error
// otherwise.
func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		ln.Close()
		return ErrServerClosed
	}
	s.ln = ln
	if s.MaxConns > 0 && s.sem == nil {
		s.sem = semaphore.NewWeighted(int64(s.MaxConns))
	}
	sem := s.sem
	s.mu.Unlock()
	defer ln.Close()

	for {
		c, err := ln.Accept()
		if err != nil {
			if s.isClosed() {
				return ErrServerClosed
			}
			s.logf(obs.Error, "accept failed: %v", err)
			return &transport.IOError{Op: "accept", Err: err}
		}
		if sem != nil && !sem.TryAcquire(1) {
			s.reject(c)
			continue
		}
		// Dispatch is ordered against Close by mu.
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			if sem != nil {
				sem.Release(1)
			}
			c.Close()
			return ErrServerClosed
		}
		s.active.Add(1)
		s.wg.Add(1)
		s.mu.Unlock()
		go s.serveConn(c)
	}
}

func (s *Server) reject(c net.Conn) {
	s.logf(obs.Warn, "connection limit %d reached, dropping %s", s.MaxConns, c.RemoteAddr())
	s.metricCounter("httpd_server_rejected_total", 1)
	_ = transport.NewEndpoint(transport.NewSocket(c, transport.Options{})).Release()
}

func (s *Server) serveConn(c net.Conn) {
	defer s.wg.Done()
	defer s.active.Add(-1)
	if s.sem != nil {
		defer s.sem.Release(1)
	}
	s.metricCounter("httpd_server_conns_total", 1)

	if s.Priority > 0 {
		// The thread is never unlocked, so it exits with the goroutine
		// instead of going back to the scheduler with a raised priority.
		runtime.LockOSThread()
		if err := s.scheduler().Apply(s.Priority); err != nil {
			s.logf(obs.Error, "cannot set scheduling priority %d: %v", s.Priority, err)
			c.Close()
			exit(1)
			return
		}
	}

	b := transport.Wrap(c, transport.Options{
		RecvTimeout: s.RecvTimeout,
		SendTimeout: s.SendTimeout,
		BufferSize:  s.BufferSize,
	})
	defer b.Close()
	remote := c.RemoteAddr()

	defer func() {
		if p := recover(); p != nil {
			s.logf(obs.Error, "panic serving %v: %v\n%s", remote, p, debug.Stack())
			s.metricCounter("httpd_server_handler_errors_total", 1)
		}
	}()
	if s.Handler == nil {
		return
	}
	if err := s.Handler.ServeConn(b); err != nil && !errors.Is(err, transport.ErrEndOfStream) {
		s.logf(obs.Error, "serving %v: %v", remote, err)
		s.metricCounter("httpd_server_handler_errors_total", 1)
	}
}

// ActiveConns reports the number of connections being served.
func (s *Server) ActiveConns() int { return int(s.active.Load()) }

// Close stops accepting. Connections already being served are left alone.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.ln != nil {
		return s.ln.Close()
	}
	return nil
}

// Shutdown stops accepting and waits for active connections to finish, or
// for ctx to end.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.Close()
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Server) scheduler() SchedPolicy {
	if s.Scheduler != nil {
		return s.Scheduler
	}
	return RealtimePolicy{}
}

func (s *Server) logf(level obs.Level, format string, args ...any) {
	lg := s.Logger
	if lg == nil {
		lg = obs.NopLogger{}
	}
	lg.Logf(level, format, args...)
}

func (s *Server) metricCounter(name string, value float64, labels ...obs.Label) {
	m := s.Meter
	if m == nil {
		m = obs.NopMeter{}
	}
	m.Counter(name, value, labels...)
}
