package transport

import (
	"net"
	"sync"
	"sync/atomic"
)

// Socket is the raw descriptor an Endpoint owns. Read and Write map one to
// one onto recv/send; Shutdown and Close are called exactly once, in that
// order, when the last holder releases the Endpoint.
type Socket interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Shutdown() error
	Close() error
}

// PeerChecker is implemented by sockets that can tell, without blocking,
// whether the peer already closed the connection.
type PeerChecker interface {
	CheckPeer() error
}

// Addresser is implemented by sockets that know their local and peer addresses.
type Addresser interface {
	LocalAddr() net.Addr
	RemoteAddr() net.Addr
}

// Endpoint is a reference counted owner of a Socket. NewEndpoint hands out
// the first reference; every Share must be paired with a Release.
type Endpoint struct {
	sock Socket
	refs atomic.Int32

	once     sync.Once
	closeErr error
}

func NewEndpoint(s Socket) *Endpoint {
	e := &Endpoint{sock: s}
	e.refs.Store(1)
	return e
}

// Share adds a holder and returns e.
func (e *Endpoint) Share() *Endpoint {
	e.refs.Add(1)
	return e
}

// Release drops one holder. The last release shuts the socket down and
// closes it; the close error is returned to that caller only.
func (e *Endpoint) Release() error {
	if e.refs.Add(-1) > 0 {
		return nil
	}
	var closed bool
	e.once.Do(func() {
		closed = true
		_ = e.sock.Shutdown()
		if err := e.sock.Close(); err != nil {
			e.closeErr = ioErr("close", err)
		}
	})
	if !closed {
		return nil
	}
	return e.closeErr
}

// Refs reports the number of live holders.
func (e *Endpoint) Refs() int { return int(e.refs.Load()) }

// CheckPeer runs the socket's non-blocking liveness probe. Sockets without
// a probe are assumed alive.
func (e *Endpoint) CheckPeer() error {
	if pc, ok := e.sock.(PeerChecker); ok {
		return pc.CheckPeer()
	}
	return nil
}

func (e *Endpoint) Socket() Socket { return e.sock }

func (e *Endpoint) read(p []byte) (int, error)  { return e.sock.Read(p) }
func (e *Endpoint) write(p []byte) (int, error) { return e.sock.Write(p) }
