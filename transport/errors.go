package transport

import (
	"errors"
	"fmt"
)

// ErrEndOfStream is returned when the peer closed the stream. It is the
// expected way for a keep-alive connection to end and is not a failure.
var ErrEndOfStream = errors.New("transport: end of stream")

// IOError is an OS-level failure of a send, recv, connect, bind or listen.
type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string {
	if e.Err == nil {
		return "transport: " + e.Op + " failed"
	}
	return fmt.Sprintf("transport: %s failed: %v", e.Op, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// ConnectionError reports a failed dial. Err is usually an *IOError.
type ConnectionError struct {
	Addr string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("transport: could not connect to %s: %v", e.Addr, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

func ioErr(op string, err error) error {
	return &IOError{Op: op, Err: err}
}

// ErrPeerClosed is returned by liveness probes when the peer already closed
// the connection.
var ErrPeerClosed = errors.New("transport: connection closed by peer")
