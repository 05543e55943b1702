package transport

import (
	"errors"
	"io"
	"net"
)

// DefaultBufferSize is the read window used when Options.BufferSize is zero.
const DefaultBufferSize = 64 << 10

// Buffer is a fixed-window buffered reader over an Endpoint. Writes are not
// buffered: each Write is exactly one send on the socket.
//
// A Buffer is not safe for concurrent use.
type Buffer struct {
	ep  *Endpoint
	buf []byte
	cur int // next unread byte
	end int // fill boundary

	scanned int64
	closed  bool
}

// NewBuffer wraps ep. The Buffer takes over the caller's reference to ep and
// releases it on Close.
func NewBuffer(ep *Endpoint, size int) *Buffer {
	if size <= 0 {
		size = DefaultBufferSize
	}
	return &Buffer{ep: ep, buf: make([]byte, size)}
}

func (b *Buffer) fill() error {
	n, err := b.ep.read(b.buf)
	if n > 0 {
		b.cur, b.end = 0, n
		return nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		return ErrEndOfStream
	}
	return ioErr("recv", err)
}

// ReadByte returns the next byte, refilling the window when it is exhausted.
func (b *Buffer) ReadByte() (byte, error) {
	if b.cur == b.end {
		if err := b.fill(); err != nil {
			return 0, err
		}
	}
	c := b.buf[b.cur]
	b.cur++
	b.scanned++
	return c, nil
}

// PeekAndConsumeIf consumes the next byte only when it equals want.
// Otherwise the cursor does not move.
func (b *Buffer) PeekAndConsumeIf(want byte) (bool, error) {
	if b.cur == b.end {
		if err := b.fill(); err != nil {
			return false, err
		}
	}
	if b.buf[b.cur] != want {
		return false, nil
	}
	b.cur++
	b.scanned++
	return true, nil
}

// ReadExact fills p completely, from the window first and then from as many
// socket reads as needed.
func (b *Buffer) ReadExact(p []byte) error {
	for len(p) > 0 {
		if b.cur == b.end {
			if err := b.fill(); err != nil {
				return err
			}
		}
		n := copy(p, b.buf[b.cur:b.end])
		b.cur += n
		b.scanned += int64(n)
		p = p[n:]
	}
	return nil
}

// ReadFull reads exactly n bytes into a new slice.
func (b *Buffer) ReadFull(n int) ([]byte, error) {
	p := make([]byte, n)
	if err := b.ReadExact(p); err != nil {
		return nil, err
	}
	return p, nil
}

// ReadN reads exactly n bytes, growing the result one window at a time so
// memory follows what the peer actually sent rather than what it announced.
// A stream that ends early returns the bytes read so far and
// ErrEndOfStream.
func (b *Buffer) ReadN(n int64) ([]byte, error) {
	var out []byte
	for remaining := n; remaining > 0; {
		if b.cur == b.end {
			if err := b.fill(); err != nil {
				return out, err
			}
		}
		k := int64(b.end - b.cur)
		if k > remaining {
			k = remaining
		}
		out = append(out, b.buf[b.cur:b.cur+int(k)]...)
		b.cur += int(k)
		b.scanned += k
		remaining -= k
	}
	return out, nil
}

// ReadAll reads until the peer closes the stream. End of stream is not an
// error here.
func (b *Buffer) ReadAll() ([]byte, error) {
	var out []byte
	for {
		if b.cur == b.end {
			if err := b.fill(); err != nil {
				if errors.Is(err, ErrEndOfStream) {
					return out, nil
				}
				return out, err
			}
		}
		out = append(out, b.buf[b.cur:b.end]...)
		b.scanned += int64(b.end - b.cur)
		b.cur = b.end
	}
}

// Write sends p in one socket write. A failed or short write is an *IOError;
// nothing is retried.
func (b *Buffer) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	n, err := b.ep.write(p)
	if err != nil {
		return n, ioErr("send", err)
	}
	if n != len(p) {
		return n, ioErr("send", io.ErrShortWrite)
	}
	return n, nil
}

func (b *Buffer) WriteString(s string) (int, error) {
	return b.Write([]byte(s))
}

// Discard drops whatever is left in the read window.
func (b *Buffer) Discard() {
	b.cur = b.end
}

// Buffered reports the number of unread bytes in the window.
func (b *Buffer) Buffered() int { return b.end - b.cur }

// Scanned reports the total number of bytes consumed by the reader side.
func (b *Buffer) Scanned() int64 { return b.scanned }

func (b *Buffer) Endpoint() *Endpoint { return b.ep }

// LocalAddr returns the local address of the socket, or nil if unknown.
func (b *Buffer) LocalAddr() net.Addr {
	if a, ok := b.ep.sock.(Addresser); ok {
		return a.LocalAddr()
	}
	return nil
}

// RemoteAddr returns the peer address of the socket, or nil if unknown.
func (b *Buffer) RemoteAddr() net.Addr {
	if a, ok := b.ep.sock.(Addresser); ok {
		return a.RemoteAddr()
	}
	return nil
}

// Close releases the Buffer's reference to its Endpoint. It is safe to call
// more than once.
func (b *Buffer) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true
	return b.ep.Release()
}
