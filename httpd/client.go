package httpd

import (
	"bytes"
	"context"
	"errors"
	"strconv"
	"strings"

	"dqx0.com/go/httpd/codec"
	"dqx0.com/go/httpd/httpd/internal/http1"
	"dqx0.com/go/httpd/transport"
)

// Client exchanges requests and replies with one upstream over one
// connection. It is not safe for concurrent use.
type Client struct {
	b    *transport.Buffer
	addr Address
}

// Reply is a parsed response. Head is the status line without CRLF.
type Reply struct {
	Head   string
	Header Fields
	Body   []byte

	closed bool // body ran to end of stream
}

// PeerClosed reports whether the body was delimited by the peer closing
// the connection, which then cannot be reused.
func (r *Reply) PeerClosed() bool { return r.closed }

// Code returns the three digit status code, or "" for a malformed head.
func (r *Reply) Code() string {
	if len(r.Head) < 12 || !strings.HasPrefix(r.Head, "HTTP/") {
		return ""
	}
	return r.Head[9:12]
}

// Dial connects to a, over a unix-domain socket when a.IsUnix.
func Dial(ctx context.Context, a Address, opts transport.Options) (*Client, error) {
	var (
		b   *transport.Buffer
		err error
	)
	if a.IsUnix() {
		b, err = transport.DialUnix(ctx, a.Host, opts)
	} else {
		b, err = transport.Dial(ctx, a.Host, a.Port, opts)
	}
	if err != nil {
		return nil, err
	}
	return NewClient(b, a), nil
}

// NewClient wraps an established connection to a.
func NewClient(b *transport.Buffer, a Address) *Client {
	return &Client{b: b, addr: a}
}

func (c *Client) Addr() Address              { return c.addr }
func (c *Client) Buffer() *transport.Buffer { return c.b }
func (c *Client) Close() error               { return c.b.Close() }

// Do sends r and reads the reply. A non-empty r.Body is sent after the
// head; content-length is set from it unless r carries raw header bytes.
func (c *Client) Do(r *Request) (*Reply, error) {
	if _, err := c.b.Write(c.appendRequest(r, "")); err != nil {
		return nil, err
	}
	return c.ReadReply()
}

// Send writes a fully serialized request and reads the reply.
func (c *Client) Send(raw []byte) (*Reply, error) {
	if _, err := c.b.Write(raw); err != nil {
		return nil, err
	}
	return c.ReadReply()
}

func (c *Client) appendRequest(r *Request, poison string) []byte {
	if len(r.Body) > 0 && r.HeaderRaw == "" {
		r.SetField("content-length", strconv.Itoa(len(r.Body)))
	}
	out := http1.AppendRequest(nil, r, poison)
	return append(out, r.Body...)
}

// ReadReply reads a status line, headers and a body. The body is
// content-length bytes when that field is present, nothing for 1xx, 204
// and 304, and everything up to the peer closing otherwise.
func (c *Client) ReadReply() (*Reply, error) {
	head, err := http1.ReadLine(c.b)
	if err != nil {
		return nil, err
	}
	rep := &Reply{Head: head}
	if _, err := http1.ParseHeaders(c.b, &rep.Header); err != nil {
		return nil, err
	}
	if code := rep.Code(); code == "204" || code == "304" || strings.HasPrefix(code, "1") {
		return rep, nil
	}
	cl := rep.Header.Get("content-length")
	if cl == "" {
		rep.closed = true
		rep.Body, err = c.b.ReadAll()
		return rep, err
	}
	n, err := strconv.ParseInt(strings.TrimSpace(cl), 10, 64)
	if err != nil || n < 0 {
		return nil, &ProtocolError{Msg: "bad content-length " + strconv.Quote(cl)}
	}
	rep.Body, err = c.b.ReadN(n)
	if errors.Is(err, transport.ErrEndOfStream) {
		return nil, &ProtocolError{Msg: "truncated body"}
	}
	return rep, err
}

// CheckReplyHead fails with *ResponseStatusError unless head is an HTTP
// status line with the given code.
func CheckReplyHead(head, code string) error {
	if len(head) >= 12 && strings.HasPrefix(head, "HTTP/") && head[9:12] == code {
		return nil
	}
	e := &ResponseStatusError{Head: head, Want: code}
	if len(head) >= 12 {
		e.Code = head[9:12]
	}
	return e
}

// PostWriter streams a request body after the head was sent. The caller is
// responsible for framing, typically a content-length field in the head.
type PostWriter struct {
	c *Client
}

// Post sends the head of r (ignoring r.Body) and returns a writer for the
// body.
func (c *Client) Post(r *Request) (*PostWriter, error) {
	if _, err := c.b.Write(http1.AppendRequest(nil, r, "")); err != nil {
		return nil, err
	}
	return &PostWriter{c: c}, nil
}

// Write sends p as is.
func (w *PostWriter) Write(p []byte) (int, error) { return w.c.b.Write(p) }

// Finish reads the reply.
func (w *PostWriter) Finish() (*Reply, error) { return w.c.ReadReply() }

// ChunkedWriter streams a request body with chunked transfer encoding.
type ChunkedWriter struct {
	c *Client
}

// PostChunked sends the head of r with a transfer-encoding: chunked field
// and returns a writer for the chunks.
func (c *Client) PostChunked(r *Request) (*ChunkedWriter, error) {
	head := http1.AppendRequest(nil, r, "")
	switch {
	case bytes.HasSuffix(head, []byte("\r\n\r\n")):
		head = head[:len(head)-2]
	case bytes.HasSuffix(head, []byte("\n\n")):
		head = head[:len(head)-1]
	}
	head = append(head, "transfer-encoding: chunked\r\n\r\n"...)
	if _, err := c.b.Write(head); err != nil {
		return nil, err
	}
	return &ChunkedWriter{c: c}, nil
}

// Write sends p as one chunk. Empty writes send nothing.
func (w *ChunkedWriter) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if _, err := w.c.b.Write(http1.AppendChunk(nil, p)); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Finish sends the last chunk and reads the reply.
func (w *ChunkedWriter) Finish() (*Reply, error) {
	if _, err := w.c.b.Write(http1.AppendLastChunk(nil)); err != nil {
		return nil, err
	}
	return w.c.ReadReply()
}

// GetSerialized sends r, poison appended after its query, expects "200" and
// decodes the codec payload of the reply into out.
func (c *Client) GetSerialized(r *Request, poison string, out any) (*Reply, error) {
	if _, err := c.b.Write(c.appendRequest(r, poison)); err != nil {
		return nil, err
	}
	rep, err := c.ReadReply()
	if err != nil {
		return nil, err
	}
	if err := CheckReplyHead(rep.Head, "200"); err != nil {
		return rep, err
	}
	return rep, codec.Decode(rep.Body, out)
}

// PostSerialized sends in as the codec encoded body of r and expects a
// "200" reply.
func (c *Client) PostSerialized(r *Request, in any) (*Reply, error) {
	payload, err := codec.Encode(in)
	if err != nil {
		return nil, err
	}
	r.SetField("content-type", codec.ContentType)
	r.Body = payload
	rep, err := c.Do(r)
	if err != nil {
		return nil, err
	}
	return rep, CheckReplyHead(rep.Head, "200")
}
