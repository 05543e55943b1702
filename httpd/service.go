package httpd

import (
	"bytes"
	"errors"
	"fmt"
	"runtime/debug"
	"strconv"
	"strings"

	"dqx0.com/go/httpd/httpd/internal/http1"
	"dqx0.com/go/httpd/internal/obs"
	"dqx0.com/go/httpd/transport"
)

// Handler answers one request. The response is sent after ServeHTTP
// returns unless the handler already called Send.
type Handler interface {
	ServeHTTP(w *Responder, r *Request)
}

type HandlerFunc func(w *Responder, r *Request)

func (f HandlerFunc) ServeHTTP(w *Responder, r *Request) { f(w, r) }

const formContentType = "application/x-www-form-urlencoded"

// HTTP runs the HTTP/1.x keep-alive loop on a connection: parse a request,
// call Handler, send the response, repeat until either side wants to close.
// Requests are not pipelined: the next one is read only after the response
// to the previous one was written.
type HTTP struct {
	Handler Handler
	// ServerName, when set, is sent in the server field of every response.
	ServerName string
	// MaxBodyBytes caps request bodies; zero means no cap.
	MaxBodyBytes int64
	Logger       obs.Logger
}

func (h *HTTP) ServeConn(b *transport.Buffer) error {
	var req Request
	for {
		req.Reset()
		if err := h.readRequest(b, &req); err != nil {
			if errors.Is(err, transport.ErrEndOfStream) {
				return nil
			}
			var pe *ProtocolError
			if errors.As(err, &pe) {
				_, _ = b.Write(ErrorResponse(statusFor(pe), pe.Error()))
			}
			return err
		}

		rw := NewResponder(b, &req)
		rw.SetKeepAlive(!rw.ShouldClose)
		if h.ServerName != "" {
			rw.SetServer(h.ServerName)
		}
		if err := h.call(rw, &req); err != nil {
			if !rw.Sent() {
				_, _ = b.Write(ErrorResponse("500 Internal Server Error", "internal server error"))
			}
			return err
		}
		keep := rw.KeepAlive()
		if err := rw.Send(); err != nil {
			return err
		}
		if !keep {
			return nil
		}
	}
}

func (h *HTTP) call(rw *Responder, r *Request) (err error) {
	defer func() {
		if p := recover(); p != nil {
			h.logf(obs.Error, "handler panic on %s %s: %v\n%s", r.Method, r.Path, p, debug.Stack())
			err = fmt.Errorf("httpd: handler panic: %v", p)
		}
	}()
	if h.Handler == nil {
		rw.Status = "404 Not Found"
		return nil
	}
	h.Handler.ServeHTTP(rw, r)
	return nil
}

func (h *HTTP) readRequest(b *transport.Buffer, r *Request) error {
	return ReadRequest(b, r, h.MaxBodyBytes)
}

// ReadRequest parses one request from b, including a content-length body of
// at most maxBody bytes (unlimited when maxBody <= 0). Form bodies are
// merged into r.Queries.
func ReadRequest(b *transport.Buffer, r *Request, maxBody int64) error {
	if err := http1.ParseRequest(b, r); err != nil {
		return err
	}
	cl := r.Field("content-length")
	if cl == "" {
		return nil
	}
	n, err := strconv.ParseInt(strings.TrimSpace(cl), 10, 64)
	if err != nil || n < 0 {
		return &ProtocolError{Msg: "bad content-length " + strconv.Quote(cl)}
	}
	if maxBody > 0 && n > maxBody {
		return &ProtocolError{Msg: errBodyTooLarge}
	}
	if n == 0 {
		return nil
	}
	body, err := b.ReadN(n)
	if errors.Is(err, transport.ErrEndOfStream) {
		return &ProtocolError{Msg: "truncated body"}
	}
	if err != nil {
		return err
	}
	r.Body = body
	if strings.HasPrefix(r.Field("content-type"), formContentType) {
		_, _, _ = http1.ParseQuery(bytes.NewReader(body), &r.Queries, len(body))
	}
	return nil
}

const errBodyTooLarge = "request body too large"

func statusFor(pe *ProtocolError) string {
	if pe.Msg == errBodyTooLarge {
		return "413 Payload Too Large"
	}
	return "400 Bad Request"
}

func (h *HTTP) logf(level obs.Level, format string, args ...any) {
	lg := h.Logger
	if lg == nil {
		lg = obs.NopLogger{}
	}
	lg.Logf(level, format, args...)
}
