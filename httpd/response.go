package httpd

import (
	"io"
	"strconv"
	"strings"
	"time"

	"dqx0.com/go/httpd/httpd/internal/http1"
)

// Responder accumulates one response and sends it at most once.
//
// Header keys are expected in lower case; the setters take care of that.
// Send computes content-length from the body, so a value set by hand is
// always overwritten.
type Responder struct {
	Version string
	Status  string // code and reason, e.g. "404 Not Found"
	Header  Fields

	// ShouldClose is true when the connection must be closed after this
	// response: HTTP/1.0 requests and requests carrying "connection: close".
	ShouldClose bool

	w    io.Writer
	body []byte
	sent bool
}

// NewResponder starts a "200 OK" response to r written to w. A nil r gives
// an HTTP/1.1 response that keeps the connection.
func NewResponder(w io.Writer, r *Request) *Responder {
	rw := &Responder{Version: "HTTP/1.1", Status: "200 OK", w: w}
	if r != nil {
		if r.Version != "" {
			rw.Version = r.Version
		}
		rw.ShouldClose = r.Version == "HTTP/1.0" || r.Field("connection") == "close"
	}
	return rw
}

// Write appends p to the body.
func (rw *Responder) Write(p []byte) (int, error) {
	rw.body = append(rw.body, p...)
	return len(p), nil
}

func (rw *Responder) WriteString(s string) (int, error) {
	rw.body = append(rw.body, s...)
	return len(s), nil
}

// SetBody replaces the body.
func (rw *Responder) SetBody(b []byte) { rw.body = append(rw.body[:0], b...) }

// Body returns the body accumulated so far.
func (rw *Responder) Body() []byte { return rw.body }

// SetField makes v the only value of k.
func (rw *Responder) SetField(k, v string) { rw.Header.Set(strings.ToLower(k), v) }

// AddField appends v to k.
func (rw *Responder) AddField(k, v string) { rw.Header.Add(strings.ToLower(k), v) }

func (rw *Responder) SetServer(s string)          { rw.SetField("server", s) }
func (rw *Responder) SetDate(t time.Time)         { rw.SetField("date", http1.WebTime(t)) }
func (rw *Responder) SetExpires(t time.Time)      { rw.SetField("expires", http1.WebTime(t)) }
func (rw *Responder) SetLastModified(t time.Time) { rw.SetField("last-modified", http1.WebTime(t)) }

// SetStatus sets the status line from a code and reason phrase.
func (rw *Responder) SetStatus(code int, reason string) {
	rw.Status = strconv.Itoa(code) + " " + reason
}

// SetContentType sets the content-type field. A non-empty charset is
// appended as a parameter.
func (rw *Responder) SetContentType(ct, charset string) {
	if charset != "" {
		ct += "; charset=" + charset
	}
	rw.SetField("content-type", ct)
}

// SetKeepAlive announces whether the connection stays open.
func (rw *Responder) SetKeepAlive(ka bool) {
	if ka {
		rw.SetField("connection", "Keep-Alive")
	} else {
		rw.SetField("connection", "close")
	}
}

// KeepAlive reports whether the connection may serve another request after
// this response.
func (rw *Responder) KeepAlive() bool {
	return !rw.ShouldClose && !strings.EqualFold(rw.Header.Get("connection"), "close")
}

// Cookie is one set-cookie field. An empty Path means "/"; empty Domain and
// zero Expires leave the attribute out.
type Cookie struct {
	Name    string
	Value   string
	Expires time.Time
	Domain  string
	Path    string
}

func (c Cookie) String() string {
	var b strings.Builder
	b.WriteString(c.Name)
	b.WriteByte('=')
	b.WriteString(c.Value)
	if c.Domain != "" {
		b.WriteString("; domain=")
		b.WriteString(c.Domain)
	}
	path := c.Path
	if path == "" {
		path = "/"
	}
	b.WriteString("; path=")
	b.WriteString(path)
	if !c.Expires.IsZero() {
		b.WriteString("; expires=")
		b.WriteString(http1.WebTime(c.Expires))
	}
	return b.String()
}

// SetCookie adds a set-cookie field; earlier cookies are kept.
func (rw *Responder) SetCookie(c Cookie) { rw.AddField("set-cookie", c.String()) }

// SetUncached forbids caching by browsers and proxies.
func (rw *Responder) SetUncached() {
	rw.AddField("cache-control", "no-store, no-cache, must-revalidate")
	rw.AddField("pragma", "no-cache")
}

func (rw *Responder) appendHead(dst []byte) []byte {
	dst = append(dst, rw.Version...)
	dst = append(dst, ' ')
	dst = append(dst, rw.Status...)
	dst = append(dst, '\r', '\n')
	return http1.AppendFields(dst, &rw.Header)
}

// HeadersString renders the status line and header block as they would be
// sent right now.
func (rw *Responder) HeadersString() string { return string(rw.appendHead(nil)) }

// Send writes status line, headers and body in one write. Only the first
// call does anything; the body is released afterwards.
func (rw *Responder) Send() error {
	if rw.sent {
		return nil
	}
	rw.sent = true
	rw.Header.Set("content-length", strconv.Itoa(len(rw.body)))
	out := rw.appendHead(make([]byte, 0, 256+len(rw.body)))
	out = append(out, rw.body...)
	rw.body = nil
	_, err := rw.w.Write(out)
	return err
}

// Sent reports whether Send was called.
func (rw *Responder) Sent() bool { return rw.sent }

// Close sends the response if that has not happened yet and drops any
// write error, for use in defer.
func (rw *Responder) Close() error {
	_ = rw.Send()
	return nil
}
