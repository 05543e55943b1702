package httpd

import (
	"time"

	"dqx0.com/go/httpd/httpd/internal/http1"
)

// Request is a parsed or hand-built HTTP/1.x request.
type Request = http1.Request

// Fields is the ordered multimap used for headers and query parameters.
type Fields = http1.Fields

// ProtocolError reports malformed HTTP framing.
type ProtocolError = http1.ProtocolError

// NewRequest returns a GET / HTTP/1.1 request for host.
func NewRequest(host string) *Request { return http1.NewRequest(host) }

// Quote percent-encodes s for a query string.
func Quote(s string) string { return http1.Quote(s) }

// Unquote reverses Quote. It never fails: malformed escapes end the result
// early.
func Unquote(s string) string { return http1.Unquote(s) }

// WebTime formats t the way Date and Expires fields want it.
func WebTime(t time.Time) string { return http1.WebTime(t) }

// UnparseRequest serializes r; see Client.Send for sending raw requests.
func UnparseRequest(r *Request, poison string) []byte {
	return http1.AppendRequest(nil, r, poison)
}
