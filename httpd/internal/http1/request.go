package http1

import (
	"sort"
	"strings"
)

// Request is an HTTP/1.x request as seen on the wire.
//
// QueryRaw and HeaderRaw keep the exact bytes the parser consumed. When set
// they take precedence over Queries and Header on unparse, which lets a
// proxy forward a request byte for byte. Setters that touch Queries or
// Header clear the matching raw form.
type Request struct {
	Method  string
	Path    string
	Version string

	QueryRaw  string
	HeaderRaw string

	Queries Fields
	Header  Fields // keys are lower-case

	Body []byte
}

// NewRequest returns a GET / HTTP/1.1 request with a host field. An empty
// host leaves the field out.
func NewRequest(host string) *Request {
	r := &Request{Method: "GET", Path: "/", Version: "HTTP/1.1"}
	if host != "" {
		r.Header.Add("host", host)
	}
	return r
}

// Reset clears r for reuse by the next request on a connection.
func (r *Request) Reset() {
	r.Method, r.Path, r.Version = "", "", ""
	r.QueryRaw, r.HeaderRaw = "", ""
	r.Queries.Reset()
	r.Header.Reset()
	r.Body = nil
}

// Query returns the first value of the query parameter k.
func (r *Request) Query(k string) string { return r.Queries.Get(k) }

// QueryValues returns every value of the query parameter k.
func (r *Request) QueryValues(k string) []string { return r.Queries.Values(k) }

// SetQuery appends a value for k.
func (r *Request) SetQuery(k, v string) {
	r.QueryRaw = ""
	r.Queries.Add(k, v)
}

// ResetQuery makes v the only value of k.
func (r *Request) ResetQuery(k, v string) {
	r.QueryRaw = ""
	r.Queries.Set(k, v)
}

// Field returns the first value of the header field k. k is matched
// case-insensitively.
func (r *Request) Field(k string) string { return r.Header.Get(strings.ToLower(k)) }

// SetField makes v the only value of the header field k.
func (r *Request) SetField(k, v string) {
	r.HeaderRaw = ""
	r.Header.Set(strings.ToLower(k), v)
}

// AddField appends v to the header field k.
func (r *Request) AddField(k, v string) {
	r.HeaderRaw = ""
	r.Header.Add(strings.ToLower(k), v)
}

// Cookies collects every name=value pair of all cookie fields. Later
// duplicates win.
func (r *Request) Cookies() map[string]string {
	out := make(map[string]string)
	for _, v := range r.Header.Values("cookie") {
		parseInline(v, out)
	}
	return out
}

// SetCookies replaces the cookie field with c, names sorted.
func (r *Request) SetCookies(c map[string]string) {
	names := make([]string, 0, len(c))
	for k := range c {
		names = append(names, k)
	}
	sort.Strings(names)
	var b strings.Builder
	for i, k := range names {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(c[k])
	}
	r.SetField("cookie", b.String())
}

// parseInline splits "k=v; k2=v2" into out. Whitespace inside names is
// dropped, values are kept as is.
func parseInline(s string, out map[string]string) {
	var key, val strings.Builder
	inVal := false
	flush := func() {
		if key.Len() > 0 {
			out[key.String()] = val.String()
		}
		key.Reset()
		val.Reset()
		inVal = false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !inVal {
			switch c {
			case ' ', '\t', '\n':
			case '=':
				inVal = true
			case ';':
				flush()
			default:
				key.WriteByte(c)
			}
			continue
		}
		if c == ';' {
			flush()
			continue
		}
		val.WriteByte(c)
	}
	flush()
}
