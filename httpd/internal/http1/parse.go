package http1

import (
	"io"
	"strings"
)

// Source is what the request-line parser reads from. *transport.Buffer
// implements it.
type Source interface {
	io.ByteReader
	PeekAndConsumeIf(c byte) (bool, error)
}

// ParseRequest reads a request line and the header block that follows it.
// End of stream is returned unchanged so the caller can tell a closed
// connection apart from a *ProtocolError.
func ParseRequest(src Source, r *Request) error {
	if err := ParseRequestLine(src, r); err != nil {
		return err
	}
	raw, err := ParseHeaders(src, &r.Header)
	if err != nil {
		return err
	}
	r.HeaderRaw = raw
	return nil
}

const (
	stMethod = iota
	stURI
	stVersion
)

// ParseRequestLine reads "METHOD /path?query VERSION\r\n". Method and
// version are upper-cased. Stray bytes are tolerated: CR is skipped
// anywhere, extra spaces are ignored and empty lines before the request are
// dropped.
func ParseRequestLine(src Source, r *Request) error {
	r.Method, r.Path, r.Version = "", "", ""
	r.QueryRaw = ""
	r.Queries.Reset()

	for {
		cr, err := src.PeekAndConsumeIf('\r')
		if err != nil {
			return err
		}
		lf, err := src.PeekAndConsumeIf('\n')
		if err != nil {
			return err
		}
		if !cr && !lf {
			break
		}
	}

	var method, path, version []byte
	state := stMethod
	done := func() error {
		r.Method, r.Path, r.Version = string(method), string(path), string(version)
		return nil
	}
	for {
		c, err := src.ReadByte()
		if err != nil {
			return err
		}
		switch c {
		case ' ':
			if state != stVersion {
				state++
			}
			continue
		case '\r':
			continue
		case '\n':
			return done()
		}

		switch state {
		case stMethod:
			method = append(method, upper(c))
		case stVersion:
			version = append(version, upper(c))
		case stURI:
			if c != '?' {
				path = append(path, c)
				continue
			}
			raw, term, err := ParseQuery(src, &r.Queries, 0)
			if err != nil {
				return err
			}
			r.QueryRaw = raw
			state = stVersion
			if term == '\n' {
				return done()
			}
		}
	}
}

func isQueryEnd(c byte) bool { return c == ' ' || c == '\r' || c == '\n' }

// ParseQuery decodes "k=v&k2=v2" from src into q and returns the undecoded
// text it consumed. Parsing stops at a space, CR or LF, which is consumed
// and returned as term, or once limit bytes were read when limit > 0, with
// term 0.
//
// Pairs with an empty key are dropped. A key without '=' gets an empty
// value. '+' decodes to a space and %XX to its byte; an escape cut short by
// the end of input ends the query.
func ParseQuery(src io.ByteReader, q *Fields, limit int) (raw string, term byte, err error) {
	var (
		key, val []byte
		inVal    bool
		rawb     []byte
		n        int
	)
	next := func() (byte, bool, error) {
		if limit > 0 && n >= limit {
			return 0, false, nil
		}
		c, err := src.ReadByte()
		if err != nil {
			return 0, false, err
		}
		n++
		if isQueryEnd(c) {
			term = c
			return c, false, nil
		}
		rawb = append(rawb, c)
		return c, true, nil
	}
	push := func() {
		if len(key) > 0 {
			q.Add(string(key), string(val))
		}
		key, val, inVal = key[:0], val[:0], false
	}

loop:
	for {
		c, ok, err := next()
		if err != nil {
			return string(rawb), 0, err
		}
		if !ok {
			break
		}
		switch c {
		case '&':
			push()
			continue
		case '=':
			if !inVal {
				inVal = true
				continue
			}
		case '+':
			c = ' '
		case '%':
			hi, ok, err := next()
			if err != nil {
				return string(rawb), 0, err
			}
			if !ok {
				break loop
			}
			lo, ok, err := next()
			if err != nil {
				return string(rawb), 0, err
			}
			if !ok {
				break loop
			}
			c = unhex(hi)<<4 | unhex(lo)
		}
		if inVal {
			val = append(val, c)
		} else {
			key = append(key, c)
		}
	}
	push()
	return string(rawb), term, nil
}

// ParseHeaders reads header lines up to and including the empty line that
// ends the block, storing them in h with lower-case keys. It returns the raw
// bytes consumed.
//
// A line starting with a space or tab continues the value of the previous
// field. After the block is read, values of list-valued fields are split on
// commas; see SplitComma and NoSplitFields.
func ParseHeaders(src io.ByteReader, h *Fields) (string, error) {
	h.Reset()
	var (
		raw  []byte
		prev string
	)
	for {
		start := len(raw)
		key, value, cont, n, err := parseHeaderLine(src, &raw)
		if err != nil {
			return string(raw), err
		}
		if n == 0 {
			break
		}
		switch {
		case cont:
			if prev == "" || !h.appendLast(prev, value) {
				return string(raw), &ProtocolError{Msg: "continuation line without a field", Byte: raw[start], Expected: "field name"}
			}
		case key == "":
			return string(raw), &ProtocolError{Msg: "empty field name", Byte: ':', Expected: "field name"}
		default:
			h.Add(key, value)
			prev = key
		}
	}

	for _, k := range h.keys {
		if _, ok := NoSplitFields[k]; ok {
			continue
		}
		vv := h.vals[k]
		split := make([]string, 0, len(vv))
		for _, v := range vv {
			split = append(split, SplitComma(v)...)
		}
		h.replace(k, split)
	}
	return string(raw), nil
}

const (
	hdrInit = iota
	hdrKey
	hdrVal
	hdrValSpace
	hdrColonSpace
)

func isBlank(c byte) bool { return c == ' ' || c == '\t' }

// parseHeaderLine consumes one physical line. n counts the bytes of the
// line other than CR and LF, so n == 0 is the blank line ending the block.
// Runs of blanks inside a value collapse to one space and trailing blanks
// are dropped.
func parseHeaderLine(src io.ByteReader, raw *[]byte) (key, value string, cont bool, n int, err error) {
	var k, v []byte
	state := hdrInit
	for {
		c, err := src.ReadByte()
		if err != nil {
			return "", "", false, 0, err
		}
		if state == hdrInit {
			if isBlank(c) {
				state = hdrValSpace
				cont = true
			} else {
				state = hdrKey
			}
		}
		*raw = append(*raw, c)
		if c == '\r' {
			continue
		}
		if c == '\n' {
			break
		}
		n++

		switch state {
		case hdrKey:
			if c == ':' {
				state = hdrColonSpace
				continue
			}
			k = append(k, lower(c))
		case hdrVal:
			if isBlank(c) {
				state = hdrValSpace
				continue
			}
			v = append(v, c)
		case hdrValSpace:
			if !isBlank(c) {
				v = append(v, ' ', c)
				state = hdrVal
			}
		case hdrColonSpace:
			if !isBlank(c) {
				v = append(v, c)
				state = hdrVal
			}
		}
	}
	return string(k), string(v), cont, n, nil
}

// NoSplitFields are fields whose values routinely contain commas that do
// not separate list elements, mostly dates.
var NoSplitFields = map[string]struct{}{
	"date":                {},
	"if-modified-since":   {},
	"if-unmodified-since": {},
	"if-range":            {},
	"set-cookie":          {},
	"expires":             {},
	"last-modified":       {},
	"user-agent":          {},
}

// SplitComma splits s on commas and trims blanks around every element.
// Empty elements are kept.
func SplitComma(s string) []string {
	parts := strings.Split(s, ",")
	for i, p := range parts {
		parts[i] = strings.Trim(p, " \t")
	}
	return parts
}

// ReadLine reads up to LF and returns the line without CR or LF.
func ReadLine(src io.ByteReader) (string, error) {
	var b []byte
	for {
		c, err := src.ReadByte()
		if err != nil {
			return string(b), err
		}
		switch c {
		case '\r':
		case '\n':
			return string(b), nil
		default:
			b = append(b, c)
		}
	}
}

// Unquote decodes '+' and %XX escapes. Invalid hex digits count as zero and
// an escape cut short by the end of s ends the output.
func Unquote(s string) string {
	b := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '%':
			if i+2 >= len(s) {
				return string(b)
			}
			b = append(b, unhex(s[i+1])<<4|unhex(s[i+2]))
			i += 2
		case '+':
			b = append(b, ' ')
		default:
			b = append(b, c)
		}
	}
	return string(b)
}

func unhex(c byte) byte {
	switch {
	case '0' <= c && c <= '9':
		return c - '0'
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10
	}
	return 0
}

func upper(c byte) byte {
	if 'a' <= c && c <= 'z' {
		return c - 'a' + 'A'
	}
	return c
}

func lower(c byte) byte {
	if 'A' <= c && c <= 'Z' {
		return c - 'A' + 'a'
	}
	return c
}
