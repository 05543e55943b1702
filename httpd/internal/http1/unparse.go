package http1

const upperhex = "0123456789ABCDEF"

func shouldEscape(c byte) bool {
	switch {
	case 'A' <= c && c <= 'Z', 'a' <= c && c <= 'z', '0' <= c && c <= '9':
		return false
	case c == '-', c == '_', c == '.', c == '~':
		return false
	}
	return true
}

// Quote percent-encodes s for use in a query string. Letters, digits and
// "-_.~" are kept, space becomes '+', every other byte becomes %XX.
func Quote(s string) string {
	return string(appendQuoted(make([]byte, 0, len(s)), s))
}

func appendQuoted(dst []byte, s string) []byte {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == ' ':
			dst = append(dst, '+')
		case shouldEscape(c):
			dst = append(dst, '%', upperhex[c>>4], upperhex[c&15])
		default:
			dst = append(dst, c)
		}
	}
	return dst
}

// AppendQuery appends "?k=v&k2=v2" built from q. Nothing is appended for an
// empty q.
func AppendQuery(dst []byte, q *Fields) []byte {
	first := true
	q.Each(func(k, v string) {
		if first {
			dst = append(dst, '?')
			first = false
		} else {
			dst = append(dst, '&')
		}
		dst = appendQuoted(dst, k)
		dst = append(dst, '=')
		dst = appendQuoted(dst, v)
	})
	return dst
}

// AppendFields appends one "key: value\r\n" line per value and the blank
// line that ends the block. Control characters are stripped from keys and
// values.
func AppendFields(dst []byte, h *Fields) []byte {
	h.Each(func(k, v string) {
		dst = append(dst, SanitizeHeaderValue(k)...)
		dst = append(dst, ':', ' ')
		dst = append(dst, SanitizeHeaderValue(v)...)
		dst = append(dst, '\r', '\n')
	})
	return append(dst, '\r', '\n')
}

// AppendRequest serializes r. Captured raw query and header bytes are used
// verbatim when present. poison is appended right after the query, before
// the version, and is normally empty.
func AppendRequest(dst []byte, r *Request, poison string) []byte {
	dst = append(dst, r.Method...)
	dst = append(dst, ' ')
	dst = append(dst, r.Path...)
	if r.QueryRaw != "" {
		dst = append(dst, '?')
		dst = append(dst, r.QueryRaw...)
	} else {
		dst = AppendQuery(dst, &r.Queries)
	}
	dst = append(dst, poison...)
	dst = append(dst, ' ')
	dst = append(dst, r.Version...)
	dst = append(dst, '\r', '\n')
	if r.HeaderRaw != "" {
		return append(dst, r.HeaderRaw...)
	}
	return AppendFields(dst, &r.Header)
}

// SanitizeHeaderValue removes CR, LF and other control characters except
// HTAB.
func SanitizeHeaderValue(v string) string {
	for i := 0; i < len(v); i++ {
		if c := v[i]; c == 0x7f || (c < 0x20 && c != '\t') {
			return sanitize(v)
		}
	}
	return v
}

func sanitize(v string) string {
	b := make([]byte, 0, len(v))
	for i := 0; i < len(v); i++ {
		c := v[i]
		if c == 0x7f || (c < 0x20 && c != '\t') {
			continue
		}
		b = append(b, c)
	}
	return string(b)
}
