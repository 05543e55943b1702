package http1

import "time"

// TimeFormat is the RFC 1123 layout used in Date, Expires, Last-Modified and
// cookie expiry attributes.
const TimeFormat = "Mon, 02 Jan 2006 15:04:05 GMT"

// WebTime formats t in GMT for use in header values.
func WebTime(t time.Time) string {
	return t.UTC().Format(TimeFormat)
}

// ParseWebTime is the inverse of WebTime.
func ParseWebTime(s string) (time.Time, error) {
	return time.Parse(TimeFormat, s)
}
