package http1

import "strconv"

// AppendChunk frames p as one chunk of a chunked transfer-encoded body.
// An empty p appends nothing, so it can never be mistaken for the
// terminator.
func AppendChunk(dst, p []byte) []byte {
	if len(p) == 0 {
		return dst
	}
	dst = strconv.AppendInt(dst, int64(len(p)), 16)
	dst = append(dst, '\r', '\n')
	dst = append(dst, p...)
	return append(dst, '\r', '\n')
}

// AppendLastChunk appends the zero-length chunk and the empty trailer.
func AppendLastChunk(dst []byte) []byte {
	return append(dst, "0\r\n\r\n"...)
}
