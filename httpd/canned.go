package httpd

import (
	"strconv"

	"dqx0.com/go/httpd/codec"
)

// Canned responses for internal services. They bypass Responder and are
// written straight to the connection.

func cannedHead(status, ctype, connection string, n int) []byte {
	b := make([]byte, 0, 128+n)
	b = append(b, "HTTP/1.1 "...)
	b = append(b, status...)
	b = append(b, "\r\nContent-Type: "...)
	b = append(b, ctype...)
	b = append(b, "\r\nCache-Control: no-cache\r\nConnection: "...)
	b = append(b, connection...)
	b = append(b, "\r\nContent-Length: "...)
	b = strconv.AppendInt(b, int64(n), 10)
	return append(b, "\r\n\r\n"...)
}

// TextResponse is a keep-alive "200 OK" plain text response.
func TextResponse(text string) []byte {
	return append(cannedHead("200 OK", "text/plain", "Keep-Alive", len(text)), text...)
}

// ErrorResponse is a plain text error response that closes the connection.
// status defaults to "404 Not Found".
func ErrorResponse(status, text string) []byte {
	if status == "" {
		status = "404 Not Found"
	}
	return append(cannedHead(status, "text/plain", "close", len(text)), text...)
}

// SerializedResponse is a keep-alive "200 OK" carrying v in codec format.
func SerializedResponse(v any) ([]byte, error) {
	payload, err := codec.Encode(v)
	if err != nil {
		return nil, err
	}
	return append(cannedHead("200 OK", codec.ContentType, "Keep-Alive", len(payload)), payload...), nil
}
