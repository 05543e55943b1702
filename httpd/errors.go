package httpd

import (
	"errors"
	"fmt"
)

// ErrServerClosed is returned by Serve after Close or Shutdown.
var ErrServerClosed = errors.New("httpd: server closed")

// ResponseStatusError is returned when a reply's status line does not carry
// the expected code.
type ResponseStatusError struct {
	Head string // the full status line
	Code string // the code found, may be empty for a malformed head
	Want string
}

func (e *ResponseStatusError) Error() string {
	return fmt.Sprintf("httpd: expected status %q, got head %q", e.Want, e.Head)
}
