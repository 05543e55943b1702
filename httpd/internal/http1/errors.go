package http1

import "fmt"

// ProtocolError reports malformed HTTP framing. Byte is the offending input
// byte and Expected lists what the parser would have accepted instead, when
// that is known.
type ProtocolError struct {
	Msg      string
	Byte     byte
	Expected string
}

func (e *ProtocolError) Error() string {
	if e.Expected == "" {
		return "http1: " + e.Msg
	}
	return fmt.Sprintf("http1: %s: got %q, expected %s", e.Msg, e.Byte, e.Expected)
}
