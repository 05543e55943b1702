// Package transport wraps connected descriptors in a Buffer: a fixed-window
// buffered reader with unbuffered, one-syscall-per-call writes.
//
// The descriptor itself is held by an Endpoint, a reference counted owner
// that shuts the socket down and closes it exactly once, when the last
// holder releases it. This lets a pooled connection and a transient wrapper
// around it share one socket safely.
//
// Supported descriptors:
//   - TCP and unix-domain connections (Dial, DialUnix, Wrap)
//   - raw file descriptors (WrapFD, unix only)
//   - io_uring backed TCP sockets and files (DialRing, OpenFileRing, linux only)
//
// Reads distinguish a clean close (ErrEndOfStream) from a failing socket
// (*IOError).
package transport
