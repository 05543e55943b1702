//go:build !linux

package transport

import (
	"context"
	"errors"
	"net"
	"os"
	"strconv"
)

// DialRing needs io_uring and fails on this platform.
func DialRing(ctx context.Context, host string, port int, opts Options) (*Buffer, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	return nil, &ConnectionError{Addr: addr, Err: ioErr("io_uring setup", errors.ErrUnsupported)}
}

// OpenFileRing needs io_uring and fails on this platform.
func OpenFileRing(path string, flag int, perm os.FileMode, opts Options) (*Buffer, error) {
	return nil, ioErr("io_uring setup", errors.ErrUnsupported)
}
