//go:build unix && !linux

package transport

func tcpState(fd int) error { return peekState(fd) }
