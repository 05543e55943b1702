package transport

import (
	"io"
	"os"

	"github.com/godzie44/go-uring/uring"
)

// fileSocket reads and writes a regular file through io_uring. Reads and
// writes keep independent offsets, both starting at zero, so a captured
// stream can be replayed from the beginning.
type fileSocket struct {
	ring *uring.Ring
	f    *os.File
	roff uint64
	woff uint64
}

// OpenFileRing opens path and wraps it in a Buffer driven by io_uring.
func OpenFileRing(path string, flag int, perm os.FileMode, opts Options) (*Buffer, error) {
	f, err := os.OpenFile(path, flag, perm)
	if err != nil {
		return nil, ioErr("open", err)
	}
	ring, err := uring.New(ringQueueDepth)
	if err != nil {
		f.Close()
		return nil, ioErr("io_uring setup", err)
	}
	return NewBuffer(NewEndpoint(&fileSocket{ring: ring, f: f}), opts.BufferSize), nil
}

func (s *fileSocket) do(op uring.Operation) (int, error) {
	if err := s.ring.QueueSQE(op, 0, 0); err != nil {
		return 0, err
	}
	if _, err := s.ring.Submit(); err != nil {
		return 0, err
	}
	cqe, err := s.ring.WaitCQEvents(1)
	if err != nil {
		return 0, err
	}
	defer s.ring.SeenCQE(cqe)
	if err := cqe.Error(); err != nil {
		return 0, err
	}
	return int(cqe.Res), nil
}

func (s *fileSocket) Read(p []byte) (int, error) {
	n, err := s.do(uring.Read(s.f.Fd(), p, s.roff))
	if err != nil {
		return 0, err
	}
	if n == 0 && len(p) > 0 {
		return 0, io.EOF
	}
	s.roff += uint64(n)
	return n, nil
}

func (s *fileSocket) Write(p []byte) (int, error) {
	n, err := s.do(uring.Write(s.f.Fd(), p, s.woff))
	if err != nil {
		return 0, err
	}
	s.woff += uint64(n)
	return n, nil
}

func (s *fileSocket) Shutdown() error { return nil }

func (s *fileSocket) Close() error {
	err := s.f.Close()
	s.ring.Close()
	return err
}
