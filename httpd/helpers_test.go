package httpd

import (
	"bytes"
	"net"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"dqx0.com/go/httpd/transport"
)

// scriptSocket replays a canned peer and records everything written to it.
type scriptSocket struct {
	in  *strings.Reader
	out bytes.Buffer
}

func (s *scriptSocket) Read(p []byte) (int, error)  { return s.in.Read(p) }
func (s *scriptSocket) Write(p []byte) (int, error) { return s.out.Write(p) }
func (s *scriptSocket) Shutdown() error             { return nil }
func (s *scriptSocket) Close() error                { return nil }

func scriptClient(peer string) (*Client, *scriptSocket) {
	s := &scriptSocket{in: strings.NewReader(peer)}
	b := transport.NewBuffer(transport.NewEndpoint(s), 16)
	return NewClient(b, Address{Host: "script", Port: 1}), s
}

// startServer serves h on a loopback port until the test ends.
func startServer(t *testing.T, s *Server) Address {
	t.Helper()
	ln, err := transport.Listen("127.0.0.1", 0)
	require.NoError(t, err)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.Serve(ln)
	}()
	t.Cleanup(func() {
		_ = s.Close()
		<-done
	})
	return Address{Host: "127.0.0.1", Port: ln.Addr().(*net.TCPAddr).Port}
}

func startHTTP(t *testing.T, h Handler) Address {
	t.Helper()
	return startServer(t, &Server{Handler: &HTTP{Handler: h}})
}
