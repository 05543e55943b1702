package transport

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDialRing_RoundTrip(t *testing.T) {
	ln, err := Listen("127.0.0.1", 0)
	require.NoError(t, err)
	defer ln.Close()
	accepted := acceptOne(t, ln)

	cli, err := DialRing(context.Background(), "127.0.0.1", ln.Addr().(*net.TCPAddr).Port, Options{})
	if err != nil {
		t.Skipf("io_uring unavailable: %v", err)
	}
	defer cli.Close()

	sc := <-accepted
	require.NotNil(t, sc)
	srv := Wrap(sc, Options{})
	defer srv.Close()

	_, err = cli.WriteString("ring")
	require.NoError(t, err)
	got, err := srv.ReadFull(4)
	require.NoError(t, err)
	require.Equal(t, "ring", string(got))

	_, err = srv.WriteString("back")
	require.NoError(t, err)
	got, err = cli.ReadFull(4)
	require.NoError(t, err)
	require.Equal(t, "back", string(got))
}

func TestOpenFileRing_Replay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture")
	require.NoError(t, os.WriteFile(path, []byte("GET / HTTP/1.1\r\n\r\n"), 0o600))

	b, err := OpenFileRing(path, os.O_RDONLY, 0, Options{BufferSize: 5})
	if err != nil {
		t.Skipf("io_uring unavailable: %v", err)
	}
	defer b.Close()

	all, err := b.ReadAll()
	require.NoError(t, err)
	require.Equal(t, "GET / HTTP/1.1\r\n\r\n", string(all))
}
