package transport

import (
	"context"
	"errors"
	"net"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func acceptOne(t *testing.T, ln net.Listener) <-chan net.Conn {
	t.Helper()
	ch := make(chan net.Conn, 1)
	go func() {
		c, err := ln.Accept()
		if err != nil {
			close(ch)
			return
		}
		ch <- c
	}()
	return ch
}

func TestDial_TCPRoundTrip(t *testing.T) {
	ln, err := Listen("127.0.0.1", 0)
	require.NoError(t, err)
	defer ln.Close()
	accepted := acceptOne(t, ln)

	port := ln.Addr().(*net.TCPAddr).Port
	cli, err := Dial(context.Background(), "127.0.0.1", port, Options{RecvTimeout: 2 * time.Second})
	require.NoError(t, err)
	defer cli.Close()

	sc := <-accepted
	require.NotNil(t, sc)
	srv := Wrap(sc, Options{BufferSize: 8})
	defer srv.Close()

	_, err = cli.WriteString("ping\n")
	require.NoError(t, err)
	got, err := srv.ReadFull(5)
	require.NoError(t, err)
	require.Equal(t, "ping\n", string(got))

	require.Equal(t, cli.LocalAddr().String(), srv.RemoteAddr().String())
	require.NoError(t, cli.Endpoint().CheckPeer())
}

func TestDial_RefusedIsConnectionError(t *testing.T) {
	ln, err := Listen("127.0.0.1", 0)
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	_, err = Dial(context.Background(), "127.0.0.1", port, Options{DialTimeout: time.Second})
	var ce *ConnectionError
	require.ErrorAs(t, err, &ce)
	require.Equal(t, net.JoinHostPort("127.0.0.1", strconv.Itoa(port)), ce.Addr)
	var ioe *IOError
	require.ErrorAs(t, err, &ioe)
	require.Equal(t, "connect", ioe.Op)
}

func TestCheckPeer_TCPPeerClosed(t *testing.T) {
	ln, err := Listen("127.0.0.1", 0)
	require.NoError(t, err)
	defer ln.Close()
	accepted := acceptOne(t, ln)

	cli, err := Dial(context.Background(), "127.0.0.1", ln.Addr().(*net.TCPAddr).Port, Options{})
	require.NoError(t, err)
	defer cli.Close()

	sc := <-accepted
	require.NotNil(t, sc)
	require.NoError(t, sc.Close())

	require.Eventually(t, func() bool {
		return errors.Is(cli.Endpoint().CheckPeer(), ErrPeerClosed)
	}, 2*time.Second, 10*time.Millisecond)

	_, err = cli.ReadByte()
	require.ErrorIs(t, err, ErrEndOfStream)
}

func TestDialUnix_PeerClosed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.sock")
	ln, err := ListenUnix(path)
	require.NoError(t, err)
	defer ln.Close()
	accepted := acceptOne(t, ln)

	cli, err := DialUnix(context.Background(), path, Options{})
	require.NoError(t, err)
	defer cli.Close()

	sc := <-accepted
	require.NotNil(t, sc)
	require.NoError(t, cli.Endpoint().CheckPeer())

	require.NoError(t, sc.Close())
	require.Eventually(t, func() bool {
		return errors.Is(cli.Endpoint().CheckPeer(), ErrPeerClosed)
	}, 2*time.Second, 10*time.Millisecond)
}

func TestListenUnix_RemovesStaleSocket(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stale.sock")
	first, err := ListenUnix(path)
	require.NoError(t, err)
	// Leave the file behind, as a crashed process would.
	first.(*net.UnixListener).SetUnlinkOnClose(false)
	require.NoError(t, first.Close())

	second, err := ListenUnix(path)
	require.NoError(t, err)
	require.NoError(t, second.Close())
}
