package transport

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

// chunkSocket serves its input in chunks of at most step bytes and records
// what is written to it.
type chunkSocket struct {
	in       []byte
	step     int
	readErr  error
	written  [][]byte
	short    bool
	shutdown int
	closed   int
}

func (s *chunkSocket) Read(p []byte) (int, error) {
	if len(s.in) == 0 {
		if s.readErr != nil {
			return 0, s.readErr
		}
		return 0, io.EOF
	}
	n := min(len(p), s.step, len(s.in))
	copy(p, s.in[:n])
	s.in = s.in[n:]
	return n, nil
}

func (s *chunkSocket) Write(p []byte) (int, error) {
	if s.short {
		return len(p) / 2, nil
	}
	s.written = append(s.written, append([]byte(nil), p...))
	return len(p), nil
}

func (s *chunkSocket) Shutdown() error { s.shutdown++; return nil }
func (s *chunkSocket) Close() error    { s.closed++; return nil }

func newTestBuffer(in string, step, window int) (*Buffer, *chunkSocket) {
	s := &chunkSocket{in: []byte(in), step: step}
	return NewBuffer(NewEndpoint(s), window), s
}

func TestBuffer_ReadByteAcrossRefills(t *testing.T) {
	b, _ := newTestBuffer("hello world", 3, 4)
	var got []byte
	for {
		c, err := b.ReadByte()
		if errors.Is(err, ErrEndOfStream) {
			break
		}
		require.NoError(t, err)
		got = append(got, c)
	}
	require.Equal(t, "hello world", string(got))
	require.EqualValues(t, 11, b.Scanned())
}

func TestBuffer_ReadErrorIsIOError(t *testing.T) {
	boom := errors.New("boom")
	s := &chunkSocket{readErr: boom}
	b := NewBuffer(NewEndpoint(s), 8)

	_, err := b.ReadByte()
	var ioe *IOError
	require.ErrorAs(t, err, &ioe)
	require.Equal(t, "recv", ioe.Op)
	require.ErrorIs(t, err, boom)
	require.NotErrorIs(t, err, ErrEndOfStream)
}

func TestBuffer_PeekAndConsumeIf(t *testing.T) {
	b, _ := newTestBuffer("\r\nX", 1, 16)

	ok, err := b.PeekAndConsumeIf('\n')
	require.NoError(t, err)
	require.False(t, ok, "mismatch must not consume")

	ok, err = b.PeekAndConsumeIf('\r')
	require.NoError(t, err)
	require.True(t, ok)

	c, err := b.ReadByte()
	require.NoError(t, err)
	require.Equal(t, byte('\n'), c)

	ok, err = b.PeekAndConsumeIf('X')
	require.NoError(t, err)
	require.True(t, ok)

	_, err = b.PeekAndConsumeIf('Y')
	require.ErrorIs(t, err, ErrEndOfStream)
}

func TestBuffer_ReadExactSpansWindows(t *testing.T) {
	payload := "0123456789abcdefghijklmnopqrstuvwxyz"
	b, _ := newTestBuffer(payload+"!", 5, 4)

	first, err := b.ReadByte()
	require.NoError(t, err)
	require.Equal(t, byte('0'), first)

	got, err := b.ReadFull(len(payload) - 1)
	require.NoError(t, err)
	require.Equal(t, payload[1:], string(got))

	c, err := b.ReadByte()
	require.NoError(t, err)
	require.Equal(t, byte('!'), c)
}

func TestBuffer_ReadExactTruncated(t *testing.T) {
	b, _ := newTestBuffer("abc", 2, 4)
	err := b.ReadExact(make([]byte, 10))
	require.ErrorIs(t, err, ErrEndOfStream)
}

func TestBuffer_ReadN(t *testing.T) {
	b, _ := newTestBuffer("0123456789tail", 3, 4)
	got, err := b.ReadN(10)
	require.NoError(t, err)
	require.Equal(t, "0123456789", string(got))
	require.EqualValues(t, 10, b.Scanned())

	got, err = b.ReadN(1 << 40)
	require.ErrorIs(t, err, ErrEndOfStream)
	require.Equal(t, "tail", string(got))
	require.LessOrEqual(t, cap(got), 64)

	got, err = b.ReadN(0)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestBuffer_ReadAll(t *testing.T) {
	b, _ := newTestBuffer("some body bytes", 4, 4)
	_, err := b.ReadByte()
	require.NoError(t, err)
	rest, err := b.ReadAll()
	require.NoError(t, err)
	require.Equal(t, "ome body bytes", string(rest))
}

func TestBuffer_WriteIsUnbuffered(t *testing.T) {
	b, s := newTestBuffer("", 1, 4)
	_, err := b.WriteString("one")
	require.NoError(t, err)
	_, err = b.Write([]byte("two"))
	require.NoError(t, err)
	require.Equal(t, [][]byte{[]byte("one"), []byte("two")}, s.written)
}

func TestBuffer_ShortWriteFails(t *testing.T) {
	b, s := newTestBuffer("", 1, 4)
	s.short = true
	_, err := b.WriteString("abcdef")
	var ioe *IOError
	require.ErrorAs(t, err, &ioe)
	require.ErrorIs(t, err, io.ErrShortWrite)
}

func TestEndpoint_LastReleaseClosesOnce(t *testing.T) {
	s := &chunkSocket{}
	ep := NewEndpoint(s)
	first := NewBuffer(ep, 8)
	second := NewBuffer(ep.Share(), 8)
	require.Equal(t, 2, ep.Refs())

	require.NoError(t, first.Close())
	require.NoError(t, first.Close())
	require.Zero(t, s.closed)

	require.NoError(t, second.Close())
	require.Equal(t, 1, s.shutdown)
	require.Equal(t, 1, s.closed)
}
