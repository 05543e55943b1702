package httpd

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/require"

	"dqx0.com/go/httpd/codec"
	"dqx0.com/go/httpd/transport"
)

func TestClient_Do(t *testing.T) {
	c, s := scriptClient("HTTP/1.1 200 OK\r\nContent-Length: 5\r\nX-List: a, b\r\n\r\nhelloEXTRA")
	r := NewRequest("up")
	r.Method = "POST"
	r.Path = "/p"
	r.Body = []byte("data")

	rep, err := c.Do(r)
	require.NoError(t, err)
	require.Equal(t, "POST /p HTTP/1.1\r\nhost: up\r\ncontent-length: 4\r\n\r\ndata", s.out.String())
	require.Equal(t, "HTTP/1.1 200 OK", rep.Head)
	require.Equal(t, "200", rep.Code())
	require.Equal(t, "hello", string(rep.Body))
	require.Equal(t, []string{"a", "b"}, rep.Header.Values("x-list"))
}

func TestClient_ReadReplyUntilClose(t *testing.T) {
	c, _ := scriptClient("HTTP/1.0 200 OK\r\nServer: old\r\n\r\nall of the rest")
	rep, err := c.ReadReply()
	require.NoError(t, err)
	require.Equal(t, "all of the rest", string(rep.Body))
}

func TestClient_ReadReplyNoBody(t *testing.T) {
	c, _ := scriptClient("HTTP/1.1 204 No Content\r\n\r\nHTTP/1.1 304 Not Modified\r\n\r\n")
	rep, err := c.ReadReply()
	require.NoError(t, err)
	require.Empty(t, rep.Body)
	rep, err = c.ReadReply()
	require.NoError(t, err)
	require.Equal(t, "304", rep.Code())
}

func TestClient_TruncatedBody(t *testing.T) {
	c, _ := scriptClient("HTTP/1.1 200 OK\r\nContent-Length: 10\r\n\r\nshort")
	_, err := c.ReadReply()
	var pe *ProtocolError
	require.True(t, errors.As(err, &pe))
}

func TestClient_ClosedBeforeReply(t *testing.T) {
	c, _ := scriptClient("")
	_, err := c.ReadReply()
	require.ErrorIs(t, err, transport.ErrEndOfStream)
}

func TestCheckReplyHead(t *testing.T) {
	require.NoError(t, CheckReplyHead("HTTP/1.1 200 OK", "200"))

	err := CheckReplyHead("HTTP/1.1 503 Service Unavailable", "200")
	var se *ResponseStatusError
	require.True(t, errors.As(err, &se))
	require.Equal(t, "503", se.Code)
	require.Equal(t, "200", se.Want)

	err = CheckReplyHead("garbage", "200")
	require.True(t, errors.As(err, &se))
	require.Empty(t, se.Code)
}

func TestClient_Post(t *testing.T) {
	c, s := scriptClient("HTTP/1.1 200 OK\r\nContent-Length: 0\r\n\r\n")
	r := NewRequest("up")
	r.Method = "POST"
	r.SetField("Content-Length", "6")

	w, err := c.Post(r)
	require.NoError(t, err)
	_, err = w.Write([]byte("abc"))
	require.NoError(t, err)
	_, err = w.Write([]byte("def"))
	require.NoError(t, err)
	rep, err := w.Finish()
	require.NoError(t, err)
	require.Equal(t, "200", rep.Code())
	require.Equal(t, "POST / HTTP/1.1\r\nhost: up\r\ncontent-length: 6\r\n\r\nabcdef", s.out.String())
}

func TestClient_PostChunked(t *testing.T) {
	c, s := scriptClient("HTTP/1.1 200 OK\r\nContent-Length: 2\r\n\r\nok")
	r := NewRequest("up")
	r.Method = "POST"

	w, err := c.PostChunked(r)
	require.NoError(t, err)
	_, err = w.Write([]byte("hello"))
	require.NoError(t, err)
	_, err = w.Write(nil)
	require.NoError(t, err)
	_, err = w.Write([]byte(" world, again"))
	require.NoError(t, err)
	rep, err := w.Finish()
	require.NoError(t, err)
	require.Equal(t, "ok", string(rep.Body))
	require.Equal(t,
		"POST / HTTP/1.1\r\nhost: up\r\ntransfer-encoding: chunked\r\n\r\n"+
			"5\r\nhello\r\nd\r\n world, again\r\n0\r\n\r\n", s.out.String())
}

type report struct {
	Hits int `json:"hits"`
}

func (report) PayloadTag() string { return "report/1" }

func TestClient_Serialized(t *testing.T) {
	a := startHTTP(t, HandlerFunc(func(w *Responder, r *Request) {
		if r.Method == "POST" {
			var in report
			if err := codec.Decode(r.Body, &in); err != nil {
				w.SetStatus(400, "Bad Request")
				return
			}
			w.WriteString("stored")
			return
		}
		out, err := codec.Encode(report{Hits: len(r.Query("poison"))})
		if err != nil {
			w.SetStatus(500, "Internal Server Error")
			return
		}
		w.SetContentType(codec.ContentType, "")
		w.Write(out)
	}))
	c := dialClient(t, a)

	var got report
	r := NewRequest("x")
	r.SetQuery("id", "1")
	_, err := c.GetSerialized(r, "&poison=abc", &got)
	require.NoError(t, err)
	require.Equal(t, 3, got.Hits)

	post := NewRequest("x")
	post.Method = "POST"
	rep, err := c.PostSerialized(post, report{Hits: 9})
	require.NoError(t, err)
	require.Equal(t, "stored", string(rep.Body))

	var wrong struct{ Hits int }
	_, err = c.GetSerialized(NewRequest("x"), "", &wrong)
	var vm *codec.VersionMismatch
	require.True(t, errors.As(err, &vm))
}

func TestDial_ConnectionError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	_, err = Dial(context.Background(), Address{Host: "127.0.0.1", Port: port}, transport.Options{})
	var ce *transport.ConnectionError
	require.True(t, errors.As(err, &ce))
}

func TestClient_HugeDeclaredLengthTruncated(t *testing.T) {
	c, _ := scriptClient("HTTP/1.1 200 OK\r\nContent-Length: 999999999999999\r\n\r\nabc")
	_, err := c.ReadReply()
	var pe *ProtocolError
	require.True(t, errors.As(err, &pe))
	require.Equal(t, "truncated body", pe.Msg)
}

func TestClient_PeerClosed(t *testing.T) {
	c, _ := scriptClient("HTTP/1.1 200 OK\r\nContent-Length: 2\r\n\r\nok")
	rep, err := c.ReadReply()
	require.NoError(t, err)
	require.False(t, rep.PeerClosed())
}
