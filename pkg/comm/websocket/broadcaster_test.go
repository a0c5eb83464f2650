package websocket

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"
)

func waitClients(t *testing.T, b *Broadcaster, n int) {
	deadline := time.Now().Add(5 * time.Second)
	for b.Clients() != n {
		require.True(t, time.Now().Before(deadline), "waiting for %d clients", n)
		time.Sleep(time.Millisecond)
	}
}

func dial(t *testing.T, srv *httptest.Server) *ReadWriter {
	conn, err := websocket.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), "", "http://localhost/")
	require.NoError(t, err)
	return New(conn)
}

func TestBroadcast(t *testing.T) {
	b := NewBroadcaster()
	srv := httptest.NewServer(b)
	defer srv.Close()

	c1, c2 := dial(t, srv), dial(t, srv)
	waitClients(t, b, 2)

	buf := []byte("hello")
	n, err := b.Write(buf)
	require.NoError(t, err)
	require.Equal(t, 5, n)
	// the broadcaster keeps its own copy
	copy(buf, "XXXXX")

	for _, c := range []*ReadWriter{c1, c2} {
		pkt, err := c.ReadPacket()
		require.NoError(t, err)
		require.Equal(t, "hello", string(pkt))
	}

	(*websocket.Conn)(c1).Close()
	waitClients(t, b, 1)

	_, err = b.Write([]byte("again"))
	require.NoError(t, err)
	pkt, err := c2.ReadPacket()
	require.NoError(t, err)
	require.Equal(t, "again", string(pkt))
	(*websocket.Conn)(c2).Close()
	waitClients(t, b, 0)
}

func TestWriteWithoutClients(t *testing.T) {
	b := NewBroadcaster()
	n, err := b.Write([]byte("nobody"))
	require.NoError(t, err)
	require.Equal(t, 6, n)
	n, err = b.Write(nil)
	require.NoError(t, err)
	require.Zero(t, n)
}
