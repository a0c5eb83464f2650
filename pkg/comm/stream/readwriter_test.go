package stream

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/rtt.go/pkg/arena"
	"github.com/robotalks/rtt.go/pkg/probe"
	"github.com/robotalks/rtt.go/pkg/rtt"
)

type channelReader struct {
	ch *rtt.Channel
}

func (r *channelReader) Read(p []byte) (int, error) {
	if n := r.ch.Read(p); n > 0 {
		return n, nil
	}
	return 0, io.EOF
}

func TestFraming(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.WritePacket([]byte("abc")))
	require.NoError(t, w.WritePacket(nil))
	require.Equal(t, []byte{3, 0, 0, 0, 'a', 'b', 'c', 0, 0, 0, 0}, buf.Bytes())

	r := NewReader(&buf)
	pkt, err := r.ReadPacket()
	require.NoError(t, err)
	require.Equal(t, []byte("abc"), pkt)
	pkt, err = r.ReadPacket()
	require.NoError(t, err)
	require.Empty(t, pkt)
	_, err = r.ReadPacket()
	require.Equal(t, io.EOF, err)
}

type failingWriter struct{ err error }

func (w *failingWriter) Write([]byte) (int, error) { return 0, w.err }

func TestWritePacketError(t *testing.T) {
	errDown := errors.New("link down")
	err := NewWriter(&failingWriter{err: errDown}).WritePacket([]byte("lost"))
	require.Equal(t, errDown, err)
}

func TestReaderLimits(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte{0, 0, 2, 0}))
	_, err := r.ReadPacket()
	require.EqualError(t, err, "packet too large: 131072 > 65536")

	r = NewReader(bytes.NewReader([]byte{5, 0, 0, 0, 1, 2}))
	_, err = r.ReadPacket()
	require.Equal(t, io.ErrUnexpectedEOF, err)
}

func TestPacketsThroughLocalChannel(t *testing.T) {
	ch, err := rtt.New(rtt.Config{Name: "pkt", BufferSize: 64})
	require.NoError(t, err)
	w, err := ch.TakeWriter()
	require.NoError(t, err)

	pw := NewWriter(w)
	require.NoError(t, pw.WritePacket([]byte("first")))
	require.NoError(t, pw.WritePacket([]byte("second")))

	pr := NewReader(&channelReader{ch: ch})
	for _, expect := range []string{"first", "second"} {
		pkt, err := pr.ReadPacket()
		require.NoError(t, err)
		require.Equal(t, expect, string(pkt))
	}
}

func TestPacketsThroughHost(t *testing.T) {
	if rtt.ForceNonBlocking {
		t.Skip("blocking writes disabled by build tag")
	}
	cfg := rtt.Config{Name: "pkt", BufferSize: 32}
	region := arena.NewFor(cfg)
	ch, err := region.Layout(cfg)
	require.NoError(t, err)
	w, err := ch.TakeWriter()
	require.NoError(t, err)
	host, err := probe.AttachRegion(region)
	require.NoError(t, err)

	pr, pw := io.Pipe()
	host.Sink = pw
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go host.Run(ctx)

	packets := [][]byte{
		[]byte("hello"),
		bytes.Repeat([]byte{0x5a}, 100),
		[]byte("bye"),
	}
	go func() {
		sw := NewWriter(w)
		for _, pkt := range packets {
			sw.WritePacket(pkt)
		}
	}()

	r := NewReader(pr)
	for _, expect := range packets {
		pkt, err := r.ReadPacket()
		require.NoError(t, err)
		require.Equal(t, expect, pkt)
	}
}
