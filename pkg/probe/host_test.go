package probe

import (
	"bytes"
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/rtt.go/pkg/arena"
	"github.com/robotalks/rtt.go/pkg/rtt"
)

type testDevice struct {
	region *arena.Region
	ch     *rtt.Channel
	w      *rtt.Writer
}

func newTestDevice(t *testing.T, size int) *testDevice {
	cfg := rtt.Config{Name: "defmt", BufferSize: size, Mode: rtt.DefaultMode}
	d := &testDevice{region: arena.NewFor(cfg)}
	var err error
	d.ch, err = d.region.Layout(cfg)
	require.NoError(t, err)
	d.w, err = d.ch.TakeWriter()
	require.NoError(t, err)
	return d
}

func (d *testDevice) attach(t *testing.T) *Host {
	h, err := AttachRegion(d.region)
	require.NoError(t, err)
	return h
}

func skipIfForcedNonBlocking(t *testing.T) {
	if rtt.ForceNonBlocking {
		t.Skip("blocking writes disabled by build tag")
	}
}

func pattern(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i*31 + 7)
	}
	return b
}

func TestAttachDetach(t *testing.T) {
	d := newTestDevice(t, 16)
	require.False(t, d.ch.HostConnected())

	h := d.attach(t)
	require.True(t, h.Attached())
	require.True(t, d.ch.HostConnected())
	require.Equal(t, 16, h.Size())
	require.Equal(t, d.region.ControlBlock(), h.ControlBlock())

	name, err := h.Name()
	require.NoError(t, err)
	require.Equal(t, "defmt", name)

	// local reads are locked out while the host owns the read cursor
	d.w.WriteAll([]byte{1, 2, 3})
	require.Equal(t, 0, d.ch.Read(make([]byte, 3)))

	require.NoError(t, h.Detach())
	require.False(t, h.Attached())
	require.False(t, d.ch.HostConnected())
	require.Equal(t, rtt.ModeNonBlockingTrim, d.ch.Mode())
	require.Equal(t, 3, d.ch.Read(make([]byte, 3)))
	require.NoError(t, h.Detach())

	require.NoError(t, h.Reattach())
	require.True(t, h.Attached())
	require.True(t, d.ch.HostConnected())
	require.NoError(t, h.Reattach())
}

func TestInspectLeavesModeAlone(t *testing.T) {
	d := newTestDevice(t, 16)
	h, err := InspectRegion(d.region)
	require.NoError(t, err)
	require.False(t, h.Attached())
	require.False(t, d.ch.HostConnected())
	name, err := h.Name()
	require.NoError(t, err)
	require.Equal(t, "defmt", name)

	owner := d.attach(t)
	h, err = InspectRegion(d.region)
	require.NoError(t, err)
	require.False(t, h.Attached())
	require.NoError(t, h.Detach())
	require.True(t, d.ch.HostConnected())
	require.True(t, owner.Attached())

	st, err := h.State()
	require.NoError(t, err)
	require.Equal(t, rtt.ModeBlockIfFull, st.Mode)
}

func TestAttachErrors(t *testing.T) {
	_, err := AttachRegion(arena.New(256))
	require.Equal(t, arena.ErrNotFound, err)

	d := newTestDevice(t, 16)
	cb := d.region.ControlBlock()
	require.NoError(t, d.region.WriteWord(cb+arena.OffsetMaxUp, 0))
	_, err = Attach(d.region, cb)
	require.Equal(t, ErrNoUpChannel, err)

	d = newTestDevice(t, 16)
	cb = d.region.ControlBlock()
	require.NoError(t, d.region.WriteWord(cb+arena.OffsetUpChannel+rtt.OffsetWrite, 16))
	_, err = Attach(d.region, cb)
	require.IsType(t, &CorruptError{}, err)
	require.False(t, d.ch.HostConnected())
}

func TestPoll(t *testing.T) {
	d := newTestDevice(t, 8)
	h := d.attach(t)

	buf := make([]byte, 8)
	n, err := h.Poll(buf)
	require.NoError(t, err)
	require.Zero(t, n)

	d.w.WriteAll([]byte{1, 2, 3, 4, 5, 6})
	n, err = h.Poll(buf[:4])
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3, 4}, buf[:n])

	// wraps: cursor 6, two bytes to the end then four from the start
	d.w.WriteAll([]byte{7, 8, 9, 10})
	n, err = h.Poll(buf)
	require.NoError(t, err)
	require.Equal(t, []byte{5, 6, 7, 8, 9, 10}, buf[:n])

	st, err := h.State()
	require.NoError(t, err)
	require.EqualValues(t, 2, st.Read)
	require.EqualValues(t, 2, st.Write)
	require.Equal(t, rtt.ModeBlockIfFull, st.Mode)
	require.Equal(t, d.ch.State(), st)
}

func TestPollCorrupt(t *testing.T) {
	d := newTestDevice(t, 8)
	h := d.attach(t)
	require.NoError(t, d.region.WriteWord(h.ControlBlock()+arena.OffsetUpChannel+rtt.OffsetRead, 9))
	_, err := h.Poll(make([]byte, 8))
	require.EqualError(t, err, "corrupt channel: read=9 (size 8)")
}

func TestBlockingWriterWaitsForHost(t *testing.T) {
	skipIfForcedNonBlocking(t)
	d := newTestDevice(t, 16)
	h := d.attach(t)
	d.w.WriteAll(pattern(15))

	var done atomic.Bool
	go func() {
		d.w.WriteAll([]byte{0xff})
		done.Store(true)
	}()
	time.Sleep(20 * time.Millisecond)
	require.False(t, done.Load())
	require.EqualValues(t, 15, d.ch.State().Used())

	buf := make([]byte, 4)
	n, err := h.Poll(buf)
	require.NoError(t, err)
	require.Equal(t, pattern(4), buf[:n])
	for !done.Load() {
		time.Sleep(time.Millisecond)
	}
	require.EqualValues(t, 12, d.ch.State().Used())
}

func TestRunStreamsEverything(t *testing.T) {
	skipIfForcedNonBlocking(t)
	d := newTestDevice(t, 16)
	h := d.attach(t)
	h.Interval = time.Millisecond
	var sink bytes.Buffer
	h.Sink = &sink

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- h.Run(ctx) }()

	data := pattern(1000)
	for i := 0; i < len(data); i += 37 {
		end := i + 37
		if end > len(data) {
			end = len(data)
		}
		d.w.WriteAll(data[i:end])
	}
	d.w.Flush()
	require.EqualValues(t, 0, d.ch.State().Used())

	cancel()
	require.Equal(t, context.Canceled, <-errCh)
	require.Equal(t, data, sink.Bytes())
}

func TestFlushWaitsForHost(t *testing.T) {
	d := newTestDevice(t, 16)
	h := d.attach(t)
	d.w.WriteAll([]byte("flush"))

	var polled atomic.Bool
	go func() {
		time.Sleep(50 * time.Millisecond)
		polled.Store(true)
		h.Poll(make([]byte, 16))
	}()
	start := time.Now()
	d.w.Flush()
	require.True(t, polled.Load())
	require.True(t, time.Since(start) >= 50*time.Millisecond)
}
