package probe

import (
	"context"
	"io"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/rtt.go/pkg/arena"
	"github.com/robotalks/rtt.go/pkg/rtt"
)

// Memory is the host's out-of-band view of device memory.
type Memory interface {
	ReadWord(addr uintptr) (uintptr, error)
	WriteWord(addr, v uintptr) error
	ReadAt(p []byte, addr uintptr) error
}

// Finder searches device memory for a byte pattern.
type Finder interface {
	Find(pattern []byte) (uintptr, error)
}

// DefaultInterval is the default polling interval of Run.
const DefaultInterval = 10 * time.Millisecond

// Host consumes an up-channel through Memory.
type Host struct {
	// Sink receives drained bytes in Run.
	Sink io.Writer
	// Interval is how long Run waits when the ring is empty.
	Interval time.Duration

	mem      Memory
	cb       uintptr
	hdr      uintptr
	buffer   uintptr
	size     uintptr
	attached bool
}

// Locate finds the control block address.
func Locate(f Finder) (uintptr, error) {
	return f.Find(arena.ID[:])
}

// InspectRegion locates the control block in r and inspects it.
func InspectRegion(r *arena.Region) (*Host, error) {
	cb, err := Locate(r)
	if err != nil {
		return nil, err
	}
	return Inspect(r, cb)
}

// AttachRegion locates the control block in r and attaches to it.
func AttachRegion(r *arena.Region) (*Host, error) {
	cb, err := Locate(r)
	if err != nil {
		return nil, err
	}
	return Attach(r, cb)
}

// Inspect parses and validates the up channel of the control block at cb
// without writing to device memory. The returned Host is detached: it can
// read the name and state, and Reattach turns it into a consumer.
func Inspect(mem Memory, cb uintptr) (*Host, error) {
	h := &Host{
		Interval: DefaultInterval,
		mem:      mem,
		cb:       cb,
		hdr:      cb + arena.OffsetUpChannel,
	}
	maxUp, err := mem.ReadWord(cb + arena.OffsetMaxUp)
	if err != nil {
		return nil, err
	}
	if maxUp == 0 {
		return nil, ErrNoUpChannel
	}
	if h.buffer, err = h.word(rtt.OffsetBuffer); err != nil {
		return nil, err
	}
	if h.size, err = h.word(rtt.OffsetSize); err != nil {
		return nil, err
	}
	if h.size == 0 {
		return nil, &CorruptError{Field: "size"}
	}
	if _, err = h.State(); err != nil {
		return nil, err
	}
	return h, nil
}

// Attach parses the up channel of the control block at cb and switches it
// to blocking mode, which tells the device a host is consuming.
func Attach(mem Memory, cb uintptr) (*Host, error) {
	h, err := Inspect(mem, cb)
	if err != nil {
		return nil, err
	}
	if err = h.setMode(rtt.ModeBlockIfFull); err != nil {
		return nil, err
	}
	h.attached = true
	glog.Infof("probe: attached to up channel at %#x, ring %d bytes at %#x", h.hdr, h.size, h.buffer)
	return h, nil
}

// Detach switches the channel back to non-blocking mode so the device stops
// waiting for the host. It does nothing unless this Host set the blocking
// mode through Attach or Reattach.
func (h *Host) Detach() error {
	if !h.attached {
		return nil
	}
	if err := h.setMode(rtt.ModeNonBlockingTrim); err != nil {
		return err
	}
	h.attached = false
	glog.Infof("probe: detached from up channel at %#x", h.hdr)
	return nil
}

// Reattach switches a detached channel back to blocking mode.
func (h *Host) Reattach() error {
	if h.attached {
		return nil
	}
	if _, err := h.State(); err != nil {
		return err
	}
	if err := h.setMode(rtt.ModeBlockIfFull); err != nil {
		return err
	}
	h.attached = true
	glog.Infof("probe: reattached to up channel at %#x", h.hdr)
	return nil
}

// Attached reports whether the host holds the channel in blocking mode.
func (h *Host) Attached() bool {
	return h.attached
}

// ControlBlock returns the address of the control block.
func (h *Host) ControlBlock() uintptr {
	return h.cb
}

// Size returns the ring capacity.
func (h *Host) Size() int {
	return int(h.size)
}

// Name reads the channel label.
func (h *Host) Name() (string, error) {
	addr, err := h.word(rtt.OffsetName)
	if err != nil {
		return "", err
	}
	name := make([]byte, 0, rtt.MaxNameLen)
	var b [1]byte
	for i := 0; i < rtt.MaxNameLen; i++ {
		if err = h.mem.ReadAt(b[:], addr+uintptr(i)); err != nil {
			return "", err
		}
		if b[0] == 0 {
			break
		}
		name = append(name, b[0])
	}
	return string(name), nil
}

// State reads a snapshot of the channel cursors.
func (h *Host) State() (st rtt.State, err error) {
	st.Size = h.size
	if st.Write, err = h.word(rtt.OffsetWrite); err != nil {
		return
	}
	if st.Read, err = h.word(rtt.OffsetRead); err != nil {
		return
	}
	var flags uintptr
	if flags, err = h.word(rtt.OffsetFlags); err != nil {
		return
	}
	st.Mode = rtt.Mode(flags) & rtt.ModeMask
	if st.Write >= st.Size {
		err = &CorruptError{Field: "write", Value: st.Write, Size: st.Size}
	} else if st.Read >= st.Size {
		err = &CorruptError{Field: "read", Value: st.Read, Size: st.Size}
	}
	return
}

// Poll copies buffered bytes into p and advances the read cursor. It never
// waits and returns 0 when the ring is empty.
func (h *Host) Poll(p []byte) (int, error) {
	st, err := h.State()
	if err != nil {
		return 0, err
	}
	n := st.Used()
	if l := uintptr(len(p)); n > l {
		n = l
	}
	if n == 0 {
		return 0, nil
	}
	if st.Read+n > st.Size {
		pivot := st.Size - st.Read
		if err = h.mem.ReadAt(p[:pivot], h.buffer+st.Read); err != nil {
			return 0, err
		}
		if err = h.mem.ReadAt(p[pivot:n], h.buffer); err != nil {
			return 0, err
		}
	} else if err = h.mem.ReadAt(p[:n], h.buffer+st.Read); err != nil {
		return 0, err
	}
	if err = h.mem.WriteWord(h.hdr+rtt.OffsetRead, (st.Read+n)%st.Size); err != nil {
		return 0, err
	}
	return int(n), nil
}

// Run drains the channel into Sink until ctx is done.
func (h *Host) Run(ctx context.Context) error {
	interval := h.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	buf := make([]byte, h.size)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := h.Poll(buf)
		if err != nil {
			return err
		}
		if n > 0 {
			glog.V(4).Infof("probe: drained %d bytes", n)
			if h.Sink != nil {
				if _, err = h.Sink.Write(buf[:n]); err != nil {
					return err
				}
			}
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (h *Host) word(off uintptr) (uintptr, error) {
	return h.mem.ReadWord(h.hdr + off)
}

func (h *Host) setMode(mode rtt.Mode) error {
	flags, err := h.word(rtt.OffsetFlags)
	if err != nil {
		return err
	}
	flags = flags&^uintptr(rtt.ModeMask) | uintptr(mode)
	return h.mem.WriteWord(h.hdr+rtt.OffsetFlags, flags)
}
