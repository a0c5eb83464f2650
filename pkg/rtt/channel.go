package rtt

import (
	"runtime"
	"sync/atomic"
	"unsafe"
)

// Channel is the device side of an up-channel.
type Channel struct {
	hdr  *Header
	name []byte
	buf  []byte
	size uintptr

	taken atomic.Bool

	// users counts calls touching the header or ring; retired turns them
	// into no-ops so the memory can be released.
	users   atomic.Int32
	retired atomic.Bool
}

// New allocates the descriptor, name and ring and builds a channel.
func New(cfg Config) (*Channel, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return Init(new(Header), make([]byte, cfg.NameSize()), make([]byte, cfg.BufferSize), cfg)
}

// Init builds a channel over caller-provided storage. hdr is where the
// descriptor lives, name receives the NUL-terminated label and the first
// cfg.BufferSize bytes of buf become the ring. The storage must stay
// reachable and must not move for the lifetime of the channel.
func Init(hdr *Header, name, buf []byte, cfg Config) (*Channel, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(name) < cfg.NameSize() {
		return nil, &LayoutError{What: "name buffer", Need: cfg.NameSize(), Have: len(name)}
	}
	if len(buf) < cfg.BufferSize {
		return nil, &LayoutError{What: "ring buffer", Need: cfg.BufferSize, Have: len(buf)}
	}
	name = name[:cfg.NameSize()]
	copy(name, cfg.Name)
	name[len(cfg.Name)] = 0

	c := &Channel{
		hdr:  hdr,
		name: name,
		buf:  buf[:cfg.BufferSize],
		size: uintptr(cfg.BufferSize),
	}
	hdr.name = uintptr(unsafe.Pointer(&name[0]))
	hdr.buffer = uintptr(unsafe.Pointer(&c.buf[0]))
	hdr.size = c.size
	hdr.write.Store(0)
	hdr.read.Store(0)
	hdr.flags.Store(uintptr(cfg.Mode & ModeMask))
	return c, nil
}

// Name returns the channel label.
func (c *Channel) Name() string {
	return string(c.name[:len(c.name)-1])
}

// Size returns the ring capacity.
func (c *Channel) Size() int {
	return int(c.size)
}

// Header returns the shared descriptor.
func (c *Channel) Header() *Header {
	return c.hdr
}

// Mode returns the current channel mode.
func (c *Channel) Mode() Mode {
	return Mode(c.hdr.flags.Load()) & ModeMask
}

// HostConnected reports whether a host is consuming the channel.
// A host attaches by switching the channel to ModeBlockIfFull.
func (c *Channel) HostConnected() bool {
	return c.Mode().Blocking()
}

// State returns a snapshot of the cursors.
func (c *Channel) State() State {
	return State{
		Size:  c.size,
		Write: c.hdr.write.Load(),
		Read:  c.hdr.read.Load(),
		Mode:  c.Mode(),
	}
}

// TakeWriter hands out the channel's only Writer. It fails with
// ErrWriterTaken until the outstanding Writer is released.
func (c *Channel) TakeWriter() (*Writer, error) {
	if !c.taken.CompareAndSwap(false, true) {
		return nil, ErrWriterTaken
	}
	return &Writer{ch: c}, nil
}

// Read copies buffered bytes into p and returns how many were consumed.
//
// It is meant for draining the channel on the device when no host is
// attached, and always returns 0 while one is. Concurrent callers race to
// advance the read cursor: at most one of them wins per race window, and
// when no writer interferes at least one does. Losers get 0 and the bytes
// stay in the ring.
func (c *Channel) Read(p []byte) int {
	if !c.enter() {
		return 0
	}
	defer c.leave()
	if c.HostConnected() {
		return 0
	}

	read := c.hdr.read.Load()
	write := c.hdr.write.Load()
	n := Occupied(read, write, c.size)
	if l := uintptr(len(p)); n > l {
		n = l
	}

	var next uintptr
	if read+n > c.size {
		pivot := c.size - read
		copy(p, c.buf[read:])
		copy(p[pivot:n], c.buf[:n-pivot])
		next = n - pivot
	} else {
		copy(p[:n], c.buf[read:read+n])
		next = (read + n) % c.size
	}

	if !c.hdr.read.CompareAndSwap(read, next) {
		return 0
	}
	return int(n)
}

// Flush spins until the host has consumed everything written so far.
// It returns immediately when no host is attached. There is no timeout;
// only Retire ends a wait the host never satisfies.
func (c *Channel) Flush() {
	if !c.enter() {
		return
	}
	defer c.leave()
	if !c.HostConnected() {
		return
	}
	for !c.retired.Load() && c.hdr.read.Load() != c.hdr.write.Load() {
		spin()
	}
}

// Retire stops all use of the channel memory. Pending and later calls to
// Read, Flush and the Writer return without touching the header or ring,
// dropping unwritten bytes. Retire returns once no call is inside the
// memory, after which the storage may be released. State, Mode and
// HostConnected read the header directly and must not be called after that.
func (c *Channel) Retire() {
	c.retired.Store(true)
	for c.users.Load() != 0 {
		spin()
	}
}

// Retired reports whether Retire was called.
func (c *Channel) Retired() bool {
	return c.retired.Load()
}

// enter registers a call that touches the memory. It fails once retired.
func (c *Channel) enter() bool {
	c.users.Add(1)
	if c.retired.Load() {
		c.users.Add(-1)
		return false
	}
	return true
}

func (c *Channel) leave() {
	c.users.Add(-1)
}

func (c *Channel) blockingWrite(p []byte) int {
	if len(p) == 0 {
		return 0
	}
	read := c.hdr.read.Load()
	write := c.hdr.write.Load()
	n := available(read, write, c.size)
	if n == 0 {
		return 0
	}
	return c.writeAt(p, write, n)
}

func (c *Channel) nonblockingWrite(p []byte) int {
	// at most one wrap per attempt
	return c.writeAt(p, c.hdr.write.Load(), c.size)
}

// writeAt copies up to limit bytes of p starting at cursor and publishes
// the new write cursor after the copy.
func (c *Channel) writeAt(p []byte, cursor, limit uintptr) int {
	n := uintptr(len(p))
	if n > limit {
		n = limit
	}
	if cursor+n > c.size {
		pivot := c.size - cursor
		copy(c.buf[cursor:], p[:pivot])
		copy(c.buf, p[pivot:n])
	} else {
		copy(c.buf[cursor:cursor+n], p[:n])
	}
	c.hdr.write.Store((cursor + n) % c.size)
	return int(n)
}

// spin is the busy-wait step. It yields the processor but never parks:
// the event that ends the wait happens outside this process' view.
func spin() {
	runtime.Gosched()
}
