package arena

import (
	"bytes"
	"os"
	"sync/atomic"
	"unsafe"

	"github.com/golang/glog"

	"github.com/robotalks/rtt.go/pkg/rtt"
)

// Region is a contiguous memory area addressed in the device's address
// space.
type Region struct {
	mem   []byte
	base  uintptr
	owner bool
	ch    *rtt.Channel

	file  *os.File
	unmap func([]byte) error
}

// New allocates a heap-backed region of size bytes, owned by the caller.
func New(size int) *Region {
	if size < PreambleSize {
		size = PreambleSize
	}
	r := &Region{mem: make([]byte, size), owner: true}
	r.base = uintptr(unsafe.Pointer(&r.mem[0]))
	r.writePreamble()
	return r
}

// NewFor allocates a heap-backed region large enough for cfg.
func NewFor(cfg rtt.Config) *Region {
	return New(SizeFor(cfg))
}

func (r *Region) writePreamble() {
	p := (*preamble)(unsafe.Pointer(&r.mem[0]))
	copy(p.magic[:], Magic)
	p.base = uint64(r.base)
	p.size = uint64(len(r.mem))
}

func (r *Region) readPreamble() error {
	if len(r.mem) < PreambleSize {
		return ErrBadMagic
	}
	p := (*preamble)(unsafe.Pointer(&r.mem[0]))
	if string(p.magic[:]) != Magic {
		return ErrBadMagic
	}
	if p.size > uint64(len(r.mem)) {
		return &AccessError{Addr: uintptr(p.base), Len: uintptr(p.size)}
	}
	r.base = uintptr(p.base)
	r.mem = r.mem[:p.size]
	return nil
}

// Base returns the device-side address of the region start.
func (r *Region) Base() uintptr {
	return r.base
}

// Len returns the region size in bytes.
func (r *Region) Len() int {
	return len(r.mem)
}

// Owned reports whether this process laid out the region.
func (r *Region) Owned() bool {
	return r.owner
}

// Layout places the control block, name and ring of a channel into the
// region and returns the device-side channel. The control block id is
// written last so a host scanning the region never sees a partial block.
func (r *Region) Layout(cfg rtt.Config) (*rtt.Channel, error) {
	if !r.owner {
		return nil, ErrNotOwner
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if need := SizeFor(cfg); len(r.mem) < need {
		return nil, &rtt.LayoutError{What: "region", Need: need, Have: len(r.mem)}
	}

	cb := (*controlBlock)(unsafe.Pointer(&r.mem[ControlBlockOffset]))
	cb.id = [16]byte{}
	cb.maxUp, cb.maxDown = 1, 0
	ch, err := rtt.Init(&cb.up,
		r.mem[NameOffset:NameOffset+NameSize],
		r.mem[BufferOffset:BufferOffset+uintptr(cfg.BufferSize)],
		cfg)
	if err != nil {
		return nil, err
	}
	cb.id = ID
	r.ch = ch
	glog.V(2).Infof("arena: channel %q laid out at %#x, ring %d bytes at %#x",
		cfg.Name, r.base+ControlBlockOffset, cfg.BufferSize, r.base+BufferOffset)
	return ch, nil
}

// ControlBlock returns the address of the control block laid out by Layout.
func (r *Region) ControlBlock() uintptr {
	return r.base + ControlBlockOffset
}

// Find scans the region for id and returns its address.
func (r *Region) Find(id []byte) (uintptr, error) {
	idx := bytes.Index(r.mem, id)
	if idx < 0 {
		return 0, ErrNotFound
	}
	return r.base + uintptr(idx), nil
}

func (r *Region) offset(addr, n uintptr) (uintptr, error) {
	size := uintptr(len(r.mem))
	if addr < r.base || addr-r.base > size || n > size-(addr-r.base) {
		return 0, &AccessError{Addr: addr, Len: n}
	}
	return addr - r.base, nil
}

func (r *Region) word(addr uintptr) (*uintptr, error) {
	if addr%rtt.WordSize != 0 {
		return nil, &AccessError{Addr: addr, Len: rtt.WordSize, Misaligned: true}
	}
	off, err := r.offset(addr, rtt.WordSize)
	if err != nil {
		return nil, err
	}
	return (*uintptr)(unsafe.Pointer(&r.mem[off])), nil
}

// ReadWord atomically loads the word at addr.
func (r *Region) ReadWord(addr uintptr) (uintptr, error) {
	w, err := r.word(addr)
	if err != nil {
		return 0, err
	}
	return atomic.LoadUintptr(w), nil
}

// WriteWord atomically stores v at addr.
func (r *Region) WriteWord(addr, v uintptr) error {
	w, err := r.word(addr)
	if err != nil {
		return err
	}
	atomic.StoreUintptr(w, v)
	return nil
}

// ReadAt copies len(p) bytes starting at addr into p.
func (r *Region) ReadAt(p []byte, addr uintptr) error {
	off, err := r.offset(addr, uintptr(len(p)))
	if err != nil {
		return err
	}
	copy(p, r.mem[off:])
	return nil
}

// Close releases the region. A channel laid out here is retired first, so
// writers and flushes still spinning on it return instead of faulting on
// the unmapped memory. Heap regions need no other cleanup.
func (r *Region) Close() error {
	if r.ch != nil {
		r.ch.Retire()
		r.ch = nil
	}
	if r.unmap == nil {
		return nil
	}
	err := r.unmap(r.mem)
	r.unmap, r.mem = nil, nil
	if r.file != nil {
		if cerr := r.file.Close(); err == nil {
			err = cerr
		}
		r.file = nil
	}
	return err
}
