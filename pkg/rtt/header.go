package rtt

import (
	"sync/atomic"
	"unsafe"
)

// Header is the channel descriptor shared with the host.
//
// The layout is read word by word by host tooling and must not change:
// name, buffer, size, write, read, flags. Each field is one machine word.
// Only the cursors and flags are mutated after initialization, always
// atomically.
type Header struct {
	name   uintptr
	buffer uintptr
	size   uintptr
	write  atomic.Uintptr
	read   atomic.Uintptr
	flags  atomic.Uintptr
}

// WordSize is the width of every Header field.
const WordSize = unsafe.Sizeof(uintptr(0))

// Field offsets within Header, as seen by the host.
const (
	OffsetName   = 0 * WordSize
	OffsetBuffer = 1 * WordSize
	OffsetSize   = 2 * WordSize
	OffsetWrite  = 3 * WordSize
	OffsetRead   = 4 * WordSize
	OffsetFlags  = 5 * WordSize

	HeaderSize = 6 * WordSize
)

// State is a snapshot of the channel cursors.
type State struct {
	Size  uintptr
	Write uintptr
	Read  uintptr
	Mode  Mode
}

// Used returns the number of unread bytes.
func (s State) Used() uintptr {
	return Occupied(s.Read, s.Write, s.Size)
}

// Free returns the number of bytes a blocking writer could still add,
// with one slot reserved to tell full from empty.
func (s State) Free() uintptr {
	if s.Size == 0 {
		return 0
	}
	return s.Size - 1 - s.Used()
}

// Occupied computes the number of unread bytes between read and write in a
// ring of the given size.
func Occupied(read, write, size uintptr) uintptr {
	switch {
	case read == write:
		return 0
	case read < write:
		return write - read
	default:
		return (size - read) + write
	}
}

// available returns the contiguous space a blocking write may fill starting
// at write without catching up with read.
func available(read, write, size uintptr) uintptr {
	if read > write {
		return read - write - 1
	} else if read == 0 {
		return size - write - 1
	}
	return size - write
}
