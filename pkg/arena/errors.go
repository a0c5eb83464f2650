package arena

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates no control block is present in the region.
	ErrNotFound = errors.New("control block not found")
	// ErrBadMagic indicates the mapped file is not an arena.
	ErrBadMagic = errors.New("bad arena magic")
	// ErrNotOwner indicates a layout request on a region opened by a host.
	ErrNotOwner = errors.New("region not owned by this process")
	// ErrNotSupported indicates file-backed regions are unavailable.
	ErrNotSupported = errors.New("shared regions not supported on this platform")
)

// AccessError reports an out-of-bounds or misaligned access.
type AccessError struct {
	Addr       uintptr
	Len        uintptr
	Misaligned bool
}

// Error implements error.
func (e *AccessError) Error() string {
	if e.Misaligned {
		return fmt.Sprintf("misaligned access at %#x", e.Addr)
	}
	return fmt.Sprintf("access out of region: %#x+%d", e.Addr, e.Len)
}
