package arena

import (
	"unsafe"

	"github.com/robotalks/rtt.go/pkg/rtt"
)

// Magic starts every region preamble.
const Magic = "RTTARENA"

// ID identifies the control block in memory.
var ID = [16]byte{'S', 'E', 'G', 'G', 'E', 'R', ' ', 'R', 'T', 'T'}

// preamble describes the region itself. Base is the address of the region
// in the device's address space, so descriptor pointers can be translated
// by another process.
type preamble struct {
	magic [8]byte
	base  uint64
	size  uint64
}

// controlBlock is the structure host tooling scans for.
type controlBlock struct {
	id      [16]byte
	maxUp   uintptr
	maxDown uintptr
	up      rtt.Header
}

// Layout offsets, relative to the region start.
const (
	PreambleSize       = 64
	ControlBlockOffset = PreambleSize
	ControlBlockSize   = unsafe.Sizeof(controlBlock{})

	// OffsetMaxUp and friends are relative to the control block.
	OffsetMaxUp     = 16
	OffsetMaxDown   = OffsetMaxUp + rtt.WordSize
	OffsetUpChannel = OffsetMaxDown + rtt.WordSize

	NameOffset   = ControlBlockOffset + ControlBlockSize
	NameSize     = rtt.MaxNameLen + 1
	BufferOffset = (NameOffset + NameSize + 63) &^ 63
)

// SizeFor returns the region size needed for a channel config.
func SizeFor(cfg rtt.Config) int {
	return int(BufferOffset) + cfg.BufferSize
}
