package probe

import (
	"errors"
	"fmt"
)

// ErrNoUpChannel indicates the control block declares no up channel.
var ErrNoUpChannel = errors.New("no up channel")

// CorruptError reports descriptor values that break the channel invariants.
type CorruptError struct {
	Field string
	Value uintptr
	Size  uintptr
}

// Error implements error.
func (e *CorruptError) Error() string {
	return fmt.Sprintf("corrupt channel: %s=%d (size %d)", e.Field, e.Value, e.Size)
}
