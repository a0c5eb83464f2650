package rtt

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSize indicates a zero buffer size.
	ErrInvalidSize = errors.New("invalid buffer size")
	// ErrWriterTaken indicates the channel's Writer is already in use.
	ErrWriterTaken = errors.New("writer already taken")
	// ErrNameTooLong indicates a label longer than MaxNameLen.
	ErrNameTooLong = errors.New("channel name too long")
	// ErrUnknownMode indicates a mode name ParseMode does not recognize.
	ErrUnknownMode = errors.New("unknown channel mode")
)

// LayoutError reports a buffer that cannot hold the requested layout.
type LayoutError struct {
	What string
	Need int
	Have int
}

// Error implements error.
func (e *LayoutError) Error() string {
	return fmt.Sprintf("%s too small: need %d, have %d", e.What, e.Need, e.Have)
}
