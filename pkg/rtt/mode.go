package rtt

// Mode is the channel mode stored in the low bits of the flags word.
type Mode uintptr

// Channel modes.
const (
	// ModeNonBlockingSkip is recognized as non-blocking.
	ModeNonBlockingSkip Mode = 0
	// ModeNonBlockingTrim overwrites unread data when the consumer is slow.
	ModeNonBlockingTrim Mode = 1
	// ModeBlockIfFull waits for free space. It also means a host is attached.
	ModeBlockIfFull Mode = 2
	// ModeMask selects the mode bits of flags.
	ModeMask Mode = 3

	// DefaultMode is the mode a freshly built channel starts in.
	DefaultMode = ModeNonBlockingTrim
)

// Blocking reports whether m is the blocking mode.
func (m Mode) Blocking() bool {
	return m&ModeMask == ModeBlockIfFull
}

// String implements fmt.Stringer.
func (m Mode) String() string {
	switch m & ModeMask {
	case ModeNonBlockingSkip:
		return "non-blocking-skip"
	case ModeNonBlockingTrim:
		return "non-blocking-trim"
	case ModeBlockIfFull:
		return "block-if-full"
	default:
		return "unknown"
	}
}

// ParseMode parses the names produced by String, or their last word.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "non-blocking-skip", "skip":
		return ModeNonBlockingSkip, nil
	case "non-blocking-trim", "trim":
		return ModeNonBlockingTrim, nil
	case "block-if-full", "block":
		return ModeBlockIfFull, nil
	default:
		return DefaultMode, ErrUnknownMode
	}
}
