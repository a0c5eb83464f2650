package rtt

// Defaults of a channel Config.
const (
	DefaultBufferSize = 1024
	DefaultName       = "defmt"

	// MaxNameLen is the longest label, excluding the NUL terminator.
	MaxNameLen = 31
)

// Config describes a channel before its descriptor is built.
type Config struct {
	// Name labels the channel for host tooling.
	Name string
	// BufferSize is the ring capacity in bytes. A power of two is
	// recommended but not required.
	BufferSize int
	// Mode is the initial mode, normally DefaultMode.
	Mode Mode
}

// DefaultConfig returns the config of the standard up-channel.
func DefaultConfig() Config {
	return Config{
		Name:       DefaultName,
		BufferSize: DefaultBufferSize,
		Mode:       DefaultMode,
	}
}

// Validate checks the config.
func (c Config) Validate() error {
	if c.BufferSize <= 0 {
		return ErrInvalidSize
	}
	if len(c.Name) > MaxNameLen {
		return ErrNameTooLong
	}
	return nil
}

// NameSize returns the bytes needed to store the NUL-terminated name.
func (c Config) NameSize() int {
	return len(c.Name) + 1
}
