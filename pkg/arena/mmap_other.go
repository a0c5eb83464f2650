//go:build !linux && !darwin && !freebsd
// +build !linux,!darwin,!freebsd

package arena

// Create is not supported on this platform.
func Create(path string, size int) (*Region, error) {
	return nil, ErrNotSupported
}

// Open is not supported on this platform.
func Open(path string) (*Region, error) {
	return nil, ErrNotSupported
}
