package sh

import (
	"errors"

	"github.com/robotalks/rtt.go/pkg/arena"
	"github.com/robotalks/rtt.go/pkg/msgs"
	"github.com/robotalks/rtt.go/pkg/probe"
)

var (
	// ErrNotOpen indicates no region is open.
	ErrNotOpen = errors.New("no region open")
	// ErrNotAttached indicates the host is not attached.
	ErrNotAttached = errors.New("not attached")
)

// Session is an opened region and the host view of its up channel.
type Session struct {
	Path   string
	Region *arena.Region
	Host   *probe.Host
}

// OpenSession maps the region at path and locates its up channel without
// attaching.
func OpenSession(path string) (*Session, error) {
	region, err := arena.Open(path)
	if err != nil {
		return nil, err
	}
	s, err := NewSession(region)
	if err != nil {
		region.Close()
		return nil, err
	}
	s.Path = path
	return s, nil
}

// NewSession inspects an already mapped region. The channel mode is left
// alone, so a host already draining the channel keeps its claim.
func NewSession(region *arena.Region) (*Session, error) {
	host, err := probe.InspectRegion(region)
	if err != nil {
		return nil, err
	}
	return &Session{Region: region, Host: host}, nil
}

// Close unmaps the region, detaching first if the session attached.
func (s *Session) Close() error {
	err := s.Host.Detach()
	if cerr := s.Region.Close(); err == nil {
		err = cerr
	}
	return err
}

// Name reads the channel name.
func (s *Session) Name() (string, error) {
	return s.Host.Name()
}

// State reads a state snapshot.
func (s *Session) State() (*msgs.ChannelState, error) {
	name, err := s.Host.Name()
	if err != nil {
		return nil, err
	}
	st, err := s.Host.State()
	if err != nil {
		return nil, err
	}
	// attached by anyone, not only by this session
	return msgs.NewChannelState(name, st, st.Mode.Blocking()), nil
}

// Drain reads up to max buffered bytes, all of them when max <= 0.
// It requires the host to be attached, so the device does not race for
// the read cursor.
func (s *Session) Drain(max int) ([]byte, error) {
	if !s.Host.Attached() {
		return nil, ErrNotAttached
	}
	if max <= 0 || max > s.Host.Size() {
		max = s.Host.Size()
	}
	buf := make([]byte, max)
	n, err := s.Host.Poll(buf)
	return buf[:n], err
}
