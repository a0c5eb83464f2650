package mqtt

import (
	"io"
	"sync"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"

	"github.com/robotalks/rtt.go/pkg/msgs"
)

// Publisher publishes to relative topics. Queue implements it.
type Publisher interface {
	PubWith(topic string, payload []byte, qos byte, retain bool) paho.Token
}

// Subscriber subscribes relative topics. Queue implements it.
type Subscriber interface {
	Sub(topic string, handler Handler) *Subscription
}

// DataTopic is where drained bytes of a channel are published.
func DataTopic(channel string) string {
	return channel + "/data"
}

// StateTopic is where retained state snapshots of a channel are published.
func StateTopic(channel string) string {
	return channel + "/state"
}

// Bridge publishes what the host drains from a channel.
// It is an io.Writer so it can be used as the host's sink.
type Bridge struct {
	Pub     Publisher
	Channel string
	QoS     byte
}

// NewBridge creates a Bridge.
func NewBridge(pub Publisher, channel string) *Bridge {
	return &Bridge{Pub: pub, Channel: channel}
}

// Write implements io.Writer. The payload is copied as the client may
// still hold it after Write returns.
func (b *Bridge) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	payload := make([]byte, len(p))
	copy(payload, p)
	token := b.Pub.PubWith(DataTopic(b.Channel), payload, b.QoS, false)
	token.Wait()
	if err := token.Error(); err != nil {
		return 0, err
	}
	return len(p), nil
}

// PublishState publishes a retained state snapshot.
func (b *Bridge) PublishState(st *msgs.ChannelState) error {
	payload, err := st.Encode()
	if err != nil {
		return err
	}
	token := b.Pub.PubWith(StateTopic(b.Channel), payload, 1, true)
	token.Wait()
	return token.Error()
}

// ClearState removes the retained state, e.g. when the host detaches.
func (b *Bridge) ClearState() error {
	token := b.Pub.PubWith(StateTopic(b.Channel), nil, 1, true)
	token.Wait()
	return token.Error()
}

// SubState calls fn with every state snapshot published for channel.
// Use "+" as channel to watch all channels. Empty (cleared) and invalid
// payloads are skipped.
func SubState(s Subscriber, channel string, fn func(*msgs.ChannelState)) *Subscription {
	return s.Sub(StateTopic(channel), func(topic string, payload []byte) {
		if len(payload) == 0 {
			return
		}
		st, err := msgs.DecodeChannelState(payload)
		if err != nil {
			glog.Warningf("mqtt: invalid state on %q: %v", topic, err)
			return
		}
		fn(st)
	})
}

// DataReader reassembles the byte stream published for a channel.
type DataReader struct {
	sub *Subscription

	lock    sync.Mutex
	cond    *sync.Cond
	pending []byte
	closed  bool
}

// NewDataReader subscribes the data topic of channel.
func NewDataReader(s Subscriber, channel string) *DataReader {
	r := &DataReader{}
	r.cond = sync.NewCond(&r.lock)
	r.sub = s.Sub(DataTopic(channel), r.handle)
	return r
}

// Read implements io.Reader. It blocks until data arrives and returns
// io.EOF once closed and drained.
func (r *DataReader) Read(p []byte) (int, error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	for len(r.pending) == 0 && !r.closed {
		r.cond.Wait()
	}
	if len(r.pending) == 0 {
		return 0, io.EOF
	}
	n := copy(p, r.pending)
	r.pending = r.pending[n:]
	return n, nil
}

// Close implements io.Closer.
func (r *DataReader) Close() error {
	r.lock.Lock()
	r.closed = true
	r.cond.Broadcast()
	r.lock.Unlock()
	if r.sub != nil {
		return r.sub.Close()
	}
	return nil
}

func (r *DataReader) handle(_ string, payload []byte) {
	r.lock.Lock()
	if !r.closed {
		r.pending = append(r.pending, payload...)
		r.cond.Broadcast()
	}
	r.lock.Unlock()
}
