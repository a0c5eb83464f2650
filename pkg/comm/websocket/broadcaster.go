package websocket

import (
	"net/http"
	"sync"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"
)

// DefaultBacklog is the number of pending messages kept per client.
const DefaultBacklog = 64

// Broadcaster fans drained bytes out to every connected WebSocket client.
// It is an io.Writer for the host side and an http.Handler for clients.
// A client that falls Backlog messages behind loses new messages until it
// catches up; the writer never waits on clients.
type Broadcaster struct {
	Backlog int

	lock    sync.RWMutex
	clients map[*client]struct{}
	handler http.Handler
}

type client struct {
	addr  string
	rw    *ReadWriter
	msgCh chan []byte
}

// NewBroadcaster creates a Broadcaster.
func NewBroadcaster() *Broadcaster {
	b := &Broadcaster{
		Backlog: DefaultBacklog,
		clients: make(map[*client]struct{}),
	}
	b.handler = websocket.Handler(b.serve)
	return b
}

// Clients returns the number of connected clients.
func (b *Broadcaster) Clients() int {
	b.lock.RLock()
	defer b.lock.RUnlock()
	return len(b.clients)
}

// Write implements io.Writer. p is copied, so callers may reuse it.
func (b *Broadcaster) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	msg := make([]byte, len(p))
	copy(msg, p)
	b.lock.RLock()
	for c := range b.clients {
		select {
		case c.msgCh <- msg:
		default:
			glog.Warningf("websocket: client %s lagging, dropped %d bytes",
				c.addr, len(msg))
		}
	}
	b.lock.RUnlock()
	return len(p), nil
}

// ServeHTTP implements http.Handler.
func (b *Broadcaster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.handler.ServeHTTP(w, r)
}

func (b *Broadcaster) serve(conn *websocket.Conn) {
	backlog := b.Backlog
	if backlog <= 0 {
		backlog = DefaultBacklog
	}
	c := &client{
		addr:  conn.Request().RemoteAddr,
		rw:    New(conn),
		msgCh: make(chan []byte, backlog),
	}
	b.lock.Lock()
	b.clients[c] = struct{}{}
	b.lock.Unlock()
	glog.Infof("websocket: client %s connected", c.addr)

	closed := make(chan struct{})
	go func() {
		// clients are not expected to send; reading detects the close
		defer close(closed)
		for {
			if _, err := c.rw.ReadPacket(); err != nil {
				return
			}
		}
	}()

	defer func() {
		b.lock.Lock()
		delete(b.clients, c)
		b.lock.Unlock()
		conn.Close()
		glog.Infof("websocket: client %s disconnected", c.addr)
	}()

	for {
		select {
		case msg := <-c.msgCh:
			if err := c.rw.WritePacket(msg); err != nil {
				glog.Warningf("websocket: send to %s failed: %v", c.addr, err)
				return
			}
		case <-closed:
			return
		}
	}
}
