package realtime

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
)

// ErrConnectionClosed is returned by Send once the connection has been
// torn down. The broadcast path treats it as "peer already gone", never
// as a failure worth surfacing.
var ErrConnectionClosed = errors.New("connection closed")

// Connection wraps one live websocket. All outbound traffic goes through
// a buffered channel drained by a single write loop, so concurrent
// broadcasts never interleave writes on the underlying socket.
//
// Identity fields come from the verified token at upgrade time. Chat
// operations take the organization from here — never from frame payloads —
// which is what keeps a socket from addressing another tenant's rooms.
type Connection struct {
	ID          string
	UserID      uuid.UUID
	OrgID       uuid.UUID
	DisplayName string
	Role        string

	ws    *websocket.Conn
	send  chan []byte
	once  sync.Once
	close chan struct{}
}

// NewConnection builds a Connection carrying the caller's verified identity.
func NewConnection(userID, orgID uuid.UUID, displayName, role string, ws *websocket.Conn) *Connection {
	return &Connection{
		ID:          uuid.NewString(),
		UserID:      userID,
		OrgID:       orgID,
		DisplayName: displayName,
		Role:        role,
		ws:          ws,
		send:        make(chan []byte, 128),
		close:       make(chan struct{}),
	}
}

// Start launches the write loop. Call exactly once per connection.
func (c *Connection) Start() {
	go c.writeLoop()
}

// Send enqueues payload for delivery without blocking. A client too slow
// to drain its buffer gets closed; letting it stall would back the
// broadcast path up behind one bad peer.
func (c *Connection) Send(payload []byte) error {
	select {
	case <-c.close:
		return ErrConnectionClosed
	case c.send <- payload:
		return nil
	default:
		c.Close(websocket.CloseGoingAway, "send buffer full")
		return ErrConnectionClosed
	}
}

// Close terminates the connection and stops the write loop. Safe to call
// from any goroutine, any number of times.
func (c *Connection) Close(code int, reason string) {
	// The send channel is left open: Send may race Close, and a send on a
	// closed channel panics. The close signal alone stops the write loop.
	c.once.Do(func() {
		close(c.close)
		_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
		_ = c.ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), time.Now().Add(writeWait))
		_ = c.ws.Close()
	})
}

func (c *Connection) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.close:
			return
		case msg := <-c.send:
			if err := c.writeMessage(msg); err != nil {
				// Closing the socket unblocks the read loop, which then
				// detaches the session from its rooms.
				c.Close(websocket.CloseAbnormalClosure, "write failed")
				return
			}
		case <-ticker.C:
			if err := c.writePing(); err != nil {
				c.Close(websocket.CloseAbnormalClosure, "ping failed")
				return
			}
		}
	}
}

func (c *Connection) writeMessage(payload []byte) error {
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.ws.WriteMessage(websocket.TextMessage, payload)
}

func (c *Connection) writePing() error {
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.ws.WriteMessage(websocket.PingMessage, nil)
}
