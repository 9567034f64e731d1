package hub

import (
	"sync"
	"time"

	"github.com/chatwire/relay/src/types"
)

// Client wraps a WebSocket connection and manages message flow. It is
// owned by the connection handler that created it; the Registry holds
// non-owning references for routing only.
type Client struct {
	ID          string
	conn        types.Conn
	Send        chan types.Frame
	connectedAt time.Time

	mu       sync.RWMutex
	identity *types.Identity
	rooms    map[string]bool
	closed   bool
	done     chan struct{}
}

// NewClient creates a new WebSocket client wrapper.
func NewClient(id string, conn types.Conn) *Client {
	return &Client{
		ID:          id,
		conn:        conn,
		Send:        make(chan types.Frame, 256),
		connectedAt: time.Now(),
		rooms:       make(map[string]bool),
		done:        make(chan struct{}),
	}
}

// ConnectedAt returns when the client connected.
func (c *Client) ConnectedAt() time.Time {
	return c.connectedAt
}

// Identity returns the identity claim attached to this client, or nil
// before the first successful join.
func (c *Client) Identity() *types.Identity {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.identity
}

// AttachIdentity pins the identity claim from the first successful join.
// Later joins keep the original claim; the stored claim is returned.
func (c *Client) AttachIdentity(identity *types.Identity) *types.Identity {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.identity == nil {
		c.identity = identity
	}
	return c.identity
}

// Rooms returns a snapshot of the rooms this client belongs to.
func (c *Client) Rooms() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rooms := make([]string, 0, len(c.rooms))
	for id := range c.rooms {
		rooms = append(rooms, id)
	}
	return rooms
}

// InRoom reports whether the client has joined the given room.
func (c *Client) InRoom(roomID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rooms[roomID]
}

func (c *Client) addRoom(roomID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rooms[roomID] = true
}

func (c *Client) removeRoom(roomID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.rooms, roomID)
}

// ReadEnvelope reads the next inbound frame from the transport.
func (c *Client) ReadEnvelope() (*types.Envelope, error) {
	var env types.Envelope
	if err := c.conn.ReadJSON(&env); err != nil {
		return nil, err
	}
	return &env, nil
}

// Enqueue queues a frame for delivery without blocking. It reports false
// when the client is closed or its send buffer is full.
func (c *Client) Enqueue(frame types.Frame) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return false
	}
	select {
	case c.Send <- frame:
		return true
	default:
		return false
	}
}

// WritePump writes queued frames to the WebSocket. Call in a goroutine;
// it returns when the client is closed or the transport fails.
func (c *Client) WritePump() {
	defer c.conn.Close()

	for {
		select {
		case frame := <-c.Send:
			if err := c.conn.WriteJSON(frame); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

// Close stops the client. Safe to call more than once.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.done)
	}
}
