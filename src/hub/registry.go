// Package hub tracks which clients currently belong to which rooms and
// fans frames out to them.
package hub

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/chatwire/relay/src/types"
)

// Registry is the process-wide authority mapping rooms to connected
// clients. The registry mutex guards only the room map; each room has
// its own mutex, so traffic in one room never blocks another.
type Registry struct {
	mu     sync.RWMutex
	rooms  map[string]*room
	logger zerolog.Logger
}

type room struct {
	mu      sync.Mutex
	members map[string]*Client
	dead    bool // set when the room is dropped from the registry
}

// NewRegistry creates an empty room registry.
func NewRegistry(logger zerolog.Logger) *Registry {
	return &Registry{
		rooms:  make(map[string]*room),
		logger: logger,
	}
}

// Join adds the client to the room, creating the room if absent, and
// returns the resulting member count. Joining a room twice is a no-op.
func (r *Registry) Join(roomID string, c *Client) int {
	for {
		r.mu.Lock()
		rm, ok := r.rooms[roomID]
		if !ok {
			rm = &room{members: make(map[string]*Client)}
			r.rooms[roomID] = rm
		}
		r.mu.Unlock()

		rm.mu.Lock()
		if rm.dead {
			// Lost a race with the last member leaving; the registry
			// entry is gone, so start over with a fresh room.
			rm.mu.Unlock()
			continue
		}
		rm.members[c.ID] = c
		count := len(rm.members)
		rm.mu.Unlock()

		c.addRoom(roomID)
		return count
	}
}

// Leave removes the client from the room and returns the remaining
// member count. The second return is false when the client was not a
// member. An emptied room is dropped from the registry entirely.
func (r *Registry) Leave(roomID string, c *Client) (int, bool) {
	c.removeRoom(roomID)

	r.mu.RLock()
	rm, ok := r.rooms[roomID]
	r.mu.RUnlock()
	if !ok {
		return 0, false
	}

	rm.mu.Lock()
	_, wasMember := rm.members[c.ID]
	delete(rm.members, c.ID)
	count := len(rm.members)
	rm.mu.Unlock()

	if count == 0 {
		r.dropIfEmpty(roomID, rm)
	}
	return count, wasMember
}

// dropIfEmpty removes the room from the registry unless a concurrent
// join repopulated it. Lock order is registry then room, everywhere.
func (r *Registry) dropIfEmpty(roomID string, rm *room) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.rooms[roomID]; !ok || current != rm {
		return
	}
	rm.mu.Lock()
	defer rm.mu.Unlock()
	if len(rm.members) == 0 {
		rm.dead = true
		delete(r.rooms, roomID)
	}
}

// LeaveAll removes the client from every room it belongs to and returns
// the remaining member count per room it actually left. Cost is
// proportional to the client's own membership set, and calling it on an
// already-cleaned-up client is a no-op.
func (r *Registry) LeaveAll(c *Client) map[string]int {
	counts := make(map[string]int)
	for _, roomID := range c.Rooms() {
		if count, left := r.Leave(roomID, c); left {
			counts[roomID] = count
		}
	}
	return counts
}

// Broadcast sends the frame to every client in the room, skipping
// exclude if given. Frames are enqueued under the room mutex, so all
// members observe the same per-room order; write pumps drain in order.
func (r *Registry) Broadcast(roomID string, frame types.Frame, exclude *Client) {
	r.mu.RLock()
	rm, ok := r.rooms[roomID]
	r.mu.RUnlock()
	if !ok {
		return
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()
	for id, member := range rm.members {
		if exclude != nil && id == exclude.ID {
			continue
		}
		if !member.Enqueue(frame) {
			r.logger.Warn().
				Str("client_id", id).
				Str("room_id", roomID).
				Msg("send buffer full, dropping frame")
		}
	}
}

// Members returns the number of clients currently in the room.
func (r *Registry) Members(roomID string) int {
	r.mu.RLock()
	rm, ok := r.rooms[roomID]
	r.mu.RUnlock()
	if !ok {
		return 0
	}
	rm.mu.Lock()
	defer rm.mu.Unlock()
	return len(rm.members)
}

// Rooms returns active room IDs with their member counts.
func (r *Registry) Rooms() map[string]int {
	r.mu.RLock()
	ids := make([]string, 0, len(r.rooms))
	for id := range r.rooms {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	result := make(map[string]int, len(ids))
	for _, id := range ids {
		if count := r.Members(id); count > 0 {
			result[id] = count
		}
	}
	return result
}
