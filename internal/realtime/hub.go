package realtime

import (
	"sync"
)

// Sender is what the hub tracks per room member: a stable session id and
// a way to push bytes at the peer. *Connection satisfies it; tests use
// in-memory fakes.
type Sender interface {
	SessionID() string
	Send(payload []byte) error
}

// SessionID implements Sender.
func (c *Connection) SessionID() string { return c.ID }

// Hub is the process-wide registry mapping routing keys to the live
// connections subscribed to them, plus the reverse index (session to
// joined keys) that makes disconnect cleanup exact without scanning
// every room.
//
// All mutation happens inside short lock-held sections that only touch
// maps — no I/O, no channel sends — so a slow peer or a slow database
// call can never hold the room lock.
type Hub struct {
	mu       sync.RWMutex
	rooms    map[string]map[string]Sender   // routingKey -> sessionID -> sender
	sessions map[string]map[string]struct{} // sessionID -> set of routingKeys
}

// NewHub constructs an empty Hub.
func NewHub() *Hub {
	return &Hub{
		rooms:    make(map[string]map[string]Sender),
		sessions: make(map[string]map[string]struct{}),
	}
}

// Join adds s to the room for routingKey, creating the room if absent.
// Joining a room twice is the same as joining it once.
func (h *Hub) Join(routingKey string, s Sender) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room := h.rooms[routingKey]
	if room == nil {
		room = make(map[string]Sender)
		h.rooms[routingKey] = room
	}
	room[s.SessionID()] = s

	keys := h.sessions[s.SessionID()]
	if keys == nil {
		keys = make(map[string]struct{})
		h.sessions[s.SessionID()] = keys
	}
	keys[routingKey] = struct{}{}
}

// Leave removes s from the room for routingKey. The last member out takes
// the room entry with them, so abandoned keys don't accumulate. Leaving a
// room never joined is a no-op.
func (h *Hub) Leave(routingKey string, s Sender) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(routingKey, s.SessionID())
}

// Detach removes s from every room it joined. Called on the transport's
// close transition; idempotent, and cannot fail partially — each removal
// is an independent map delete.
func (h *Hub) Detach(s Sender) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := s.SessionID()
	for key := range h.sessions[id] {
		h.leaveLocked(key, id)
	}
	delete(h.sessions, id)
}

// MembersOf returns a snapshot of the room's current members. Broadcast
// iterates the snapshot outside the lock; anyone joining after the
// snapshot is taken simply isn't in this delivery.
func (h *Hub) MembersOf(routingKey string) []Sender {
	h.mu.RLock()
	defer h.mu.RUnlock()

	room := h.rooms[routingKey]
	if len(room) == 0 {
		return nil
	}
	members := make([]Sender, 0, len(room))
	for _, s := range room {
		members = append(members, s)
	}
	return members
}

// Prune drops a member found dead mid-broadcast. Same effect as Leave,
// by session id, from every room; kept separate so call sites read as
// what they are (lazy cleanup, not a client action).
func (h *Hub) Prune(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for key := range h.sessions[sessionID] {
		h.leaveLocked(key, sessionID)
	}
	delete(h.sessions, sessionID)
}

// Rooms returns the routing keys that currently have at least one member.
func (h *Hub) Rooms() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	keys := make([]string, 0, len(h.rooms))
	for key := range h.rooms {
		keys = append(keys, key)
	}
	return keys
}

func (h *Hub) leaveLocked(routingKey, sessionID string) {
	room := h.rooms[routingKey]
	if room == nil {
		return
	}
	delete(room, sessionID)
	if len(room) == 0 {
		delete(h.rooms, routingKey)
	}
	if keys, ok := h.sessions[sessionID]; ok {
		delete(keys, routingKey)
		if len(keys) == 0 {
			delete(h.sessions, sessionID)
		}
	}
}
