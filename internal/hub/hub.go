package hub

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Sender pushes one frame to a remote client. Implementations must not
// block: a slow client's backlog is the transport's problem, not the
// hub's. Send reports false when the frame was dropped.
type Sender interface {
	Send(payload []byte) bool
}

// Hub owns the connection registry and the room membership table. Rooms
// exist implicitly while they have members and vanish when empty. All
// methods are safe for concurrent use; a broadcast never observes a
// membership change that completed after it acquired the table.
type Hub struct {
	mu     sync.RWMutex
	conns  map[string]Sender
	rooms  map[string]map[string]struct{} // room name -> member connection ids
	joined map[string]map[string]struct{} // connection id -> joined room names
}

func New() *Hub {
	return &Hub{
		conns:  make(map[string]Sender),
		rooms:  make(map[string]map[string]struct{}),
		joined: make(map[string]map[string]struct{}),
	}
}

// Register adds a connection to the registry. The connection belongs to
// no rooms until it joins one.
func (h *Hub) Register(connID string, s Sender) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.conns[connID] = s
}

// Join adds the connection to the named room. Idempotent; unknown
// connections are ignored.
func (h *Hub) Join(connID, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.conns[connID]; !ok {
		return
	}

	members, ok := h.rooms[room]
	if !ok {
		members = make(map[string]struct{})
		h.rooms[room] = members
	}
	members[connID] = struct{}{}

	joined, ok := h.joined[connID]
	if !ok {
		joined = make(map[string]struct{})
		h.joined[connID] = joined
	}
	joined[room] = struct{}{}
}

// Leave removes the connection from the named room. Idempotent.
func (h *Hub) Leave(connID, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.leaveLocked(connID, room)
}

// Disconnect removes the connection from every room it belonged to and
// drops it from the registry. Idempotent; invoked by the transport layer
// when the connection closes.
func (h *Hub) Disconnect(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for room := range h.joined[connID] {
		h.leaveLocked(connID, room)
	}
	delete(h.joined, connID)
	delete(h.conns, connID)
}

func (h *Hub) leaveLocked(connID, room string) {
	members, ok := h.rooms[room]
	if !ok {
		return
	}
	delete(members, connID)
	if len(members) == 0 {
		delete(h.rooms, room)
	}
	if joined, ok := h.joined[connID]; ok {
		delete(joined, room)
	}
}

// Broadcast delivers payload to every connection currently in the union
// of the named rooms. A connection in more than one of the rooms
// receives exactly one copy. An empty or absent room contributes
// nothing; broadcasting to it is not an error.
func (h *Hub) Broadcast(rooms []string, payload []byte) {
	h.mu.RLock()
	targets := make(map[string]Sender)
	for _, room := range rooms {
		for connID := range h.rooms[room] {
			if s, ok := h.conns[connID]; ok {
				targets[connID] = s
			}
		}
	}
	h.mu.RUnlock()

	h.deliver(targets, payload)
}

// BroadcastAll delivers payload to every registered connection
// regardless of room membership.
func (h *Hub) BroadcastAll(payload []byte) {
	h.mu.RLock()
	targets := make(map[string]Sender, len(h.conns))
	for connID, s := range h.conns {
		targets[connID] = s
	}
	h.mu.RUnlock()

	h.deliver(targets, payload)
}

// deliver runs outside the table lock so a stalled client cannot hold up
// membership changes. A connection that disappeared between the snapshot
// and the send simply drops the frame.
func (h *Hub) deliver(targets map[string]Sender, payload []byte) {
	for connID, s := range targets {
		if !s.Send(payload) {
			log.Debug().Str("conn_id", connID).Msg("hub: frame dropped")
		}
	}
}
