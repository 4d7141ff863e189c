package realtime

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"golang.org/x/net/websocket"

	"github.com/dfierro/tavola-api/middleware"
)

// Event names published by the lifecycle managers. This is the full
// vocabulary; there is no persistence or replay, so a subscriber that
// connects late must fall back to querying the REST API.
const (
	EventNewOrder           = "new-order"
	EventOrderUpdated       = "order-updated"
	EventOrderStatusChanged = "order-status-changed"
	EventSessionClosed      = "session-closed"
)

// TableGroup returns the group name for subscribers watching one table
func TableGroup(tableID uint) string {
	return fmt.Sprintf("table-%d", tableID)
}

// Publisher is the seam the lifecycle managers publish through, so tests
// can substitute a fake for the websocket hub.
type Publisher interface {
	Publish(group, event string, payload interface{})
}

// Frame is the wire format for both control messages from clients (join,
// join-table) and event messages to clients.
type Frame struct {
	Type    string          `json:"type"`
	Group   string          `json:"group,omitempty"`
	TableID uint            `json:"table_id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// peer is one connected subscriber. Writes are serialized per peer so
// events within a group are delivered in publish order.
type peer struct {
	mu      sync.Mutex
	encoder *json.Encoder
	conn    *websocket.Conn
	role    string
}

func (p *peer) writeFrame(frame Frame) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.encoder.Encode(frame)
}

// Hub fans events out to named groups of connected subscribers. Group
// membership is ephemeral: dropping the connection silently removes the
// peer from every group.
type Hub struct {
	mu      sync.Mutex
	groups  map[string]map[*peer]struct{}
	peers   map[*peer]struct{}
	stopped bool
}

// NewHub creates an empty hub ready to accept connections
func NewHub() *Hub {
	return &Hub{
		groups: make(map[string]map[*peer]struct{}),
		peers:  make(map[*peer]struct{}),
	}
}

// Stop disconnects all peers and rejects further connections
func (h *Hub) Stop() {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return
	}
	h.stopped = true
	peers := make([]*peer, 0, len(h.peers))
	for p := range h.peers {
		peers = append(peers, p)
	}
	h.groups = make(map[string]map[*peer]struct{})
	h.peers = make(map[*peer]struct{})
	h.mu.Unlock()

	for _, p := range peers {
		if err := p.conn.Close(); err != nil {
			log.Printf("realtime: failed to close connection: %v", err)
		}
	}
}

// Publish sends an event frame to every current member of the group.
// Delivery is best-effort: a failed write is logged and the peer dropped,
// but the caller never sees an error, since the committed state is the
// source of truth.
func (h *Hub) Publish(group, event string, payload interface{}) {
	raw, err := json.Marshal(payload)
	if err != nil {
		log.Printf("realtime: failed to marshal %s payload: %v", event, err)
		return
	}
	frame := Frame{Type: event, Group: group, Payload: raw}

	h.mu.Lock()
	members := make([]*peer, 0, len(h.groups[group]))
	for p := range h.groups[group] {
		members = append(members, p)
	}
	h.mu.Unlock()

	for _, p := range members {
		if err := p.writeFrame(frame); err != nil {
			log.Printf("realtime: dropping subscriber from %s after write error: %v", group, err)
			h.drop(p)
		}
	}
}

func (h *Hub) register(p *peer) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopped {
		return false
	}
	h.peers[p] = struct{}{}
	return true
}

func (h *Hub) join(p *peer, group string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopped {
		return
	}
	members, ok := h.groups[group]
	if !ok {
		members = make(map[*peer]struct{})
		h.groups[group] = members
	}
	members[p] = struct{}{}
}

// drop removes the peer from every group and from the hub
func (h *Hub) drop(p *peer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.peers, p)
	for group, members := range h.groups {
		delete(members, p)
		if len(members) == 0 {
			delete(h.groups, group)
		}
	}
}

// memberCount reports current membership of a group (used by tests)
func (h *Hub) memberCount(group string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.groups[group])
}

// Handler returns the websocket endpoint. The caller must present a valid
// JWT as a "token" query parameter; its role claim gates which role groups
// the connection may join. Table groups are open to any authenticated
// connection. The first frame sent is a "welcome" listing the joinable
// role groups.
func (h *Hub) Handler() websocket.Handler {
	return websocket.Handler(func(conn *websocket.Conn) {
		claims, err := middleware.ParseToken(conn.Request().URL.Query().Get("token"))
		if err != nil {
			log.Printf("realtime: rejected unauthenticated connection from %s: %v", conn.Request().RemoteAddr, err)
			_ = conn.Close()
			return
		}

		p := &peer{
			encoder: json.NewEncoder(conn),
			conn:    conn,
			role:    claims.Role,
		}
		if !h.register(p) {
			_ = conn.Close()
			return
		}
		defer h.drop(p)

		// Tell the client which role groups its token allows it to join
		if raw, err := json.Marshal(map[string]interface{}{"groups": middleware.GroupsForRole(p.role)}); err == nil {
			_ = p.writeFrame(Frame{Type: "welcome", Payload: raw})
		}

		decoder := json.NewDecoder(conn)
		for {
			var frame Frame
			if err := decoder.Decode(&frame); err != nil {
				// Connection closed or unreadable; memberships die with it
				return
			}
			h.handleControlFrame(p, frame)
		}
	})
}

func (h *Hub) handleControlFrame(p *peer, frame Frame) {
	switch frame.Type {
	case "join":
		if !middleware.CanJoinGroup(p.role, frame.Group) {
			_ = p.writeFrame(Frame{Type: "error", Payload: errorPayload("FORBIDDEN_GROUP", "role may not join group "+frame.Group)})
			return
		}
		h.join(p, frame.Group)
		_ = p.writeFrame(Frame{Type: "joined", Group: frame.Group})
	case "join-table":
		if frame.TableID == 0 {
			_ = p.writeFrame(Frame{Type: "error", Payload: errorPayload("INVALID_TABLE", "table_id is required")})
			return
		}
		group := TableGroup(frame.TableID)
		h.join(p, group)
		_ = p.writeFrame(Frame{Type: "joined", Group: group})
	default:
		_ = p.writeFrame(Frame{Type: "error", Payload: errorPayload("UNKNOWN_FRAME", "unknown frame type "+frame.Type)})
	}
}

func errorPayload(code, message string) json.RawMessage {
	raw, err := json.Marshal(map[string]string{"code": code, "message": message})
	if err != nil {
		return nil
	}
	return raw
}
