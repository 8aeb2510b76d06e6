// Package live pushes engine events (suggestion lifecycle, layer imports)
// to connected websocket clients.
package live

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Event types.
const (
	SuggestionAccepted = "suggestion_accepted"
	SuggestionRejected = "suggestion_rejected"
	LayerImported      = "layer_imported"
)

// Event is one broadcast message.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// Hub fans events out to every connected client. A nil hub is safe to
// broadcast on, so services never need to check for wiring.
type Hub struct {
	logr     *zap.Logger
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[*websocket.Conn]*client
}

// client serializes writes to one connection: gorilla allows at most one
// concurrent writer per conn.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) send(ev Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(ev)
}

func NewHub(logr *zap.Logger) *Hub {
	if logr == nil {
		logr = zap.NewNop()
	}
	return &Hub{
		logr: logr,
		// CORS is enforced at the router; the upgrade itself accepts any origin.
		upgrader: websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		conns:    make(map[*websocket.Conn]*client),
	}
}

// ServeHTTP upgrades the request and keeps the connection registered until
// the peer goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logr.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	h.mu.Lock()
	h.conns[conn] = &client{conn: conn}
	n := len(h.conns)
	h.mu.Unlock()
	h.logr.Debug("websocket client connected", zap.Int("clients", n))

	// Drain (and discard) client frames; exit on error.
	go func() {
		defer h.drop(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Broadcast sends the event to every client, dropping connections that
// fail to take the write.
func (h *Hub) Broadcast(ev Event) {
	if h == nil {
		return
	}
	h.mu.Lock()
	clients := make([]*client, 0, len(h.conns))
	for _, c := range h.conns {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		if err := c.send(ev); err != nil {
			h.logr.Debug("websocket write failed, dropping client", zap.Error(err))
			h.drop(c.conn)
		}
	}
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.conns, conn)
	h.mu.Unlock()
	_ = conn.Close()
}
