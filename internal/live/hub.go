package live

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/clubvoice/clubvoice/internal/conversations"
	"github.com/clubvoice/clubvoice/pkg/logging"
)

// Hub fans conversation lifecycle events out to connected dashboard
// clients. Slow clients get dropped instead of stalling the webhook
// path that publishes into the hub.
type Hub struct {
	logger   *logging.Logger
	origins  map[string]struct{}
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
}

var _ conversations.Publisher = (*Hub)(nil)

// NewHub creates a hub. allowedOrigins restricts browser connections;
// an empty list allows any origin.
func NewHub(allowedOrigins []string, logger *logging.Logger) *Hub {
	if logger == nil {
		logger = logging.Default()
	}
	h := &Hub{
		logger:  logger,
		clients: make(map[*client]struct{}),
	}
	if len(allowedOrigins) > 0 {
		h.origins = make(map[string]struct{}, len(allowedOrigins))
		for _, origin := range allowedOrigins {
			h.origins[origin] = struct{}{}
		}
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		HandshakeTimeout: 10 * time.Second,
		CheckOrigin:      h.originAllowed,
	}
	return h
}

func (h *Hub) originAllowed(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		// Non-browser clients omit Origin; auth happens upstream.
		return true
	}
	if h.origins == nil {
		return true
	}
	if _, ok := h.origins["*"]; ok {
		return true
	}
	_, ok := h.origins[origin]
	return ok
}

// HandleLive upgrades the request and streams events until the client
// disconnects.
// GET /dashboard/live
func (h *Hub) HandleLive(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the failure response.
		h.logger.Warn("websocket upgrade rejected", "error", err, "remote", r.RemoteAddr)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	if !h.register(c) {
		_ = conn.Close()
		return
	}
	h.logger.Info("live feed client connected", "remote", r.RemoteAddr, "clients", h.ClientCount())

	go c.writePump()
	go c.readPump(h)
}

// Broadcast sends v to every connected client as one JSON message. It
// satisfies the conversations publisher and never blocks.
func (h *Hub) Broadcast(v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		h.logger.Error("live event not serializable", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			// Buffer full means the client stopped reading.
			delete(h.clients, c)
			close(c.send)
		}
	}
}

// ClientCount reports connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client and refuses new ones. Called on
// server shutdown.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	return true
}

// unregister is idempotent: Broadcast and Close may already have
// removed the client and closed its channel.
func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}
