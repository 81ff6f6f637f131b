// Package debug streams per-tick execution events to websocket clients
// so a running world can be watched live. The hub sits on the
// executor's observer hook; it never blocks the tick loop — clients
// that fall behind are dropped.
package debug

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"automaton/pkg/engine"
)

const sendBuffer = 64

// Hub fans tick events out to connected websocket clients. It
// implements engine.Observer.
type Hub struct {
	log      *slog.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
}

type client struct {
	conn   *websocket.Conn
	remote string
	send   chan []byte
}

// tickMessage is the wire shape of one event. Variables carry the
// plain Go representation of each blackboard value.
type tickMessage struct {
	Entity    uint64         `json:"entity"`
	Node      string         `json:"node"`
	Status    string         `json:"status"`
	Running   bool           `json:"running"`
	Variables map[string]any `json:"variables,omitempty"`
}

// NewHub returns a hub with no clients.
func NewHub(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default().With(slog.String("component", "debug"))
	}
	return &Hub{
		log:      log,
		upgrader: websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		clients:  make(map[*client]struct{}),
	}
}

// OnTick marshals the event and broadcasts it. Satisfies
// engine.Observer.
func (h *Hub) OnTick(ev engine.TickEvent) {
	msg := tickMessage{
		Entity:  uint64(ev.Entity),
		Node:    string(ev.Node),
		Status:  ev.LastStatus.String(),
		Running: ev.Running,
	}
	if len(ev.Snapshot) > 0 {
		msg.Variables = make(map[string]any, len(ev.Snapshot))
		for name, v := range ev.Snapshot {
			msg.Variables[name] = v.Interface()
		}
	}
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.Error("marshal tick event", "error", err)
		return
	}
	h.broadcast(data)
}

func (h *Hub) broadcast(data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			// Client is not keeping up; cut it loose rather than stall
			// the tick loop.
			h.log.Warn("dropping slow debug client", "remote", c.remote)
			h.dropLocked(c)
		}
	}
}

// ServeHTTP upgrades the request to a websocket and streams events
// until the client disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "error", err)
		return
	}
	c := &client{conn: conn, remote: conn.RemoteAddr().String(), send: make(chan []byte, sendBuffer)}
	h.register(c)
	go h.writeLoop(c)
	go h.readLoop(c)
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.log.Info("debug client connected", "remote", c.remote)
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	h.dropLocked(c)
	h.mu.Unlock()
}

func (h *Hub) dropLocked(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
	if c.conn != nil {
		c.conn.Close()
	}
}

func (h *Hub) writeLoop(c *client) {
	for data := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.drop(c)
			return
		}
	}
}

// readLoop discards inbound frames; its job is noticing disconnects.
func (h *Hub) readLoop(c *client) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			h.drop(c)
			return
		}
	}
}

// ClientCount reports connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		h.dropLocked(c)
	}
}
