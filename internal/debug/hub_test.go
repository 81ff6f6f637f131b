package debug

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"automaton/pkg/engine"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleEvent() engine.TickEvent {
	return engine.TickEvent{
		Entity:     7,
		Node:       "approach",
		LastStatus: engine.StatusSuccess,
		Running:    true,
		Snapshot: map[string]engine.Value{
			"Health": engine.IntValue(80),
		},
	}
}

func dialHub(t *testing.T, h *Hub) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })

	// Registration happens in the server's handler goroutine.
	deadline := time.Now().Add(time.Second)
	for h.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if h.ClientCount() == 0 {
		t.Fatal("client never registered")
	}
	return conn
}

func TestHub_BroadcastsTickEvents(t *testing.T) {
	h := NewHub(discardLogger())
	defer h.Close()
	conn := dialHub(t, h)

	h.OnTick(sampleEvent())

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}
	var msg tickMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatal(err)
	}
	if msg.Entity != 7 || msg.Node != "approach" || !msg.Running {
		t.Errorf("message = %+v", msg)
	}
	if msg.Status != engine.StatusSuccess.String() {
		t.Errorf("status = %q", msg.Status)
	}
	if _, ok := msg.Variables["Health"]; !ok {
		t.Errorf("variables = %v, want Health", msg.Variables)
	}
}

func TestHub_SlowClientDropped(t *testing.T) {
	h := NewHub(discardLogger())
	// A synthetic client with no reader and no buffer: the first
	// broadcast cannot be delivered.
	c := &client{remote: "test", send: make(chan []byte)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	h.OnTick(sampleEvent())

	if n := h.ClientCount(); n != 0 {
		t.Errorf("ClientCount = %d, want 0 after drop", n)
	}
	select {
	case _, open := <-c.send:
		if open {
			t.Error("send channel still open")
		}
	default:
		t.Error("send channel not closed")
	}
}

func TestHub_CloseDisconnectsClients(t *testing.T) {
	h := NewHub(discardLogger())
	conn := dialHub(t, h)

	h.Close()
	if n := h.ClientCount(); n != 0 {
		t.Errorf("ClientCount = %d after Close", n)
	}
	conn.SetReadDeadline(time.Now().Add(time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("read succeeded after Close")
	}
}

func TestHub_BroadcastWithNoClients(t *testing.T) {
	h := NewHub(discardLogger())
	// Must not block or panic.
	h.OnTick(sampleEvent())
}
