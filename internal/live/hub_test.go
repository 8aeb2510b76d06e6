package live

import (
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

func dialHub(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(hub)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	// The server registers the connection just after the handshake; wait for it.
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		hub.mu.Lock()
		n := len(hub.conns)
		hub.mu.Unlock()
		if n == 1 {
			return conn
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("client never registered")
	return nil
}

// Broadcast is called from every mutating handler, so an accept and an
// import can race on the same connection. Every frame must still arrive
// intact.
func TestBroadcastConcurrentWriters(t *testing.T) {
	hub := NewHub(zap.NewNop())
	conn := dialHub(t, hub)

	const writers, perWriter = 8, 50

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWriter; j++ {
				hub.Broadcast(Event{
					Type:    SuggestionAccepted,
					Payload: map[string]int64{"doc_id": 7, "suggestion_id": 42},
				})
			}
		}()
	}

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for i := 0; i < writers*perWriter; i++ {
		var ev Event
		if err := conn.ReadJSON(&ev); err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		if ev.Type != SuggestionAccepted {
			t.Fatalf("frame %d: type = %q", i, ev.Type)
		}
	}
	wg.Wait()
}

func TestBroadcastNilHub(t *testing.T) {
	var hub *Hub
	hub.Broadcast(Event{Type: LayerImported}) // must not panic
}

func TestBroadcastDropsClosedClient(t *testing.T) {
	hub := NewHub(zap.NewNop())
	conn := dialHub(t, hub)
	conn.Close()

	// The failing write (or the reader goroutine noticing the close)
	// removes the connection.
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		hub.Broadcast(Event{Type: LayerImported})
		hub.mu.Lock()
		n := len(hub.conns)
		hub.mu.Unlock()
		if n == 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("closed client was never dropped")
}
