package hub

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"tally/internal/core"
	"tally/internal/store"
)

func dialHub(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func TestBroadcastWithoutClients(t *testing.T) {
	h := New()
	go h.Run()
	defer h.Close()

	ev := store.NewInsertEvent(core.Record{
		ID:       "1",
		Amount:   core.Money{Cents: 100},
		Category: core.Food,
		Date:     core.NewDate(2024, 3, 1),
	})

	// No clients connected: the broadcast is consumed and dropped.
	h.BroadcastEvent(ev, store.EventInsert)

	if h.Len() != 0 {
		t.Errorf("expected no clients, got %d", h.Len())
	}
}

func TestBroadcastCarriesAppliedKind(t *testing.T) {
	h := New()

	// The store may apply an insert as an update (duplicate id). The
	// broadcast must carry the kind that was actually applied.
	ev := store.NewInsertEvent(core.Record{
		ID:       "1",
		Amount:   core.Money{Cents: 100},
		Category: core.Food,
		Date:     core.NewDate(2024, 3, 1),
	})
	h.BroadcastEvent(ev, store.EventUpdate)

	select {
	case data := <-h.broadcast:
		decoded, err := store.EventFromJSON(data)
		if err != nil {
			t.Fatalf("decoding broadcast payload: %v", err)
		}
		if decoded.Kind != store.EventUpdate {
			t.Errorf("expected kind update, got %s", decoded.Kind)
		}
		if decoded.ID != "1" {
			t.Errorf("expected id 1, got %s", decoded.ID)
		}
	case <-time.After(time.Second):
		t.Fatal("no broadcast payload queued")
	}
}

func TestConnectAfterCloseIsDropped(t *testing.T) {
	h := New()
	go h.Run()
	h.Close()

	srv := httptest.NewServer(http.HandlerFunc(h.ServeWS))
	defer srv.Close()

	// Run has exited, so nobody receives registrations anymore. The
	// connection must be refused promptly instead of parking ServeWS on
	// the register channel forever.
	conn := dialHub(t, srv)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("expected the server to drop a connection arriving after close")
	}
	if h.Len() != 0 {
		t.Errorf("no client should register after close, got %d", h.Len())
	}
}

func TestClientSeesShutdown(t *testing.T) {
	h := New()
	go h.Run()

	srv := httptest.NewServer(http.HandlerFunc(h.ServeWS))
	defer srv.Close()

	conn := dialHub(t, srv)
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for h.Len() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(time.Millisecond)
	}

	// Closing the hub drains all clients; the peer gets a close frame and
	// the server-side read loop unparks even though Run is gone.
	h.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	h := New()
	done := make(chan struct{})
	go func() {
		h.Run()
		close(done)
	}()

	h.Close()
	h.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not exit after Close")
	}
}
