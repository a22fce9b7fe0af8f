// Package hub fans applied change events out to connected dashboard
// browsers over websockets, so every open dashboard stays live.
package hub

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"tally/internal/store"
)

const (
	writeWait      = 10 * time.Second
	sendBufferSize = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Same-origin dashboards only talk to their own server; the demo
		// gate does the rest.
		return true
	},
}

type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// Hub tracks connected websocket clients and broadcasts encoded change
// events to all of them. Slow clients are dropped rather than allowed to
// stall the broadcast loop.
type Hub struct {
	mu         sync.Mutex
	clients    map[*client]struct{}
	broadcast  chan []byte
	register   chan *client
	unregister chan *client
	done       chan struct{}
	once       sync.Once
}

func New() *Hub {
	return &Hub{
		clients:    make(map[*client]struct{}),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *client),
		unregister: make(chan *client),
		done:       make(chan struct{}),
	}
}

// Run processes registrations and broadcasts until Close. Call it on its
// own goroutine.
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			h.mu.Unlock()
			slog.Debug("Dashboard client connected", "clients", h.Len())

		case c := <-h.unregister:
			h.drop(c)

		case msg := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					// Slow consumer: disconnect instead of blocking.
					delete(h.clients, c)
					close(c.send)
				}
			}
			h.mu.Unlock()

		case <-h.done:
			h.mu.Lock()
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
			return
		}
	}
}

// BroadcastEvent pushes one applied change event to every client. It is
// the Engine's OnApplied sink; events are dropped when the hub backlog is
// full, browsers resync from the snapshot endpoint anyway.
func (h *Hub) BroadcastEvent(ev store.Event, applied store.EventKind) {
	ev.Kind = applied
	data, err := ev.ToJSON()
	if err != nil {
		slog.Error("Failed to encode event for broadcast", "error", err)
		return
	}
	select {
	case h.broadcast <- data:
	default:
		slog.Warn("Broadcast backlog full, dropping event", "kind", ev.Kind, "id", ev.ID)
	}
}

// Len returns the connected client count.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects all clients and stops Run. Idempotent.
func (h *Hub) Close() {
	h.once.Do(func() { close(h.done) })
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// ServeWS upgrades the request and attaches the connection to the hub.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Websocket upgrade failed", "error", err)
		return
	}

	c := &client{hub: h, conn: conn, send: make(chan []byte, sendBufferSize)}
	select {
	case h.register <- c:
	case <-h.done:
		// Hub already shut down; Run is gone, so nobody would ever
		// receive the registration.
		conn.Close()
		return
	}

	go c.writeLoop()
	go c.readLoop()
}

func (c *client) writeLoop() {
	defer c.conn.Close()
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
	// Hub closed the channel: say goodbye properly.
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// readLoop discards inbound messages; the dashboard socket is one-way.
// It exists to notice the peer going away.
func (c *client) readLoop() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
