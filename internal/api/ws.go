package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Hub fans position snapshots out to connected websocket clients.
type Hub struct {
	clients    map[*wsClient]bool
	register   chan *wsClient
	unregister chan *wsClient
	broadcast  chan []byte
}

type wsClient struct {
	id   uuid.UUID
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates an idle hub. Run must be started for it to deliver.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*wsClient]bool),
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		broadcast:  make(chan []byte, 16),
	}
}

// Run serves registrations and broadcasts until the process exits.
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.clients[c] = true
		case c := <-h.unregister:
			if h.clients[c] {
				delete(h.clients, c)
				close(c.send)
			}
		case msg := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					// Too slow; cut it loose.
					delete(h.clients, c)
					close(c.send)
				}
			}
		}
	}
}

// Broadcast queues a message for every client, dropping it if the hub is behind.
func (h *Hub) Broadcast(msg []byte) {
	select {
	case h.broadcast <- msg:
	default:
	}
}

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// handleWS upgrades to a websocket, sends the current snapshot, then streams
// snapshots at the server's interval.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := &wsClient{id: uuid.New(), conn: conn, send: make(chan []byte, 32)}

	if msg, err := json.Marshal(s.Sim.Snapshot()); err == nil {
		c.send <- msg
	}
	s.hub.register <- c
	slog.Debug("websocket client connected", "client", c.id)

	go c.writer()
	go c.reader(s.hub)
}

// reader discards client messages and unregisters on disconnect.
func (c *wsClient) reader(h *Hub) {
	defer func() {
		h.unregister <- c
		c.conn.Close()
		slog.Debug("websocket client disconnected", "client", c.id)
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writer drains the send queue. The hub closes the queue to cut a client off.
func (c *wsClient) writer() {
	defer c.conn.Close()
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

// broadcastLoop pushes a snapshot to the hub every StreamInterval.
func (s *Server) broadcastLoop() {
	interval := s.StreamInterval
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		msg, err := json.Marshal(s.Sim.Snapshot())
		if err != nil {
			slog.Error("snapshot encode failed", "error", err)
			continue
		}
		s.hub.Broadcast(msg)
	}
}
