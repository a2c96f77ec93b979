// Package netstream implements the WebSocket live network stream
// (SPEC_FULL.md Supplemented features): a broadcast endpoint that
// re-publishes PubSub "network" topic deltas to every connected
// operator client.
//
// Grounded on internal/spotifysearch's ConnectionManager -- the same
// mutex-guarded connection bookkeeping, ping loop, and read-loop-till-
// error shutdown idiom -- adapted from a single bidirectional
// extension connection into an N-connection broadcast fan-out with no
// inbound message handling (the hub only ever writes).
package netstream

import (
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/strefethen/musiccast-hub-go/internal/registry"
)

const (
	pingInterval = 30 * time.Second
	writeWait    = 5 * time.Second
)

type client struct {
	conn   *websocket.Conn
	mu     sync.Mutex
	closed chan struct{}
}

func (c *client) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(v)
}

// Hub fans out "network" topic PubSub deltas to every connected
// WebSocket client.
type Hub struct {
	pubsub *registry.PubSub

	mu      sync.RWMutex
	clients map[*client]struct{}
}

// NewHub creates a Hub; the subscription to pubsub's "network" topic
// is made by Broadcast, not here.
func NewHub(pubsub *registry.PubSub) *Hub {
	return &Hub{pubsub: pubsub, clients: make(map[*client]struct{})}
}

// Accept registers conn as a new subscriber, pinging it periodically
// and dropping it once its read loop errors (browsers never send
// anything meaningful, so the read loop exists only to detect
// disconnects, matching ConnectionManager.readMessages's role).
func (h *Hub) Accept(conn *websocket.Conn) {
	c := &client{conn: conn, closed: make(chan struct{})}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()
	log.Printf("NETSTREAM: client connected (%d active)", count)

	go h.pingLoop(c)
	h.readLoop(c)
}

func (h *Hub) readLoop(c *client) {
	defer h.remove(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) pingLoop(c *client) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := c.writeJSON(map[string]string{"type": "ping"}); err != nil {
				return
			}
		case <-c.closed:
			return
		}
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	count := len(h.clients)
	h.mu.Unlock()
	close(c.closed)
	_ = c.conn.Close()
	log.Printf("NETSTREAM: client disconnected (%d active)", count)
}

// Broadcast subscribes to pubsub's "network" topic and forwards every
// published payload to every connected client until stop is closed.
func (h *Hub) Broadcast(stop <-chan struct{}) {
	id, deliver := h.pubsub.Subscribe("network", nil)
	defer h.pubsub.Unsubscribe("network", id)

	for {
		select {
		case payload, ok := <-deliver:
			if !ok {
				return
			}
			h.broadcastOne(payload)
		case <-stop:
			return
		}
	}
}

func (h *Hub) broadcastOne(payload any) {
	h.mu.RLock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if err := c.writeJSON(payload); err != nil {
			h.remove(c)
		}
	}
}

// ClientCount returns the number of currently connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
