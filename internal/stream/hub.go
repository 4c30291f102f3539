// Package stream broadcasts agent execution events to websocket subscribers,
// so operators can watch runs and spot pending approvals live.
package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mpellerin/tally/internal/agent"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Frame is the wire form of one streamed event.
type Frame struct {
	Type        string    `json:"type"`
	Agent       string    `json:"agent,omitempty"`
	Capability  string    `json:"capability,omitempty"`
	Instruction string    `json:"instruction,omitempty"`
	Content     string    `json:"content,omitempty"`
	InterruptID string    `json:"interrupt_id,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// Hub fans agent events out to connected websocket clients. Slow or dead
// clients are dropped rather than blocking the run.
type Hub struct {
	mu        sync.Mutex
	clients   map[*websocket.Conn]bool
	broadcast chan Frame
}

// NewHub creates a hub. Run must be started for events to flow.
func NewHub() *Hub {
	return &Hub{
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan Frame, 256),
	}
}

// Run drains the broadcast channel until the context is canceled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case frame := <-h.broadcast:
			data, err := json.Marshal(frame)
			if err != nil {
				continue
			}

			h.mu.Lock()
			for client := range h.clients {
				if err := client.WriteMessage(websocket.TextMessage, data); err != nil {
					client.Close()
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Publish queues one agent event for broadcast. Events are dropped when the
// queue is full.
func (h *Hub) Publish(e agent.Event) {
	frame := Frame{
		Type:        string(e.Type),
		Agent:       e.Agent,
		Capability:  e.Capability,
		Instruction: e.Instruction,
		Content:     e.Content,
		InterruptID: e.InterruptID,
		Timestamp:   e.Timestamp,
	}
	select {
	case h.broadcast <- frame:
	default:
	}
}

// Handler upgrades HTTP requests to websocket subscriptions.
func (h *Hub) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}

		h.register(conn)
		defer func() {
			h.unregister(conn)
			conn.Close()
		}()

		// Hold the connection open; clients do not send anything yet.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
}

// Subscribers reports the number of connected clients.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) register(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = true
}

func (h *Hub) unregister(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, conn)
}
