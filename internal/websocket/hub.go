// Package websocket pushes sync and connectivity status to connected UI
// windows, so the renderer's indicator updates without polling.
package websocket

import (
	"encoding/json"
	"log"
	"sync"
)

// Hub maintains the set of connected UI windows and broadcasts status
// messages to all of them.
type Hub struct {
	clients map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte

	mu sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 16),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			log.Printf("🖥️  UI window connected (%d total)", h.count())

		case client := <-h.unregister:
			h.drop(client)

		case message := <-h.broadcast:
			h.mu.RLock()
			targets := make([]*Client, 0, len(h.clients))
			for client := range h.clients {
				targets = append(targets, client)
			}
			h.mu.RUnlock()

			for _, client := range targets {
				select {
				case client.send <- message:
				default:
					// Slow consumer; drop it rather than stall the broadcast.
					h.drop(client)
				}
			}
		}
	}
}

// Broadcast sends a JSON message to every connected window. Never blocks.
func (h *Hub) Broadcast(v interface{}) {
	msg, err := json.Marshal(v)
	if err != nil {
		log.Printf("Error marshaling broadcast: %v", err)
		return
	}
	select {
	case h.broadcast <- msg:
	default:
		log.Println("⚠️  Broadcast buffer full, status update dropped")
	}
}

func (h *Hub) drop(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
		log.Printf("🖥️  UI window disconnected (%d total)", len(h.clients))
	}
}

func (h *Hub) count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
