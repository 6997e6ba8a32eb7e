package services

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/damione1/backlog-poker/internal/config"
	"github.com/damione1/backlog-poker/internal/models"
)

// Broadcaster fans protocol events out to every connection of a room.
// RoomSession publishes through this interface while holding its own lock,
// which is what gives every room a single logical event writer.
type Broadcaster interface {
	Publish(roomID string, event models.Event)
}

// Hub maintains the per-room connection sets and delivers broadcasts. All
// map mutations and fan-outs run on the Run goroutine; delivery to each
// connection goes through the client's buffered send queue so one stalled
// socket cannot hold up the rest of the room.
type Hub struct {
	// Room connections: roomId -> set of clients
	rooms map[string]map[*Client]bool

	broadcast  chan *roomMessage
	register   chan *Client
	unregister chan *Client

	metrics *Metrics
	mu      sync.RWMutex
}

type roomMessage struct {
	roomID string
	data   []byte
}

func NewHub(metrics *Metrics) *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		broadcast:  make(chan *roomMessage, config.HubBroadcastBufferSize),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		metrics:    metrics,
	}
}

// Run processes registrations and broadcasts until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case msg := <-h.broadcast:
			h.broadcastToRoom(msg)

		case <-ctx.Done():
			return
		}
	}
}

// Publish implements Broadcaster. Events of one room are delivered to every
// connection in the order they were published.
func (h *Hub) Publish(roomID string, event models.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("Error marshaling %s event for room %s: %v", event.EventType(), roomID, err)
		h.metrics.IncrementBroadcastErrors()
		return
	}
	h.broadcast <- &roomMessage{roomID: roomID, data: data}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// ConnectionCount returns the number of live connections in a room.
func (h *Hub) ConnectionCount(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

func (h *Hub) GetMetrics() MetricsSnapshot {
	return h.metrics.Snapshot()
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rooms[client.roomID] == nil {
		h.rooms[client.roomID] = make(map[*Client]bool)
	}
	h.rooms[client.roomID][client] = true
	h.metrics.IncrementConnections()

	log.Printf("✓ WebSocket registered: room=%s participant=%s (connections in room: %d)",
		client.roomID, client.participant, len(h.rooms[client.roomID]))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.rooms[client.roomID]
	if !ok {
		return
	}
	if _, exists := clients[client]; !exists {
		return
	}

	delete(clients, client)
	client.Close()
	h.metrics.DecrementConnections()

	if len(clients) == 0 {
		delete(h.rooms, client.roomID)
	}
}

func (h *Hub) broadcastToRoom(msg *roomMessage) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.rooms[msg.roomID]))
	for client := range h.rooms[msg.roomID] {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		if client.Send(msg.data) {
			h.metrics.IncrementMessagesSent()
		}
	}
}
