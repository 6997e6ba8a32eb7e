package services

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/damione1/backlog-poker/internal/config"
	"github.com/damione1/backlog-poker/internal/models"
)

// Conn is the subset of *websocket.Conn the client uses. Tests substitute a
// mock implementation.
type Conn interface {
	Write(ctx context.Context, typ websocket.MessageType, data []byte) error
	Ping(ctx context.Context) error
	Close(code websocket.StatusCode, reason string) error
}

// Client wraps one WebSocket connection with its own send queue and write
// goroutine. Reads stay in the connection handler; everything written to the
// socket goes through Send so broadcasts and pings never interleave.
type Client struct {
	conn        Conn
	send        chan []byte
	roomID      string
	participant string

	metrics *Metrics

	// Rate limiting
	messageCount int
	rateLimitMu  sync.Mutex
	lastReset    time.Time

	// Lifecycle
	closed  bool
	closeMu sync.Mutex
}

// NewClient creates a client for a connection joined to a room.
func NewClient(conn Conn, metrics *Metrics, roomID, participant string) *Client {
	return &Client{
		conn:        conn,
		send:        make(chan []byte, config.ClientSendBufferSize),
		roomID:      roomID,
		participant: participant,
		metrics:     metrics,
		lastReset:   time.Now(),
	}
}

func (c *Client) RoomID() string      { return c.roomID }
func (c *Client) Participant() string { return c.participant }

// Start begins the client's write pump.
func (c *Client) Start() {
	go c.writePump()
}

// writePump drains the send queue to the socket and keeps the connection
// alive with pings. Close shuts the queue, so the pump delivers whatever is
// still buffered and then closes the socket.
func (c *Client) writePump() {
	ticker := time.NewTicker(config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				_ = c.conn.Close(websocket.StatusNormalClosure, "")
				return
			}

			writeCtx, cancel := context.WithTimeout(context.Background(), config.WriteTimeout)
			err := c.conn.Write(writeCtx, websocket.MessageText, message)
			cancel()

			if err != nil {
				log.Printf("❌ Write error (room=%s, participant=%s): %v", c.roomID, c.participant, err)
				c.metrics.IncrementBroadcastErrors()
				return
			}

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(context.Background(), config.WriteTimeout)
			err := c.conn.Ping(pingCtx)
			cancel()

			if err != nil {
				log.Printf("❌ Ping error (room=%s): %v", c.roomID, err)
				return
			}
		}
	}
}

// CheckRateLimit reports whether the connection is still within its message
// budget for the current window.
func (c *Client) CheckRateLimit() bool {
	c.rateLimitMu.Lock()
	defer c.rateLimitMu.Unlock()

	now := time.Now()
	if now.Sub(c.lastReset) > config.RateLimitWindow {
		c.messageCount = 0
		c.lastReset = now
	}

	c.messageCount++
	return c.messageCount <= config.MaxMessagesPerSecond
}

// Send queues a message for delivery. A full queue means the client is too
// slow to keep up; it gets closed, which surfaces to its read loop as an
// ordinary disconnect.
func (c *Client) Send(message []byte) bool {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()

	if c.closed {
		return false
	}

	select {
	case c.send <- message:
		return true
	default:
		log.Printf("⚠️  Send buffer full, closing slow client (room=%s, participant=%s)", c.roomID, c.participant)
		c.metrics.IncrementBroadcastErrors()
		go c.Close()
		return false
	}
}

// SendEvent marshals and queues a protocol event for this connection only.
// Used for error replies and the join snapshot, which are never broadcast.
func (c *Client) SendEvent(event models.Event) bool {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("Error marshaling %s event: %v", event.EventType(), err)
		return false
	}
	if c.Send(data) {
		c.metrics.IncrementMessagesSent()
		return true
	}
	return false
}

// Close cleanly shuts down the client connection.
func (c *Client) Close() {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()

	if c.closed {
		return
	}

	c.closed = true
	close(c.send)
	_ = c.conn.Close(websocket.StatusNormalClosure, "")
}

// Closed reports whether Close has run.
func (c *Client) Closed() bool {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()
	return c.closed
}
