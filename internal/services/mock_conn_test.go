package services_test

import (
	"context"
	"errors"
	"sync"

	"github.com/coder/websocket"
)

// mockConn records everything written to it, standing in for a real
// WebSocket connection.
type mockConn struct {
	mu       sync.Mutex
	messages [][]byte
	pings    int
	closed   bool

	// writeErr, when set, is returned by every Write.
	writeErr error
}

func newMockConn() *mockConn {
	return &mockConn{}
}

func (c *mockConn) Write(ctx context.Context, typ websocket.MessageType, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.writeErr != nil {
		return c.writeErr
	}
	if c.closed {
		return errors.New("write on closed connection")
	}

	msg := make([]byte, len(data))
	copy(msg, data)
	c.messages = append(c.messages, msg)
	return nil
}

func (c *mockConn) Ping(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pings++
	return nil
}

func (c *mockConn) Close(code websocket.StatusCode, reason string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *mockConn) received() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]byte, len(c.messages))
	copy(out, c.messages)
	return out
}

func (c *mockConn) messageCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.messages)
}

func (c *mockConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
