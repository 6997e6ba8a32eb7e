package config

import "time"

// WebSocket connection limits and constraints
const (
	// Connection limits
	MaxConnectionsPerRoom = 50
	MaxRoomsPerInstance   = 1000

	// Rate limiting
	MaxMessagesPerSecond = 10
	RateLimitWindow      = time.Second

	// Timeouts
	WriteTimeout = 10 * time.Second
	PingInterval = 30 * time.Second

	// Channel buffers
	ClientSendBufferSize   = 256
	HubBroadcastBufferSize = 256

	// Housekeeping. The grace period keeps the sweeper away from rooms
	// created over the API whose creator has not connected yet.
	EmptyRoomSweepInterval = 30 * time.Minute
	EmptyRoomGracePeriod   = 10 * time.Minute
)
