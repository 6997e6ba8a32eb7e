package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"

	"github.com/damione1/backlog-poker/internal/config"
	"github.com/damione1/backlog-poker/internal/models"
	"github.com/damione1/backlog-poker/internal/security"
	"github.com/damione1/backlog-poker/internal/services"
)

// WSHandler upgrades room connections and routes their requests into the
// session state machine.
type WSHandler struct {
	hub      *services.Hub
	registry *services.Registry
	metrics  *services.Metrics
}

func NewWSHandler(hub *services.Hub, registry *services.Registry, metrics *services.Metrics) *WSHandler {
	return &WSHandler{
		hub:      hub,
		registry: registry,
		metrics:  metrics,
	}
}

// HandleWebSocket serves GET /ws/:roomId?name=<participant>.
//
// Unknown room ids are created on first join, seeded from the feature
// loader. The participant name comes from the query string with a cookie
// fallback; a connection without a usable name is rejected before upgrade,
// the way the original room page refuses visitors without a pseudo.
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	roomID := c.Param("roomId")
	if err := security.ValidateRoomID(roomID); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	name := c.Query("name")
	if name == "" {
		if cookie, err := c.Cookie("participant"); err == nil {
			name = cookie
		}
	}
	name, err := security.ValidateParticipantName(name)
	if err != nil {
		c.JSON(400, gin.H{"error": models.ErrInvalidName.Error()})
		return
	}

	if h.hub.ConnectionCount(roomID) >= config.MaxConnectionsPerRoom {
		c.JSON(503, gin.H{"error": "room is full"})
		return
	}

	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"}, // Configure based on environment
	})
	if err != nil {
		return
	}
	defer conn.Close(websocket.StatusInternalError, "")

	client := services.NewClient(conn, h.metrics, roomID, name)
	client.Start()
	h.hub.Register(client)

	// The session can be retired between lookup and join when its last
	// participant disconnects at the same moment; retry on the replacement.
	var (
		session  *services.RoomSession
		snapshot *models.RoomStateEvent
		joinErr  error
	)
	for attempt := 0; attempt < 3; attempt++ {
		session = h.registry.GetOrCreate(roomID)
		snapshot, joinErr = session.Join(name)
		if !errors.Is(joinErr, models.ErrRoomNotFound) {
			break
		}
	}
	if joinErr != nil {
		client.SendEvent(models.NewErrorEvent(joinErr.Error()))
		h.hub.Unregister(client)
		return
	}
	client.SendEvent(snapshot)

	defer func() {
		h.hub.Unregister(client)
		h.registry.HandleDisconnect(roomID, name)
	}()

	// Message loop
	ctx := context.Background()
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != websocket.StatusNormalClosure {
				h.metrics.IncrementConnectionErrors()
			}
			break
		}

		h.metrics.IncrementMessagesReceived()

		if !client.CheckRateLimit() {
			log.Printf("⚠️  Rate limit exceeded (room=%s, participant=%s)", roomID, name)
			h.metrics.IncrementRateLimitViolations()
			client.SendEvent(models.NewErrorEvent("Rate limit exceeded. Please slow down."))
			continue
		}

		h.handleMessage(session, client, data)
	}
}

// handleMessage routes one inbound request. Rejections go back to the
// requesting connection only; broadcasts come out of the session itself.
func (h *WSHandler) handleMessage(session *services.RoomSession, client *services.Client, data []byte) {
	var msg models.InboundMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		client.SendEvent(models.NewErrorEvent("malformed message"))
		return
	}

	switch msg.Type {
	case models.MsgTypeVote:
		// Identity is the connection's, never the payload's: a client
		// cannot vote on someone else's behalf.
		if msg.Player != "" && msg.Player != client.Participant() {
			client.SendEvent(models.NewErrorEvent(models.ErrUnknownParticipant.Error()))
			return
		}
		if err := session.Vote(client.Participant(), msg.Vote.String()); err != nil {
			client.SendEvent(models.NewErrorEvent(err.Error()))
		}

	case models.MsgTypeReveal:
		if err := session.Reveal(client.Participant(), msg.Force); err != nil {
			client.SendEvent(models.NewErrorEvent(err.Error()))
		}

	default:
		client.SendEvent(models.NewErrorEvent("unknown message type"))
	}
}
