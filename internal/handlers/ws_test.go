package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/damione1/backlog-poker/internal/handlers"
	"github.com/damione1/backlog-poker/internal/models"
	"github.com/damione1/backlog-poker/internal/services"
)

func startTestServer(t *testing.T, features ...string) (*httptest.Server, *services.Registry) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	metrics := services.NewMetrics()
	hub := services.NewHub(metrics)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	seed := func() []models.Feature {
		out := make([]models.Feature, len(features))
		for i, name := range features {
			out[i] = models.Feature{Name: name}
		}
		return out
	}

	registry := services.NewRegistry(hub, seed, nil, "", metrics)
	wsHandler := handlers.NewWSHandler(hub, registry, metrics)

	router := gin.New()
	router.GET("/ws/:roomId", wsHandler.HandleWebSocket)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server, registry
}

func dial(t *testing.T, server *httptest.Server, roomID, name string) *websocket.Conn {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/" + roomID + "?name=" + name
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

// readUntil drains events until one of the wanted type arrives. Broadcasts
// from other participants interleave with direct replies, so tests match on
// type instead of position.
func readUntil(t *testing.T, conn *websocket.Conn, eventType string) map[string]interface{} {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for {
		_, data, err := conn.Read(ctx)
		require.NoError(t, err, "waiting for %q event", eventType)

		var event map[string]interface{}
		require.NoError(t, json.Unmarshal(data, &event))
		if event["type"] == eventType {
			return event
		}
	}
}

func send(t *testing.T, conn *websocket.Conn, payload string) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte(payload)))
}

func TestWebSocket_JoinSnapshot(t *testing.T) {
	server, _ := startTestServer(t, "F1", "F2")

	conn := dial(t, server, uuid.New().String(), "Alice")

	snapshot := readUntil(t, conn, models.MsgTypeRoomState)
	assert.Equal(t, "voting", snapshot["state"])
	assert.Equal(t, "Alice", snapshot["facilitator"])
	assert.Equal(t, []interface{}{"Alice"}, snapshot["participants"])
	assert.Equal(t, "F1", snapshot["feature"].(map[string]interface{})["name"])
	assert.Equal(t, float64(2), snapshot["remaining"])
}

func TestWebSocket_RejectsWithoutName(t *testing.T) {
	server, _ := startTestServer(t, "F1")

	resp, err := http.Get(server.URL + "/ws/" + uuid.New().String())

	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestWebSocket_RejectsMalformedRoomID(t *testing.T) {
	server, registry := startTestServer(t, "F1")

	resp, err := http.Get(server.URL + "/ws/not-a-uuid?name=Alice")

	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, 0, registry.Count())
}

func TestWebSocket_VoteRound(t *testing.T) {
	server, _ := startTestServer(t, "F1", "F2")
	roomID := uuid.New().String()

	alice := dial(t, server, roomID, "Alice")
	readUntil(t, alice, models.MsgTypeRoomState)
	bob := dial(t, server, roomID, "Bob")
	readUntil(t, bob, models.MsgTypeRoomState)

	send(t, alice, `{"type":"vote","vote":"5"}`)
	vote := readUntil(t, bob, models.MsgTypeVoteCast)
	assert.Equal(t, "Alice", vote["player"])
	assert.Equal(t, "5", vote["vote"])
	assert.Equal(t, []interface{}{"Bob"}, vote["not_voted"])
	assert.Equal(t, false, vote["all_voted"])

	// Numeric card sent as a JSON number, the way browser clients do.
	send(t, bob, `{"type":"vote","vote":5}`)
	vote = readUntil(t, bob, models.MsgTypeVoteCast)
	assert.Equal(t, "Bob", vote["player"])
	assert.Equal(t, true, vote["all_voted"])

	send(t, alice, `{"type":"reveal"}`)
	reveal := readUntil(t, bob, models.MsgTypeRevealed)
	assert.Equal(t, true, reveal["unanimity"])

	feature := readUntil(t, bob, models.MsgTypeFeatureUpdate)
	assert.Equal(t, "F2", feature["feature"].(map[string]interface{})["name"])
}

func TestWebSocket_ErrorsGoToSenderOnly(t *testing.T) {
	server, registry := startTestServer(t, "F1")
	roomID := uuid.New().String()

	alice := dial(t, server, roomID, "Alice")
	readUntil(t, alice, models.MsgTypeRoomState)
	bob := dial(t, server, roomID, "Bob")
	readUntil(t, bob, models.MsgTypeRoomState)

	send(t, bob, `{"type":"reveal"}`)
	event := readUntil(t, bob, models.MsgTypeError)
	assert.Equal(t, models.ErrNotFacilitator.Error(), event["message"])

	// Alice's stream carries no error; the room keeps working and the next
	// event she sees is her own vote.
	send(t, alice, `{"type":"vote","vote":"8"}`)
	next := readUntil(t, alice, models.MsgTypeVoteCast)
	assert.Equal(t, "Alice", next["player"])

	session, err := registry.Get(roomID)
	require.NoError(t, err)
	assert.Equal(t, services.StateVoting, session.State())
}

func TestWebSocket_RejectsImpersonation(t *testing.T) {
	server, _ := startTestServer(t, "F1")
	roomID := uuid.New().String()

	alice := dial(t, server, roomID, "Alice")
	readUntil(t, alice, models.MsgTypeRoomState)
	bob := dial(t, server, roomID, "Bob")
	readUntil(t, bob, models.MsgTypeRoomState)

	send(t, bob, `{"type":"vote","player":"Alice","vote":"5"}`)

	event := readUntil(t, bob, models.MsgTypeError)
	assert.Equal(t, models.ErrUnknownParticipant.Error(), event["message"])
}

func TestWebSocket_DuplicateNameRejected(t *testing.T) {
	server, registry := startTestServer(t, "F1")
	roomID := uuid.New().String()

	alice := dial(t, server, roomID, "Alice")
	readUntil(t, alice, models.MsgTypeRoomState)

	dup := dial(t, server, roomID, "Alice")

	// The rejected connection gets an error event and is torn down; the
	// teardown may win the race, so accept either observation.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		_, data, err := dup.Read(ctx)
		if err != nil {
			break
		}
		var event map[string]interface{}
		require.NoError(t, json.Unmarshal(data, &event))
		if event["type"] == models.MsgTypeError {
			assert.Equal(t, models.ErrParticipantExists.Error(), event["message"])
			break
		}
	}

	// The room itself is untouched.
	session, err := registry.Get(roomID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice"}, session.Snapshot().Participants)
}

func TestWebSocket_DisconnectUpdatesRoom(t *testing.T) {
	server, registry := startTestServer(t, "F1")
	roomID := uuid.New().String()

	alice := dial(t, server, roomID, "Alice")
	readUntil(t, alice, models.MsgTypeRoomState)
	bob := dial(t, server, roomID, "Bob")
	readUntil(t, bob, models.MsgTypeRoomState)

	bob.Close(websocket.StatusNormalClosure, "")

	// Alice first saw the not_voted_update from Bob's join; keep reading
	// until the one from his leave arrives.
	for {
		update := readUntil(t, alice, models.MsgTypeNotVotedUpdate)
		if notVoted, ok := update["not_voted"].([]interface{}); ok && len(notVoted) == 1 {
			assert.Equal(t, []interface{}{"Alice"}, notVoted)
			break
		}
	}

	require.Eventually(t, func() bool {
		session, err := registry.Get(roomID)
		if err != nil {
			return false
		}
		return len(session.Snapshot().Participants) == 1
	}, 2*time.Second, 10*time.Millisecond)
}
