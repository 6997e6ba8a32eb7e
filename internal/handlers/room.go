package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/damione1/backlog-poker/internal/models"
	"github.com/damione1/backlog-poker/internal/security"
	"github.com/damione1/backlog-poker/internal/services"
)

// standardResponse sends a consistent JSON response
func standardResponse(c *gin.Context, code int, status string, data interface{}, err string) {
	response := gin.H{"status": status}

	if data != nil {
		response["data"] = data
	}
	if err != "" {
		response["error"] = err
	}

	c.JSON(code, response)
}

// RoomHandler handles room creation and snapshots
type RoomHandler struct {
	registry *services.Registry
}

func NewRoomHandler(registry *services.Registry) *RoomHandler {
	return &RoomHandler{registry: registry}
}

type createRoomRequest struct {
	Name     string           `json:"name" binding:"required"`
	Features []models.Feature `json:"features"`
}

// CreateRoom handles POST /api/rooms: a named room seeded with an explicit
// backlog. The creator then joins over the WebSocket like everyone else and
// becomes facilitator by being first in.
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	var req createRoomRequest
	if err := c.BindJSON(&req); err != nil {
		standardResponse(c, http.StatusBadRequest, "error", nil, models.ErrInvalidName.Error())
		return
	}

	name, err := security.ValidateRoomName(req.Name)
	if err != nil {
		standardResponse(c, http.StatusBadRequest, "error", nil, err.Error())
		return
	}

	features := make([]models.Feature, 0, len(req.Features))
	for _, f := range req.Features {
		featureName, err := security.ValidateFeatureName(f.Name)
		if err != nil {
			standardResponse(c, http.StatusBadRequest, "error", nil, err.Error())
			return
		}
		// Priorities are decided in the room, never supplied up front.
		features = append(features, models.Feature{Name: featureName})
	}

	session := h.registry.Create(name, features)

	standardResponse(c, http.StatusCreated, "created", gin.H{
		"room_id": session.ID(),
		"ws_path": "/ws/" + session.ID(),
	}, "")
}

// GetRoom handles GET /api/rooms/:id with the same snapshot the WebSocket
// sends on join.
func (h *RoomHandler) GetRoom(c *gin.Context) {
	id := c.Param("id")
	if err := security.ValidateRoomID(id); err != nil {
		standardResponse(c, http.StatusBadRequest, "error", nil, err.Error())
		return
	}

	session, err := h.registry.Get(id)
	if err != nil {
		standardResponse(c, http.StatusNotFound, "error", nil, models.ErrRoomNotFound.Error())
		return
	}

	standardResponse(c, http.StatusOK, "ok", session.Snapshot(), "")
}
