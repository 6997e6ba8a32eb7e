package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/damione1/backlog-poker/internal/models"
	"github.com/damione1/backlog-poker/internal/security"
	"github.com/damione1/backlog-poker/internal/services"
)

// BacklogReader serves archived finalized backlogs.
type BacklogReader interface {
	Get(roomID string) ([]models.Feature, error)
}

// BacklogHandler serves the final_backlog page that completed rooms
// redirect to. The archive is checked first so the page keeps working after
// the room has been evicted; live (not yet evicted) rooms fall back to
// their in-memory backlog.
type BacklogHandler struct {
	registry *services.Registry
	archive  BacklogReader // nil when archiving is disabled
}

func NewBacklogHandler(registry *services.Registry, archive BacklogReader) *BacklogHandler {
	return &BacklogHandler{
		registry: registry,
		archive:  archive,
	}
}

// GetFinalBacklog handles GET /final_backlog/:roomId.
func (h *BacklogHandler) GetFinalBacklog(c *gin.Context) {
	roomID := c.Param("roomId")
	if err := security.ValidateRoomID(roomID); err != nil {
		standardResponse(c, http.StatusNotFound, "error", nil, models.ErrRoomNotFound.Error())
		return
	}

	if h.archive != nil {
		if backlog, err := h.archive.Get(roomID); err == nil {
			standardResponse(c, http.StatusOK, "ok", gin.H{"final_backlog": backlog}, "")
			return
		}
	}

	session, err := h.registry.Get(roomID)
	if err != nil {
		standardResponse(c, http.StatusNotFound, "error", nil, models.ErrRoomNotFound.Error())
		return
	}

	backlog := session.FinalBacklog()
	if len(backlog) == 0 {
		standardResponse(c, http.StatusNotFound, "error", nil, models.ErrRoomNotFound.Error())
		return
	}

	standardResponse(c, http.StatusOK, "ok", gin.H{"final_backlog": backlog}, "")
}
