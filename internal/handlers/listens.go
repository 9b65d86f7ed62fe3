package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/thirtyvoice/backend/internal/telemetry"
	"github.com/thirtyvoice/backend/internal/util"
)

// RecordListenRequest is the request body for a listen event. The session ID
// is the playback session token; omitting it makes the server mint one, which
// disables cross-request dedupe for that listen.
type RecordListenRequest struct {
	SessionID string `json:"session_id"`
}

// RecordListen handles POST /api/v1/notes/:id/listen. Anonymous listeners
// are accepted; the identity is attached when a valid token is present.
func (h *Handlers) RecordListen(c *gin.Context) {
	var req RecordListenRequest
	// Body is optional; an empty body means no session token.
	_ = c.ShouldBindJSON(&req)

	count, err := h.listens.Record(c.Request.Context(), telemetry.ListenEvent{
		VoiceNoteID: c.Param("id"),
		UserID:      util.OptionalUserID(c),
		IPAddress:   c.ClientIP(),
		SessionID:   req.SessionID,
	})
	if err != nil {
		util.RespondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"listen_count": count})
}
