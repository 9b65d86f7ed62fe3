package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/thirtyvoice/backend/internal/metrics"
	"github.com/thirtyvoice/backend/internal/notes"
	"github.com/thirtyvoice/backend/internal/util"
)

// CreateNoteRequest is the request body for creating a note or reply.
type CreateNoteRequest struct {
	ActionText  string  `json:"action_text" binding:"required,max=200"`
	TldrText    string  `json:"tldr_text" binding:"max=500"`
	Transcript  *string `json:"transcript,omitempty"`
	AudioURL    string  `json:"audio_url" binding:"required,url"`
	AudioURLMP3 *string `json:"audio_url_mp3,omitempty"`
	Duration    float64 `json:"duration" binding:"required,gt=0"`
}

func (r *CreateNoteRequest) toInput() notes.CreateInput {
	return notes.CreateInput{
		ActionText:  r.ActionText,
		TldrText:    r.TldrText,
		Transcript:  r.Transcript,
		AudioURL:    r.AudioURL,
		AudioURLMP3: r.AudioURLMP3,
		Duration:    r.Duration,
	}
}

// CreateNote handles POST /api/v1/notes
func (h *Handlers) CreateNote(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req CreateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	note, err := h.notes.Create(c.Request.Context(), userID, req.toInput())
	if err != nil {
		util.RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, note)
}

// ListNotes handles GET /api/v1/notes
func (h *Handlers) ListNotes(c *gin.Context) {
	limit, offset := h.pagination(c)

	list, total, err := h.notes.List(c.Request.Context(), limit, offset)
	if err != nil {
		util.RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"notes":  list,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

// GetNote handles GET /api/v1/notes/:id
func (h *Handlers) GetNote(c *gin.Context) {
	note, err := h.notes.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		util.RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, note)
}

// DeleteNote handles DELETE /api/v1/notes/:id
func (h *Handlers) DeleteNote(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	result, err := h.notes.Delete(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		util.RespondServiceError(c, err)
		return
	}

	m := metrics.Get()
	m.NotesDeleted.Inc()
	m.RepliesCascaded.Add(float64(result.Cascaded))
	if result.Partial {
		m.CascadePartial.Inc()
	}

	c.JSON(http.StatusOK, gin.H{
		"deleted":  true,
		"cascaded": result.Cascaded,
		"partial":  result.Partial,
	})
}

// CreateReply handles POST /api/v1/notes/:id/replies
func (h *Handlers) CreateReply(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req CreateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	reply, err := h.notes.CreateReply(c.Request.Context(), userID, c.Param("id"), req.toInput())
	if err != nil {
		util.RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, reply)
}

// GetReplies handles GET /api/v1/notes/:id/replies
func (h *Handlers) GetReplies(c *gin.Context) {
	limit, offset := h.pagination(c)

	replies, total, err := h.notes.Replies(c.Request.Context(), c.Param("id"), limit, offset)
	if err != nil {
		util.RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"replies": replies,
		"total":   total,
		"limit":   limit,
		"offset":  offset,
	})
}

func (h *Handlers) pagination(c *gin.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(h.pageSize)))
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit < 1 || limit > 100 {
		limit = h.pageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
