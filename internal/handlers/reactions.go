package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/thirtyvoice/backend/internal/metrics"
	"github.com/thirtyvoice/backend/internal/reactions"
	"github.com/thirtyvoice/backend/internal/util"
)

// ToggleVoteRequest is the request body for a reaction toggle.
type ToggleVoteRequest struct {
	VoteType string `json:"vote_type" binding:"required"`
}

// ToggleVote handles POST /api/v1/notes/:id/vote. The same endpoint adds,
// removes, or swaps the caller's reaction depending on current state.
func (h *Handlers) ToggleVote(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req ToggleVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	outcome, err := h.engine.Toggle(c.Request.Context(), userID, c.Param("id"), reactions.ReactionKind(req.VoteType))
	if err != nil {
		util.RespondServiceError(c, err)
		return
	}

	metrics.Get().ReactionsToggled.WithLabelValues(string(outcome.Operation)).Inc()
	c.JSON(http.StatusOK, outcome)
}

// ToggleTagVoteRequest is the request body for a tag-vote toggle.
type ToggleTagVoteRequest struct {
	TagName string `json:"tag_name" binding:"required,max=50"`
}

// ToggleTagVote handles POST /api/v1/notes/:id/tags/vote
func (h *Handlers) ToggleTagVote(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req ToggleTagVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	outcome, err := h.engine.ToggleTag(c.Request.Context(), userID, c.Param("id"), req.TagName)
	if err != nil {
		util.RespondServiceError(c, err)
		return
	}

	metrics.Get().TagVotesToggled.WithLabelValues(string(outcome.Operation)).Inc()
	c.JSON(http.StatusOK, outcome)
}

// GetTags handles GET /api/v1/notes/:id/tags
func (h *Handlers) GetTags(c *gin.Context) {
	tags, err := h.engine.TagsFor(c.Request.Context(), c.Param("id"))
	if err != nil {
		util.RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tags": tags})
}
