package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/thirtyvoice/backend/internal/models"
	"github.com/thirtyvoice/backend/internal/util"
)

// Me handles GET /api/v1/users/me
func (h *Handlers) Me(c *gin.Context) {
	user, exists := c.Get("user")
	if !exists {
		util.RespondUnauthorized(c)
		return
	}
	u, ok := user.(*models.User)
	if !ok {
		util.RespondInternalError(c, "invalid user in context")
		return
	}
	c.JSON(http.StatusOK, u)
}
