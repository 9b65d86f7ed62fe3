package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/thirtyvoice/backend/internal/cache"
	"github.com/thirtyvoice/backend/internal/database"
	"github.com/thirtyvoice/backend/internal/notes"
	"github.com/thirtyvoice/backend/internal/reactions"
	"github.com/thirtyvoice/backend/internal/telemetry"
)

// Handlers holds the service dependencies for all HTTP handlers.
type Handlers struct {
	notes    *notes.Service
	engine   *reactions.Engine
	listens  *telemetry.ListenSink
	pageSize int
}

// New creates a Handlers with all dependencies wired. pageSize is the default
// page length for list endpoints when the client sends none.
func New(noteService *notes.Service, engine *reactions.Engine, sink *telemetry.ListenSink, pageSize int) *Handlers {
	if pageSize <= 0 {
		pageSize = 20
	}
	return &Handlers{
		notes:    noteService,
		engine:   engine,
		listens:  sink,
		pageSize: pageSize,
	}
}

// Health reports process, database, and cache health.
func (h *Handlers) Health(c *gin.Context) {
	status := http.StatusOK
	overall := "ok"
	checks := gin.H{"database": "ok", "redis": "ok"}

	if err := database.Health(); err != nil {
		checks["database"] = err.Error()
		status = http.StatusServiceUnavailable
		overall = "degraded"
	}
	if rc := cache.GetRedisClient(); rc == nil {
		checks["redis"] = "disabled"
	} else if err := rc.Ping(c.Request.Context()); err != nil {
		// Redis is optional; a dead cache degrades dedupe, not the service.
		checks["redis"] = err.Error()
	}

	c.JSON(status, gin.H{
		"status": overall,
		"checks": checks,
	})
}
