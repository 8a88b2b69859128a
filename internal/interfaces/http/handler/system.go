package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger verifies a dependency is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// SystemHandler serves health and readiness endpoints
type SystemHandler struct {
	BaseHandler
	db Pinger
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(db Pinger) *SystemHandler {
	return &SystemHandler{db: db}
}

// Health handles GET /health, process liveness only
func (h *SystemHandler) Health(c *gin.Context) {
	h.Success(c, gin.H{"status": "ok"})
}

// Ready handles GET /ready, checks the database connection
func (h *SystemHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if h.db != nil {
		if err := h.db.Ping(ctx); err != nil {
			h.InternalError(c, "database unreachable")
			return
		}
	}
	h.Success(c, gin.H{"status": "ready"})
}

// RegisterRoutes registers system endpoints
func (h *SystemHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/health", h.Health)
	rg.GET("/ready", h.Ready)
}
