package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kca-ai/document-parser/internal/engine"
	"github.com/kca-ai/document-parser/internal/store"
	"github.com/kca-ai/document-parser/pkg/logger"
)

type HealthHandler struct {
	registry *engine.Registry
	store    *store.Store
	logger   logger.Logger
}

// Health reports service liveness plus per-engine availability.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx := c.Request.Context()

	dbOK := h.store.DB().PingContext(ctx) == nil
	engines := h.registry.Availability(ctx)

	status := "ok"
	if !dbOK {
		status = "degraded"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     status,
		"database":   dbOK,
		"engines":    engines,
		"strategies": h.registry.Names(),
		"time":       time.Now().UTC(),
	})
}
