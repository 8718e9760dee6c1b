package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kca-ai/document-parser/internal/engine"
	"github.com/kca-ai/document-parser/internal/service/parsing"
	"github.com/kca-ai/document-parser/internal/store"
	"github.com/kca-ai/document-parser/pkg/logger"
	"github.com/kca-ai/document-parser/pkg/storage"
)

// Handlers bundles every route handler with its dependencies.
type Handlers struct {
	Document *DocumentHandler
	Parse    *ParseHandler
	Database *DatabaseHandler
	Dify     *DifyHandler
	Health   *HealthHandler
}

func NewHandlers(
	svc *parsing.Service,
	st *store.Store,
	registry *engine.Registry,
	fileStorage storage.Storage,
	log logger.Logger,
) *Handlers {
	return &Handlers{
		Document: &DocumentHandler{service: svc, store: st, storage: fileStorage, logger: log},
		Parse:    &ParseHandler{service: svc, store: st, logger: log},
		Database: &DatabaseHandler{service: svc, store: st, logger: log},
		Dify:     &DifyHandler{service: svc, store: st, logger: log},
		Health:   &HealthHandler{registry: registry, store: st, logger: log},
	}
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error,omitempty"`
	Message string `json:"message"`
}

func handleError(c *gin.Context, log logger.Logger, status int, message string, err error) {
	log.Error(message,
		logger.String("path", c.Request.URL.Path),
		logger.Error(err),
	)

	response := ErrorResponse{Message: message}
	if err != nil {
		response.Error = err.Error()
	}
	c.JSON(status, response)
}

func notFoundOrInternal(err error) int {
	if errors.Is(err, store.ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
