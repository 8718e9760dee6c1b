package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kca-ai/document-parser/internal/models"
	"github.com/kca-ai/document-parser/internal/service/parsing"
	"github.com/kca-ai/document-parser/internal/store"
	"github.com/kca-ai/document-parser/pkg/logger"
	"github.com/kca-ai/document-parser/pkg/queue"
)

type ParseHandler struct {
	service *parsing.Service
	store   *store.Store
	logger  logger.Logger
}

// Parse runs the pipeline synchronously and returns the full result.
func (h *ParseHandler) Parse(c *gin.Context) {
	var req models.ParseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, h.logger, http.StatusBadRequest, "Invalid parse request", err)
		return
	}

	resp, err := h.service.ParseDocument(c.Request.Context(), &req)
	if err != nil {
		handleError(c, h.logger, http.StatusInternalServerError, "Parsing failed", err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ParseAsync queues the parse and returns a job id immediately.
func (h *ParseHandler) ParseAsync(c *gin.Context) {
	var req models.ParseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, h.logger, http.StatusBadRequest, "Invalid parse request", err)
		return
	}

	jobID, err := h.service.ParseAsync(c.Request.Context(), &req)
	if err != nil {
		handleError(c, h.logger, http.StatusInternalServerError, "Failed to queue parse job", err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"jobId":    jobID,
		"filename": req.Filename,
		"status":   queue.JobStatusQueued,
	})
}

// JobStatus reports the state of an asynchronous parse job.
func (h *ParseHandler) JobStatus(c *gin.Context) {
	jobID := c.Param("jobId")
	if jobID == "" {
		handleError(c, h.logger, http.StatusBadRequest, "Job ID is required", nil)
		return
	}

	status, err := h.service.JobStatus(c.Request.Context(), jobID)
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, queue.ErrJobNotFound) {
			code = http.StatusNotFound
		}
		handleError(c, h.logger, code, "Failed to get job status", err)
		return
	}

	c.JSON(http.StatusOK, status)
}

// ListParsed returns documents that completed parsing.
func (h *ParseHandler) ListParsed(c *gin.Context) {
	docs, err := h.store.ListDocuments()
	if err != nil {
		handleError(c, h.logger, http.StatusInternalServerError, "Failed to list documents", err)
		return
	}

	parsed := make([]models.Document, 0, len(docs))
	for _, d := range docs {
		if d.ParsingStatus == models.StatusCompleted {
			parsed = append(parsed, d)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"total":     len(parsed),
		"documents": parsed,
	})
}

// Result returns the rendered markdown and manifest of a parsed document.
func (h *ParseHandler) Result(c *gin.Context) {
	filename := c.Param("filename")
	if filename == "" {
		handleError(c, h.logger, http.StatusBadRequest, "Filename is required", nil)
		return
	}

	content, manifest, err := h.service.Result(filename)
	if err != nil {
		handleError(c, h.logger, notFoundOrInternal(err), "Failed to load result", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"filename": filename,
		"content":  content,
		"manifest": manifest,
	})
}
