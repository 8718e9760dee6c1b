package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kca-ai/document-parser/internal/service/parsing"
	"github.com/kca-ai/document-parser/internal/store"
	"github.com/kca-ai/document-parser/pkg/logger"
)

// DatabaseHandler exposes the metadata store directly: document rows,
// table rows, and parsing history.
type DatabaseHandler struct {
	service *parsing.Service
	store   *store.Store
	logger  logger.Logger
}

func (h *DatabaseHandler) docID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		handleError(c, h.logger, http.StatusBadRequest, "Invalid document id", err)
		return 0, false
	}
	return id, true
}

func (h *DatabaseHandler) ListDocuments(c *gin.Context) {
	docs, err := h.store.ListDocuments()
	if err != nil {
		handleError(c, h.logger, http.StatusInternalServerError, "Failed to list documents", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": len(docs), "documents": docs})
}

func (h *DatabaseHandler) GetDocument(c *gin.Context) {
	id, ok := h.docID(c)
	if !ok {
		return
	}

	doc, err := h.store.GetDocument(id)
	if err != nil {
		handleError(c, h.logger, notFoundOrInternal(err), "Document not found", err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (h *DatabaseHandler) ListTables(c *gin.Context) {
	id, ok := h.docID(c)
	if !ok {
		return
	}

	rows, err := h.store.ListTables(id)
	if err != nil {
		handleError(c, h.logger, http.StatusInternalServerError, "Failed to list tables", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": len(rows), "tables": rows})
}

func (h *DatabaseHandler) ListHistory(c *gin.Context) {
	id, ok := h.docID(c)
	if !ok {
		return
	}

	history, err := h.store.ListHistory(id)
	if err != nil {
		handleError(c, h.logger, http.StatusInternalServerError, "Failed to list history", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": len(history), "history": history})
}

func (h *DatabaseHandler) DeleteDocument(c *gin.Context) {
	id, ok := h.docID(c)
	if !ok {
		return
	}

	if err := h.store.DeleteDocument(id); err != nil {
		handleError(c, h.logger, notFoundOrInternal(err), "Failed to delete document", err)
		return
	}

	h.logger.Info("Document deleted", logger.Int64("documentId", id))
	c.JSON(http.StatusOK, gin.H{"message": "Document deleted", "id": id})
}

type attachSummaryRequest struct {
	Summary string `json:"summary" binding:"required"`
}

// AttachSummary stores an externally produced table summary. The service
// persists it verbatim on the table row and in the JSON record.
func (h *DatabaseHandler) AttachSummary(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		handleError(c, h.logger, http.StatusBadRequest, "Invalid table id", err)
		return
	}

	var req attachSummaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, h.logger, http.StatusBadRequest, "Invalid summary request", err)
		return
	}

	row, err := h.service.AttachTableSummary(id, req.Summary)
	if err != nil {
		handleError(c, h.logger, notFoundOrInternal(err), "Failed to attach summary", err)
		return
	}

	c.JSON(http.StatusOK, row)
}
