package handlers

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/kca-ai/document-parser/internal/service/parsing"
	"github.com/kca-ai/document-parser/internal/store"
	"github.com/kca-ai/document-parser/pkg/logger"
	"github.com/kca-ai/document-parser/pkg/storage"
)

type DocumentHandler struct {
	service *parsing.Service
	store   *store.Store
	storage storage.Storage
	logger  logger.Logger
}

// Upload receives one document and registers it for parsing.
func (h *DocumentHandler) Upload(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		handleError(c, h.logger, http.StatusBadRequest, "Invalid file upload", err)
		return
	}
	defer file.Close()

	doc, err := h.service.UploadDocument(c.Request.Context(), file, header.Filename, header.Size)
	if err != nil {
		handleError(c, h.logger, http.StatusBadRequest, "Failed to upload document", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Document uploaded successfully",
		"document": doc,
	})
}

// List returns every registered document.
func (h *DocumentHandler) List(c *gin.Context) {
	docs, err := h.store.ListDocuments()
	if err != nil {
		handleError(c, h.logger, http.StatusInternalServerError, "Failed to list documents", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total":     len(docs),
		"documents": docs,
	})
}

// Download streams the original uploaded file back.
func (h *DocumentHandler) Download(c *gin.Context) {
	filename := filepath.Base(c.Param("filename"))
	if filename == "" || filename == "." {
		handleError(c, h.logger, http.StatusBadRequest, "Filename is required", nil)
		return
	}

	doc, err := h.store.GetDocumentByFilename(filename)
	if err != nil {
		handleError(c, h.logger, notFoundOrInternal(err), "Document not found", err)
		return
	}

	reader, err := h.storage.Get(c.Request.Context(), doc.Filename)
	if err != nil {
		handleError(c, h.logger, http.StatusInternalServerError, "Failed to read document", err)
		return
	}
	defer reader.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", doc.Filename))
	c.Header("Content-Type", "application/octet-stream")
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, reader); err != nil {
		h.logger.Error("Failed to stream document",
			logger.String("filename", doc.Filename),
			logger.Error(err),
		)
	}
}
