package handlers

import (
	"errors"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/kca-ai/document-parser/config"
	"github.com/kca-ai/document-parser/internal/dify"
	"github.com/kca-ai/document-parser/internal/models"
	"github.com/kca-ai/document-parser/internal/service/parsing"
	"github.com/kca-ai/document-parser/internal/store"
	"github.com/kca-ai/document-parser/pkg/logger"
)

// DifyHandler pushes parsed documents into Dify knowledge bases.
type DifyHandler struct {
	service *parsing.Service
	store   *store.Store
	logger  logger.Logger
}

// client builds a Dify client from the stored config, falling back to the
// environment bootstrap values.
func (h *DifyHandler) client() (*dify.Client, error) {
	apiKey, baseURL := "", ""
	if stored, err := h.store.GetDifyConfig(); err == nil {
		apiKey, baseURL = stored.APIKey, stored.BaseURL
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	env := config.GetDifyConfig()
	if apiKey == "" {
		apiKey = env.APIKey
	}
	if baseURL == "" {
		baseURL = env.BaseURL
	}

	return dify.NewClient(apiKey, baseURL, env.RequestTimeout, h.logger)
}

type difyConfigRequest struct {
	APIKey  string `json:"apiKey" binding:"required"`
	BaseURL string `json:"baseUrl" binding:"required"`
}

func (h *DifyHandler) GetConfig(c *gin.Context) {
	cfg, err := h.store.GetDifyConfig()
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusOK, gin.H{"configured": false})
		return
	}
	if err != nil {
		handleError(c, h.logger, http.StatusInternalServerError, "Failed to read Dify config", err)
		return
	}

	// Never echo the full key back.
	masked := cfg.APIKey
	if len(masked) > 8 {
		masked = masked[:4] + "..." + masked[len(masked)-4:]
	}
	c.JSON(http.StatusOK, gin.H{
		"configured": true,
		"apiKey":     masked,
		"baseUrl":    cfg.BaseURL,
		"updatedAt":  cfg.UpdatedAt,
	})
}

func (h *DifyHandler) SaveConfig(c *gin.Context) {
	var req difyConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, h.logger, http.StatusBadRequest, "Invalid Dify config", err)
		return
	}

	if err := h.store.SaveDifyConfig(req.APIKey, req.BaseURL); err != nil {
		handleError(c, h.logger, http.StatusInternalServerError, "Failed to save Dify config", err)
		return
	}

	h.logger.Info("Dify config updated", logger.String("baseUrl", req.BaseURL))
	c.JSON(http.StatusOK, gin.H{"message": "Dify config saved"})
}

func (h *DifyHandler) TestConnection(c *gin.Context) {
	client, err := h.client()
	if err != nil {
		handleError(c, h.logger, http.StatusBadRequest, "Dify is not configured", err)
		return
	}

	if err := client.TestConnection(c.Request.Context()); err != nil {
		c.JSON(http.StatusOK, gin.H{"connected": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"connected": true})
}

func (h *DifyHandler) ListDatasets(c *gin.Context) {
	client, err := h.client()
	if err != nil {
		handleError(c, h.logger, http.StatusBadRequest, "Dify is not configured", err)
		return
	}

	datasets, err := client.ListDatasets(c.Request.Context(), 1, 100)
	if err != nil {
		handleError(c, h.logger, http.StatusBadGateway, "Failed to list datasets", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": len(datasets), "datasets": datasets})
}

type difyUploadRequest struct {
	Filename  string `json:"filename" binding:"required"`
	DatasetID string `json:"datasetId" binding:"required"`
}

// Upload pushes a parsed document's rendered markdown into a dataset and
// records the attempt.
func (h *DifyHandler) Upload(c *gin.Context) {
	var req difyUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, h.logger, http.StatusBadRequest, "Invalid upload request", err)
		return
	}

	client, err := h.client()
	if err != nil {
		handleError(c, h.logger, http.StatusBadRequest, "Dify is not configured", err)
		return
	}

	content, _, err := h.service.Result(req.Filename)
	if err != nil {
		handleError(c, h.logger, notFoundOrInternal(err), "Document result not available", err)
		return
	}

	var docID *int64
	if doc, err := h.store.GetDocumentByFilename(filepath.Base(req.Filename)); err == nil {
		docID = &doc.ID
	}

	resp, err := client.CreateDocumentByText(c.Request.Context(), req.DatasetID, req.Filename, content)
	if err != nil {
		h.logUpload(&models.DifyUploadLog{
			DocumentID: docID,
			DatasetID:  req.DatasetID,
			Status:     "failed",
			Error:      err.Error(),
		})
		handleError(c, h.logger, http.StatusBadGateway, "Failed to upload to Dify", err)
		return
	}

	h.logUpload(&models.DifyUploadLog{
		DocumentID: docID,
		DatasetID:  req.DatasetID,
		BatchID:    resp.Batch,
		Status:     resp.IndexingStatus,
	})

	c.JSON(http.StatusOK, resp)
}

func (h *DifyHandler) IndexingStatus(c *gin.Context) {
	datasetID := c.Param("datasetId")
	batchID := c.Param("batchId")
	if datasetID == "" || batchID == "" {
		handleError(c, h.logger, http.StatusBadRequest, "Dataset and batch ids are required", nil)
		return
	}

	client, err := h.client()
	if err != nil {
		handleError(c, h.logger, http.StatusBadRequest, "Dify is not configured", err)
		return
	}

	status, err := client.GetIndexingStatus(c.Request.Context(), datasetID, batchID)
	if err != nil {
		handleError(c, h.logger, http.StatusBadGateway, "Failed to check indexing status", err)
		return
	}
	c.JSON(http.StatusOK, status)
}

func (h *DifyHandler) UploadHistory(c *gin.Context) {
	logs, err := h.store.ListDifyUploadLogs()
	if err != nil {
		handleError(c, h.logger, http.StatusInternalServerError, "Failed to list upload history", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": len(logs), "uploads": logs})
}

func (h *DifyHandler) logUpload(l *models.DifyUploadLog) {
	if err := h.store.AddDifyUploadLog(l); err != nil {
		h.logger.Error("Failed to record Dify upload", logger.Error(err))
	}
}
