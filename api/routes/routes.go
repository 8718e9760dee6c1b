package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/kca-ai/document-parser/api/handlers"
	"github.com/kca-ai/document-parser/api/middleware"
)

// SetupRoutes wires every handler under /api/v1.
func SetupRoutes(r *gin.Engine, h *handlers.Handlers) {
	r.Use(middleware.CORS())

	v1 := r.Group("/api/v1")

	v1.GET("/health", h.Health.Health)

	docs := v1.Group("/documents")
	{
		docs.POST("/upload", h.Document.Upload)
		docs.GET("", h.Document.List)
		docs.GET("/download/:filename", h.Document.Download)
	}

	v1.POST("/parse", h.Parse.Parse)
	v1.POST("/parse/async", h.Parse.ParseAsync)
	v1.GET("/parse/status/:jobId", h.Parse.JobStatus)
	v1.GET("/parsed-documents", h.Parse.ListParsed)
	v1.GET("/result/:filename", h.Parse.Result)

	db := v1.Group("/db")
	{
		db.GET("/documents", h.Database.ListDocuments)
		db.GET("/documents/:id", h.Database.GetDocument)
		db.GET("/documents/:id/tables", h.Database.ListTables)
		db.GET("/documents/:id/history", h.Database.ListHistory)
		db.DELETE("/documents/:id", h.Database.DeleteDocument)
		db.POST("/tables/:id/summary", h.Database.AttachSummary)
	}

	difyGroup := v1.Group("/dify")
	{
		difyGroup.GET("/config", h.Dify.GetConfig)
		difyGroup.POST("/config", h.Dify.SaveConfig)
		difyGroup.POST("/test-connection", h.Dify.TestConnection)
		difyGroup.GET("/datasets", h.Dify.ListDatasets)
		difyGroup.POST("/upload", h.Dify.Upload)
		difyGroup.GET("/status/:datasetId/:batchId", h.Dify.IndexingStatus)
		difyGroup.GET("/upload-history", h.Dify.UploadHistory)
	}
}
