package models

import (
	"time"
)

// ParsingStatus tracks a document through its lifecycle.
type ParsingStatus string

const (
	StatusPending    ParsingStatus = "pending"
	StatusProcessing ParsingStatus = "processing"
	StatusCompleted  ParsingStatus = "completed"
	StatusFailed     ParsingStatus = "failed"
)

// Document is the metadata row for an uploaded file.
type Document struct {
	ID              int64         `json:"id"`
	Filename        string        `json:"filename"`
	OriginalPath    string        `json:"originalPath"`
	FileSize        int64         `json:"fileSize"`
	FileExtension   string        `json:"fileExtension"`
	TotalPages      int           `json:"totalPages"`
	ParsingStatus   ParsingStatus `json:"parsingStatus"`
	ParsingStrategy string        `json:"parsingStrategy,omitempty"`
	OutputFolder    string        `json:"outputFolder,omitempty"`
	ContentMDPath   string        `json:"contentMdPath,omitempty"`
	ManifestPath    string        `json:"manifestJsonPath,omitempty"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
	LastParsedAt    *time.Time    `json:"lastParsedAt,omitempty"`
}

// TableRow is the persisted form of one extracted table.
type TableRow struct {
	ID             int64     `json:"id"`
	DocumentID     int64     `json:"documentId"`
	TableID        string    `json:"tableId"`
	TableIndex     int       `json:"tableIndex"`
	Page           int       `json:"page"`
	Caption        string    `json:"caption,omitempty"`
	Rows           int       `json:"rows"`
	Cols           int       `json:"cols"`
	HasMergedCells bool      `json:"hasMergedCells"`
	IsComplex      bool      `json:"isComplex"`
	Summary        *string   `json:"summary,omitempty"`
	JSONPath       string    `json:"jsonPath,omitempty"`
	ParsingMethod  string    `json:"parsingMethod,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// ParsingHistoryRow records one parsing attempt.
type ParsingHistoryRow struct {
	ID              int64     `json:"id"`
	DocumentID      int64     `json:"documentId"`
	ParsingStatus   string    `json:"parsingStatus"`
	ParsingStrategy string    `json:"parsingStrategy"`
	TotalChunks     int       `json:"totalChunks"`
	TotalTables     int       `json:"totalTables"`
	MarkdownTables  int       `json:"markdownTables"`
	JSONTables      int       `json:"jsonTables"`
	ErrorMessage    string    `json:"errorMessage,omitempty"`
	DurationSeconds float64   `json:"durationSeconds"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Picture is an image region reported by an engine.
type Picture struct {
	PictureID string `json:"pictureId"`
	Page      int    `json:"page"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	ImagePath string `json:"imagePath,omitempty"`
}

// ParseRequest selects a file and a parsing strategy.
type ParseRequest struct {
	Filename string            `json:"filename" binding:"required"`
	Strategy string            `json:"strategy"`
	Options  map[string]string `json:"options,omitempty"`
}

// ParseResponse is returned by the synchronous parse endpoint.
type ParseResponse struct {
	Filename        string       `json:"filename"`
	Strategy        string       `json:"strategy"`
	Status          string       `json:"status"`
	OutputFolder    string       `json:"outputFolder"`
	ContentMDPath   string       `json:"contentMdPath"`
	TotalPages      int          `json:"totalPages"`
	TableSummary    TableSummary `json:"tableSummary"`
	Warnings        []string     `json:"warnings,omitempty"`
	DurationSeconds float64      `json:"durationSeconds"`
}

// ParseJob mirrors the queue-side view of an asynchronous parse.
type ParseJob struct {
	JobID       string     `json:"jobId"`
	Filename    string     `json:"filename"`
	Status      string     `json:"status"`
	Progress    float64    `json:"progress"`
	Message     string     `json:"message,omitempty"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}
