package models

import "time"

// DifyConfig is the stored Dify knowledge-base connection.
type DifyConfig struct {
	APIKey    string    `json:"apiKey"`
	BaseURL   string    `json:"baseUrl"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DifyUploadLog records one upload attempt to a Dify dataset.
type DifyUploadLog struct {
	ID         int64     `json:"id"`
	DocumentID *int64    `json:"documentId,omitempty"`
	DatasetID  string    `json:"datasetId"`
	BatchID    string    `json:"batchId,omitempty"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}
