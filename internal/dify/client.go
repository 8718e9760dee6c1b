// Package dify is a client for the Dify Knowledge Base API: dataset
// listing, text-document uploads, and indexing status polling.
package dify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/kca-ai/document-parser/pkg/logger"
)

// Client talks to one Dify deployment with a fixed API key.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
	logger  logger.Logger
}

// Dataset is one knowledge base visible to the API key.
type Dataset struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	DocumentCount int    `json:"document_count"`
	WordCount     int    `json:"word_count"`
	CreatedAt     int64  `json:"created_at"`
}

// UploadResponse is returned after a create-by-text upload.
type UploadResponse struct {
	DocumentID     string `json:"document_id"`
	Batch          string `json:"batch"`
	IndexingStatus string `json:"indexing_status"`
}

// IndexingStatus reports indexing progress for an uploaded batch.
type IndexingStatus struct {
	ID                string `json:"id"`
	IndexingStatus    string `json:"indexing_status"`
	CompletedSegments int    `json:"completed_segments"`
	TotalSegments     int    `json:"total_segments"`
}

// NewClient creates a Dify API client. The base URL may be given with or
// without a trailing /v1; the client normalizes it.
func NewClient(apiKey, baseURL string, timeout time.Duration, log logger.Logger) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("dify api key cannot be empty")
	}

	cleaned := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	cleaned = strings.TrimSuffix(cleaned, "/v1")
	if cleaned == "" {
		return nil, fmt.Errorf("dify base url cannot be empty")
	}

	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		apiKey:  apiKey,
		baseURL: cleaned,
		http:    &http.Client{Timeout: timeout},
		logger:  log,
	}, nil
}

// TestConnection verifies the key by listing a single dataset page.
func (c *Client) TestConnection(ctx context.Context) error {
	var out struct {
		Data []json.RawMessage `json:"data"`
	}
	if err := c.get(ctx, "/v1/datasets?page=1&limit=1", &out); err != nil {
		return fmt.Errorf("dify connection test failed: %w", err)
	}
	return nil
}

// ListDatasets returns one page of knowledge bases.
func (c *Client) ListDatasets(ctx context.Context, page, limit int) ([]Dataset, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	var out struct {
		Data []Dataset `json:"data"`
	}
	path := fmt.Sprintf("/v1/datasets?page=%d&limit=%d", page, limit)
	if err := c.get(ctx, path, &out); err != nil {
		return nil, fmt.Errorf("failed to list datasets: %w", err)
	}

	c.logger.Info("Listed Dify datasets", logger.Int("count", len(out.Data)))
	return out.Data, nil
}

// CreateDocumentByText uploads a markdown/text document into a dataset.
func (c *Client) CreateDocumentByText(ctx context.Context, datasetID, name, text string) (*UploadResponse, error) {
	body := map[string]interface{}{
		"name":               name,
		"text":               text,
		"indexing_technique": "high_quality",
		"process_rule":       map[string]string{"mode": "automatic"},
	}

	var out struct {
		Document struct {
			ID             string `json:"id"`
			IndexingStatus string `json:"indexing_status"`
		} `json:"document"`
		Batch string `json:"batch"`
	}
	path := fmt.Sprintf("/v1/datasets/%s/document/create_by_text", url.PathEscape(datasetID))
	if err := c.post(ctx, path, body, &out); err != nil {
		return nil, fmt.Errorf("failed to upload document: %w", err)
	}

	c.logger.Info("Uploaded document to Dify",
		logger.String("dataset_id", datasetID),
		logger.String("batch", out.Batch),
	)

	status := out.Document.IndexingStatus
	if status == "" {
		status = "waiting"
	}
	return &UploadResponse{
		DocumentID:     out.Document.ID,
		Batch:          out.Batch,
		IndexingStatus: status,
	}, nil
}

// GetIndexingStatus polls the indexing progress of an uploaded batch.
func (c *Client) GetIndexingStatus(ctx context.Context, datasetID, batchID string) (*IndexingStatus, error) {
	var out struct {
		Data []IndexingStatus `json:"data"`
	}
	path := fmt.Sprintf("/v1/datasets/%s/documents/%s/indexing-status",
		url.PathEscape(datasetID), url.PathEscape(batchID))
	if err := c.get(ctx, path, &out); err != nil {
		return nil, fmt.Errorf("failed to check indexing status: %w", err)
	}

	if len(out.Data) == 0 {
		return &IndexingStatus{IndexingStatus: "waiting"}, nil
	}
	return &out.Data[0], nil
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, payload, out)
}

// do runs one authenticated request with retries on transient failures.
func (c *Client) do(ctx context.Context, method, path string, payload []byte, out interface{}) error {
	return retry.Do(
		func() error {
			var body io.Reader
			if payload != nil {
				body = strings.NewReader(string(payload))
			}
			req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
			req.Header.Set("Content-Type", "application/json")

			resp, err := c.http.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode >= 500 {
				return fmt.Errorf("dify server error: %s", resp.Status)
			}
			if resp.StatusCode >= 400 {
				data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
				return retry.Unrecoverable(
					fmt.Errorf("dify api error (%d): %s", resp.StatusCode, strings.TrimSpace(string(data))))
			}

			if out == nil {
				return nil
			}
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return retry.Unrecoverable(fmt.Errorf("failed to decode response: %w", err))
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(500*time.Millisecond),
		retry.LastErrorOnly(true),
	)
}
