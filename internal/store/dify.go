package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/kca-ai/document-parser/internal/models"
)

// SaveDifyConfig stores the single Dify connection row.
func (s *Store) SaveDifyConfig(apiKey, baseURL string) error {
	_, err := s.db.Exec(`INSERT INTO dify_config (id, api_key, base_url)
		VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			api_key = excluded.api_key,
			base_url = excluded.base_url,
			updated_at = CURRENT_TIMESTAMP`,
		apiKey, baseURL)
	if err != nil {
		return fmt.Errorf("failed to save dify config: %w", err)
	}
	return nil
}

// GetDifyConfig returns the stored Dify connection, or ErrNotFound when it
// was never configured.
func (s *Store) GetDifyConfig() (*models.DifyConfig, error) {
	var cfg models.DifyConfig
	err := s.db.QueryRow(
		`SELECT api_key, base_url, updated_at FROM dify_config WHERE id = 1`,
	).Scan(&cfg.APIKey, &cfg.BaseURL, &cfg.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read dify config: %w", err)
	}
	return &cfg, nil
}

// AddDifyUploadLog appends one upload attempt.
func (s *Store) AddDifyUploadLog(l *models.DifyUploadLog) error {
	_, err := s.db.Exec(`INSERT INTO dify_upload_logs
		(document_id, dataset_id, batch_id, status, error)
		VALUES (?, ?, ?, ?, ?)`,
		l.DocumentID, l.DatasetID, l.BatchID, l.Status, l.Error)
	if err != nil {
		return fmt.Errorf("failed to insert dify upload log: %w", err)
	}
	return nil
}

// ListDifyUploadLogs returns the upload history, newest first.
func (s *Store) ListDifyUploadLogs() ([]models.DifyUploadLog, error) {
	rows, err := s.db.Query(`SELECT
			id, document_id, dataset_id, batch_id, status, error, created_at
		FROM dify_upload_logs ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list dify upload logs: %w", err)
	}
	defer rows.Close()

	var out []models.DifyUploadLog
	for rows.Next() {
		var l models.DifyUploadLog
		var docID sql.NullInt64
		if err := rows.Scan(&l.ID, &docID, &l.DatasetID, &l.BatchID, &l.Status, &l.Error, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan dify upload log: %w", err)
		}
		if docID.Valid {
			v := docID.Int64
			l.DocumentID = &v
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
