package store

import (
	"fmt"

	"github.com/kca-ai/document-parser/internal/models"
)

// AddHistory appends one parsing attempt to a document's history.
func (s *Store) AddHistory(h *models.ParsingHistoryRow) error {
	_, err := s.db.Exec(`INSERT INTO parsing_history
		(document_id, parsing_status, parsing_strategy, total_chunks,
		 total_tables, markdown_tables, json_tables, error_message, duration_seconds)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		h.DocumentID, h.ParsingStatus, h.ParsingStrategy, h.TotalChunks,
		h.TotalTables, h.MarkdownTables, h.JSONTables, h.ErrorMessage, h.DurationSeconds)
	if err != nil {
		return fmt.Errorf("failed to insert history row: %w", err)
	}
	return nil
}

// ListHistory returns the parsing attempts for a document, newest first.
func (s *Store) ListHistory(documentID int64) ([]models.ParsingHistoryRow, error) {
	rows, err := s.db.Query(`SELECT
			id, document_id, parsing_status, parsing_strategy, total_chunks,
			total_tables, markdown_tables, json_tables, error_message,
			duration_seconds, created_at
		FROM parsing_history WHERE document_id = ? ORDER BY created_at DESC, id DESC`,
		documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	var out []models.ParsingHistoryRow
	for rows.Next() {
		var h models.ParsingHistoryRow
		if err := rows.Scan(
			&h.ID, &h.DocumentID, &h.ParsingStatus, &h.ParsingStrategy, &h.TotalChunks,
			&h.TotalTables, &h.MarkdownTables, &h.JSONTables, &h.ErrorMessage,
			&h.DurationSeconds, &h.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
