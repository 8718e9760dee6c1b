package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/kca-ai/document-parser/internal/models"
)

const tableColumns = `id, document_id, table_id, table_index, page, caption,
	rows, cols, has_merged_cells, is_complex, summary, json_path,
	parsing_method, created_at`

// ReplaceTables swaps the stored table rows of a document for the result of
// a fresh parse.
func (s *Store) ReplaceTables(documentID int64, tables []models.TableRow) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM tables WHERE document_id = ?`, documentID); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to clear tables: %w", err)
	}

	for _, t := range tables {
		if _, err := tx.Exec(`INSERT INTO tables
			(document_id, table_id, table_index, page, caption, rows, cols,
			 has_merged_cells, is_complex, summary, json_path, parsing_method)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			documentID, t.TableID, t.TableIndex, t.Page, t.Caption, t.Rows, t.Cols,
			t.HasMergedCells, t.IsComplex, t.Summary, t.JSONPath, t.ParsingMethod); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert table row: %w", err)
		}
	}
	return tx.Commit()
}

// ListTables returns the stored table rows of a document in table order.
func (s *Store) ListTables(documentID int64) ([]models.TableRow, error) {
	rows, err := s.db.Query(
		`SELECT `+tableColumns+` FROM tables WHERE document_id = ? ORDER BY table_index`,
		documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	var out []models.TableRow
	for rows.Next() {
		t, err := scanTableRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// GetTableRow fetches one table row by its database id.
func (s *Store) GetTableRow(id int64) (*models.TableRow, error) {
	row := s.db.QueryRow(`SELECT `+tableColumns+` FROM tables WHERE id = ?`, id)
	t, err := scanTableRow(row)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// AttachTableSummary stores an externally supplied summary string on a
// table row. The text is persisted verbatim.
func (s *Store) AttachTableSummary(id int64, summary string) error {
	res, err := s.db.Exec(`UPDATE tables SET summary = ? WHERE id = ?`, summary, id)
	if err != nil {
		return fmt.Errorf("failed to attach table summary: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanTableRow(row rowScanner) (*models.TableRow, error) {
	var t models.TableRow
	var summary sql.NullString
	err := row.Scan(
		&t.ID, &t.DocumentID, &t.TableID, &t.TableIndex, &t.Page, &t.Caption,
		&t.Rows, &t.Cols, &t.HasMergedCells, &t.IsComplex, &summary, &t.JSONPath,
		&t.ParsingMethod, &t.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan table row: %w", err)
	}
	if summary.Valid {
		v := summary.String
		t.Summary = &v
	}
	return &t, nil
}
