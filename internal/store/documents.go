package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/kca-ai/document-parser/internal/models"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

const documentColumns = `id, filename, original_path, file_size, file_extension,
	total_pages, parsing_status, parsing_strategy, output_folder,
	content_md_path, manifest_path, created_at, updated_at, last_parsed_at`

// UpsertDocument inserts a document row or refreshes the metadata of an
// existing one keyed by filename. Returns the document id.
func (s *Store) UpsertDocument(doc *models.Document) (int64, error) {
	_, err := s.db.Exec(`INSERT INTO documents
		(filename, original_path, file_size, file_extension, parsing_status)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(filename) DO UPDATE SET
			original_path = excluded.original_path,
			file_size = excluded.file_size,
			file_extension = excluded.file_extension,
			updated_at = CURRENT_TIMESTAMP`,
		doc.Filename, doc.OriginalPath, doc.FileSize, doc.FileExtension, models.StatusPending)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert document: %w", err)
	}

	// LastInsertId is unreliable on the conflict path; resolve by lookup.
	existing, err := s.GetDocumentByFilename(doc.Filename)
	if err != nil {
		return 0, err
	}
	return existing.ID, nil
}

// SetDocumentStatus updates the lifecycle status of a document.
func (s *Store) SetDocumentStatus(id int64, status models.ParsingStatus) error {
	_, err := s.db.Exec(
		`UPDATE documents SET parsing_status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		status, id)
	if err != nil {
		return fmt.Errorf("failed to update document status: %w", err)
	}
	return nil
}

// MarkDocumentParsed records a successful parse on the document row.
func (s *Store) MarkDocumentParsed(id int64, strategy, outputFolder, contentMDPath, manifestPath string, totalPages int) error {
	_, err := s.db.Exec(`UPDATE documents SET
			parsing_status = ?,
			parsing_strategy = ?,
			output_folder = ?,
			content_md_path = ?,
			manifest_path = ?,
			total_pages = ?,
			last_parsed_at = CURRENT_TIMESTAMP,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		models.StatusCompleted, strategy, outputFolder, contentMDPath, manifestPath, totalPages, id)
	if err != nil {
		return fmt.Errorf("failed to mark document parsed: %w", err)
	}
	return nil
}

// GetDocument fetches a document by id.
func (s *Store) GetDocument(id int64) (*models.Document, error) {
	row := s.db.QueryRow(`SELECT `+documentColumns+` FROM documents WHERE id = ?`, id)
	return scanDocument(row)
}

// GetDocumentByFilename fetches a document by its unique filename.
func (s *Store) GetDocumentByFilename(filename string) (*models.Document, error) {
	row := s.db.QueryRow(`SELECT `+documentColumns+` FROM documents WHERE filename = ?`, filename)
	return scanDocument(row)
}

// ListDocuments returns all documents, newest first.
func (s *Store) ListDocuments() ([]models.Document, error) {
	rows, err := s.db.Query(`SELECT ` + documentColumns + ` FROM documents ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []models.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	return docs, rows.Err()
}

// DeleteDocument removes a document and, through foreign keys, its tables,
// chunks, pictures and history rows.
func (s *Store) DeleteDocument(id int64) error {
	res, err := s.db.Exec(`DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
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

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDocument(row rowScanner) (*models.Document, error) {
	var doc models.Document
	var lastParsed sql.NullTime
	err := row.Scan(
		&doc.ID, &doc.Filename, &doc.OriginalPath, &doc.FileSize, &doc.FileExtension,
		&doc.TotalPages, &doc.ParsingStatus, &doc.ParsingStrategy, &doc.OutputFolder,
		&doc.ContentMDPath, &doc.ManifestPath, &doc.CreatedAt, &doc.UpdatedAt, &lastParsed,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan document: %w", err)
	}
	if lastParsed.Valid {
		t := lastParsed.Time
		doc.LastParsedAt = &t
	}
	return &doc, nil
}

// ReplaceChunks swaps the stored chunk texts for a document.
func (s *Store) ReplaceChunks(documentID int64, chunks []string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM chunks WHERE document_id = ?`, documentID); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to clear chunks: %w", err)
	}
	for i, text := range chunks {
		if _, err := tx.Exec(
			`INSERT INTO chunks (document_id, chunk_index, chunk_text) VALUES (?, ?, ?)`,
			documentID, i, text); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert chunk: %w", err)
		}
	}
	return tx.Commit()
}

// ChunkTexts returns the chunk texts of a document in order.
func (s *Store) ChunkTexts(documentID int64) ([]string, error) {
	rows, err := s.db.Query(
		`SELECT chunk_text FROM chunks WHERE document_id = ? ORDER BY chunk_index`, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chunks: %w", err)
	}
	defer rows.Close()

	var texts []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		texts = append(texts, t)
	}
	return texts, rows.Err()
}

// ReplacePictures swaps the stored picture rows for a document.
func (s *Store) ReplacePictures(documentID int64, pics []models.Picture) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM pictures WHERE document_id = ?`, documentID); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to clear pictures: %w", err)
	}
	for _, p := range pics {
		if _, err := tx.Exec(
			`INSERT INTO pictures (document_id, picture_id, page, width, height, image_path)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			documentID, p.PictureID, p.Page, p.Width, p.Height, p.ImagePath); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert picture: %w", err)
		}
	}
	return tx.Commit()
}
