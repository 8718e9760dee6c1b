package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kca-ai/document-parser/internal/models"
	"github.com/kca-ai/document-parser/pkg/logger"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"), logger.NewTestLogger())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func addTestDocument(t *testing.T, s *Store, filename string) int64 {
	t.Helper()
	id, err := s.UpsertDocument(&models.Document{
		Filename:      filename,
		OriginalPath:  "docu/" + filename,
		FileSize:      1024,
		FileExtension: ".pdf",
	})
	require.NoError(t, err)
	return id
}

func TestOpenIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "meta.db")

	s, err := Open(path, logger.NewTestLogger())
	require.NoError(t, err)
	require.NoError(t, s.Close())

	// Reopening an existing database must not fail on DDL or migrations.
	s, err = Open(path, logger.NewTestLogger())
	require.NoError(t, err)
	require.NoError(t, s.Close())
}

func TestDocumentLifecycle(t *testing.T) {
	s := newTestStore(t)

	id := addTestDocument(t, s, "report.pdf")
	require.Greater(t, id, int64(0))

	doc, err := s.GetDocument(id)
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", doc.Filename)
	assert.Equal(t, models.StatusPending, doc.ParsingStatus)
	assert.Nil(t, doc.LastParsedAt)

	// Re-upload of the same filename keeps the same row.
	again, err := s.UpsertDocument(&models.Document{
		Filename:      "report.pdf",
		OriginalPath:  "docu/report.pdf",
		FileSize:      2048,
		FileExtension: ".pdf",
	})
	require.NoError(t, err)
	assert.Equal(t, id, again)

	doc, err = s.GetDocumentByFilename("report.pdf")
	require.NoError(t, err)
	assert.Equal(t, int64(2048), doc.FileSize)

	require.NoError(t, s.SetDocumentStatus(id, models.StatusProcessing))
	require.NoError(t, s.MarkDocumentParsed(id, "docling", "output/report", "output/report/content.md", "output/report/manifest.json", 12))

	doc, err = s.GetDocument(id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, doc.ParsingStatus)
	assert.Equal(t, "docling", doc.ParsingStrategy)
	assert.Equal(t, 12, doc.TotalPages)
	assert.NotNil(t, doc.LastParsedAt)

	docs, err := s.ListDocuments()
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestGetDocumentNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetDocument(99)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.GetDocumentByFilename("missing.pdf")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTableRowsAndSummary(t *testing.T) {
	s := newTestStore(t)
	docID := addTestDocument(t, s, "tables.pdf")

	rows := []models.TableRow{
		{TableID: "table_001", TableIndex: 1, Page: 1, Rows: 3, Cols: 3},
		{TableID: "table_002", TableIndex: 2, Page: 2, Caption: "Revenue", Rows: 5, Cols: 6,
			HasMergedCells: true, IsComplex: true, JSONPath: "tables/table_002.json"},
	}
	require.NoError(t, s.ReplaceTables(docID, rows))

	got, err := s.ListTables(docID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "table_001", got[0].TableID)
	assert.False(t, got[0].IsComplex)
	assert.Nil(t, got[0].Summary)
	assert.True(t, got[1].IsComplex)
	assert.Equal(t, "tables/table_002.json", got[1].JSONPath)

	require.NoError(t, s.AttachTableSummary(got[1].ID, "Quarterly revenue by region."))
	row, err := s.GetTableRow(got[1].ID)
	require.NoError(t, err)
	require.NotNil(t, row.Summary)
	assert.Equal(t, "Quarterly revenue by region.", *row.Summary)

	assert.ErrorIs(t, s.AttachTableSummary(9999, "x"), ErrNotFound)

	// A reparse replaces the previous rows.
	require.NoError(t, s.ReplaceTables(docID, rows[:1]))
	got, err = s.ListTables(docID)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestDeleteDocumentCascades(t *testing.T) {
	s := newTestStore(t)
	docID := addTestDocument(t, s, "gone.pdf")

	require.NoError(t, s.ReplaceTables(docID, []models.TableRow{
		{TableID: "table_001", TableIndex: 1, Rows: 2, Cols: 2},
	}))
	require.NoError(t, s.AddHistory(&models.ParsingHistoryRow{
		DocumentID:      docID,
		ParsingStatus:   "completed",
		ParsingStrategy: "docling",
		TotalTables:     1,
	}))

	require.NoError(t, s.DeleteDocument(docID))
	assert.ErrorIs(t, s.DeleteDocument(docID), ErrNotFound)

	tables, err := s.ListTables(docID)
	require.NoError(t, err)
	assert.Empty(t, tables)

	history, err := s.ListHistory(docID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestHistoryOrder(t *testing.T) {
	s := newTestStore(t)
	docID := addTestDocument(t, s, "hist.pdf")

	require.NoError(t, s.AddHistory(&models.ParsingHistoryRow{
		DocumentID: docID, ParsingStatus: "failed", ParsingStrategy: "camelot",
		ErrorMessage: "engine unavailable",
	}))
	require.NoError(t, s.AddHistory(&models.ParsingHistoryRow{
		DocumentID: docID, ParsingStatus: "completed", ParsingStrategy: "docling",
		TotalTables: 4, MarkdownTables: 3, JSONTables: 1, DurationSeconds: 2.5,
	}))

	history, err := s.ListHistory(docID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "completed", history[0].ParsingStatus)
	assert.Equal(t, "failed", history[1].ParsingStatus)
}

func TestChunksAndPictures(t *testing.T) {
	s := newTestStore(t)
	docID := addTestDocument(t, s, "chunks.pdf")

	require.NoError(t, s.ReplaceChunks(docID, []string{"first", "second"}))
	texts, err := s.ChunkTexts(docID)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, texts)

	require.NoError(t, s.ReplacePictures(docID, []models.Picture{
		{PictureID: "picture_001", Page: 1, Width: 640, Height: 480},
	}))
}

func TestDifyConfigAndLogs(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetDifyConfig()
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.SaveDifyConfig("key-1", "https://dify.example.com"))
	require.NoError(t, s.SaveDifyConfig("key-2", "https://dify.example.com"))

	cfg, err := s.GetDifyConfig()
	require.NoError(t, err)
	assert.Equal(t, "key-2", cfg.APIKey)

	docID := addTestDocument(t, s, "uploaded.pdf")
	require.NoError(t, s.AddDifyUploadLog(&models.DifyUploadLog{
		DocumentID: &docID,
		DatasetID:  "ds-1",
		BatchID:    "batch-1",
		Status:     "completed",
	}))
	require.NoError(t, s.AddDifyUploadLog(&models.DifyUploadLog{
		DatasetID: "ds-1",
		Status:    "failed",
		Error:     "indexing error",
	}))

	logs, err := s.ListDifyUploadLogs()
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "failed", logs[0].Status)
	assert.Nil(t, logs[0].DocumentID)
	require.NotNil(t, logs[1].DocumentID)
	assert.Equal(t, docID, *logs[1].DocumentID)
}
