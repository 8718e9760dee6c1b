package parsing

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kca-ai/document-parser/config"
	"github.com/kca-ai/document-parser/internal/engine"
	"github.com/kca-ai/document-parser/internal/models"
	"github.com/kca-ai/document-parser/internal/store"
	"github.com/kca-ai/document-parser/internal/tables"
	"github.com/kca-ai/document-parser/pkg/logger"
	"github.com/kca-ai/document-parser/pkg/queue"
	"github.com/kca-ai/document-parser/pkg/storage/local"
)

type fakeEngine struct {
	name   string
	result *engine.Result
	err    error
}

func (f *fakeEngine) Name() string { return f.name }

func (f *fakeEngine) CanParse(ext string) bool { return ext == ".pdf" }

func (f *fakeEngine) Available(_ context.Context) bool { return true }
func (f *fakeEngine) Parse(_ context.Context, _ engine.Input) (*engine.Result, error) {
	return f.result, f.err
}

type fakeQueue struct {
	enqueued []*queue.ParsePayload
	statuses map[string]*queue.JobStatus
}

func newFakeQueue() *fakeQueue {
	return &fakeQueue{statuses: make(map[string]*queue.JobStatus)}
}

func (q *fakeQueue) EnqueueParse(_ context.Context, p *queue.ParsePayload) error {
	q.enqueued = append(q.enqueued, p)
	q.statuses[p.JobID] = &queue.JobStatus{JobID: p.JobID, Filename: p.Filename, Status: queue.JobStatusQueued}
	return nil
}

func (q *fakeQueue) GetJobStatus(_ context.Context, jobID string) (*queue.JobStatus, error) {
	s, ok := q.statuses[jobID]
	if !ok {
		return nil, queue.ErrJobNotFound
	}
	return s, nil
}

func (q *fakeQueue) SetJobStatus(_ context.Context, s *queue.JobStatus) error {
	q.statuses[s.JobID] = s
	return nil
}

func (q *fakeQueue) CancelJob(_ context.Context, _ string) error { return nil }

func newTestService(t *testing.T, eng engine.Engine) (*Service, *store.Store, *fakeQueue) {
	t.Helper()
	base := t.TempDir()

	st, err := store.Open(filepath.Join(base, "meta.db"), logger.NewTestLogger())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	docuDir := filepath.Join(base, "docu")
	fs, err := local.NewLocalStorage(docuDir, logger.NewTestLogger())
	require.NoError(t, err)

	registry := engine.NewRegistry(logger.NewTestLogger())
	if eng != nil {
		registry.Register(eng)
	}

	q := newFakeQueue()
	cfg := &config.AppConfig{
		DocuFolder:      docuDir,
		OutputFolder:    filepath.Join(base, "output"),
		MaxFileSize:     1024 * 1024,
		AllowedTypes:    []string{".pdf", ".png"},
		TableThreshold:  4,
		DefaultStrategy: "fake",
	}

	return NewService(registry, st, fs, q, cfg, logger.NewTestLogger()), st, q
}

func uploadFixture(t *testing.T, s *Service, filename string) *models.Document {
	t.Helper()
	doc, err := s.UploadDocument(context.Background(), strings.NewReader("%PDF-1.4"), filename, 8)
	require.NoError(t, err)
	return doc
}

func TestUploadValidation(t *testing.T) {
	s, _, _ := newTestService(t, nil)

	_, err := s.UploadDocument(context.Background(), strings.NewReader("x"), "doc.exe", 1)
	assert.ErrorContains(t, err, "unsupported file type")

	_, err = s.UploadDocument(context.Background(), strings.NewReader("x"), "big.pdf", 10*1024*1024)
	assert.ErrorContains(t, err, "file size exceeds")

	doc := uploadFixture(t, s, "ok.pdf")
	assert.Equal(t, models.StatusPending, doc.ParsingStatus)
}

func TestParseDocumentSimpleAndComplexTables(t *testing.T) {
	eng := &fakeEngine{
		name: "fake",
		result: &engine.Result{
			Engine:   "fake",
			Markdown: "# Report\n\n| A | B |\n|---|---|\n| 1 | 2 |\n",
			Pages:    2,
			Tables: []models.RawTable{
				{
					Page: 1, Rows: 2, Cols: 2,
					Headers: [][]models.TableCell{{{Text: "A"}, {Text: "B"}}},
					Body:    [][]models.TableCell{{{Text: "1"}, {Text: "2"}}},
				},
				{
					Page: 2, Caption: "Big one", Rows: 5, Cols: 5, HasMergedCells: true,
					Headers: [][]models.TableCell{{{Text: "H1"}, {Text: "H2"}, {Text: "H3"}, {Text: "H4"}, {Text: "H5"}}},
					Body: [][]models.TableCell{
						{{Text: "a"}, {Text: "b"}, {Text: "c"}, {Text: "d"}, {Text: "e"}},
						{{Text: "f"}, {Text: "g"}, {Text: "h"}, {Text: "i"}, {Text: "j"}},
						{{Text: "k"}, {Text: "l"}, {Text: "m"}, {Text: "n"}, {Text: "o"}},
						{{Text: "p"}, {Text: "q"}, {Text: "r"}, {Text: "s"}, {Text: "t"}},
					},
				},
			},
		},
	}
	s, st, _ := newTestService(t, eng)
	doc := uploadFixture(t, s, "report.pdf")

	resp, err := s.ParseDocument(context.Background(), &models.ParseRequest{Filename: "report.pdf"})
	require.NoError(t, err)

	assert.Equal(t, "fake", resp.Strategy)
	assert.Equal(t, 2, resp.TotalPages)
	assert.Equal(t, 2, resp.TableSummary.TotalTables)
	assert.Equal(t, 1, resp.TableSummary.MarkdownTables)
	assert.Equal(t, 1, resp.TableSummary.JSONTables)
	assert.Equal(t, []string{"table_002"}, resp.TableSummary.JSONTableIDs)

	content, err := os.ReadFile(resp.ContentMDPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "| A | B |")
	assert.Contains(t, string(content), "> **Table 002**: Big one (see `tables/table_002.json`)")

	rec, err := tables.ReadRecord(filepath.Join(resp.OutputFolder, "tables", "table_002.json"))
	require.NoError(t, err)
	assert.True(t, rec.Complexity.IsComplex)
	assert.Equal(t, "Big one", rec.Caption)

	// Metadata store reflects the parse.
	updated, err := st.GetDocument(doc.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, updated.ParsingStatus)
	assert.Equal(t, 2, updated.TotalPages)

	rows, err := st.ListTables(doc.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.False(t, rows[0].IsComplex)
	assert.True(t, rows[1].IsComplex)
	assert.Equal(t, filepath.Join("tables", "table_002.json"), rows[1].JSONPath)

	history, err := st.ListHistory(doc.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "completed", history[0].ParsingStatus)
	assert.Equal(t, 1, history[0].JSONTables)
}

func TestParseDocumentEngineFailure(t *testing.T) {
	eng := &fakeEngine{name: "fake", err: assert.AnError}
	s, st, _ := newTestService(t, eng)
	doc := uploadFixture(t, s, "bad.pdf")

	_, err := s.ParseDocument(context.Background(), &models.ParseRequest{Filename: "bad.pdf"})
	require.Error(t, err)

	updated, err := st.GetDocument(doc.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, updated.ParsingStatus)

	history, err := st.ListHistory(doc.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "failed", history[0].ParsingStatus)
	assert.NotEmpty(t, history[0].ErrorMessage)
}

func TestParseDocumentUnknownFile(t *testing.T) {
	s, _, _ := newTestService(t, &fakeEngine{name: "fake", result: &engine.Result{Engine: "fake"}})

	_, err := s.ParseDocument(context.Background(), &models.ParseRequest{Filename: "missing.pdf"})
	assert.ErrorContains(t, err, "not uploaded")
}

func TestParseAsync(t *testing.T) {
	s, _, q := newTestService(t, &fakeEngine{name: "fake", result: &engine.Result{Engine: "fake"}})
	uploadFixture(t, s, "queued.pdf")

	jobID, err := s.ParseAsync(context.Background(), &models.ParseRequest{Filename: "queued.pdf", Strategy: "fake"})
	require.NoError(t, err)
	require.Len(t, q.enqueued, 1)
	assert.Equal(t, jobID, q.enqueued[0].JobID)

	status, err := s.JobStatus(context.Background(), jobID)
	require.NoError(t, err)
	assert.Equal(t, queue.JobStatusQueued, status.Status)

	_, err = s.ParseAsync(context.Background(), &models.ParseRequest{Filename: "never.pdf"})
	assert.ErrorContains(t, err, "not uploaded")
}

func TestAttachTableSummary(t *testing.T) {
	eng := &fakeEngine{
		name: "fake",
		result: &engine.Result{
			Engine:   "fake",
			Markdown: "",
			Pages:    1,
			Tables: []models.RawTable{
				{Page: 1, Rows: 4, Cols: 4,
					Headers: [][]models.TableCell{{{Text: "a"}, {Text: "b"}, {Text: "c"}, {Text: "d"}}},
					Body: [][]models.TableCell{
						{{Text: "1"}, {Text: "2"}, {Text: "3"}, {Text: "4"}},
						{{Text: "5"}, {Text: "6"}, {Text: "7"}, {Text: "8"}},
						{{Text: "9"}, {Text: "0"}, {Text: "1"}, {Text: "2"}},
					}},
			},
		},
	}
	s, st, _ := newTestService(t, eng)
	doc := uploadFixture(t, s, "summ.pdf")

	_, err := s.ParseDocument(context.Background(), &models.ParseRequest{Filename: "summ.pdf"})
	require.NoError(t, err)

	rows, err := st.ListTables(doc.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.True(t, rows[0].IsComplex)

	_, err = s.AttachTableSummary(rows[0].ID, "   ")
	assert.ErrorContains(t, err, "summary cannot be empty")

	row, err := s.AttachTableSummary(rows[0].ID, "Four by four grid.")
	require.NoError(t, err)
	require.NotNil(t, row.Summary)
	assert.Equal(t, "Four by four grid.", *row.Summary)

	// The JSON record on disk carries the summary too.
	updatedDoc, err := st.GetDocument(doc.ID)
	require.NoError(t, err)
	rec, err := tables.ReadRecord(filepath.Join(updatedDoc.OutputFolder, row.JSONPath))
	require.NoError(t, err)
	require.NotNil(t, rec.Summary)
	assert.Equal(t, "Four by four grid.", *rec.Summary)
}

func TestResult(t *testing.T) {
	eng := &fakeEngine{
		name:   "fake",
		result: &engine.Result{Engine: "fake", Markdown: "# Parsed\n", Pages: 1},
	}
	s, _, _ := newTestService(t, eng)
	uploadFixture(t, s, "res.pdf")

	_, _, err := s.Result("res.pdf")
	assert.ErrorContains(t, err, "has not been parsed")

	_, err = s.ParseDocument(context.Background(), &models.ParseRequest{Filename: "res.pdf"})
	require.NoError(t, err)

	content, manifest, err := s.Result("res.pdf")
	require.NoError(t, err)
	assert.Contains(t, content, "# Parsed")
	require.NotNil(t, manifest)
	assert.Equal(t, "fake", manifest.Strategy)
	assert.Equal(t, 1, manifest.TotalPages)
}
