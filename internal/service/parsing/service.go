// Package parsing orchestrates the document pipeline: upload validation,
// engine dispatch, table extraction, output rendering, and metadata
// bookkeeping.
package parsing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kca-ai/document-parser/config"
	"github.com/kca-ai/document-parser/internal/engine"
	"github.com/kca-ai/document-parser/internal/models"
	"github.com/kca-ai/document-parser/internal/store"
	"github.com/kca-ai/document-parser/internal/tables"
	"github.com/kca-ai/document-parser/pkg/logger"
	"github.com/kca-ai/document-parser/pkg/queue"
	"github.com/kca-ai/document-parser/pkg/storage"
)

// Service runs the parse pipeline end to end.
type Service struct {
	registry *engine.Registry
	store    *store.Store
	storage  storage.Storage
	queue    queue.Queue
	logger   logger.Logger
	cfg      *config.AppConfig
}

func NewService(
	registry *engine.Registry,
	st *store.Store,
	fileStorage storage.Storage,
	q queue.Queue,
	cfg *config.AppConfig,
	log logger.Logger,
) *Service {
	return &Service{
		registry: registry,
		store:    st,
		storage:  fileStorage,
		queue:    q,
		logger:   log,
		cfg:      cfg,
	}
}

// Manifest is the machine-readable sidecar written next to content.md.
type Manifest struct {
	Filename     string              `json:"filename"`
	Strategy     string              `json:"strategy"`
	Engine       string              `json:"engine"`
	TotalPages   int                 `json:"total_pages"`
	TableSummary models.TableSummary `json:"table_summary"`
	Pictures     []models.Picture    `json:"pictures,omitempty"`
	Warnings     []string            `json:"warnings,omitempty"`
	GeneratedAt  time.Time           `json:"generated_at"`
}

// ValidateUpload rejects oversized files and unsupported extensions.
func (s *Service) ValidateUpload(filename string, size int64) error {
	if size > s.cfg.MaxFileSize {
		return fmt.Errorf("file size exceeds maximum limit of %d bytes", s.cfg.MaxFileSize)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	for _, t := range s.cfg.AllowedTypes {
		if strings.TrimSpace(t) == ext {
			return nil
		}
	}
	return fmt.Errorf("unsupported file type: %s", ext)
}

// UploadDocument stores the original file and registers its metadata row.
func (s *Service) UploadDocument(ctx context.Context, reader io.Reader, filename string, size int64) (*models.Document, error) {
	filename = filepath.Base(filename)
	if err := s.ValidateUpload(filename, size); err != nil {
		return nil, err
	}

	key, err := s.storage.Store(ctx, reader, filename)
	if err != nil {
		return nil, fmt.Errorf("failed to store file: %w", err)
	}

	doc := &models.Document{
		Filename:      filename,
		OriginalPath:  key,
		FileSize:      size,
		FileExtension: strings.ToLower(filepath.Ext(filename)),
	}
	id, err := s.store.UpsertDocument(doc)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Document uploaded",
		logger.String("filename", filename),
		logger.Int64("size", size),
		logger.Int64("documentId", id),
	)

	return s.store.GetDocument(id)
}

// ParseDocument runs the full synchronous pipeline for an uploaded file.
func (s *Service) ParseDocument(ctx context.Context, req *models.ParseRequest) (*models.ParseResponse, error) {
	started := time.Now()

	doc, err := s.store.GetDocumentByFilename(filepath.Base(req.Filename))
	if err != nil {
		return nil, fmt.Errorf("document not uploaded: %w", err)
	}

	strategy := req.Strategy
	if strategy == "" {
		strategy = s.cfg.DefaultStrategy
	}

	eng, err := s.registry.GetFor(strategy, doc.FileExtension)
	if err != nil {
		return nil, err
	}
	if !eng.Available(ctx) {
		return nil, fmt.Errorf("parsing strategy %s is not available", eng.Name())
	}

	if err := s.store.SetDocumentStatus(doc.ID, models.StatusProcessing); err != nil {
		s.logger.Error("Failed to mark document processing", logger.Error(err))
	}

	resp, err := s.runPipeline(ctx, doc, eng, req.Options)
	duration := time.Since(started).Seconds()

	if err != nil {
		if stErr := s.store.SetDocumentStatus(doc.ID, models.StatusFailed); stErr != nil {
			s.logger.Error("Failed to mark document failed", logger.Error(stErr))
		}
		s.recordHistory(doc.ID, &models.ParsingHistoryRow{
			DocumentID:      doc.ID,
			ParsingStatus:   string(models.StatusFailed),
			ParsingStrategy: eng.Name(),
			ErrorMessage:    err.Error(),
			DurationSeconds: duration,
		})
		return nil, err
	}

	resp.Strategy = eng.Name()
	resp.DurationSeconds = duration
	return resp, nil
}

// runPipeline does the work after the document and engine are resolved.
func (s *Service) runPipeline(ctx context.Context, doc *models.Document, eng engine.Engine, options map[string]string) (*models.ParseResponse, error) {
	path, cleanup, err := s.localPath(ctx, doc.Filename)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	parsed, err := eng.Parse(ctx, engine.Input{
		Path:     path,
		Filename: doc.Filename,
		Options:  options,
	})
	if err != nil {
		return nil, fmt.Errorf("parsing failed: %w", err)
	}

	stem := strings.TrimSuffix(doc.Filename, filepath.Ext(doc.Filename))
	outputDir := filepath.Join(s.cfg.OutputFolder, stem)
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	extraction := tables.ExtractTables(parsed.Tables, outputDir, s.cfg.TableThreshold, s.logger)
	content := ComposeContent(parsed.Markdown, extraction.Outputs)

	contentPath := filepath.Join(outputDir, "content.md")
	if err := os.WriteFile(contentPath, []byte(content), 0644); err != nil {
		return nil, fmt.Errorf("failed to write content: %w", err)
	}

	manifest := Manifest{
		Filename:     doc.Filename,
		Strategy:     eng.Name(),
		Engine:       parsed.Engine,
		TotalPages:   parsed.Pages,
		TableSummary: extraction.Summary,
		Pictures:     parsed.Pictures,
		Warnings:     parsed.Warnings,
		GeneratedAt:  time.Now().UTC(),
	}
	manifestPath := filepath.Join(outputDir, "manifest.json")
	if err := writeManifest(manifestPath, &manifest); err != nil {
		return nil, err
	}

	chunks := SplitChunks(content, 1000)
	s.persistResults(doc, eng.Name(), outputDir, contentPath, manifestPath, parsed, extraction, chunks)

	s.logger.Info("Document parsed",
		logger.String("filename", doc.Filename),
		logger.String("strategy", eng.Name()),
		logger.Int("pages", parsed.Pages),
		logger.Int("tables", extraction.Summary.TotalTables),
		logger.Int("jsonTables", extraction.Summary.JSONTables),
	)

	return &models.ParseResponse{
		Filename:      doc.Filename,
		Status:        string(models.StatusCompleted),
		OutputFolder:  outputDir,
		ContentMDPath: contentPath,
		TotalPages:    parsed.Pages,
		TableSummary:  extraction.Summary,
		Warnings:      parsed.Warnings,
	}, nil
}

// persistResults records the outcome in the metadata store. Bookkeeping
// failures are logged, not fatal: the rendered output already exists on
// disk.
func (s *Service) persistResults(
	doc *models.Document,
	strategy, outputDir, contentPath, manifestPath string,
	parsed *engine.Result,
	extraction *tables.ExtractResult,
	chunks []string,
) {
	if err := s.store.MarkDocumentParsed(doc.ID, strategy, outputDir, contentPath, manifestPath, parsed.Pages); err != nil {
		s.logger.Error("Failed to update document row", logger.Error(err))
	}

	rows := make([]models.TableRow, 0, len(extraction.Outputs))
	for _, out := range extraction.Outputs {
		row := models.TableRow{
			TableID:        out.TableID,
			TableIndex:     out.Index + 1,
			Page:           out.Raw.Page,
			Caption:        out.Raw.Caption,
			Rows:           out.Raw.Rows,
			Cols:           out.Raw.Cols,
			HasMergedCells: out.Raw.HasMergedCells,
			IsComplex:      out.IsComplex,
			JSONPath:       out.JSONPath,
			ParsingMethod:  strategy,
		}
		rows = append(rows, row)
	}
	if err := s.store.ReplaceTables(doc.ID, rows); err != nil {
		s.logger.Error("Failed to store table rows", logger.Error(err))
	}

	if err := s.store.ReplaceChunks(doc.ID, chunks); err != nil {
		s.logger.Error("Failed to store chunks", logger.Error(err))
	}
	if err := s.store.ReplacePictures(doc.ID, parsed.Pictures); err != nil {
		s.logger.Error("Failed to store pictures", logger.Error(err))
	}

	s.recordHistory(doc.ID, &models.ParsingHistoryRow{
		DocumentID:      doc.ID,
		ParsingStatus:   string(models.StatusCompleted),
		ParsingStrategy: strategy,
		TotalChunks:     len(chunks),
		TotalTables:     extraction.Summary.TotalTables,
		MarkdownTables:  extraction.Summary.MarkdownTables,
		JSONTables:      extraction.Summary.JSONTables,
	})
}

func (s *Service) recordHistory(docID int64, row *models.ParsingHistoryRow) {
	if err := s.store.AddHistory(row); err != nil {
		s.logger.Error("Failed to record parsing history",
			logger.Int64("documentId", docID),
			logger.Error(err),
		)
	}
}

// localPath resolves a stored document to a path on local disk. Remote
// backends are fetched into a temp file that the cleanup removes.
func (s *Service) localPath(ctx context.Context, filename string) (string, func(), error) {
	direct := filepath.Join(s.cfg.DocuFolder, filename)
	if _, err := os.Stat(direct); err == nil {
		return direct, func() {}, nil
	}

	reader, err := s.storage.Get(ctx, filename)
	if err != nil {
		return "", nil, fmt.Errorf("failed to fetch document: %w", err)
	}
	defer reader.Close()

	tmp, err := os.CreateTemp("", "parse-*"+filepath.Ext(filename))
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := io.Copy(tmp, reader); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", nil, fmt.Errorf("failed to copy document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", nil, err
	}

	name := tmp.Name()
	return name, func() { os.Remove(name) }, nil
}

// ParseAsync queues a parse job and returns its id.
func (s *Service) ParseAsync(ctx context.Context, req *models.ParseRequest) (string, error) {
	filename := filepath.Base(req.Filename)
	if _, err := s.store.GetDocumentByFilename(filename); err != nil {
		return "", fmt.Errorf("document not uploaded: %w", err)
	}

	jobID := uuid.New().String()
	err := s.queue.EnqueueParse(ctx, &queue.ParsePayload{
		JobID:    jobID,
		Filename: filename,
		Strategy: req.Strategy,
		Options:  req.Options,
	})
	if err != nil {
		return "", err
	}

	s.logger.Info("Parse job queued",
		logger.String("jobId", jobID),
		logger.String("filename", filename),
	)
	return jobID, nil
}

// JobStatus reports the state of an asynchronous parse.
func (s *Service) JobStatus(ctx context.Context, jobID string) (*queue.JobStatus, error) {
	return s.queue.GetJobStatus(ctx, jobID)
}

// HandleParseJob is the worker-side entry point for one queued job.
func (s *Service) HandleParseJob(ctx context.Context, payload *queue.ParsePayload) error {
	_, err := s.ParseDocument(ctx, &models.ParseRequest{
		Filename: payload.Filename,
		Strategy: payload.Strategy,
		Options:  payload.Options,
	})
	return err
}

// AttachTableSummary stores an externally produced summary on a table row
// and, when the table has a JSON record on disk, rewrites the record with
// the summary attached.
func (s *Service) AttachTableSummary(tableRowID int64, summary string) (*models.TableRow, error) {
	if strings.TrimSpace(summary) == "" {
		return nil, fmt.Errorf("summary cannot be empty")
	}

	if err := s.store.AttachTableSummary(tableRowID, summary); err != nil {
		return nil, err
	}

	row, err := s.store.GetTableRow(tableRowID)
	if err != nil {
		return nil, err
	}

	if row.JSONPath != "" {
		doc, err := s.store.GetDocument(row.DocumentID)
		if err == nil && doc.OutputFolder != "" {
			recPath := filepath.Join(doc.OutputFolder, row.JSONPath)
			if rec, err := tables.ReadRecord(recPath); err == nil {
				tables.AttachSummary(&rec, summary)
				if _, err := tables.WriteRecord(doc.OutputFolder, rec); err != nil {
					s.logger.Error("Failed to rewrite table record",
						logger.String("tableId", row.TableID),
						logger.Error(err),
					)
				}
			}
		}
	}

	return row, nil
}

// Result loads the rendered output of a previously parsed document.
func (s *Service) Result(filename string) (string, *Manifest, error) {
	doc, err := s.store.GetDocumentByFilename(filepath.Base(filename))
	if err != nil {
		return "", nil, err
	}
	if doc.ParsingStatus != models.StatusCompleted || doc.ContentMDPath == "" {
		return "", nil, fmt.Errorf("document %s has not been parsed", doc.Filename)
	}

	content, err := os.ReadFile(doc.ContentMDPath)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read content: %w", err)
	}

	var manifest *Manifest
	if doc.ManifestPath != "" {
		if data, err := os.ReadFile(doc.ManifestPath); err == nil {
			var m Manifest
			if err := json.Unmarshal(data, &m); err == nil {
				manifest = &m
			}
		}
	}

	return string(content), manifest, nil
}

func writeManifest(path string, m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}
