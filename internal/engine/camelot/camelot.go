package camelot

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/kca-ai/document-parser/config"
	"github.com/kca-ai/document-parser/internal/engine"
	"github.com/kca-ai/document-parser/internal/models"
	"github.com/kca-ai/document-parser/pkg/logger"
)

// Engine extracts tables through the camelot sidecar service. Camelot is
// PDF-only and reports plain cell grids without merge metadata, so every
// table it produces comes back merge-free. Page text is limited to the
// table regions; callers wanting full prose typically pair this strategy
// with docling output.
type Engine struct {
	cfg    config.CamelotConfig
	client *http.Client
	logger logger.Logger
}

type extractRequest struct {
	Filename          string  `json:"filename"`
	FileBase64        string  `json:"file_base64"`
	Mode              string  `json:"mode"`
	Pages             string  `json:"pages"`
	AccuracyThreshold float64 `json:"lattice_accuracy_threshold"`
}

type extractedTable struct {
	Page     int        `json:"page"`
	Accuracy float64    `json:"accuracy"`
	Mode     string     `json:"extraction_mode"`
	Cells    [][]string `json:"cells"`
}

type extractResponse struct {
	Pages  int              `json:"pages"`
	Tables []extractedTable `json:"tables"`
}

func New(cfg config.CamelotConfig, log logger.Logger) *Engine {
	return &Engine{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.RequestTimeout},
		logger: log,
	}
}

func (e *Engine) Name() string { return "camelot" }

func (e *Engine) CanParse(ext string) bool {
	return ext == ".pdf"
}

func (e *Engine) Available(ctx context.Context) bool {
	return engine.HealthCheck(ctx, e.client, e.cfg.Endpoint, 5*time.Second)
}

func (e *Engine) Parse(ctx context.Context, in engine.Input) (*engine.Result, error) {
	data, err := os.ReadFile(in.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pdf: %w", err)
	}

	mode := e.cfg.Mode
	if v, ok := in.Options["camelot_mode"]; ok && v != "" {
		mode = v
	}

	e.logger.Info("Calling camelot server",
		logger.String("endpoint", e.cfg.Endpoint),
		logger.String("mode", mode),
		logger.String("filename", in.Filename),
	)

	var resp extractResponse
	err = engine.PostJSON(ctx, e.client, e.cfg.Endpoint+"/extract", extractRequest{
		Filename:          in.Filename,
		FileBase64:        base64.StdEncoding.EncodeToString(data),
		Mode:              mode,
		Pages:             "all",
		AccuracyThreshold: e.cfg.AccuracyThreshold,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("camelot extraction failed: %w", err)
	}

	result := &engine.Result{
		Engine: e.Name(),
		Pages:  resp.Pages,
		Tables: make([]models.RawTable, 0, len(resp.Tables)),
	}

	var md strings.Builder
	for i, t := range resp.Tables {
		raw := toRawTable(t)
		result.Tables = append(result.Tables, raw)
		if t.Accuracy > 0 && t.Accuracy < e.cfg.AccuracyThreshold {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("table %d on page %d extracted with low accuracy %.2f", i+1, t.Page, t.Accuracy))
		}
		fmt.Fprintf(&md, "## Table on page %d\n\n", t.Page)
	}
	result.Markdown = strings.TrimSpace(md.String())

	return result, nil
}

// toRawTable treats the first camelot row as header, matching how its
// DataFrame output is consumed upstream.
func toRawTable(t extractedTable) models.RawTable {
	rows := make([][]models.TableCell, 0, len(t.Cells))
	cols := 0
	for _, cells := range t.Cells {
		row := make([]models.TableCell, 0, len(cells))
		for _, text := range cells {
			row = append(row, models.TableCell{Text: text})
		}
		if len(row) > cols {
			cols = len(row)
		}
		rows = append(rows, row)
	}

	raw := models.RawTable{
		Page: t.Page,
		Rows: len(rows),
		Cols: cols,
	}
	if len(rows) >= 2 {
		raw.Headers = rows[:1]
		raw.Body = rows[1:]
	} else {
		raw.Body = rows
	}
	return raw
}
