package docling

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/kca-ai/document-parser/config"
	"github.com/kca-ai/document-parser/internal/engine"
	"github.com/kca-ai/document-parser/internal/models"
	"github.com/kca-ai/document-parser/pkg/logger"
)

// Engine converts documents through a docling-serve instance. Docling
// reports tables as cell grids with explicit row/col spans, which maps
// directly onto the RawTable contract.
type Engine struct {
	cfg    config.DoclingConfig
	client *http.Client
	logger logger.Logger
}

type convertRequest struct {
	Filename   string            `json:"filename"`
	FileBase64 string            `json:"file_base64"`
	Options    map[string]string `json:"options,omitempty"`
}

type gridCell struct {
	Text    string `json:"text"`
	RowSpan int    `json:"row_span"`
	ColSpan int    `json:"col_span"`
}

type convertedTable struct {
	Page    int          `json:"page"`
	Caption string       `json:"caption"`
	NumRows int          `json:"num_rows"`
	NumCols int          `json:"num_cols"`
	Grid    [][]gridCell `json:"grid"`
}

type convertedPicture struct {
	Page   int    `json:"page"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Path   string `json:"path"`
}

type convertResponse struct {
	Markdown string             `json:"markdown"`
	Pages    int                `json:"pages"`
	Tables   []convertedTable   `json:"tables"`
	Pictures []convertedPicture `json:"pictures"`
}

func New(cfg config.DoclingConfig, log logger.Logger) *Engine {
	return &Engine{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.RequestTimeout},
		logger: log,
	}
}

func (e *Engine) Name() string { return "docling" }

func (e *Engine) CanParse(ext string) bool {
	switch ext {
	case ".pdf", ".docx", ".pptx", ".html":
		return true
	}
	return false
}

func (e *Engine) Available(ctx context.Context) bool {
	return engine.HealthCheck(ctx, e.client, e.cfg.Endpoint, 5*time.Second)
}

func (e *Engine) Parse(ctx context.Context, in engine.Input) (*engine.Result, error) {
	data, err := os.ReadFile(in.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}

	e.logger.Info("Calling docling server",
		logger.String("endpoint", e.cfg.Endpoint),
		logger.String("filename", in.Filename),
	)

	var resp convertResponse
	err = engine.PostJSON(ctx, e.client, e.cfg.Endpoint+"/convert", convertRequest{
		Filename:   in.Filename,
		FileBase64: base64.StdEncoding.EncodeToString(data),
		Options:    in.Options,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("docling conversion failed: %w", err)
	}

	result := &engine.Result{
		Engine:   e.Name(),
		Markdown: resp.Markdown,
		Pages:    resp.Pages,
		Tables:   make([]models.RawTable, 0, len(resp.Tables)),
	}

	for _, t := range resp.Tables {
		result.Tables = append(result.Tables, toRawTable(t))
	}
	for i, p := range resp.Pictures {
		result.Pictures = append(result.Pictures, models.Picture{
			PictureID: fmt.Sprintf("picture_%03d", i+1),
			Page:      p.Page,
			Width:     p.Width,
			Height:    p.Height,
			ImagePath: p.Path,
		})
	}

	return result, nil
}

// toRawTable splits the docling grid into header and body. Docling does
// not flag header rows explicitly; like the upstream converter, the first
// grid row is treated as header whenever there are at least two rows.
func toRawTable(t convertedTable) models.RawTable {
	raw := models.RawTable{
		Page:    t.Page,
		Caption: t.Caption,
		Rows:    t.NumRows,
		Cols:    t.NumCols,
	}

	rows := make([][]models.TableCell, 0, len(t.Grid))
	for _, gridRow := range t.Grid {
		row := make([]models.TableCell, 0, len(gridRow))
		for _, c := range gridRow {
			if c.RowSpan > 1 || c.ColSpan > 1 {
				raw.HasMergedCells = true
			}
			row = append(row, models.TableCell{
				Text:    c.Text,
				RowSpan: c.RowSpan,
				ColSpan: c.ColSpan,
			})
		}
		rows = append(rows, row)
	}

	if len(rows) >= 2 {
		raw.Headers = rows[:1]
		raw.Body = rows[1:]
	} else {
		raw.Body = rows
	}
	return raw
}
