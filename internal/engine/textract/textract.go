package textract

import (
	"context"
	"fmt"
	"os"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"

	cfg "github.com/kca-ai/document-parser/config"
	"github.com/kca-ai/document-parser/internal/engine"
	"github.com/kca-ai/document-parser/internal/models"
	"github.com/kca-ai/document-parser/pkg/logger"
)

// Engine runs AWS Textract document analysis with table detection. Cell
// row/column spans from Textract map straight onto the merged-cell signal.
type Engine struct {
	client        *textract.Client
	logger        logger.Logger
	minConfidence float32
}

func New(ctx context.Context, c *cfg.TextractConfig, log logger.Logger) (*Engine, error) {
	creds := credentials.NewStaticCredentialsProvider(c.AccessKey, c.SecretKey, "")

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(c.Region),
		awsconfig.WithCredentialsProvider(creds),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS config: %w", err)
	}

	return &Engine{
		client:        textract.NewFromConfig(awsCfg),
		logger:        log,
		minConfidence: 80.0,
	}, nil
}

func (e *Engine) Name() string { return "textract" }

func (e *Engine) CanParse(ext string) bool {
	switch ext {
	case ".png", ".jpg", ".jpeg", ".tiff", ".pdf":
		return true
	}
	return false
}

func (e *Engine) Available(ctx context.Context) bool {
	return e.client != nil
}

func (e *Engine) Parse(ctx context.Context, in engine.Input) (*engine.Result, error) {
	data, err := os.ReadFile(in.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}

	out, err := e.client.AnalyzeDocument(ctx, &textract.AnalyzeDocumentInput{
		Document:     &types.Document{Bytes: data},
		FeatureTypes: []types.FeatureType{types.FeatureTypeTables},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to analyze document: %w", err)
	}

	lines := e.collectLines(out.Blocks)
	tables := e.collectTables(out.Blocks)

	e.logger.Info("Textract analysis completed",
		logger.String("filename", in.Filename),
		logger.Int("lines", len(lines)),
		logger.Int("tables", len(tables)),
	)

	return &engine.Result{
		Engine:   e.Name(),
		Markdown: strings.Join(lines, "\n"),
		Pages:    1,
		Tables:   tables,
	}, nil
}

func (e *Engine) collectLines(blocks []types.Block) []string {
	var lines []string
	for _, block := range blocks {
		if block.BlockType == types.BlockTypeLine &&
			block.Confidence != nil &&
			*block.Confidence >= e.minConfidence &&
			block.Text != nil {
			lines = append(lines, *block.Text)
		}
	}
	return lines
}

// collectTables rebuilds each Textract table from its CELL children and
// converts it to the RawTable contract.
func (e *Engine) collectTables(blocks []types.Block) []models.RawTable {
	byID := make(map[string]types.Block, len(blocks))
	for _, block := range blocks {
		if block.Id != nil {
			byID[*block.Id] = block
		}
	}

	var tables []models.RawTable
	for _, block := range blocks {
		if block.BlockType != types.BlockTypeTable {
			continue
		}

		var cells []types.Block
		for _, rel := range block.Relationships {
			if rel.Type != types.RelationshipTypeChild {
				continue
			}
			for _, id := range rel.Ids {
				child, ok := byID[id]
				if ok && child.BlockType == types.BlockTypeCell {
					cells = append(cells, child)
				}
			}
		}
		if len(cells) == 0 {
			continue
		}

		rows, cols := 0, 0
		for _, c := range cells {
			if c.RowIndex != nil && int(*c.RowIndex) > rows {
				rows = int(*c.RowIndex)
			}
			if c.ColumnIndex != nil && int(*c.ColumnIndex) > cols {
				cols = int(*c.ColumnIndex)
			}
		}
		if rows == 0 || cols == 0 {
			continue
		}

		grid := make([][]models.TableCell, rows)
		for i := range grid {
			grid[i] = make([]models.TableCell, cols)
		}

		merged := false
		for _, c := range cells {
			if c.RowIndex == nil || c.ColumnIndex == nil {
				continue
			}
			cell := models.TableCell{Text: e.cellText(c, byID)}
			if c.RowSpan != nil && *c.RowSpan > 1 {
				cell.RowSpan = int(*c.RowSpan)
				merged = true
			}
			if c.ColumnSpan != nil && *c.ColumnSpan > 1 {
				cell.ColSpan = int(*c.ColumnSpan)
				merged = true
			}
			grid[*c.RowIndex-1][*c.ColumnIndex-1] = cell
		}

		raw := models.RawTable{
			Page:           1,
			Rows:           rows,
			Cols:           cols,
			HasMergedCells: merged,
		}
		if rows >= 2 {
			raw.Headers = grid[:1]
			raw.Body = grid[1:]
		} else {
			raw.Body = grid
		}
		tables = append(tables, raw)
	}
	return tables
}

// cellText joins the WORD children of a cell.
func (e *Engine) cellText(cell types.Block, byID map[string]types.Block) string {
	var b strings.Builder
	for _, rel := range cell.Relationships {
		if rel.Type != types.RelationshipTypeChild {
			continue
		}
		for _, id := range rel.Ids {
			child, ok := byID[id]
			if ok && child.Text != nil {
				if b.Len() > 0 {
					b.WriteString(" ")
				}
				b.WriteString(*child.Text)
			}
		}
	}
	return b.String()
}
