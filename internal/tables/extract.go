package tables

import (
	"fmt"

	"github.com/kca-ai/document-parser/internal/models"
	"github.com/kca-ai/document-parser/pkg/logger"
)

// Output is the per-table result of the extraction pipeline. Exactly one of
// the two rendering paths applies: simple tables carry inline markdown,
// complex tables carry a written record plus an inline placeholder. A
// zero-dimension table carries neither.
type Output struct {
	TableID   string
	Index     int
	IsComplex bool
	Inline    string
	Record    *models.TableRecord
	JSONPath  string
	Raw       models.RawTable
}

// ExtractResult holds the ordered per-table outputs and the document-level
// counters.
type ExtractResult struct {
	Outputs []Output
	Summary models.TableSummary
}

// ExtractTables runs the classifier over every detected table in document
// order, assigns sequential table_NNN identifiers, renders simple tables to
// markdown, and serializes complex tables to standalone records under
// outputDir. A failed record write skips that table and continues with the
// rest; the document as a whole never aborts on a single table.
func ExtractTables(raw []models.RawTable, outputDir string, threshold int, log logger.Logger) *ExtractResult {
	res := &ExtractResult{
		Outputs: make([]Output, 0, len(raw)),
		Summary: models.TableSummary{JSONTableIDs: []string{}},
	}

	for idx, t := range raw {
		tableID := fmt.Sprintf("table_%03d", idx+1)
		out := Output{TableID: tableID, Index: idx, Raw: t}

		comp := Complexity(t, threshold)
		out.IsComplex = comp.IsComplex
		res.Summary.TotalTables++

		// Degenerate grids are treated as simple and render nothing on
		// either path.
		if comp.Rows == 0 || comp.Cols == 0 {
			out.IsComplex = false
			if log != nil {
				log.Warn("Skipping empty table",
					logger.String("tableId", tableID),
					logger.Int("rows", comp.Rows),
					logger.Int("cols", comp.Cols),
				)
			}
			res.Outputs = append(res.Outputs, out)
			continue
		}

		if !comp.IsComplex {
			out.Inline = RenderMarkdown(
				NormalizeGrid(t.Headers, t.Cols),
				NormalizeGrid(t.Body, t.Cols),
			)
			res.Summary.MarkdownTables++
			res.Outputs = append(res.Outputs, out)
			continue
		}

		rec := BuildRecord(tableID, t, threshold)
		jsonPath, err := WriteRecord(outputDir, rec)
		if err != nil {
			if log != nil {
				log.Error("Failed to write table record",
					logger.String("tableId", tableID),
					logger.Error(err),
				)
			}
			res.Outputs = append(res.Outputs, out)
			continue
		}

		out.Record = &rec
		out.JSONPath = jsonPath
		out.Inline = Placeholder(tableID, t.Caption)
		res.Summary.JSONTables++
		res.Summary.JSONTableIDs = append(res.Summary.JSONTableIDs, tableID)
		res.Outputs = append(res.Outputs, out)
	}

	return res
}
