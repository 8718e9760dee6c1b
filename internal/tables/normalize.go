package tables

import (
	"github.com/kca-ai/document-parser/internal/models"
)

// NormalizeGrid converts engine-reported rows, which may be ragged because
// of merge spans, into a uniform grid where every row has exactly cols
// entries. A cell with ColSpan > 1 contributes its text to the first
// spanned column and empty strings for the rest; rows shorter than cols
// are right-padded with empty strings, longer rows are cut at cols.
// A non-positive cols yields an empty grid.
func NormalizeGrid(rows [][]models.TableCell, cols int) [][]string {
	if cols <= 0 || len(rows) == 0 {
		return [][]string{}
	}

	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		normalized := make([]string, cols)
		pos := 0
		for _, cell := range row {
			if pos >= cols {
				break
			}
			normalized[pos] = cell.Text
			span := cell.ColSpan
			if span < 1 {
				span = 1
			}
			// spanned positions beyond the first stay empty
			pos += span
		}
		out = append(out, normalized)
	}
	return out
}

// HasSpans reports whether any cell in the given rows declares a row or
// column span larger than one. Engines that do not report spans (camelot)
// always come back false here.
func HasSpans(rows [][]models.TableCell) bool {
	for _, row := range rows {
		for _, cell := range row {
			if cell.RowSpan > 1 || cell.ColSpan > 1 {
				return true
			}
		}
	}
	return false
}
