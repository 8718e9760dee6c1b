package tables

import (
	"github.com/kca-ai/document-parser/internal/models"
)

// DefaultThreshold is the grid-size threshold for the complexity decision.
const DefaultThreshold = 4

// Classify decides whether a table must be preserved as a structured record
// instead of flattened to inline markdown. A table is complex when the grid
// is at least threshold x threshold, or when any cell spans more than one
// row or column. Total over all inputs; a threshold <= 0 falls back to the
// default.
func Classify(rows, cols int, hasMergedCells bool, threshold int) bool {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return (rows >= threshold && cols >= threshold) || hasMergedCells
}

// Complexity runs the classification for a raw table and returns the
// decision together with the signals it was derived from. Negative
// dimensions are clamped to zero.
func Complexity(t models.RawTable, threshold int) models.TableComplexity {
	rows, cols := t.Rows, t.Cols
	if rows < 0 {
		rows = 0
	}
	if cols < 0 {
		cols = 0
	}
	return models.TableComplexity{
		Rows:           rows,
		Cols:           cols,
		HasMergedCells: t.HasMergedCells,
		IsComplex:      Classify(rows, cols, t.HasMergedCells, threshold),
	}
}
