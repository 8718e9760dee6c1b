package tables

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kca-ai/document-parser/internal/models"
)

func cells(texts ...string) []models.TableCell {
	row := make([]models.TableCell, len(texts))
	for i, t := range texts {
		row[i] = models.TableCell{Text: t}
	}
	return row
}

func TestNormalizeGridIdempotentOnUniformInput(t *testing.T) {
	rows := [][]models.TableCell{
		cells("a", "b", "c"),
		cells("1", "2", "3"),
	}
	got := NormalizeGrid(rows, 3)
	assert.Equal(t, [][]string{{"a", "b", "c"}, {"1", "2", "3"}}, got)

	// normalizing the already-uniform output again changes nothing
	again := NormalizeGrid(rows, 3)
	assert.Equal(t, got, again)
}

func TestNormalizeGridPadsShortRows(t *testing.T) {
	rows := [][]models.TableCell{
		cells("a"),
		cells("1", "2"),
	}
	got := NormalizeGrid(rows, 4)
	assert.Equal(t, [][]string{
		{"a", "", "", ""},
		{"1", "2", "", ""},
	}, got)
	for _, row := range got {
		assert.Len(t, row, 4)
	}
}

func TestNormalizeGridColumnSpans(t *testing.T) {
	// a 3-cell physical row representing a 5-column span: the merged text
	// lands in the first spanned column, the rest stay empty
	rows := [][]models.TableCell{
		{
			{Text: "merged", ColSpan: 3},
			{Text: "x"},
			{Text: "y"},
		},
	}
	got := NormalizeGrid(rows, 5)
	assert.Equal(t, [][]string{{"merged", "", "", "x", "y"}}, got)
}

func TestNormalizeGridTruncatesOverlongRows(t *testing.T) {
	rows := [][]models.TableCell{cells("a", "b", "c", "d")}
	got := NormalizeGrid(rows, 2)
	assert.Equal(t, [][]string{{"a", "b"}}, got)
}

func TestNormalizeGridEmptyInputs(t *testing.T) {
	assert.Empty(t, NormalizeGrid(nil, 3))
	assert.Empty(t, NormalizeGrid([][]models.TableCell{cells("a")}, 0))
	assert.Empty(t, NormalizeGrid([][]models.TableCell{cells("a")}, -2))
}

func TestHasSpans(t *testing.T) {
	assert.False(t, HasSpans([][]models.TableCell{cells("a", "b")}))
	assert.True(t, HasSpans([][]models.TableCell{{{Text: "a", RowSpan: 2}}}))
	assert.True(t, HasSpans([][]models.TableCell{{{Text: "a", ColSpan: 2}}}))
}
