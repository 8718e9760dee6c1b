package tables

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kca-ai/document-parser/internal/models"
)

func TestExtractSimpleTableRendersInline(t *testing.T) {
	dir := t.TempDir()
	raw := []models.RawTable{{
		Page: 1,
		Rows: 3, Cols: 3,
		Headers: [][]models.TableCell{cells("A", "B", "C")},
		Body: [][]models.TableCell{
			cells("1", "2", "3"),
			cells("4", "5", "6"),
		},
	}}

	res := ExtractTables(raw, dir, DefaultThreshold, nil)

	require.Len(t, res.Outputs, 1)
	out := res.Outputs[0]
	assert.False(t, out.IsComplex)
	assert.Equal(t, "table_001", out.TableID)
	assert.Nil(t, out.Record)
	assert.Len(t, strings.Split(out.Inline, "\n"), 4)

	assert.Equal(t, 1, res.Summary.TotalTables)
	assert.Equal(t, 1, res.Summary.MarkdownTables)
	assert.Equal(t, 0, res.Summary.JSONTables)

	// no standalone record was written
	_, err := os.Stat(filepath.Join(dir, RecordDirName))
	assert.True(t, os.IsNotExist(err))
}

func TestExtractComplexTableWritesRecord(t *testing.T) {
	dir := t.TempDir()
	res := ExtractTables([]models.RawTable{complexFixture()}, dir, DefaultThreshold, nil)

	require.Len(t, res.Outputs, 1)
	out := res.Outputs[0]
	assert.True(t, out.IsComplex)
	require.NotNil(t, out.Record)
	assert.Equal(t, filepath.Join("tables", "table_001.json"), out.JSONPath)
	assert.Contains(t, out.Inline, "Table 001")
	assert.Contains(t, out.Inline, "tables/table_001.json")

	rec, err := ReadRecord(filepath.Join(dir, out.JSONPath))
	require.NoError(t, err)
	assert.Equal(t, "table_001", rec.TableID)
	assert.Equal(t, 2, rec.Page)
	assert.Equal(t, "Revenue by quarter", rec.Caption)
	assert.Equal(t, 5, rec.Complexity.Rows)
	assert.Equal(t, 5, rec.Complexity.Cols)
	assert.True(t, rec.Complexity.HasMergedCells)
	assert.True(t, rec.Complexity.IsComplex)
	assert.Len(t, rec.Structure.Headers, 1)
	assert.Len(t, rec.Structure.Rows, 4)

	assert.Equal(t, []string{"table_001"}, res.Summary.JSONTableIDs)
	assert.Equal(t, 1, res.Summary.JSONTables)
}

func TestExtractAssignsSequentialIDs(t *testing.T) {
	dir := t.TempDir()
	simple := models.RawTable{
		Rows: 2, Cols: 2,
		Headers: [][]models.TableCell{cells("a", "b")},
		Body:    [][]models.TableCell{cells("1", "2")},
	}
	res := ExtractTables([]models.RawTable{simple, complexFixture(), simple}, dir, DefaultThreshold, nil)

	require.Len(t, res.Outputs, 3)
	assert.Equal(t, "table_001", res.Outputs[0].TableID)
	assert.Equal(t, "table_002", res.Outputs[1].TableID)
	assert.Equal(t, "table_003", res.Outputs[2].TableID)
	assert.Equal(t, []string{"table_002"}, res.Summary.JSONTableIDs)
}

func TestExtractSkipsZeroDimensionTables(t *testing.T) {
	dir := t.TempDir()
	res := ExtractTables([]models.RawTable{
		{Rows: 0, Cols: 3},
		{Rows: 3, Cols: 0, HasMergedCells: true},
	}, dir, DefaultThreshold, nil)

	require.Len(t, res.Outputs, 2)
	for _, out := range res.Outputs {
		assert.False(t, out.IsComplex)
		assert.Empty(t, out.Inline)
		assert.Nil(t, out.Record)
	}
	assert.Equal(t, 2, res.Summary.TotalTables)
	assert.Equal(t, 0, res.Summary.MarkdownTables)
	assert.Equal(t, 0, res.Summary.JSONTables)
}
