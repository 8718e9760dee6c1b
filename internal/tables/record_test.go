package tables

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kca-ai/document-parser/internal/models"
)

func complexFixture() models.RawTable {
	return models.RawTable{
		Page:           2,
		Caption:        "Revenue by quarter",
		Rows:           5,
		Cols:           5,
		HasMergedCells: true,
		Headers: [][]models.TableCell{
			cells("H1", "H2", "H3", "H4", "H5"),
		},
		Body: [][]models.TableCell{
			cells("a", "b", "c", "d", "e"),
			cells("f", "g", "h", "i", "j"),
			cells("k", "l", "m", "n", "o"),
			cells("p", "q", "r", "s", "t"),
		},
	}
}

func TestRecordRoundTrip(t *testing.T) {
	dir := t.TempDir()
	rec := BuildRecord("table_001", complexFixture(), DefaultThreshold)

	relPath, err := WriteRecord(dir, rec)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("tables", "table_001.json"), relPath)

	got, err := ReadRecord(filepath.Join(dir, relPath))
	require.NoError(t, err)

	assert.Equal(t, rec.TableID, got.TableID)
	assert.Equal(t, rec.Complexity.Rows, got.Complexity.Rows)
	assert.Equal(t, rec.Complexity.Cols, got.Complexity.Cols)
	assert.Equal(t, rec.Complexity.HasMergedCells, got.Complexity.HasMergedCells)
	assert.Equal(t, rec.Complexity.IsComplex, got.Complexity.IsComplex)
	assert.Equal(t, rec.Structure.Headers, got.Structure.Headers)
	assert.Equal(t, rec.Structure.Rows, got.Structure.Rows)
	assert.Nil(t, got.Summary)
}

func TestRecordOmitsSummaryWhenNeverAttached(t *testing.T) {
	rec := BuildRecord("table_001", complexFixture(), DefaultThreshold)
	data, err := json.Marshal(rec)
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	_, present := raw["summary"]
	assert.False(t, present, "summary key must be absent, not empty")
}

func TestAttachSummary(t *testing.T) {
	rec := BuildRecord("table_001", complexFixture(), DefaultThreshold)

	AttachSummary(&rec, "")
	assert.Nil(t, rec.Summary)

	AttachSummary(&rec, "Quarterly revenue broken down by region.")
	require.NotNil(t, rec.Summary)
	assert.Equal(t, "Quarterly revenue broken down by region.", *rec.Summary)

	data, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"summary"`)
}

func TestPlaceholderFormat(t *testing.T) {
	got := Placeholder("table_007", "Budget overview")
	assert.Equal(t, "> **Table 007**: Budget overview (see `tables/table_007.json`)", got)

	// without a caption the id stands in for the name
	got = Placeholder("table_012", "")
	assert.Equal(t, "> **Table 012** (see `tables/table_012.json`)", got)

	// the viewer's detection contract: the word Table, a number, and a
	// path ending in table_<id>.json
	viewerPattern := regexp.MustCompile("Table (\\d+).*tables/table_\\d+\\.json")
	assert.Regexp(t, viewerPattern, got)
}

func TestWriteRecordPropagatesIOErrors(t *testing.T) {
	dir := t.TempDir()
	// occupy the tables path with a file so MkdirAll fails
	require.NoError(t, os.WriteFile(filepath.Join(dir, RecordDirName), []byte("x"), 0644))

	_, err := WriteRecord(dir, BuildRecord("table_001", complexFixture(), DefaultThreshold))
	assert.Error(t, err)
}
