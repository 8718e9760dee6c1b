package tables

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kca-ai/document-parser/internal/models"
)

// RecordDirName is the subfolder, next to a document's rendered output,
// that holds one JSON file per complex table.
const RecordDirName = "tables"

// BuildRecord assembles the standalone record for a raw table: complexity
// signals plus the normalized structure. Summary stays nil until attached.
func BuildRecord(tableID string, t models.RawTable, threshold int) models.TableRecord {
	return models.TableRecord{
		TableID:    tableID,
		Page:       t.Page,
		Caption:    t.Caption,
		Complexity: Complexity(t, threshold),
		Structure: models.TableStructure{
			Headers: NormalizeGrid(t.Headers, t.Cols),
			Rows:    NormalizeGrid(t.Body, t.Cols),
		},
	}
}

// WriteRecord persists a record under <outputDir>/tables/<table_id>.json and
// returns the path relative to outputDir. I/O errors propagate to the
// caller; there is no retry here.
func WriteRecord(outputDir string, rec models.TableRecord) (string, error) {
	dir := filepath.Join(outputDir, RecordDirName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create tables directory: %w", err)
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal table record: %w", err)
	}

	relPath := filepath.Join(RecordDirName, rec.TableID+".json")
	if err := os.WriteFile(filepath.Join(outputDir, relPath), data, 0644); err != nil {
		return "", fmt.Errorf("failed to write table record: %w", err)
	}
	return relPath, nil
}

// ReadRecord loads a previously written record.
func ReadRecord(path string) (models.TableRecord, error) {
	var rec models.TableRecord
	data, err := os.ReadFile(path)
	if err != nil {
		return rec, fmt.Errorf("failed to read table record: %w", err)
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, fmt.Errorf("failed to parse table record: %w", err)
	}
	return rec, nil
}

// Placeholder builds the inline reference left in the document body for a
// complex table, e.g.
//
//	> **Table 001**: Revenue by quarter (see `tables/table_001.json`)
//
// The viewer detects exactly this shape (the word Table, the number, and
// the table_<id>.json path), so the wording must not drift.
func Placeholder(tableID, caption string) string {
	num := tableID
	if i := strings.LastIndex(tableID, "_"); i >= 0 {
		num = tableID[i+1:]
	}
	ref := fmt.Sprintf("> **Table %s**", num)
	if caption != "" {
		ref += ": " + caption
	}
	ref += fmt.Sprintf(" (see `%s/%s.json`)", RecordDirName, tableID)
	return ref
}

// AttachSummary sets the externally supplied natural-language summary on a
// record. An empty string is ignored so that a record never carries an
// empty summary in place of "no summary available".
func AttachSummary(rec *models.TableRecord, summary string) {
	if summary == "" {
		return
	}
	rec.Summary = &summary
}
