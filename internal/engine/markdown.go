package engine

import (
	"strings"

	"github.com/kca-ai/document-parser/internal/models"
)

// ScanMarkdownTables finds pipe tables in engine-generated markdown and
// converts them to the RawTable contract. Remote model servers (dolphin,
// mineru) return their tables embedded in the markdown stream, so this is
// how their output reaches the table pipeline. Page attribution is the
// caller's problem; tables found here carry page 0 unless the caller fixes
// them up.
func ScanMarkdownTables(markdown string) []models.RawTable {
	var tables []models.RawTable
	lines := strings.Split(markdown, "\n")

	var block []string
	flush := func() {
		if t, ok := tableFromBlock(block); ok {
			tables = append(tables, t)
		}
		block = nil
	}

	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "|") {
			block = append(block, strings.TrimSpace(line))
			continue
		}
		flush()
	}
	flush()

	return tables
}

// tableFromBlock interprets consecutive pipe lines as header, separator,
// body. Blocks without a separator line are not tables.
func tableFromBlock(block []string) (models.RawTable, bool) {
	if len(block) < 2 || !isSeparatorLine(block[1]) {
		return models.RawTable{}, false
	}

	header := splitRow(block[0])
	body := make([][]models.TableCell, 0, len(block)-2)
	cols := len(header)
	for _, line := range block[2:] {
		row := splitRow(line)
		if len(row) > cols {
			cols = len(row)
		}
		body = append(body, row)
	}

	return models.RawTable{
		Rows:    1 + len(body),
		Cols:    cols,
		Headers: [][]models.TableCell{header},
		Body:    body,
	}, true
}

func isSeparatorLine(line string) bool {
	trimmed := strings.Trim(line, "| ")
	if trimmed == "" {
		return false
	}
	for _, r := range trimmed {
		switch r {
		case '-', ':', '|', ' ':
		default:
			return false
		}
	}
	return strings.Contains(trimmed, "-")
}

func splitRow(line string) []models.TableCell {
	line = strings.Trim(line, "|")
	parts := strings.Split(line, "|")
	cells := make([]models.TableCell, len(parts))
	for i, p := range parts {
		cells[i] = models.TableCell{Text: strings.TrimSpace(p)}
	}
	return cells
}
