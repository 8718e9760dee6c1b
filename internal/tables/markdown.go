package tables

import (
	"strings"
)

// RenderMarkdown serializes a normalized grid as a pipe table: every header
// row, one dash separator, then every body row. Cell text has newlines
// collapsed to spaces and pipes escaped; an empty cell renders as an empty
// string between delimiters. With N header rows and M body rows the output
// has exactly N+1+M lines.
func RenderMarkdown(headers, body [][]string) string {
	cols := 0
	if len(headers) > 0 {
		cols = len(headers[0])
	} else if len(body) > 0 {
		cols = len(body[0])
	}
	if cols == 0 {
		return ""
	}

	var b strings.Builder
	for _, row := range headers {
		writeRow(&b, row)
	}
	if len(headers) > 0 {
		b.WriteString("|")
		b.WriteString(strings.Repeat("---|", cols))
		b.WriteString("\n")
	}
	for _, row := range body {
		writeRow(&b, row)
	}
	return strings.TrimRight(b.String(), "\n")
}

func writeRow(b *strings.Builder, row []string) {
	b.WriteString("| ")
	for i, cell := range row {
		if i > 0 {
			b.WriteString(" | ")
		}
		b.WriteString(sanitizeCell(cell))
	}
	b.WriteString(" |\n")
}

func sanitizeCell(text string) string {
	text = strings.ReplaceAll(text, "\r", " ")
	text = strings.ReplaceAll(text, "\n", " ")
	return strings.ReplaceAll(text, "|", "\\|")
}
