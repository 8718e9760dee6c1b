package tables

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderMarkdownLineCount(t *testing.T) {
	headers := [][]string{{"A", "B", "C"}}
	body := [][]string{
		{"1", "2", "3"},
		{"4", "5", "6"},
	}
	md := RenderMarkdown(headers, body)
	lines := strings.Split(md, "\n")
	// N header rows + 1 separator + M body rows
	assert.Len(t, lines, 4)
	assert.Equal(t, "| A | B | C |", lines[0])
	assert.Equal(t, "|---|---|---|", lines[1])
	assert.Equal(t, "| 1 | 2 | 3 |", lines[2])
}

func TestRenderMarkdownMultiRowHeader(t *testing.T) {
	headers := [][]string{
		{"Group", "Group"},
		{"A", "B"},
	}
	body := [][]string{{"1", "2"}}
	lines := strings.Split(RenderMarkdown(headers, body), "\n")
	assert.Len(t, lines, 4)
	// separator comes after the last header row
	assert.Equal(t, "|---|---|", lines[2])
}

func TestRenderMarkdownSanitizesCells(t *testing.T) {
	md := RenderMarkdown(
		[][]string{{"a|b", "line1\nline2"}},
		[][]string{{"", "x\r\ny"}},
	)
	assert.Contains(t, md, `a\|b`)
	assert.Contains(t, md, "line1 line2")
	assert.NotContains(t, md, "\r")
	// empty cell renders as empty string between delimiters
	assert.Contains(t, md, "|  | x  y |")
}

func TestRenderMarkdownNoHeaders(t *testing.T) {
	lines := strings.Split(RenderMarkdown(nil, [][]string{{"1", "2"}}), "\n")
	// no header rows means no separator line
	assert.Len(t, lines, 1)
	assert.Equal(t, "| 1 | 2 |", lines[0])
}

func TestRenderMarkdownEmptyGrid(t *testing.T) {
	assert.Equal(t, "", RenderMarkdown(nil, nil))
}
