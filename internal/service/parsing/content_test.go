package parsing

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kca-ai/document-parser/internal/tables"
)

func TestComposeContentReplacesTableBlocks(t *testing.T) {
	markdown := `# Doc

intro

| A | B |
|---|---|
| 1 | 2 |

outro
`
	outputs := []tables.Output{
		{TableID: "table_001", Inline: "> **Table 001** (see `tables/table_001.json`)"},
	}

	content := ComposeContent(markdown, outputs)

	assert.NotContains(t, content, "| A | B |")
	assert.Contains(t, content, "> **Table 001** (see `tables/table_001.json`)")
	assert.Contains(t, content, "intro")
	assert.Contains(t, content, "outro")
}

func TestComposeContentKeepsSimpleTablesInline(t *testing.T) {
	markdown := "| A |\n|---|\n| 1 |\n"
	rendered := "| A |\n|---|\n| 1 |"
	content := ComposeContent(markdown, []tables.Output{{Inline: rendered}})
	assert.Contains(t, content, rendered)
}

func TestComposeContentAppendsUnmatchedOutputs(t *testing.T) {
	// Engines like docling report tables out of band; their placeholders
	// land in a trailing section.
	content := ComposeContent("# Doc\n\nprose only\n", []tables.Output{
		{Inline: "| X |\n|---|\n| 1 |"},
		{Inline: "> **Table 002** (see `tables/table_002.json`)"},
	})

	assert.Contains(t, content, "## Extracted Tables")
	idx := strings.Index(content, "## Extracted Tables")
	assert.Contains(t, content[idx:], "| X |")
	assert.Contains(t, content[idx:], "Table 002")
}

func TestComposeContentDropsZeroDimensionTables(t *testing.T) {
	markdown := "before\n\n| A | B |\n|---|---|\n| 1 | 2 |\n\nafter\n"
	// Empty Inline means the table rendered on neither path.
	content := ComposeContent(markdown, []tables.Output{{Inline: ""}})

	assert.NotContains(t, content, "| A | B |")
	assert.Contains(t, content, "before")
	assert.Contains(t, content, "after")
	assert.NotContains(t, content, "## Extracted Tables")
}

func TestSplitChunks(t *testing.T) {
	para := strings.Repeat("word ", 100) // ~500 chars
	content := strings.Join([]string{para, para, para}, "\n\n")

	chunks := SplitChunks(content, 600)
	require.Len(t, chunks, 3)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 600)
		assert.NotEmpty(t, strings.TrimSpace(c))
	}

	assert.Empty(t, SplitChunks("", 100))
	assert.Equal(t, []string{"short"}, SplitChunks("short", 100))
}
