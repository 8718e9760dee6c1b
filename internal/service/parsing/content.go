package parsing

import (
	"strings"

	"github.com/kca-ai/document-parser/internal/tables"
)

// ComposeContent rebuilds a document's markdown with the table pipeline's
// output spliced in. Pipe-table blocks in the engine markdown are replaced
// positionally: the i-th block becomes the i-th table output, which is
// either re-rendered markdown (simple tables) or a placeholder line
// pointing at the JSON record (complex tables). Tables the engine reported
// outside the markdown stream are appended at the end.
func ComposeContent(markdown string, outputs []tables.Output) string {
	lines := strings.Split(markdown, "\n")

	var b strings.Builder
	var block []string
	next := 0

	flush := func() {
		if len(block) == 0 {
			return
		}
		if isTableBlock(block) {
			if next < len(outputs) {
				if inline := outputs[next].Inline; inline != "" {
					b.WriteString(inline)
					b.WriteString("\n")
				}
				next++
			}
			// A table block with no matching output is dropped.
		} else {
			for _, l := range block {
				b.WriteString(l)
				b.WriteString("\n")
			}
		}
		block = nil
	}

	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "|") {
			block = append(block, line)
			continue
		}
		flush()
		b.WriteString(line)
		b.WriteString("\n")
	}
	flush()

	content := strings.TrimRight(b.String(), "\n")

	// Remaining outputs had no block in the markdown stream.
	var extra []string
	for ; next < len(outputs); next++ {
		if inline := outputs[next].Inline; inline != "" {
			extra = append(extra, inline)
		}
	}
	if len(extra) > 0 {
		content += "\n\n## Extracted Tables\n\n" + strings.Join(extra, "\n\n")
	}

	return content + "\n"
}

// isTableBlock mirrors the table scanner's detection: at least two pipe
// lines with a separator in second position.
func isTableBlock(block []string) bool {
	if len(block) < 2 {
		return false
	}
	trimmed := strings.Trim(strings.TrimSpace(block[1]), "| ")
	if trimmed == "" || !strings.Contains(trimmed, "-") {
		return false
	}
	for _, r := range trimmed {
		switch r {
		case '-', ':', '|', ' ':
		default:
			return false
		}
	}
	return true
}

// SplitChunks cuts rendered content into retrieval-sized pieces on
// paragraph boundaries.
func SplitChunks(content string, maxLen int) []string {
	if maxLen <= 0 {
		maxLen = 1000
	}

	paragraphs := strings.Split(content, "\n\n")
	var chunks []string
	var cur strings.Builder

	for _, p := range paragraphs {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if cur.Len() > 0 && cur.Len()+len(p)+2 > maxLen {
			chunks = append(chunks, cur.String())
			cur.Reset()
		}
		if cur.Len() > 0 {
			cur.WriteString("\n\n")
		}
		cur.WriteString(p)
	}
	if cur.Len() > 0 {
		chunks = append(chunks, cur.String())
	}
	return chunks
}
