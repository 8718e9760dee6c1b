package models

// TableCell is a single physical cell as reported by a parsing engine.
// Spans larger than 1 mean the cell covers additional logical columns/rows.
type TableCell struct {
	Text    string `json:"text"`
	RowSpan int    `json:"row_span,omitempty"`
	ColSpan int    `json:"col_span,omitempty"`
}

// RawTable is the per-table contract every parsing engine must satisfy:
// a logical grid size, a merged-cell flag, and the raw (possibly ragged)
// header and body rows.
type RawTable struct {
	Page           int           `json:"page"`
	Caption        string        `json:"caption,omitempty"`
	Rows           int           `json:"rows"`
	Cols           int           `json:"cols"`
	HasMergedCells bool          `json:"hasMergedCells"`
	Headers        [][]TableCell `json:"headers"`
	Body           [][]TableCell `json:"body"`
}

// TableComplexity captures the classification decision alongside the
// signals it was derived from.
type TableComplexity struct {
	Rows           int  `json:"rows"`
	Cols           int  `json:"cols"`
	HasMergedCells bool `json:"has_merged_cells"`
	IsComplex      bool `json:"is_complex"`
}

// TableStructure is the normalized grid: every row has exactly
// Complexity.Cols entries.
type TableStructure struct {
	Headers [][]string `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// TableRecord is the standalone serialization of a complex table, written
// to tables/<table_id>.json next to the document's rendered output.
// Summary stays nil until a caller attaches one.
type TableRecord struct {
	TableID    string          `json:"table_id"`
	Page       int             `json:"page"`
	Caption    string          `json:"caption,omitempty"`
	Complexity TableComplexity `json:"complexity"`
	Structure  TableStructure  `json:"structure"`
	Summary    *string         `json:"summary,omitempty"`
}

// TableSummary aggregates one document's extraction counts.
type TableSummary struct {
	TotalTables    int      `json:"total_tables"`
	MarkdownTables int      `json:"markdown_tables"`
	JSONTables     int      `json:"json_tables"`
	JSONTableIDs   []string `json:"json_table_ids"`
}
