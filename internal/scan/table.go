package scan

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Table is an ordered, immutable-by-convention results table as produced by a
// scoring backend. Cells are kept as raw strings so auxiliary columns survive
// a round trip to the exported CSV untouched; the score column is parsed on
// demand. Downstream stages never mutate a Table in place.
type Table struct {
	Columns []string
	Rows    [][]string
}

// Empty reports whether the table has no data rows.
func (t *Table) Empty() bool {
	return t == nil || len(t.Rows) == 0
}

// Schema names the mutation and score columns of a results table. Scoring
// backends do not share a fixed header layout, so the schema is resolved once
// by name sniffing and threaded explicitly to every consumer.
type Schema struct {
	MutantIdx int
	ScoreIdx  int
}

// ResolveSchema identifies the mutation and score columns. The mutation
// column prefers an exact "mutant" header and falls back to the first column;
// the score column prefers the first header containing "score"
// (case-insensitive) and falls back to the second column. Resolution fails
// when the table has fewer than two columns.
func ResolveSchema(t *Table) (Schema, bool) {
	if t == nil || len(t.Columns) < 2 {
		return Schema{}, false
	}

	mutantIdx := 0
	for i, col := range t.Columns {
		if col == "mutant" {
			mutantIdx = i
			break
		}
	}

	scoreIdx := -1
	for i, col := range t.Columns {
		if strings.Contains(strings.ToLower(col), "score") {
			scoreIdx = i
			break
		}
	}
	if scoreIdx == -1 {
		// Fallback to the second column, unless the mutation column already
		// sits there.
		scoreIdx = 1
		if scoreIdx == mutantIdx {
			scoreIdx = 0
		}
	}

	return Schema{MutantIdx: mutantIdx, ScoreIdx: scoreIdx}, true
}

// Mutant returns the mutation code cell of row i under the schema.
func (t *Table) Mutant(s Schema, i int) string {
	row := t.Rows[i]
	if s.MutantIdx >= len(row) {
		return ""
	}
	return row[s.MutantIdx]
}

// Score parses the score cell of row i under the schema.
func (t *Table) Score(s Schema, i int) (float64, error) {
	row := t.Rows[i]
	if s.ScoreIdx >= len(row) {
		return 0, fmt.Errorf("row %d has no score cell", i)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(row[s.ScoreIdx]), 64)
	if err != nil {
		return 0, fmt.Errorf("row %d: invalid score %q: %w", i, row[s.ScoreIdx], err)
	}
	return v, nil
}

// ReadCSV parses a results table from CSV. The first record is the header;
// ragged rows are tolerated because backends occasionally emit trailing
// auxiliary cells inconsistently.
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse results csv: %w", err)
	}
	if len(records) == 0 {
		return &Table{}, nil
	}

	return &Table{Columns: records[0], Rows: records[1:]}, nil
}

// WriteCSV serializes the table with its original header and row order.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if len(t.Columns) > 0 {
		if err := cw.Write(t.Columns); err != nil {
			return fmt.Errorf("failed to write csv header: %w", err)
		}
	}
	for _, row := range t.Rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
