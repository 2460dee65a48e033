package scan

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rankedFixture(nPositions int) []RankedRow {
	table := &Table{Columns: []string{"mutant", "score"}}
	for p := 1; p <= nPositions; p++ {
		table.Rows = append(table.Rows,
			[]string{fmt.Sprintf("M%dA", p), fmt.Sprintf("%f", float64(nPositions-p))},
			[]string{fmt.Sprintf("M%dC", p), fmt.Sprintf("%f", float64(-p))},
		)
	}
	schema, _ := ResolveSchema(table)
	return RankAndBin(table, schema)
}

func TestBuildHeatmap_Shape(t *testing.T) {
	tests := []struct {
		name         string
		positions    int
		maxPositions int
		expectRows   int
	}{
		{name: "uncapped", positions: 5, maxPositions: 0, expectRows: 5},
		{name: "cap above distinct positions", positions: 5, maxPositions: 40, expectRows: 5},
		{name: "cap truncates", positions: 50, maxPositions: 40, expectRows: 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := BuildHeatmap(rankedFixture(tt.positions), tt.maxPositions)
			require.NotNil(t, h)

			assert.Len(t, h.RowLabels, tt.expectRows)
			assert.Len(t, h.ColLabels, 20)
			assert.Len(t, h.Bins, tt.expectRows)
			assert.Len(t, h.Ranks, tt.expectRows)
			assert.Len(t, h.Scores, tt.expectRows)
			assert.Equal(t, tt.positions, h.TotalPositions)
			assert.Equal(t, tt.positions > tt.expectRows, h.IsPartial())
		})
	}
}

func TestBuildHeatmap_CellsMatchInput(t *testing.T) {
	rows := rankedFixture(3)
	h := BuildHeatmap(rows, 0)
	require.NotNil(t, h)

	colIdx := map[byte]int{}
	for i := 0; i < len(AminoAcids); i++ {
		colIdx[AminoAcids[i]] = i
	}
	rowIdx := map[string]int{}
	for i, label := range h.RowLabels {
		rowIdx[label] = i
	}

	// Every input pair lands in a present cell with matching values.
	for _, r := range rows {
		y := rowIdx[fmt.Sprintf("%c%d", r.Mutation.WildType, r.Mutation.Position)]
		x := colIdx[r.Mutation.Substitution]

		assert.True(t, h.Present[y][x])
		assert.Equal(t, float64(r.Bin), h.Bins[y][x])
		assert.Equal(t, float64(r.Rank), h.Ranks[y][x])
		assert.InDelta(t, r.Score, h.Scores[y][x], 0.0005)
	}

	// Pairs absent from the input are never written.
	written := 0
	for y := range h.Present {
		for x := range h.Present[y] {
			if h.Present[y][x] {
				written++
			}
		}
	}
	assert.Equal(t, len(rows), written)
}

func TestBuildHeatmap_RowLabelsSortedByPosition(t *testing.T) {
	table := tableOf(
		[2]string{"K10A", "0.5"},
		[2]string{"M2C", "0.9"},
		[2]string{"R7D", "0.1"},
	)
	schema, _ := ResolveSchema(table)
	h := BuildHeatmap(RankAndBin(table, schema), 0)
	require.NotNil(t, h)

	assert.Equal(t, []string{"M2", "R7", "K10"}, h.RowLabels)
}

func TestBuildHeatmap_WildTypeFirstObservedWins(t *testing.T) {
	table := tableOf(
		[2]string{"M1A", "0.9"},
		[2]string{"L1C", "0.5"}, // disagreeing wild type at the same position
	)
	schema, _ := ResolveSchema(table)
	h := BuildHeatmap(RankAndBin(table, schema), 0)
	require.NotNil(t, h)

	assert.Equal(t, []string{"M1"}, h.RowLabels)
}

func TestBuildHeatmap_ScoresRounded(t *testing.T) {
	table := tableOf([2]string{"M1A", "0.123456"})
	schema, _ := ResolveSchema(table)
	h := BuildHeatmap(RankAndBin(table, schema), 0)
	require.NotNil(t, h)

	x := -1
	for i := 0; i < len(AminoAcids); i++ {
		if AminoAcids[i] == 'A' {
			x = i
		}
	}
	assert.Equal(t, 0.123, h.Scores[0][x])
}

func TestBuildHeatmap_NoData(t *testing.T) {
	assert.Nil(t, BuildHeatmap(nil, 0))
	assert.Nil(t, BuildHeatmap([]RankedRow{}, 40))
}

func TestBuildHeatmap_Idempotent(t *testing.T) {
	rows := rankedFixture(12)

	first := BuildHeatmap(rows, 5)
	second := BuildHeatmap(rows, 5)

	assert.Equal(t, first, second)
}

func TestBuildView(t *testing.T) {
	rows := rankedFixture(50)

	summary := BuildView(rows, ViewSummary)
	require.NotNil(t, summary)
	assert.Len(t, summary.RowLabels, SummaryPositionCap)
	assert.True(t, summary.IsPartial())

	full := BuildView(rows, ViewFull)
	require.NotNil(t, full)
	assert.Len(t, full.RowLabels, 50)
	assert.False(t, full.IsPartial())

	// Ranks in the summary view come from the full ranked table, not a
	// re-ranking of the truncated slice.
	assert.Equal(t, summary.Ranks[0], full.Ranks[0])
}

func TestNullableCells(t *testing.T) {
	h := BuildHeatmap(rankedFixture(2), 0)
	require.NotNil(t, h)

	cells := NullableCells(h.Bins, h.Present)
	for y := range cells {
		for x := range cells[y] {
			if h.Present[y][x] {
				require.NotNil(t, cells[y][x])
				assert.Equal(t, h.Bins[y][x], *cells[y][x])
			} else {
				assert.Nil(t, cells[y][x])
			}
		}
	}
}
