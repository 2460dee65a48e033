package report

import (
	"fmt"
	"strings"
	"testing"

	"github.com/protforge/mutameter/internal/scan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resultsTable(n int) *scan.Table {
	t := &scan.Table{Columns: []string{"mutant", "esm2_score"}}
	for i := 0; i < n; i++ {
		t.Rows = append(t.Rows, []string{
			fmt.Sprintf("M%dA", i+1),
			fmt.Sprintf("%f", float64(n-i)),
		})
	}
	return t
}

func TestBuildPrompt_TinyTableShowsAllAsTop(t *testing.T) {
	prompt, ok := BuildPrompt(resultsTable(3), "ESM2-650M")
	require.True(t, ok)

	assert.Contains(t, prompt, "ESM2-650M")
	assert.Contains(t, prompt, "M1A")
	assert.Contains(t, prompt, "M2A")
	assert.Contains(t, prompt, "M3A")
	// No bottom slice on tiny inputs, only the explicit empty marker.
	assert.Contains(t, prompt, "N/A")
}

func TestBuildPrompt_FivePercentSlices(t *testing.T) {
	prompt, ok := BuildPrompt(resultsTable(100), "SaProt")
	require.True(t, ok)

	// Exactly 5 top and 5 bottom mutations quoted.
	for i := 1; i <= 5; i++ {
		assert.Contains(t, prompt, fmt.Sprintf("M%dA", i))
	}
	for i := 96; i <= 100; i++ {
		assert.Contains(t, prompt, fmt.Sprintf("M%dA", i))
	}
	assert.NotContains(t, prompt, "M6A ")
	assert.NotContains(t, prompt, "M95A ")
	assert.NotContains(t, prompt, "N/A")
}

func TestBuildPrompt_MandatedSections(t *testing.T) {
	prompt, ok := BuildPrompt(resultsTable(20), "ESM-1v")
	require.True(t, ok)

	assert.Contains(t, prompt, "Executive Summary")
	assert.Contains(t, prompt, "Analysis of Beneficial Mutations")
	assert.Contains(t, prompt, "Analysis of Detrimental Mutations & Sequence Conservation")
	assert.Contains(t, prompt, "Recommendations for Experimentation")
	assert.Contains(t, prompt, "'esm2_score'")
}

func TestBuildPrompt_SortsUnsortedInput(t *testing.T) {
	table := &scan.Table{
		Columns: []string{"mutant", "score"},
		Rows: [][]string{
			{"M1C", "0.1"},
			{"M1A", "0.9"},
			{"A2K", "0.5"},
			{"A2R", "0.4"},
			{"A2D", "0.3"},
		},
	}

	prompt, ok := BuildPrompt(table, "ESM2-650M")
	require.True(t, ok)

	top := strings.Index(prompt, "M1A")
	bottom := strings.Index(prompt, "M1C")
	require.NotEqual(t, -1, top)
	require.NotEqual(t, -1, bottom)
	assert.Less(t, top, bottom)
}

func TestBuildPrompt_Unresolvable(t *testing.T) {
	tests := []struct {
		name  string
		table *scan.Table
	}{
		{name: "single column", table: &scan.Table{Columns: []string{"mutant"}}},
		{name: "no columns", table: &scan.Table{}},
		{
			name: "no parsable scores",
			table: &scan.Table{
				Columns: []string{"mutant", "score"},
				Rows:    [][]string{{"M1A", "n/a"}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := BuildPrompt(tt.table, "ESM2-650M")
			assert.False(t, ok)
		})
	}
}
