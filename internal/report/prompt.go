package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/protforge/mutameter/internal/scan"
)

// topFraction of the ranked table quoted at each end of the prompt.
const topFraction = 0.05

// promptTemplate mandates the four analysis sections of the report.
const promptTemplate = `Please act as an expert protein engineer and analyze the following mutation prediction results generated by the '%s' model.

A deep mutational scan was performed. The results are sorted from most beneficial to least beneficial based on the '%s' column (a zero-shot score). Below are the most significant findings: the top 5%% and the bottom 5%% of mutations.

### Top 5%% Predicted Mutations (Potentially Most Beneficial):
` + "```\n%s\n```" + `

### Bottom 5%% Predicted Mutations (Potentially Most Detrimental):
` + "```\n%s\n```" + `

### Your Analysis Task:
Based on this data, provide a structured scientific analysis report that includes the following sections:

1.  **Executive Summary**: Briefly summarize the key findings. Are there clear hotspot regions for beneficial mutations?
2.  **Analysis of Beneficial Mutations**: Discuss the top mutations. Are there specific residues or regions that show potential as hotspots for improvement? What biochemical properties might these mutations be altering (e.g., improving protein packing, removing unfavorable charges)?
3.  **Analysis of Detrimental Mutations & Sequence Conservation**: Discuss the mutations predicted to be most harmful. What do these positions tell us about sequence conservation and functionally critical residues? Positions that are highly intolerant to mutation are likely essential for the protein's structure or function.
4.  **Recommendations for Experimentation**: Based on your analysis, suggest 3-5 specific point mutations that are the most promising candidates for experimental validation in the lab. Please justify your choices.

Please provide a concise, clear, and insightful report in a professional scientific tone suitable for biologists.`

// BuildPrompt extracts the head and tail slices of the results table and
// interpolates them into the structured analysis request. It resolves the
// mutation/score columns itself so it stays safe on tables that skipped
// upstream validation. Returns false when no schema can be resolved or no
// row carries a parsable score.
func BuildPrompt(t *scan.Table, modelName string) (string, bool) {
	schema, ok := scan.ResolveSchema(t)
	if !ok {
		return "", false
	}

	type entry struct {
		mutant string
		score  float64
	}
	entries := make([]entry, 0, len(t.Rows))
	for i := range t.Rows {
		score, err := t.Score(schema, i)
		if err != nil {
			continue
		}
		entries = append(entries, entry{mutant: t.Mutant(schema, i), score: score})
	}
	if len(entries) == 0 {
		return "", false
	}

	sort.SliceStable(entries, func(i, j int) bool { return entries[i].score > entries[j].score })

	n := len(entries)
	var topCount, bottomCount int
	if n < 5 {
		// Tiny tables are shown whole as "top"; an overlapping bottom
		// slice would contradict it.
		topCount = n
		bottomCount = 0
	} else {
		topCount = max(1, int(float64(n)*topFraction))
		bottomCount = max(1, int(float64(n)*topFraction))
	}

	mutantCol := t.Columns[schema.MutantIdx]
	scoreCol := t.Columns[schema.ScoreIdx]

	renderSlice := func(slice []entry) string {
		var b strings.Builder
		fmt.Fprintf(&b, "%-12s %12s", mutantCol, scoreCol)
		for _, e := range slice {
			fmt.Fprintf(&b, "\n%-12s %12.6f", e.mutant, e.score)
		}
		return b.String()
	}

	topStr := renderSlice(entries[:topCount])
	bottomStr := "N/A"
	if bottomCount > 0 {
		bottomStr = renderSlice(entries[n-bottomCount:])
	}

	return fmt.Sprintf(promptTemplate, modelName, scoreCol, topStr, bottomStr), true
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
