package scan

import (
	"fmt"
	"math"
	"sort"
)

// AminoAcids is the canonical 20-letter column order of the heatmap.
const AminoAcids = "ACDEFGHIKLMNPQRSTVWY"

// SummaryPositionCap is the number of residue positions shown in the
// summary (partial) heatmap view.
const SummaryPositionCap = 40

// View selects which slice of positions a heatmap covers.
type View string

const (
	ViewSummary View = "summary"
	ViewFull    View = "full"
)

// Heatmap holds three parallel dense position x substitution matrices plus a
// presence mask. A cell is meaningful only where Present is true; absent
// (position, substitution) pairs are never written, so "no data" stays
// distinguishable from any legitimate value.
type Heatmap struct {
	RowLabels []string
	ColLabels []string
	Bins      [][]float64
	Ranks     [][]float64
	Scores    [][]float64
	Present   [][]bool

	// TotalPositions is the distinct position count before any cap, so a
	// summary view can report how much it truncated.
	TotalPositions int
}

// IsPartial reports whether the heatmap was truncated by a position cap.
func (h *Heatmap) IsPartial() bool {
	return len(h.RowLabels) < h.TotalPositions
}

// BuildHeatmap lays ranked rows out as dense matrices. Rows are distinct
// observed positions sorted ascending, truncated to the first maxPositions
// when maxPositions > 0; columns are the canonical amino acid order. The
// wild type of a row label comes from the first row observed at that
// position. Returns nil when there is nothing to plot; callers must check
// before rendering.
func BuildHeatmap(rows []RankedRow, maxPositions int) *Heatmap {
	if len(rows) == 0 {
		return nil
	}

	wildType := make(map[int]byte)
	positionSet := make(map[int]struct{})
	for _, r := range rows {
		pos := r.Mutation.Position
		positionSet[pos] = struct{}{}
		if _, seen := wildType[pos]; !seen {
			wildType[pos] = r.Mutation.WildType
		}
	}

	positions := make([]int, 0, len(positionSet))
	for pos := range positionSet {
		positions = append(positions, pos)
	}
	sort.Ints(positions)

	total := len(positions)
	if maxPositions > 0 && len(positions) > maxPositions {
		positions = positions[:maxPositions]
	}

	rowIdx := make(map[int]int, len(positions))
	rowLabels := make([]string, len(positions))
	for i, pos := range positions {
		rowIdx[pos] = i
		rowLabels[i] = fmt.Sprintf("%c%d", wildType[pos], pos)
	}

	colIdx := make(map[byte]int, len(AminoAcids))
	colLabels := make([]string, len(AminoAcids))
	for i := 0; i < len(AminoAcids); i++ {
		colIdx[AminoAcids[i]] = i
		colLabels[i] = string(AminoAcids[i])
	}

	h := &Heatmap{
		RowLabels:      rowLabels,
		ColLabels:      colLabels,
		Bins:           newMatrix(len(rowLabels), len(colLabels)),
		Ranks:          newMatrix(len(rowLabels), len(colLabels)),
		Scores:         newMatrix(len(rowLabels), len(colLabels)),
		Present:        newMask(len(rowLabels), len(colLabels)),
		TotalPositions: total,
	}

	for _, r := range rows {
		y, okRow := rowIdx[r.Mutation.Position]
		x, okCol := colIdx[r.Mutation.Substitution]
		if !okRow || !okCol {
			continue
		}
		h.Bins[y][x] = float64(r.Bin)
		h.Ranks[y][x] = float64(r.Rank)
		h.Scores[y][x] = math.Round(r.Score*1000) / 1000
		h.Present[y][x] = true
	}

	return h
}

// BuildView is the view-controller re-entry point: it rebuilds the heatmap
// from the original ranked rows with the cap implied by the view, so rank and
// bin values stay globally correct in either view.
func BuildView(rows []RankedRow, v View) *Heatmap {
	if v == ViewSummary {
		return BuildHeatmap(rows, SummaryPositionCap)
	}
	return BuildHeatmap(rows, 0)
}

// NullableCells converts a matrix plus its presence mask into a nullable
// form for JSON encoding: absent cells become nil rather than a numeric
// sentinel.
func NullableCells(m [][]float64, present [][]bool) [][]*float64 {
	out := make([][]*float64, len(m))
	for y := range m {
		out[y] = make([]*float64, len(m[y]))
		for x := range m[y] {
			if present[y][x] {
				v := m[y][x]
				out[y][x] = &v
			}
		}
	}
	return out
}

func newMatrix(rows, cols int) [][]float64 {
	m := make([][]float64, rows)
	for i := range m {
		m[i] = make([]float64, cols)
	}
	return m
}

func newMask(rows, cols int) [][]bool {
	m := make([][]bool, rows)
	for i := range m {
		m[i] = make([]bool, cols)
	}
	return m
}
