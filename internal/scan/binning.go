package scan

import (
	"math"
	"sort"
	"strconv"
)

// Mutation is a parsed, validated single-point mutation code such as "M1A":
// wild-type residue, one-based position, substituted residue.
type Mutation struct {
	Code         string `json:"code"`
	WildType     byte   `json:"-"`
	Position     int    `json:"position"`
	Substitution byte   `json:"-"`
}

// ParseMutation validates and decodes a mutation code. A code is valid when
// it is at least three characters, its middle is a positive integer position,
// and the wild-type residue differs from the substitution. Invalid codes are
// never fatal; their rows are simply excluded from binning and plotting.
func ParseMutation(code string) (Mutation, bool) {
	if len(code) < 3 {
		return Mutation{}, false
	}
	if code[0] == code[len(code)-1] {
		return Mutation{}, false
	}
	pos, err := strconv.Atoi(code[1 : len(code)-1])
	if err != nil || pos <= 0 {
		return Mutation{}, false
	}
	return Mutation{
		Code:         code,
		WildType:     code[0],
		Position:     pos,
		Substitution: code[len(code)-1],
	}, true
}

// RankedRow is a valid results row annotated with its competition rank
// (1 = most favorable, ties share the minimum rank) and its decile bin
// (10 = top decile, 1 = bottom decile).
type RankedRow struct {
	Mutation Mutation `json:"mutation"`
	Score    float64  `json:"score"`
	Rank     int      `json:"rank"`
	Bin      int      `json:"bin"`
}

// RankAndBin filters the table to rows with valid mutation codes and parsable
// scores, orders them from most to least favorable, and assigns competition
// ranks and decile bins. Sorting happens here rather than being assumed of
// the caller, so an unsorted upstream table cannot skew ranks. Returns nil
// when no row qualifies.
func RankAndBin(t *Table, s Schema) []RankedRow {
	if t.Empty() {
		return nil
	}

	rows := make([]RankedRow, 0, len(t.Rows))
	for i := range t.Rows {
		mut, ok := ParseMutation(t.Mutant(s, i))
		if !ok {
			continue
		}
		score, err := t.Score(s, i)
		if err != nil {
			continue
		}
		rows = append(rows, RankedRow{Mutation: mut, Score: score})
	}
	if len(rows) == 0 {
		return nil
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Score > rows[j].Score
	})

	// Competition ranking: equal scores share the rank of the first row in
	// the tie group.
	for i := range rows {
		if i > 0 && rows[i].Score == rows[i-1].Score {
			rows[i].Rank = rows[i-1].Rank
		} else {
			rows[i].Rank = i + 1
		}
	}

	n := len(rows)
	binWidth := float64(n) / 10.0
	for i := range rows {
		rows[i].Bin = decileBin(rows[i].Rank, binWidth)
	}

	return rows
}

// decileBin maps a rank to an inverted decile bin so that higher bin numbers
// mean more favorable mutations. Rank 1 always lands in bin 10; for N < 10
// the bins degenerate into a few large contiguous groups rather than failing.
func decileBin(rank int, binWidth float64) int {
	bin := 10 - int(math.Floor(float64(rank-1)/binWidth))
	if bin > 10 {
		bin = 10
	}
	if bin < 1 {
		bin = 1
	}
	return bin
}

// DistinctPositions returns the number of distinct residue positions among
// the ranked rows.
func DistinctPositions(rows []RankedRow) int {
	seen := make(map[int]struct{}, len(rows))
	for _, r := range rows {
		seen[r.Mutation.Position] = struct{}{}
	}
	return len(seen)
}
