package scorer

import (
	"sort"

	"github.com/protforge/mutameter/internal/types"
)

// Spec describes one supported scoring backend: a display name shown to
// callers and the script identifier it resolves to on disk.
type Spec struct {
	Name   string             `json:"name"`
	Script string             `json:"script"`
	Kind   types.AnalysisKind `json:"kind"`
}

// The registries are immutable configuration tables fixed at startup. The
// display names match the published model names of the scoring backends.
var (
	sequenceScorers = map[string]string{
		"ESM-1v":    "esm1v",
		"ESM-1b":    "esm1b",
		"ESM2-650M": "esm2",
		"SaProt":    "saprot",
	}
	structureScorers = map[string]string{
		"ESM-IF1":     "esmif1",
		"MIF-ST":      "mifst",
		"ProSST-2048": "prosst",
		"ProtSSN":     "protssn",
	}
)

// Lookup resolves a display name within an analysis kind.
func Lookup(kind types.AnalysisKind, name string) (Spec, bool) {
	table := sequenceScorers
	if kind == types.KindStructure {
		table = structureScorers
	}
	script, ok := table[name]
	if !ok {
		return Spec{}, false
	}
	return Spec{Name: name, Script: script, Kind: kind}, true
}

// List returns the registry for one analysis kind, sorted by display name.
func List(kind types.AnalysisKind) []Spec {
	table := sequenceScorers
	if kind == types.KindStructure {
		table = structureScorers
	}
	specs := make([]Spec, 0, len(table))
	for name, script := range table {
		specs = append(specs, Spec{Name: name, Script: script, Kind: kind})
	}
	sort.Slice(specs, func(i, j int) bool { return specs[i].Name < specs[j].Name })
	return specs
}
