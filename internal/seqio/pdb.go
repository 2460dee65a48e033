package seqio

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// threeToOne maps the 20 canonical three-letter residue names to one-letter
// codes. Non-canonical residues are skipped.
var threeToOne = map[string]byte{
	"ALA": 'A', "CYS": 'C', "ASP": 'D', "GLU": 'E', "PHE": 'F',
	"GLY": 'G', "HIS": 'H', "ILE": 'I', "LYS": 'K', "LEU": 'L',
	"MET": 'M', "ASN": 'N', "PRO": 'P', "GLN": 'Q', "ARG": 'R',
	"SER": 'S', "THR": 'T', "VAL": 'V', "TRP": 'W', "TYR": 'Y',
}

// ReadPDBSequence extracts the one-letter residue sequence of the first chain
// in a PDB coordinate stream: one code per unique (chain, residue-number)
// pair in first-appearance order, stopping at the first chain boundary.
func ReadPDBSequence(r io.Reader) (string, error) {
	scanner := bufio.NewScanner(r)
	var (
		b            strings.Builder
		seen         = make(map[int]struct{})
		currentChain byte
		haveChain    bool
	)

	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "ATOM") || len(line) < 26 {
			continue
		}

		chain := line[21]
		if !haveChain {
			currentChain = chain
			haveChain = true
		}
		if chain != currentChain {
			break
		}

		resSeq, err := strconv.Atoi(strings.TrimSpace(line[22:26]))
		if err != nil {
			continue
		}
		if _, dup := seen[resSeq]; dup {
			continue
		}

		resName := strings.TrimSpace(line[17:20])
		code, ok := threeToOne[resName]
		if !ok {
			continue
		}
		b.WriteByte(code)
		seen[resSeq] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("failed to read pdb: %w", err)
	}
	return b.String(), nil
}

// ReadPDBFile reads the first-chain sequence from a PDB file on disk.
func ReadPDBFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open pdb file: %w", err)
	}
	defer f.Close()
	return ReadPDBSequence(f)
}
