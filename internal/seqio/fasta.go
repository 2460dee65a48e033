package seqio

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// ReadFastaSequence concatenates the residue letters of every record in a
// FASTA stream. Header lines start with '>'; sequence lines are joined with
// surrounding whitespace stripped.
func ReadFastaSequence(r io.Reader) (string, error) {
	scanner := bufio.NewScanner(r)
	var b strings.Builder
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, ">") {
			continue
		}
		b.WriteString(line)
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("failed to read fasta: %w", err)
	}
	return b.String(), nil
}

// ReadFastaFile reads the concatenated sequence from a FASTA file on disk.
func ReadFastaFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open fasta file: %w", err)
	}
	defer f.Close()
	return ReadFastaSequence(f)
}
