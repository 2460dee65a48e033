package seqio

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadFastaSequence(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "single record",
			input:    ">sp|P0DTD1 test\nMKTAYIAK\nQRQISFVK\n",
			expected: "MKTAYIAKQRQISFVK",
		},
		{
			name:     "multiple records concatenated",
			input:    ">one\nMKT\n>two\nAYI\n",
			expected: "MKTAYI",
		},
		{
			name:     "blank lines and whitespace stripped",
			input:    ">one\n  MKT  \n\nAYI\n",
			expected: "MKTAYI",
		},
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seq, err := ReadFastaSequence(strings.NewReader(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, seq)
		})
	}
}

func atomLine(serial int, resName string, chain byte, resSeq int) string {
	return fmt.Sprintf("ATOM  %5d  CA  %-3s %c%4d      11.104  13.207   2.100  1.00  0.00           C",
		serial, resName, chain, resSeq)
}

func TestReadPDBSequence(t *testing.T) {
	lines := []string{
		"HEADER    TEST STRUCTURE",
		atomLine(1, "MET", 'A', 1),
		atomLine(2, "MET", 'A', 1), // second atom of the same residue
		atomLine(3, "LYS", 'A', 2),
		atomLine(4, "THR", 'A', 3),
		atomLine(5, "GLY", 'B', 1), // second chain must be ignored
	}

	seq, err := ReadPDBSequence(strings.NewReader(strings.Join(lines, "\n")))
	require.NoError(t, err)
	assert.Equal(t, "MKT", seq)
}

func TestReadPDBSequence_SkipsNonCanonicalResidues(t *testing.T) {
	lines := []string{
		atomLine(1, "MET", 'A', 1),
		atomLine(2, "MSE", 'A', 2), // selenomethionine, not canonical
		atomLine(3, "ALA", 'A', 3),
	}

	seq, err := ReadPDBSequence(strings.NewReader(strings.Join(lines, "\n")))
	require.NoError(t, err)
	assert.Equal(t, "MA", seq)
}

func TestReadPDBSequence_Empty(t *testing.T) {
	seq, err := ReadPDBSequence(strings.NewReader("REMARK nothing here\n"))
	require.NoError(t, err)
	assert.Equal(t, "", seq)
}
