package scorer

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/protforge/mutameter/internal/scan"
	"github.com/protforge/mutameter/internal/types"
)

// StatusKind classifies an invocation outcome so operators can tell
// "the process crashed" from "the process exited cleanly but produced
// nothing".
type StatusKind string

const (
	StatusOK        StatusKind = "ok"
	StatusFailed    StatusKind = "failed"
	StatusNoOutput  StatusKind = "no_output"
	StatusBadScorer StatusKind = "unknown_scorer"
)

// Outcome is the result of one scoring invocation. Failures are values, not
// errors: a failed run carries a human-readable status with the captured
// diagnostic stream and an empty table.
type Outcome struct {
	Kind       StatusKind
	Status     string
	Table      *scan.Table
	OutputPath string
}

// OK reports whether the invocation produced a usable table.
func (o Outcome) OK() bool {
	return o.Kind == StatusOK
}

// Invoker runs scoring backends as isolated subprocesses. Each invocation
// writes its own timestamped output file, so concurrent runs across analysis
// kinds never collide. The invoker does not delete output files; cleanup is
// the caller's policy.
type Invoker struct {
	Interpreter string // e.g. "python3"
	ScriptDir   string // directory holding <script>.py per registry entry
	OutputDir   string // where per-run CSVs are written
}

// NewInvoker builds an invoker and ensures the output directory exists.
func NewInvoker(interpreter, scriptDir, outputDir string) (*Invoker, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}
	return &Invoker{Interpreter: interpreter, ScriptDir: scriptDir, OutputDir: outputDir}, nil
}

// Run invokes the named scorer on the input file and waits for completion.
// The pipeline blocks on the subprocess with no internal timeout; bounding an
// unbounded external job is the caller's operational concern via ctx.
func (iv *Invoker) Run(ctx context.Context, kind types.AnalysisKind, scorerName, inputPath string) Outcome {
	spec, ok := Lookup(kind, scorerName)
	if !ok {
		return Outcome{
			Kind:   StatusBadScorer,
			Status: fmt.Sprintf("Prediction failed: unknown %s scorer %q", kind, scorerName),
			Table:  &scan.Table{},
		}
	}

	outputCSV := filepath.Join(iv.OutputDir, fmt.Sprintf("temp_%s_%d.csv", kind, time.Now().UnixNano()))
	scriptPath := filepath.Join(iv.ScriptDir, spec.Script+".py")

	fileFlag := "--fasta_file"
	if kind == types.KindStructure {
		fileFlag = "--pdb_file"
	}

	cmd := exec.CommandContext(ctx, iv.Interpreter, scriptPath, fileFlag, inputPath, "--output_csv", outputCSV)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		detail := stderr.String()
		if detail == "" {
			detail = err.Error()
		}
		return Outcome{
			Kind:       StatusFailed,
			Status:     fmt.Sprintf("Prediction failed: %s", detail),
			Table:      &scan.Table{},
			OutputPath: outputCSV,
		}
	}

	f, err := os.Open(outputCSV)
	if err != nil {
		if os.IsNotExist(err) {
			return Outcome{
				Kind:       StatusNoOutput,
				Status:     "Prediction completed but no output file was generated.",
				Table:      &scan.Table{},
				OutputPath: outputCSV,
			}
		}
		// The file may exist but be unreadable; that is not "produced
		// nothing".
		return Outcome{
			Kind:       StatusFailed,
			Status:     fmt.Sprintf("Prediction failed: %v", err),
			Table:      &scan.Table{},
			OutputPath: outputCSV,
		}
	}
	defer f.Close()

	table, err := scan.ReadCSV(f)
	if err != nil {
		return Outcome{
			Kind:       StatusFailed,
			Status:     fmt.Sprintf("Prediction failed: %v", err),
			Table:      &scan.Table{},
			OutputPath: outputCSV,
		}
	}

	return Outcome{
		Kind:       StatusOK,
		Status:     "Prediction completed successfully!",
		Table:      table,
		OutputPath: outputCSV,
	}
}
