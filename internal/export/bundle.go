package export

import (
	"archive/zip"
	"fmt"
	"io"
	"os"

	"github.com/protforge/mutameter/internal/scan"
)

// Fixed archive entry names, identical for every run.
const (
	EntryResults = "prediction_results.csv"
	EntryHeatmap = "prediction_heatmap.html"
	EntryReport  = "AI_Analysis_Report.md"
)

// WriteResultsCSV persists the raw results table to path. Rows with invalid
// mutation codes are included; only binning and plotting drop them.
func WriteResultsCSV(t *scan.Table, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create results csv: %w", err)
	}
	defer f.Close()
	return t.WriteCSV(f)
}

// WriteReport persists the summary text as a markdown file.
func WriteReport(text, path string) error {
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// CreateBundle writes a single compressed archive at zipPath containing every
// source file that exists, under its mapped entry name. Missing sources are
// skipped silently: a disabled summarizer simply means no report entry.
func CreateBundle(sources map[string]string, zipPath string) error {
	f, err := os.Create(zipPath)
	if err != nil {
		return fmt.Errorf("failed to create bundle: %w", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	for src, entryName := range sources {
		if err := addEntry(zw, src, entryName); err != nil {
			zw.Close()
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finalize bundle: %w", err)
	}
	return nil
}

func addEntry(zw *zip.Writer, src, entryName string) error {
	in, err := os.Open(src)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open bundle source %s: %w", src, err)
	}
	defer in.Close()

	out, err := zw.Create(entryName)
	if err != nil {
		return fmt.Errorf("failed to add bundle entry %s: %w", entryName, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("failed to write bundle entry %s: %w", entryName, err)
	}
	return nil
}
