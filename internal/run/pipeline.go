package run

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/protforge/mutameter/internal/export"
	"github.com/protforge/mutameter/internal/monitoring"
	"github.com/protforge/mutameter/internal/report"
	"github.com/protforge/mutameter/internal/scan"
	"github.com/protforge/mutameter/internal/scorer"
	"github.com/protforge/mutameter/internal/store"
	"github.com/protforge/mutameter/internal/types"
)

// ScorerRunner invokes a scoring backend. Satisfied by scorer.Invoker and
// stubbed in tests.
type ScorerRunner interface {
	Run(ctx context.Context, kind types.AnalysisKind, scorerName, inputPath string) scorer.Outcome
}

// SummaryClient posts a prompt to an AI provider. Satisfied by
// report.Summarizer.
type SummaryClient interface {
	Summarize(ctx context.Context, p report.Provider, apiKey, prompt string) (string, error)
}

// Pipeline orchestrates a scan run from subprocess invocation through
// ranking, artifact export, and optional AI summarization. Scoring is the
// mandatory path; everything downstream of it degrades to a recorded
// message rather than failing the run.
type Pipeline struct {
	Invoker    ScorerRunner
	Summarizer SummaryClient
	Store      *store.Store
	OutputDir  string
	Logger     *monitoring.Logger
	Metrics    *monitoring.Metrics
}

// Start registers a run and executes it in the background. The returned ID
// is immediately pollable via the store.
func (p *Pipeline) Start(req types.ScanRequest) string {
	id := uuid.New().String()

	p.Store.Put(&store.Record{
		ID:        id,
		Kind:      req.Kind,
		Scorer:    req.Scorer,
		Stage:     types.StageStarted,
		CreatedAt: time.Now(),
	})

	if p.Metrics != nil {
		p.Metrics.RecordScan(string(req.Kind))
	}

	go p.Execute(context.Background(), id, req)
	return id
}

// Execute runs the full pipeline for an already registered run.
func (p *Pipeline) Execute(ctx context.Context, id string, req types.ScanRequest) {
	start := time.Now()

	outcome := p.Invoker.Run(ctx, req.Kind, req.Scorer, req.InputPath)

	if p.Logger != nil {
		rows := 0
		if outcome.Table != nil {
			rows = len(outcome.Table.Rows)
		}
		p.Logger.ScanLogger(id, string(req.Kind), req.Scorer, string(outcome.Kind), rows, time.Since(start))
	}

	if !outcome.OK() {
		if p.Metrics != nil {
			p.Metrics.IncrementScanFailure()
		}
		p.Store.Update(id, func(r *store.Record) {
			r.Stage = types.StageFailed
			r.Message = outcome.Status
			r.Table = outcome.Table
		})
		return
	}

	schema, schemaOK := scan.ResolveSchema(outcome.Table)
	var ranked []scan.RankedRow
	if schemaOK {
		ranked = scan.RankAndBin(outcome.Table, schema)
	}

	p.Store.Update(id, func(r *store.Record) {
		r.Stage = types.StageScored
		r.Message = outcome.Status
		r.Table = outcome.Table
		r.Schema = schema
		r.SchemaOK = schemaOK
		r.Ranked = ranked
		r.CSVPath = outcome.OutputPath
	})

	summary, summaryOK := p.resolveSummary(ctx, id, req, outcome.Table)

	p.writeArtifacts(id, outcome.Table, ranked, summary, summaryOK)

	p.Store.Update(id, func(r *store.Record) {
		r.Stage = types.StageComplete
		r.Summary = summary
		r.SummaryOK = summaryOK
	})
}

// resolveSummary produces the report text for the run. Every non-success
// path yields a describable placeholder instead of an error.
func (p *Pipeline) resolveSummary(ctx context.Context, id string, req types.ScanRequest, table *scan.Table) (string, bool) {
	if !req.EnableAI {
		return report.PlaceholderDisabled, false
	}

	provider, ok := report.LookupProvider(req.AIProvider)
	if !ok {
		return fmt.Sprintf("AI analysis failed: unknown provider %q.", req.AIProvider), false
	}

	apiKey, ok := report.ResolveAPIKey(provider, req.UserAPIKey)
	if !ok {
		return report.PlaceholderNoKey, false
	}

	prompt, ok := report.BuildPrompt(table, req.Scorer)
	if !ok {
		return "AI analysis failed: results table columns could not be identified.", false
	}

	p.Store.Update(id, func(r *store.Record) {
		r.Stage = types.StageSummarizing
	})

	// One attempt only. A failed call degrades the report text and the run
	// proceeds; it is never re-attempted.
	start := time.Now()
	summary, err := p.Summarizer.Summarize(ctx, provider, apiKey, prompt)
	if p.Logger != nil {
		p.Logger.SummarizerLogger(provider.Name, time.Since(start), err == nil)
	}
	if p.Metrics != nil {
		p.Metrics.RecordSummarizerCall(err == nil)
	}
	if err != nil {
		return fmt.Sprintf("AI analysis failed: %v", err), false
	}
	return summary, true
}

// writeArtifacts renders the per-run files and the download bundle. Artifact
// failures are recorded in the run message but do not fail the run; the
// in-memory results remain servable.
func (p *Pipeline) writeArtifacts(id string, table *scan.Table, ranked []scan.RankedRow, summary string, summaryOK bool) {
	runDir := filepath.Join(p.OutputDir, id)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		p.noteArtifactFailure(id, err)
		return
	}

	csvPath := filepath.Join(runDir, export.EntryResults)
	if err := export.WriteResultsCSV(table, csvPath); err != nil {
		p.noteArtifactFailure(id, err)
		return
	}

	sources := map[string]string{csvPath: export.EntryResults}

	var heatmapPath string
	if heatmap := scan.BuildView(ranked, scan.ViewFull); heatmap != nil {
		heatmapPath = filepath.Join(runDir, export.EntryHeatmap)
		if err := export.WriteHeatmapHTML(heatmap, heatmapPath); err != nil {
			p.noteArtifactFailure(id, err)
			return
		}
		sources[heatmapPath] = export.EntryHeatmap
	}

	var reportPath string
	if summaryOK {
		reportPath = filepath.Join(runDir, export.EntryReport)
		if err := export.WriteReport(summary, reportPath); err != nil {
			p.noteArtifactFailure(id, err)
			return
		}
		sources[reportPath] = export.EntryReport
	}

	bundlePath := filepath.Join(runDir, "prediction_bundle.zip")
	if err := export.CreateBundle(sources, bundlePath); err != nil {
		p.noteArtifactFailure(id, err)
		return
	}

	p.Store.Update(id, func(r *store.Record) {
		r.CSVPath = csvPath
		r.HeatmapPath = heatmapPath
		r.ReportPath = reportPath
		r.BundlePath = bundlePath
	})
}

func (p *Pipeline) noteArtifactFailure(id string, err error) {
	if p.Logger != nil {
		p.Logger.Warn("Artifact export failed", "run_id", id, "error", err)
	}
	p.Store.Update(id, func(r *store.Record) {
		r.Message = fmt.Sprintf("%s (export failed: %v)", r.Message, err)
	})
}
