package types

import "time"

// AnalysisKind selects the scoring family for a run.
type AnalysisKind string

const (
	KindSequence  AnalysisKind = "sequence"
	KindStructure AnalysisKind = "structure"
)

// Valid reports whether the kind is one of the two supported families.
func (k AnalysisKind) Valid() bool {
	return k == KindSequence || k == KindStructure
}

// RunStage is the lifecycle stage of a scan run. Numeric results are
// available from StageScored onward; the summary only at StageComplete.
type RunStage string

const (
	StageStarted     RunStage = "started"
	StageScored      RunStage = "scored"
	StageSummarizing RunStage = "summarizing"
	StageComplete    RunStage = "complete"
	StageFailed      RunStage = "failed"
)

// ScanRequest carries the parameters of a scan run submission.
type ScanRequest struct {
	Kind       AnalysisKind `json:"kind"`
	Scorer     string       `json:"scorer"`
	InputPath  string       `json:"input_path"`
	EnableAI   bool         `json:"enable_ai"`
	AIProvider string       `json:"ai_provider"`
	UserAPIKey string       `json:"-"`
}

// RunStatus is the externally visible state of a run.
type RunStatus struct {
	ID        string       `json:"id"`
	Kind      AnalysisKind `json:"kind"`
	Scorer    string       `json:"scorer"`
	Stage     RunStage     `json:"stage"`
	Message   string       `json:"message"`
	CreatedAt time.Time    `json:"created_at"`
}
