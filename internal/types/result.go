package types

import "time"

// Outcome classifies the terminal result of one roster row within a run.
type Outcome string

const (
	OutcomeGenerated Outcome = "generated"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeFailed    Outcome = "failed"
)

// Error kinds recorded on failed row results. These mirror the typed errors
// raised by the individual pipeline stages.
const (
	ErrKindFolderCreation   = "FolderCreationError"
	ErrKindTemplateLoad     = "TemplateLoadError"
	ErrKindRenderConversion = "RenderConversionError"
	ErrKindUpload           = "UploadError"
	ErrKindStatusWrite      = "StatusWriteError"
)

// RowResult is the per-row outcome record. Results are append-only: once a
// row reaches a terminal state its entry is never mutated.
type RowResult struct {
	RowIndex int     `json:"row_index"`
	Company  string  `json:"company"`
	Outcome  Outcome `json:"outcome"`

	// ErrorKind and ErrorDetail are set only when Outcome is failed.
	ErrorKind   string `json:"error_kind,omitempty"`
	ErrorDetail string `json:"error_detail,omitempty"`

	// NeedsReconciliation marks the one failure mode that leaves state
	// behind: the certificate was uploaded but the status write-back did
	// not land, so a rerun will regenerate it. Operators must reconcile
	// these rows by hand.
	NeedsReconciliation bool `json:"needs_reconciliation,omitempty"`

	// ArtifactName is the deterministic file name of the uploaded
	// certificate, set for generated rows and for reconciliation cases.
	ArtifactName string `json:"artifact_name,omitempty"`
}

// RunSummary aggregates the outcome of a whole run. It is the machine-readable
// output surface of the pipeline.
type RunSummary struct {
	RunID       string      `json:"run_id,omitempty"`
	StartedAt   time.Time   `json:"started_at"`
	CompletedAt time.Time   `json:"completed_at"`
	Generated   int         `json:"generated"`
	Skipped     int         `json:"skipped"`
	Failed      int         `json:"failed"`
	Results     []RowResult `json:"results"`
}

// Append records a row result and updates the counters.
func (s *RunSummary) Append(r RowResult) {
	s.Results = append(s.Results, r)
	switch r.Outcome {
	case OutcomeGenerated:
		s.Generated++
	case OutcomeSkipped:
		s.Skipped++
	case OutcomeFailed:
		s.Failed++
	}
}

// FailedRows returns the subset of results that ended in failure, in run order.
func (s *RunSummary) FailedRows() []RowResult {
	var failed []RowResult
	for _, r := range s.Results {
		if r.Outcome == OutcomeFailed {
			failed = append(failed, r)
		}
	}
	return failed
}
