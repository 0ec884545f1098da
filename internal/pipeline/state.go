package pipeline

// RowState names the stage a roster row is in while the pipeline processes
// it. Rows move Pending → Rendering → Uploading → MarkingDone → Done; any
// stage error short-circuits to Failed.
type RowState string

const (
	StatePending     RowState = "pending"
	StateRendering   RowState = "rendering"
	StateUploading   RowState = "uploading"
	StateMarkingDone RowState = "marking-done"
	StateDone        RowState = "done"
	StateFailed      RowState = "failed"
)

// ProgressEvent reports a row-state transition during a run.
type ProgressEvent struct {
	RowIndex int
	Company  string
	State    RowState
	Message  string
}

// ProgressCallback receives progress events during pipeline execution.
// Callbacks must be safe for concurrent use when the run is parallel.
type ProgressCallback func(event ProgressEvent)
