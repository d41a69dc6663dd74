package domain

import "time"

// PassState is a step of an ingestion pass.
type PassState string

// A pass moves SCANNING -> DIFFING -> PROCESSING -> RECONCILING_DELETES -> IDLE.
// A root listing failure goes straight from SCANNING to IDLE.
const (
	StateScanning           PassState = "SCANNING"
	StateDiffing            PassState = "DIFFING"
	StateProcessing         PassState = "PROCESSING"
	StateReconcilingDeletes PassState = "RECONCILING_DELETES"
	StateIdle               PassState = "IDLE"
)

// PassReport is the outcome of one ingestion pass over a watched root.
type PassReport struct {
	// RunID uniquely identifies the pass.
	RunID string

	// Root is the watched root that was listed.
	Root string

	// StartedAt is when the pass started.
	StartedAt time.Time

	// EndedAt is when the pass reached IDLE.
	EndedAt time.Time

	// LastState is the last state entered before IDLE.
	LastState PassState

	// Listed is the number of files in the remote listing.
	Listed int

	// Unchanged is the number of listed files skipped by token comparison.
	Unchanged int

	// Carried is the number of stored files kept because their folder was
	// not listed.
	Carried int

	// Processed is the number of files that went through the pipeline.
	Processed int

	// Succeeded is the number of files written to their destination table.
	Succeeded int

	// Failed is the number of files recorded with error status.
	Failed int

	// Deleted is the number of vanished files whose state was dropped.
	Deleted int

	// FoldersSkipped is the number of folders not listed deeply.
	FoldersSkipped int

	// FolderErrors is the number of sub-folders that could not be listed.
	FolderErrors int

	// Canceled is set when the pass stopped early on shutdown.
	Canceled bool

	// Error is the run-level failure, empty on success.
	Error string
}

// Success reports whether the pass completed without a run-level failure.
func (r *PassReport) Success() bool {
	return r.Error == "" && !r.Canceled
}

// Duration returns how long the pass took.
func (r *PassReport) Duration() time.Duration {
	if r.EndedAt.IsZero() {
		return 0
	}
	return r.EndedAt.Sub(r.StartedAt)
}
