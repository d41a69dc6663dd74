package driving

import (
	"context"

	"github.com/empirf/mdingest/internal/core/domain"
)

// Ingestor runs ingestion passes over one watched root.
type Ingestor interface {
	// RunOnce performs a single pass. The returned report is never nil.
	// The error is non-nil only for run-level failures: a root listing
	// failure (domain.ErrTransport), a concurrent pass
	// (domain.ErrPassInProgress) or cancellation.
	RunOnce(ctx context.Context) (*domain.PassReport, error)

	// Status returns the progress of the running pass, or an idle status.
	Status(ctx context.Context) (*PassStatus, error)
}

// Watcher repeats passes on an interval or on change notifications.
type Watcher interface {
	// Run blocks, running passes until ctx is done.
	Run(ctx context.Context) error

	// Once runs a single pass and records it in the run history.
	Once(ctx context.Context) (*domain.PassReport, error)
}

// PassStatus represents the current state of a pass.
type PassStatus struct {
	// Root identifies the watched root.
	Root string

	// Running indicates if a pass is currently in progress.
	Running bool

	// State is the current step of the running pass.
	State domain.PassState

	// FilesProcessed is the count of files processed so far.
	FilesProcessed int

	// ErrorCount is the number of files that failed so far.
	ErrorCount int
}
