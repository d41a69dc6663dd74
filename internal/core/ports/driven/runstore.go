package driven

import (
	"context"

	"github.com/empirf/mdingest/internal/core/domain"
)

// RunStore persists the history of ingestion passes.
type RunStore interface {
	// RecordRun logs a pass report.
	RecordRun(ctx context.Context, report *domain.PassReport) error

	// RecentRuns returns the most recent reports, newest first.
	RecentRuns(ctx context.Context, limit int) ([]domain.PassReport, error)

	// PruneRuns removes reports beyond the most recent 'keep'.
	PruneRuns(ctx context.Context, keep int) error
}
