package driving

import (
	"context"

	"github.com/empirf/mdingest/internal/core/domain"
)

// StatusService exposes per-file, per-folder and per-pass status.
type StatusService interface {
	// Files returns file states. An empty status returns every file.
	Files(ctx context.Context, status domain.FileStatus) ([]domain.FileState, error)

	// Folders returns folder states.
	Folders(ctx context.Context) ([]domain.FolderState, error)

	// Runs returns recent pass reports, newest first.
	Runs(ctx context.Context, limit int) ([]domain.PassReport, error)

	// Summary counts files per status.
	Summary(ctx context.Context) (map[domain.FileStatus]int, error)
}
