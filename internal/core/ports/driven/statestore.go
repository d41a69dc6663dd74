package driven

import (
	"context"

	"github.com/empirf/mdingest/internal/core/domain"
)

// StateStore persists what has already been ingested.
// All operations are atomic per row and safe for concurrent use on
// distinct paths.
type StateStore interface {
	// Get retrieves the state of a file.
	// Returns domain.ErrNotFound if the path was never seen.
	Get(ctx context.Context, path string) (*domain.FileState, error)

	// Put stores or updates a file state by path.
	Put(ctx context.Context, state domain.FileState) error

	// Delete removes a file state. Deleting an unknown path is not an error.
	Delete(ctx context.Context, path string) error

	// AllPaths returns the set of stored file paths.
	AllPaths(ctx context.Context) (map[string]struct{}, error)

	// List returns file states ordered by path.
	// An empty status returns every state.
	List(ctx context.Context, status domain.FileStatus) ([]domain.FileState, error)

	// GetFolder retrieves the state of a folder.
	// Returns domain.ErrNotFound if the folder was never seen.
	GetFolder(ctx context.Context, path string) (*domain.FolderState, error)

	// PutFolder stores or updates a folder state by path.
	PutFolder(ctx context.Context, state domain.FolderState) error

	// ListFolders returns folder states ordered by path.
	ListFolders(ctx context.Context) ([]domain.FolderState, error)
}
