package driven

import (
	"context"

	"github.com/empirf/mdingest/internal/core/domain"
)

// SkipFunc decides whether a folder's children may be left unlisted.
// It is called with the folder path and its current change token.
type SkipFunc func(folderPath, changeToken string) bool

// RemoteLister enumerates a remote document store.
// Each adapter (WebDAV, local directory) implements this interface.
type RemoteLister interface {
	// Root returns a display form of the watched root.
	Root() string

	// List walks the watched root from scratch.
	// Entries are sent on the first channel; both channels are closed when
	// the walk ends. A sub-folder failure is sent as *domain.FolderListingError
	// and the walk continues. A root failure is sent as *domain.TransportError
	// and ends the walk. Folders for which skip returns true are sent with
	// Skipped set and their children are not listed. skip may be nil.
	List(ctx context.Context, skip SkipFunc) (<-chan domain.RemoteEntry, <-chan error)

	// Fetch retrieves the content of a file.
	Fetch(ctx context.Context, path string) ([]byte, error)

	// StableFolderTokens reports whether a folder's token changes whenever
	// anything below it changes. Folder skipping is only safe when it does.
	StableFolderTokens() bool
}
