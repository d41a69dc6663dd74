package webdav

import (
	"context"
	"path"
	"strings"

	"github.com/empirf/mdingest/internal/core/domain"
	"github.com/empirf/mdingest/internal/core/ports/driven"
	"github.com/empirf/mdingest/internal/logger"
)

// Ensure Lister implements the interface.
var _ driven.RemoteLister = (*Lister)(nil)

// Lister walks a WebDAV share and reports its JSON files.
type Lister struct {
	client *Client
	config *Config
}

// New creates a WebDAV lister.
func New(ctx context.Context, cfg *Config) (*Lister, error) {
	client, err := NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Lister{client: client, config: cfg}, nil
}

// Root returns the URL of the watched root.
func (l *Lister) Root() string {
	return l.client.URL("", true)
}

// StableFolderTokens reports whether folder ETags cover their contents.
func (l *Lister) StableFolderTokens() bool {
	return l.config.StableFolderTokens
}

// List walks the share breadth first from the root. A failure to list the
// root is reported as *domain.TransportError and ends the walk. A failure
// to list a sub-folder is reported as *domain.FolderListingError and the
// walk continues with the remaining folders.
func (l *Lister) List(ctx context.Context, skip driven.SkipFunc) (<-chan domain.RemoteEntry, <-chan error) {
	entries := make(chan domain.RemoteEntry)
	errs := make(chan error, 16)

	go func() {
		defer close(entries)
		defer close(errs)

		queue := []string{""}
		for len(queue) > 0 {
			folder := queue[0]
			queue = queue[1:]

			if ctx.Err() != nil {
				errs <- ctx.Err()
				return
			}

			logger.Debug("webdav: listing %q", folder)
			children, err := l.client.Propfind(ctx, folder)
			if err != nil {
				if folder == "" {
					errs <- &domain.TransportError{URL: l.Root(), Err: err}
					return
				}
				select {
				case errs <- &domain.FolderListingError{Path: folder, Err: err}:
				case <-ctx.Done():
					return
				}
				continue
			}

			for _, child := range children {
				if child.Path == folder || child.Path == "" {
					continue
				}

				entry := domain.RemoteEntry{
					Path:         child.Path,
					IsFolder:     child.IsFolder,
					ETag:         child.ETag,
					LastModified: child.LastModified,
					Size:         child.Size,
				}

				if entry.IsFolder {
					if skip != nil && skip(entry.Path, entry.ChangeToken()) {
						entry.Skipped = true
					} else {
						queue = append(queue, entry.Path)
					}
				} else if !IsJSON(entry.Path) {
					continue
				}

				select {
				case entries <- entry:
				case <-ctx.Done():
					errs <- ctx.Err()
					return
				}
			}
		}
	}()

	return entries, errs
}

// Fetch retrieves the content of a file.
func (l *Lister) Fetch(ctx context.Context, p string) ([]byte, error) {
	return l.client.Get(ctx, p)
}

// IsJSON reports whether a path names a JSON document.
func IsJSON(p string) bool {
	return strings.EqualFold(path.Ext(p), ".json")
}
