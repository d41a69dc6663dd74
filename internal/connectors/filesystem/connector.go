package filesystem

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/empirf/mdingest/internal/core/domain"
	"github.com/empirf/mdingest/internal/core/ports/driven"
)

// ErrClosed is returned by a connector after Close.
var ErrClosed = errors.New("filesystem: connector closed")

// Ensure Connector implements the interfaces.
var (
	_ driven.RemoteLister  = (*Connector)(nil)
	_ driven.ChangeTrigger = (*Connector)(nil)
)

// Connector lists JSON files below a root directory. Change tokens are
// derived from modification time and size; directory tokens do not cover
// their contents, so folders are never skipped.
type Connector struct {
	rootPath string
	mu       sync.Mutex
	closed   bool
	cancel   []context.CancelFunc
}

// New creates a filesystem connector for rootPath.
func New(rootPath string) *Connector {
	return &Connector{rootPath: rootPath}
}

// Root returns the watched directory.
func (c *Connector) Root() string {
	return c.rootPath
}

// StableFolderTokens is always false: a directory's mtime only changes when
// its direct entries change.
func (c *Connector) StableFolderTokens() bool {
	return false
}

// List walks the directory tree breadth first. Hidden files and folders are
// ignored.
func (c *Connector) List(ctx context.Context, skip driven.SkipFunc) (<-chan domain.RemoteEntry, <-chan error) {
	entries := make(chan domain.RemoteEntry)
	errs := make(chan error, 16)

	go func() {
		defer close(entries)
		defer close(errs)

		if err := c.checkOpen(); err != nil {
			errs <- &domain.TransportError{URL: c.rootPath, Err: err}
			return
		}
		if info, err := os.Stat(c.rootPath); err != nil {
			errs <- &domain.TransportError{URL: c.rootPath, Err: err}
			return
		} else if !info.IsDir() {
			errs <- &domain.TransportError{URL: c.rootPath, Err: fmt.Errorf("%s is not a directory", c.rootPath)}
			return
		}

		queue := []string{""}
		for len(queue) > 0 {
			folder := queue[0]
			queue = queue[1:]

			if ctx.Err() != nil {
				errs <- ctx.Err()
				return
			}

			dirEntries, err := os.ReadDir(c.abs(folder))
			if err != nil {
				if folder == "" {
					errs <- &domain.TransportError{URL: c.rootPath, Err: err}
					return
				}
				select {
				case errs <- &domain.FolderListingError{Path: folder, Err: err}:
				case <-ctx.Done():
					return
				}
				continue
			}

			for _, de := range dirEntries {
				if isHidden(de.Name()) {
					continue
				}
				rel := path.Join(folder, de.Name())

				info, err := de.Info()
				if err != nil {
					// Removed between ReadDir and Info.
					continue
				}

				entry := newEntry(rel, info)
				if entry.IsFolder {
					if skip != nil && skip(entry.Path, entry.ChangeToken()) {
						entry.Skipped = true
					} else {
						queue = append(queue, entry.Path)
					}
				} else if !info.Mode().IsRegular() || !strings.EqualFold(path.Ext(rel), ".json") {
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

// Fetch reads a file below the root.
func (c *Connector) Fetch(_ context.Context, p string) ([]byte, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}
	clean := path.Clean("/" + p)
	if clean == "/" {
		return nil, fmt.Errorf("%w: empty path", domain.ErrInvalidInput)
	}
	return os.ReadFile(c.abs(strings.TrimPrefix(clean, "/")))
}

// Close stops all watches. The connector cannot be used afterwards.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	for _, cancel := range c.cancel {
		cancel()
	}
	c.cancel = nil
	return nil
}

func (c *Connector) checkOpen() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	return nil
}

func (c *Connector) abs(rel string) string {
	return filepath.Join(c.rootPath, filepath.FromSlash(rel))
}

// newEntry builds an entry whose ETag follows the common "mtime-size" form.
func newEntry(rel string, info os.FileInfo) domain.RemoteEntry {
	mod := info.ModTime()
	return domain.RemoteEntry{
		Path:         rel,
		IsFolder:     info.IsDir(),
		ETag:         fmt.Sprintf("%x-%x", mod.UnixNano(), info.Size()),
		LastModified: mod.UTC().Format(http.TimeFormat),
		Size:         info.Size(),
	}
}

// isHidden checks if any element of a path starts with a dot.
// "." and ".." are not considered hidden.
func isHidden(p string) bool {
	for _, part := range strings.Split(filepath.ToSlash(p), "/") {
		if part != "" && part != "." && part != ".." && strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}
