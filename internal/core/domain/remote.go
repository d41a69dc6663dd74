package domain

import (
	"path"
	"strings"
)

// RemoteEntry is one file or folder returned by a remote listing.
type RemoteEntry struct {
	// Path is relative to the watched root, slash separated, without a
	// leading slash. The root itself has an empty path.
	Path string

	// IsFolder is true for collections.
	IsFolder bool

	// ETag is the entity tag reported by the server, if any.
	ETag string

	// LastModified is the modification time as reported by the server.
	LastModified string

	// Size is the content length in bytes, or -1 when unknown.
	Size int64

	// Skipped is set on folders whose children were not listed because the
	// folder's token was unchanged.
	Skipped bool
}

// ChangeToken combines the entity tag and modification time.
// It is empty when the server reported neither.
func (e RemoteEntry) ChangeToken() string {
	if e.ETag == "" && e.LastModified == "" {
		return ""
	}
	return e.ETag + "|" + e.LastModified
}

// Name returns the last path element.
func (e RemoteEntry) Name() string {
	return path.Base(e.Path)
}

// TokenChanged reports whether current differs from stored.
// An empty token on either side always counts as changed.
func TokenChanged(stored, current string) bool {
	if stored == "" || current == "" {
		return true
	}
	return stored != current
}

// BaseName returns the file name without directory and extension.
// It is the identifier fallback for payloads that declare none.
func BaseName(p string) string {
	name := path.Base(p)
	if ext := path.Ext(name); ext != "" && ext != name {
		name = strings.TrimSuffix(name, ext)
	}
	return name
}

// UnderFolder reports whether p lies strictly inside folder.
// The empty folder is the root and contains everything.
func UnderFolder(p, folder string) bool {
	if folder == "" {
		return p != ""
	}
	return strings.HasPrefix(p, folder+"/")
}
