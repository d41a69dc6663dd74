package domain

import "time"

// FileStatus is the processing outcome recorded for a remote file.
type FileStatus string

const (
	// StatusPending marks a file that has been seen but not yet processed.
	StatusPending FileStatus = "pending"

	// StatusSuccess marks a file whose payload reached the destination table.
	StatusSuccess FileStatus = "success"

	// StatusError marks a file whose last processing attempt failed.
	StatusError FileStatus = "error"
)

// Valid reports whether s is a known status.
func (s FileStatus) Valid() bool {
	switch s {
	case StatusPending, StatusSuccess, StatusError:
		return true
	}
	return false
}

// FileState is one row per remote file ever seen.
// Path is unique; (SchemaID, Identifier) names the destination row.
type FileState struct {
	// Path is the remote location relative to the watched root.
	Path string

	// ChangeToken is the opaque token observed when the file was processed.
	ChangeToken string

	// SchemaID is the declared schema id, set once the payload was parsed.
	SchemaID string

	// Identifier is the business key used for destination upserts and deletes.
	Identifier string

	// Status is the processing outcome.
	Status FileStatus

	// ErrorMessage describes the last failure, prefixed with its category.
	ErrorMessage string

	// ProcessedAt is when the state was last written.
	ProcessedAt time.Time
}

// HasDestination reports whether a destination row may exist for this file.
// A file that never resolved a schema id and identifier was never written.
func (s *FileState) HasDestination() bool {
	return s.SchemaID != "" && s.Identifier != ""
}

// FolderState is one row per remote folder.
type FolderState struct {
	// Path is the folder location relative to the watched root.
	Path string

	// ChangeToken is the folder token observed on the last full listing.
	ChangeToken string

	// LastScanned is when the folder was last listed.
	LastScanned time.Time
}
