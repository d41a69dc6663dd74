package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrPassInProgress indicates a pass is already running for the watched root.
	ErrPassInProgress = errors.New("pass in progress")

	// Run-level errors.

	// ErrTransport indicates the watched root could not be listed.
	// The whole pass is aborted and retried on the next trigger.
	ErrTransport = errors.New("TransportFailure")

	// ErrFolderListing indicates a sub-folder could not be listed.
	// Traversal continues into sibling folders.
	ErrFolderListing = errors.New("FolderListingFailure")

	// Per-file errors. These never abort a pass; they are recorded on the
	// file's state and retried on the next pass.

	// ErrPayload indicates the file content is not a usable payload.
	ErrPayload = errors.New("InvalidPayload")

	// ErrUnknownSchema indicates no local schema matches the declared schema id.
	ErrUnknownSchema = errors.New("UnknownSchema")

	// ErrValidation indicates the payload does not conform to its schema.
	ErrValidation = errors.New("ValidationFailure")

	// ErrSchemaNotProvisioned indicates the destination table does not exist.
	ErrSchemaNotProvisioned = errors.New("SchemaNotProvisioned")

	// ErrWriteRejected indicates the destination database refused the write.
	ErrWriteRejected = errors.New("WriteRejected")
)

// TransportError is a root-level listing failure.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrTransport, e.URL, e.Err)
}

// Unwrap lets errors.Is match both ErrTransport and the underlying cause.
func (e *TransportError) Unwrap() []error {
	return []error{ErrTransport, e.Err}
}

// FolderListingError is a per-folder listing failure.
type FolderListingError struct {
	Path string
	Err  error
}

func (e *FolderListingError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrFolderListing, e.Path, e.Err)
}

// Unwrap lets errors.Is match both ErrFolderListing and the underlying cause.
func (e *FolderListingError) Unwrap() []error {
	return []error{ErrFolderListing, e.Err}
}

// ValidationError carries the violations of an invalid payload.
type ValidationError struct {
	SchemaID   string
	Violations []Violation
}

func (e *ValidationError) Error() string {
	if len(e.Violations) == 0 {
		return fmt.Sprintf("%s: %s", ErrValidation, e.SchemaID)
	}
	first := e.Violations[0]
	if len(e.Violations) == 1 {
		return fmt.Sprintf("%s: %s", ErrValidation, first)
	}
	return fmt.Sprintf("%s: %s (and %d more)", ErrValidation, first, len(e.Violations)-1)
}

// Unwrap returns ErrValidation.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// UnknownSchemaError returns an error matching ErrUnknownSchema for the given id.
// The message reads "UnknownSchema: <id>".
func UnknownSchemaError(schemaID string) error {
	return fmt.Errorf("%w: %s", ErrUnknownSchema, schemaID)
}

// Category returns the taxonomy name of err, or "Error" when it matches none.
func Category(err error) string {
	for _, sentinel := range []error{
		ErrTransport, ErrFolderListing, ErrPayload, ErrUnknownSchema,
		ErrValidation, ErrSchemaNotProvisioned, ErrWriteRejected,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return "Error"
}
