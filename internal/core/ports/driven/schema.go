package driven

import (
	"context"

	"github.com/empirf/mdingest/internal/core/domain"
)

// SchemaResolver maps a declared schema id to a local schema document.
// It reads from the schema store only, never writes.
type SchemaResolver interface {
	// Resolve returns the schema and its destination table.
	// Returns an error matching domain.ErrUnknownSchema when no local
	// schema matches schemaID.
	Resolve(ctx context.Context, schemaID string) (*domain.ResolvedSchema, error)
}

// PayloadValidator checks a payload against a resolved schema.
// Implementations must be pure and safe for concurrent use.
type PayloadValidator interface {
	// Validate returns the violations of payload, or the record identifier
	// when there are none. fallbackID is used as identifier when the
	// payload declares none.
	Validate(payload domain.Payload, schema *domain.ResolvedSchema, fallbackID string) domain.ValidationResult
}
