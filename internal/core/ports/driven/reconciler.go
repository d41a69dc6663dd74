package driven

import "context"

// TableReconciler writes destination rows.
// Rows are keyed by their business key, never by arrival order.
type TableReconciler interface {
	// Upsert inserts a row, or updates the row whose business key equals
	// identifier. row maps column names to flattened values; the
	// SchemaID, documentlocation and identifier columns are always set.
	// A missing table fails with domain.ErrSchemaNotProvisioned; a rejected
	// write fails with domain.ErrWriteRejected.
	Upsert(ctx context.Context, table, schemaID string, row map[string]any, identifier, sourcePath string) error

	// Delete removes the row with the given business key.
	// A missing row is not an error.
	Delete(ctx context.Context, table, identifier string) error
}
