// Package driving defines what the CLI calls into: running passes,
// watching a root and reading ingestion status.
//
// Implementations of these interfaces live in internal/core/services.
package driving
