// Package domain defines the core business entities for mdingest.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - RemoteEntry: A file or folder seen in a remote listing
//   - FileState: What has already been ingested for one remote file
//   - FolderState: The last observed change token of one remote folder
//   - ResolvedSchema: A local schema document and its destination table
//   - PassReport: The outcome of one ingestion pass
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
