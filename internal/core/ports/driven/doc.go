// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - RemoteLister: Enumerates and fetches remote files (WebDAV, local directory)
//   - StateStore: FileState and FolderState persistence
//   - SchemaResolver: Maps a schema id to a local schema document and table
//   - PayloadValidator: Validates a payload against a resolved schema
//   - TableReconciler: Upserts and deletes destination rows
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - RunStore: Pass history. Without it, pass reports are only logged.
//   - ChangeTrigger: External change notifications. Without it, watch mode
//     relies on the interval timer alone.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
