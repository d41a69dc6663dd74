// Package services holds the ingestion core: the Ingestor that runs one
// pass over a watched root, the Watcher that repeats passes, and the
// StatusService behind "mdingest status". Services depend only on ports;
// adapters are injected by cmd/mdingest.
package services
