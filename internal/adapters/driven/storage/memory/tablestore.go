package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/empirf/mdingest/internal/core/domain"
	"github.com/empirf/mdingest/internal/core/ports/driven"
)

// Ensure TableStore implements the interface.
var _ driven.TableReconciler = (*TableStore)(nil)

// TableStore is an in-memory implementation of driven.TableReconciler.
// Tables must be provisioned before rows can be written to them.
type TableStore struct {
	mu      sync.RWMutex
	columns map[string][]string
	rows    map[string]map[string]map[string]any
	reject  map[string]error
	writes  int
}

// NewTableStore creates a new in-memory destination.
func NewTableStore() *TableStore {
	return &TableStore{
		columns: make(map[string][]string),
		rows:    make(map[string]map[string]map[string]any),
		reject:  make(map[string]error),
	}
}

// Provision creates a table with the given columns. The reserved columns are
// always added.
func (s *TableStore) Provision(table string, columns ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cols := []string{domain.ColumnSchemaID, domain.ColumnDocumentLocation, domain.ColumnIdentifier}
	for _, c := range columns {
		if findColumn(cols, c) == "" {
			cols = append(cols, c)
		}
	}
	s.columns[table] = cols
	if _, ok := s.rows[table]; !ok {
		s.rows[table] = make(map[string]map[string]any)
	}
}

// Reject makes every write to table fail with cause.
func (s *TableStore) Reject(table string, cause error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reject[table] = cause
}

// Upsert inserts or updates the row keyed by identifier.
func (s *TableStore) Upsert(_ context.Context, table, schemaID string, row map[string]any, identifier, sourcePath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cols, ok := s.columns[table]
	if !ok {
		return fmt.Errorf("%w: table %s", domain.ErrSchemaNotProvisioned, table)
	}
	if cause := s.reject[table]; cause != nil {
		return fmt.Errorf("%w: %w", domain.ErrWriteRejected, cause)
	}

	stored := make(map[string]any, len(cols))
	if existing, ok := s.rows[table][identifier]; ok {
		for k, v := range existing {
			stored[k] = v
		}
	}
	for key, value := range row {
		if col := findColumn(cols, key); col != "" {
			stored[col] = value
		}
	}
	stored[domain.ColumnSchemaID] = schemaID
	stored[domain.ColumnDocumentLocation] = sourcePath
	stored[domain.ColumnIdentifier] = identifier

	s.rows[table][identifier] = stored
	s.writes++
	return nil
}

// Delete removes the row keyed by identifier. Absent rows and tables are ignored.
func (s *TableStore) Delete(_ context.Context, table, identifier string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rows, ok := s.rows[table]; ok {
		if _, ok := rows[identifier]; ok {
			delete(rows, identifier)
			s.writes++
		}
	}
	return nil
}

// Row returns a copy of a stored row.
func (s *TableStore) Row(table, identifier string) (map[string]any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.rows[table][identifier]
	if !ok {
		return nil, false
	}
	out := make(map[string]any, len(row))
	for k, v := range row {
		out[k] = v
	}
	return out, true
}

// Count returns the number of rows in table.
func (s *TableStore) Count(table string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows[table])
}

// Writes returns the number of mutating operations applied so far.
func (s *TableStore) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}

func findColumn(columns []string, name string) string {
	for _, c := range columns {
		if strings.EqualFold(c, name) {
			return c
		}
	}
	return ""
}
