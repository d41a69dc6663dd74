package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/empirf/mdingest/internal/core/domain"
	"github.com/empirf/mdingest/internal/core/ports/driven"
)

// stateStore implements driven.StateStore.
type stateStore struct {
	store *Store
}

var _ driven.StateStore = (*stateStore)(nil)

// Get retrieves the state of a file.
func (s *stateStore) Get(ctx context.Context, path string) (*domain.FileState, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT path, change_token, schema_id, identifier, status, error_message, processed_at
		FROM ingest_state WHERE path = ?
	`, path)

	state, err := scanFileState(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return state, nil
}

// Put stores or updates a file state by path.
func (s *stateStore) Put(ctx context.Context, state domain.FileState) error {
	if state.Path == "" || !state.Status.Valid() {
		return domain.ErrInvalidInput
	}
	if state.ProcessedAt.IsZero() {
		state.ProcessedAt = time.Now()
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO ingest_state (path, change_token, schema_id, identifier, status, error_message, processed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			change_token = excluded.change_token,
			schema_id = excluded.schema_id,
			identifier = excluded.identifier,
			status = excluded.status,
			error_message = excluded.error_message,
			processed_at = excluded.processed_at
	`, state.Path, state.ChangeToken, nullString(state.SchemaID), nullString(state.Identifier),
		string(state.Status), nullString(state.ErrorMessage), formatTime(state.ProcessedAt))
	if err != nil {
		return fmt.Errorf("saving file state: %w", err)
	}
	return nil
}

// Delete removes a file state.
func (s *stateStore) Delete(ctx context.Context, path string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM ingest_state WHERE path = ?", path)
	if err != nil {
		return fmt.Errorf("deleting file state: %w", err)
	}
	return nil
}

// AllPaths returns the set of stored file paths.
func (s *stateStore) AllPaths(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.store.db.QueryContext(ctx, "SELECT path FROM ingest_state")
	if err != nil {
		return nil, fmt.Errorf("querying file paths: %w", err)
	}
	defer rows.Close()

	paths := make(map[string]struct{})
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scanning file path: %w", err)
		}
		paths[p] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating file paths: %w", err)
	}
	return paths, nil
}

// List returns file states ordered by path.
func (s *stateStore) List(ctx context.Context, status domain.FileStatus) ([]domain.FileState, error) {
	query := `
		SELECT path, change_token, schema_id, identifier, status, error_message, processed_at
		FROM ingest_state`
	var args []any
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, string(status))
	}
	query += " ORDER BY path"

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying file states: %w", err)
	}
	defer rows.Close()

	var states []domain.FileState //nolint:prealloc // size unknown from query
	for rows.Next() {
		state, err := scanFileState(rows)
		if err != nil {
			return nil, err
		}
		states = append(states, *state)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating file states: %w", err)
	}
	return states, nil
}

// GetFolder retrieves the state of a folder.
func (s *stateStore) GetFolder(ctx context.Context, path string) (*domain.FolderState, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT path, change_token, last_scanned FROM ingest_folder_state WHERE path = ?
	`, path)

	state, err := scanFolderState(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return state, nil
}

// PutFolder stores or updates a folder state by path.
func (s *stateStore) PutFolder(ctx context.Context, state domain.FolderState) error {
	if state.LastScanned.IsZero() {
		state.LastScanned = time.Now()
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO ingest_folder_state (path, change_token, last_scanned)
		VALUES (?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			change_token = excluded.change_token,
			last_scanned = excluded.last_scanned
	`, state.Path, state.ChangeToken, formatTime(state.LastScanned))
	if err != nil {
		return fmt.Errorf("saving folder state: %w", err)
	}
	return nil
}

// ListFolders returns folder states ordered by path.
func (s *stateStore) ListFolders(ctx context.Context) ([]domain.FolderState, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT path, change_token, last_scanned FROM ingest_folder_state ORDER BY path
	`)
	if err != nil {
		return nil, fmt.Errorf("querying folder states: %w", err)
	}
	defer rows.Close()

	var states []domain.FolderState //nolint:prealloc // size unknown from query
	for rows.Next() {
		state, err := scanFolderState(rows)
		if err != nil {
			return nil, err
		}
		states = append(states, *state)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating folder states: %w", err)
	}
	return states, nil
}

// ==================== Helper Functions ====================

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanFileState(row scanner) (*domain.FileState, error) {
	var state domain.FileState
	var schemaID, identifier, errMsg sql.NullString
	var status, processedAt string

	if err := row.Scan(&state.Path, &state.ChangeToken, &schemaID, &identifier,
		&status, &errMsg, &processedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning file state: %w", err)
	}

	state.SchemaID = schemaID.String
	state.Identifier = identifier.String
	state.Status = domain.FileStatus(status)
	state.ErrorMessage = errMsg.String
	state.ProcessedAt = parseTime(processedAt)
	return &state, nil
}

func scanFolderState(row scanner) (*domain.FolderState, error) {
	var state domain.FolderState
	var lastScanned string

	if err := row.Scan(&state.Path, &state.ChangeToken, &lastScanned); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning folder state: %w", err)
	}

	state.LastScanned = parseTime(lastScanned)
	return &state, nil
}

// timeLayout is RFC3339 with a fixed-width fraction so stored values sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// formatTime formats a time in UTC using timeLayout.
func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime parses an RFC3339 string, returning zero time on error.
func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// formatNullableTime formats a time, or returns nil for zero time.
func formatNullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return formatTime(t)
}

// nullString returns nil for empty strings, otherwise the string.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// boolToInt converts a bool to 1 (true) or 0 (false).
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
