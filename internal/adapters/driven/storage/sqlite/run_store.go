package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/empirf/mdingest/internal/core/domain"
	"github.com/empirf/mdingest/internal/core/ports/driven"
)

// runStore implements driven.RunStore.
type runStore struct {
	store *Store
}

var _ driven.RunStore = (*runStore)(nil)

// RecordRun logs a pass report.
func (s *runStore) RecordRun(ctx context.Context, report *domain.PassReport) error {
	if report == nil || report.RunID == "" {
		return domain.ErrInvalidInput
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO ingest_runs (run_id, root, started_at, ended_at, last_state,
			listed, unchanged, carried, processed, succeeded, failed, deleted,
			folders_skipped, folder_errors, canceled, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			ended_at = excluded.ended_at,
			last_state = excluded.last_state,
			listed = excluded.listed,
			unchanged = excluded.unchanged,
			carried = excluded.carried,
			processed = excluded.processed,
			succeeded = excluded.succeeded,
			failed = excluded.failed,
			deleted = excluded.deleted,
			folders_skipped = excluded.folders_skipped,
			folder_errors = excluded.folder_errors,
			canceled = excluded.canceled,
			error = excluded.error
	`, report.RunID, report.Root, formatTime(report.StartedAt), formatNullableTime(report.EndedAt),
		string(report.LastState), report.Listed, report.Unchanged, report.Carried,
		report.Processed, report.Succeeded, report.Failed, report.Deleted,
		report.FoldersSkipped, report.FolderErrors, boolToInt(report.Canceled),
		nullString(report.Error))
	if err != nil {
		return fmt.Errorf("recording run: %w", err)
	}
	return nil
}

// RecentRuns returns the most recent reports, newest first.
func (s *runStore) RecentRuns(ctx context.Context, limit int) ([]domain.PassReport, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT run_id, root, started_at, ended_at, last_state, listed, unchanged, carried,
			processed, succeeded, failed, deleted, folders_skipped, folder_errors, canceled, error
		FROM ingest_runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var reports []domain.PassReport //nolint:prealloc // size unknown from query
	for rows.Next() {
		report, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, *report)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}
	return reports, nil
}

// PruneRuns removes reports beyond the most recent 'keep'.
func (s *runStore) PruneRuns(ctx context.Context, keep int) error {
	_, err := s.store.db.ExecContext(ctx, `
		DELETE FROM ingest_runs
		WHERE run_id NOT IN (
			SELECT run_id FROM ingest_runs ORDER BY started_at DESC LIMIT ?
		)
	`, keep)
	if err != nil {
		return fmt.Errorf("pruning runs: %w", err)
	}
	return nil
}

func scanRun(rows *sql.Rows) (*domain.PassReport, error) {
	var r domain.PassReport
	var startedAt, lastState string
	var endedAt, errMsg sql.NullString
	var canceled int

	if err := rows.Scan(&r.RunID, &r.Root, &startedAt, &endedAt, &lastState,
		&r.Listed, &r.Unchanged, &r.Carried, &r.Processed, &r.Succeeded, &r.Failed,
		&r.Deleted, &r.FoldersSkipped, &r.FolderErrors, &canceled, &errMsg); err != nil {
		return nil, fmt.Errorf("scanning run: %w", err)
	}

	r.StartedAt = parseTime(startedAt)
	if endedAt.Valid {
		r.EndedAt = parseTime(endedAt.String)
	}
	r.LastState = domain.PassState(lastState)
	r.Canceled = canceled == 1
	r.Error = errMsg.String
	return &r, nil
}
