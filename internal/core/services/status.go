package services

import (
	"context"

	"github.com/empirf/mdingest/internal/core/domain"
	"github.com/empirf/mdingest/internal/core/ports/driven"
	"github.com/empirf/mdingest/internal/core/ports/driving"
)

// Ensure StatusService implements the interface.
var _ driving.StatusService = (*StatusService)(nil)

// StatusService reads ingestion state for reporting.
type StatusService struct {
	states driven.StateStore
	runs   driven.RunStore
}

// NewStatusService creates a status service. runs may be nil.
func NewStatusService(states driven.StateStore, runs driven.RunStore) *StatusService {
	return &StatusService{states: states, runs: runs}
}

// Files returns file states, filtered by status when one is given.
func (s *StatusService) Files(ctx context.Context, status domain.FileStatus) ([]domain.FileState, error) {
	if status != "" && !status.Valid() {
		return nil, domain.ErrInvalidInput
	}
	return s.states.List(ctx, status)
}

// Folders returns folder states.
func (s *StatusService) Folders(ctx context.Context) ([]domain.FolderState, error) {
	return s.states.ListFolders(ctx)
}

// Runs returns recent pass reports, newest first.
func (s *StatusService) Runs(ctx context.Context, limit int) ([]domain.PassReport, error) {
	if s.runs == nil {
		return nil, nil
	}
	return s.runs.RecentRuns(ctx, limit)
}

// Summary counts files per status.
func (s *StatusService) Summary(ctx context.Context) (map[domain.FileStatus]int, error) {
	files, err := s.states.List(ctx, "")
	if err != nil {
		return nil, err
	}
	counts := map[domain.FileStatus]int{
		domain.StatusPending: 0,
		domain.StatusSuccess: 0,
		domain.StatusError:   0,
	}
	for _, f := range files {
		counts[f.Status]++
	}
	return counts, nil
}
