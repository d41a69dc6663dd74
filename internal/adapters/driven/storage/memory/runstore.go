package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/empirf/mdingest/internal/core/domain"
	"github.com/empirf/mdingest/internal/core/ports/driven"
)

// Ensure RunStore implements the interface.
var _ driven.RunStore = (*RunStore)(nil)

// RunStore is an in-memory implementation of driven.RunStore.
type RunStore struct {
	mu   sync.RWMutex
	runs []domain.PassReport
}

// NewRunStore creates a new in-memory run store.
func NewRunStore() *RunStore {
	return &RunStore{}
}

// RecordRun appends or replaces a pass report.
func (s *RunStore) RecordRun(_ context.Context, report *domain.PassReport) error {
	if report == nil || report.RunID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.runs {
		if s.runs[i].RunID == report.RunID {
			s.runs[i] = *report
			return nil
		}
	}
	s.runs = append(s.runs, *report)
	sort.SliceStable(s.runs, func(i, j int) bool {
		return s.runs[i].StartedAt.After(s.runs[j].StartedAt)
	})
	return nil
}

// RecentRuns returns up to limit reports, newest first.
func (s *RunStore) RecentRuns(_ context.Context, limit int) ([]domain.PassReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 || limit > len(s.runs) {
		limit = len(s.runs)
	}
	out := make([]domain.PassReport, limit)
	copy(out, s.runs[:limit])
	return out, nil
}

// PruneRuns keeps only the most recent reports.
func (s *RunStore) PruneRuns(_ context.Context, keep int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if keep < len(s.runs) {
		s.runs = s.runs[:keep]
	}
	return nil
}
