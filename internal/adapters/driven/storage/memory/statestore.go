package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/empirf/mdingest/internal/core/domain"
	"github.com/empirf/mdingest/internal/core/ports/driven"
)

// Ensure StateStore implements the interface.
var _ driven.StateStore = (*StateStore)(nil)

// StateStore is an in-memory implementation of driven.StateStore.
type StateStore struct {
	mu      sync.RWMutex
	files   map[string]domain.FileState
	folders map[string]domain.FolderState
}

// NewStateStore creates a new in-memory state store.
func NewStateStore() *StateStore {
	return &StateStore{
		files:   make(map[string]domain.FileState),
		folders: make(map[string]domain.FolderState),
	}
}

// Get retrieves the state of a file.
func (s *StateStore) Get(_ context.Context, path string) (*domain.FileState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.files[path]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &state, nil
}

// Put stores or updates a file state.
func (s *StateStore) Put(_ context.Context, state domain.FileState) error {
	if state.Path == "" || !state.Status.Valid() {
		return domain.ErrInvalidInput
	}
	if state.ProcessedAt.IsZero() {
		state.ProcessedAt = time.Now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[state.Path] = state
	return nil
}

// Delete removes a file state.
func (s *StateStore) Delete(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, path)
	return nil
}

// AllPaths returns the set of stored file paths.
func (s *StateStore) AllPaths(_ context.Context) (map[string]struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	paths := make(map[string]struct{}, len(s.files))
	for p := range s.files {
		paths[p] = struct{}{}
	}
	return paths, nil
}

// List returns file states ordered by path, filtered by status when set.
func (s *StateStore) List(_ context.Context, status domain.FileStatus) ([]domain.FileState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var states []domain.FileState
	for _, state := range s.files {
		if status == "" || state.Status == status {
			states = append(states, state)
		}
	}
	sort.Slice(states, func(i, j int) bool { return states[i].Path < states[j].Path })
	return states, nil
}

// GetFolder retrieves the state of a folder.
func (s *StateStore) GetFolder(_ context.Context, path string) (*domain.FolderState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.folders[path]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &state, nil
}

// PutFolder stores or updates a folder state.
func (s *StateStore) PutFolder(_ context.Context, state domain.FolderState) error {
	if state.LastScanned.IsZero() {
		state.LastScanned = time.Now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.folders[state.Path] = state
	return nil
}

// ListFolders returns folder states ordered by path.
func (s *StateStore) ListFolders(_ context.Context) ([]domain.FolderState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	states := make([]domain.FolderState, 0, len(s.folders))
	for _, state := range s.folders {
		states = append(states, state)
	}
	sort.Slice(states, func(i, j int) bool { return states[i].Path < states[j].Path })
	return states, nil
}
