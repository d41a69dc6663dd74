package cli

import (
	"context"
	"testing"

	"github.com/empirf/mdingest/internal/config"
	"github.com/empirf/mdingest/internal/core/domain"
	"github.com/empirf/mdingest/internal/core/ports/driving"
)

// mockWatcher implements driving.Watcher for testing.
type mockWatcher struct {
	report   *domain.PassReport
	err      error
	runCalls int
	cfg      *config.Config
}

func (m *mockWatcher) Run(_ context.Context) error {
	m.runCalls++
	return nil
}

func (m *mockWatcher) Once(_ context.Context) (*domain.PassReport, error) {
	return m.report, m.err
}

// mockStatusService implements driving.StatusService for testing.
type mockStatusService struct {
	files   []domain.FileState
	folders []domain.FolderState
	runs    []domain.PassReport
}

func (m *mockStatusService) Files(_ context.Context, status domain.FileStatus) ([]domain.FileState, error) {
	var out []domain.FileState
	for _, f := range m.files {
		if status == "" || f.Status == status {
			out = append(out, f)
		}
	}
	return out, nil
}

func (m *mockStatusService) Folders(_ context.Context) ([]domain.FolderState, error) {
	return m.folders, nil
}

func (m *mockStatusService) Runs(_ context.Context, limit int) ([]domain.PassReport, error) {
	if limit < len(m.runs) {
		return m.runs[:limit], nil
	}
	return m.runs, nil
}

func (m *mockStatusService) Summary(_ context.Context) (map[domain.FileStatus]int, error) {
	counts := make(map[domain.FileStatus]int)
	for _, f := range m.files {
		counts[f.Status]++
	}
	return counts, nil
}

// Ensure mocks implement interfaces
var _ driving.Watcher = (*mockWatcher)(nil)
var _ driving.StatusService = (*mockStatusService)(nil)

// setupCLITest installs mocks and a valid local-source config.
func setupCLITest(t *testing.T, watcher *mockWatcher, status *mockStatusService) func() {
	t.Helper()
	oldFactory := factory
	oldLoad := loadConfig
	dir := t.TempDir()

	loadConfig = func(_ string) (*config.Config, error) {
		cfg := config.Default()
		cfg.Source.Kind = config.SourceLocal
		cfg.Local.Dir = dir
		cfg.State.Dir = dir
		return cfg, nil
	}
	factory = Factory{
		Watch: func(_ context.Context, cfg *config.Config) (driving.Watcher, func() error, error) {
			watcher.cfg = cfg
			return watcher, func() error { return nil }, nil
		},
		Status: func(_ context.Context, _ *config.Config) (driving.StatusService, func() error, error) {
			return status, func() error { return nil }, nil
		},
	}

	return func() {
		factory = oldFactory
		loadConfig = oldLoad
		runWatch, runOnce, runDeleteMissing = false, false, false
		runWorkers, runInterval = 0, 0
		statusErrors, statusFolders, statusRuns = false, false, 0
		for _, name := range []string{"watch", "once", "interval", "delete-missing", "workers"} {
			runCmd.Flags().Lookup(name).Changed = false
		}
		for _, name := range []string{"errors", "folders", "runs"} {
			statusCmd.Flags().Lookup(name).Changed = false
		}
		rootCmd.SetArgs(nil)
	}
}
