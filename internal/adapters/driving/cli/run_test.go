package cli

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/empirf/mdingest/internal/core/domain"
)

func TestRunCmd_Use(t *testing.T) {
	assert.Equal(t, "run", runCmd.Use)
	assert.Equal(t, "Ingest the watched root", runCmd.Short)
}

func TestRunCmd_Flags(t *testing.T) {
	for _, name := range []string{"watch", "once", "interval", "delete-missing", "workers"} {
		assert.NotNil(t, runCmd.Flags().Lookup(name), name)
	}
}

func TestRunCmd_SinglePass(t *testing.T) {
	watcher := &mockWatcher{report: &domain.PassReport{
		RunID:     "run-1",
		Root:      "/data",
		Listed:    2,
		Processed: 2,
		Succeeded: 1,
		Failed:    1,
		StartedAt: time.Now(),
		EndedAt:   time.Now(),
	}}
	cleanup := setupCLITest(t, watcher, &mockStatusService{})
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"run"})

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Pass run-1")
	assert.Contains(t, buf.String(), "/data")
	assert.Equal(t, 0, watcher.runCalls)
}

func TestRunCmd_RootFailureFails(t *testing.T) {
	watcher := &mockWatcher{
		report: &domain.PassReport{RunID: "run-1", Error: "TransportFailure: /data: timeout"},
		err:    &domain.TransportError{URL: "/data", Err: errors.New("timeout")},
	}
	cleanup := setupCLITest(t, watcher, &mockStatusService{})
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"run"})

	err := rootCmd.Execute()

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTransport)
	assert.Contains(t, buf.String(), "TransportFailure")
}

func TestRunCmd_Watch(t *testing.T) {
	watcher := &mockWatcher{}
	cleanup := setupCLITest(t, watcher, &mockStatusService{})
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"run", "--watch", "--interval", "30s"})

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Equal(t, 1, watcher.runCalls)
	assert.Contains(t, buf.String(), "Watching every 30s")
}

func TestRunCmd_WatchAndOnceConflict(t *testing.T) {
	watcher := &mockWatcher{}
	cleanup := setupCLITest(t, watcher, &mockStatusService{})
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"run", "--watch", "--once"})

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Equal(t, 0, watcher.runCalls)
}

func TestRunCmd_FlagsOverrideConfig(t *testing.T) {
	watcher := &mockWatcher{report: &domain.PassReport{RunID: "run-1"}}
	cleanup := setupCLITest(t, watcher, &mockStatusService{})
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"run", "--delete-missing", "--workers", "8", "--interval", "1m"})

	err := rootCmd.Execute()

	require.NoError(t, err)
	require.NotNil(t, watcher.cfg)
	assert.True(t, watcher.cfg.Ingest.DeleteMissing)
	assert.Equal(t, 8, watcher.cfg.Ingest.Workers)
	assert.Equal(t, 60, watcher.cfg.Ingest.IntervalSeconds)
}

func TestRunCmd_IntervalBareSeconds(t *testing.T) {
	watcher := &mockWatcher{report: &domain.PassReport{RunID: "run-1"}}
	cleanup := setupCLITest(t, watcher, &mockStatusService{})
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"run", "--interval", "30"})

	require.NoError(t, rootCmd.Execute())
	require.NotNil(t, watcher.cfg)
	assert.Equal(t, 30, watcher.cfg.Ingest.IntervalSeconds)
}

func TestIntervalValue_Set(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"30", 30 * time.Second, false},
		{"30s", 30 * time.Second, false},
		{"1m", time.Minute, false},
		{"1500ms", 1500 * time.Millisecond, false},
		{"soon", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var v intervalValue
			err := v.Set(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, time.Duration(v))
		})
	}
}

func TestRunCmd_InvalidConfig(t *testing.T) {
	watcher := &mockWatcher{}
	cleanup := setupCLITest(t, watcher, &mockStatusService{})
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"run", "--workers", "-1"})

	err := rootCmd.Execute()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "workers must be positive")
	assert.Nil(t, watcher.cfg)
}

func TestRunCmd_NotConfigured(t *testing.T) {
	cleanup := setupCLITest(t, &mockWatcher{}, &mockStatusService{})
	defer cleanup()
	factory = Factory{}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"run"})

	err := rootCmd.Execute()

	assert.ErrorIs(t, err, errNotConfigured)
}
