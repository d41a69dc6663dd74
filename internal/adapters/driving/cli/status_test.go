package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/empirf/mdingest/internal/core/domain"
)

func newStatusFixture() *mockStatusService {
	now := time.Now()
	return &mockStatusService{
		files: []domain.FileState{
			{Path: "a.json", Status: domain.StatusSuccess, SchemaID: "expA", Identifier: "sample-1"},
			{Path: "b.json", Status: domain.StatusError, ErrorMessage: "UnknownSchema: expX"},
			{Path: "c.json", Status: domain.StatusPending},
		},
		folders: []domain.FolderState{{Path: "sub", ChangeToken: "F1|", LastScanned: now}},
		runs: []domain.PassReport{
			{RunID: "r2", StartedAt: now, EndedAt: now, Processed: 3, Failed: 1},
			{RunID: "r1", StartedAt: now.Add(-time.Minute), EndedAt: now, Error: "TransportFailure: /data: timeout"},
		},
	}
}

func TestStatusCmd_Use(t *testing.T) {
	assert.Equal(t, "status", statusCmd.Use)
	assert.Equal(t, "Show ingestion status", statusCmd.Short)
}

func TestStatusCmd_Summary(t *testing.T) {
	cleanup := setupCLITest(t, &mockWatcher{}, newStatusFixture())
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"status"})

	err := rootCmd.Execute()

	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "1 ingested")
	assert.Contains(t, out, "1 pending")
	assert.Contains(t, out, "1 failed")
	assert.Contains(t, out, "a.json")
	assert.Contains(t, out, "expA/sample-1")
	assert.Contains(t, out, "UnknownSchema: expX")
	assert.NotContains(t, out, "Folders")
}

func TestStatusCmd_ErrorsOnly(t *testing.T) {
	cleanup := setupCLITest(t, &mockWatcher{}, newStatusFixture())
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"status", "--errors"})

	err := rootCmd.Execute()

	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "b.json")
	assert.NotContains(t, out, "a.json")
	assert.NotContains(t, out, "c.json")
}

func TestStatusCmd_FoldersAndRuns(t *testing.T) {
	cleanup := setupCLITest(t, &mockWatcher{}, newStatusFixture())
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"status", "--folders", "--runs", "1"})

	err := rootCmd.Execute()

	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "Folders")
	assert.Contains(t, out, "F1|")
	assert.Contains(t, out, "Recent passes")
	assert.Contains(t, out, "3 processed, 1 failed")
	assert.NotContains(t, out, "TransportFailure")
}

func TestStatusCmd_Empty(t *testing.T) {
	cleanup := setupCLITest(t, &mockWatcher{}, &mockStatusService{})
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"status", "--runs", "5"})

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "No files.")
	assert.Contains(t, buf.String(), "No passes recorded.")
}
