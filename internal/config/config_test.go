package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.toml", `
[source]
kind = "webdav"

[webdav]
url = "https://dav.example/remote.php/dav/files/demo/"
root = "Experiments"
user = "demo"

[schemas]
dir = "/srv/schemas"
allowed = ["expA", "expB"]

[destination]
driver = "postgres"
host = "db"
port = 5432

[ingest]
interval_seconds = 30
workers = 8
delete_missing = true
`)

	t.Setenv("WEBDAV_PASSWORD", "secret")
	t.Setenv("DB_NAME", "experiment_data")
	t.Setenv("STATE_DIR", filepath.Join(dir, "state"))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, SourceWebDAV, cfg.Source.Kind)
	assert.Equal(t, "https://dav.example/remote.php/dav/files/demo/", cfg.WebDAV.URL)
	assert.Equal(t, "Experiments", cfg.WebDAV.Root)
	assert.Equal(t, "demo", cfg.WebDAV.User)
	assert.Equal(t, "secret", cfg.WebDAV.Password)
	assert.Equal(t, []string{"expA", "expB"}, cfg.Schemas.Allowed)
	assert.Equal(t, DriverPostgres, cfg.Destination.Driver)
	assert.Equal(t, 5432, cfg.Destination.Port)
	assert.Equal(t, "experiment_data", cfg.Destination.Name)
	assert.Equal(t, 30*time.Second, cfg.Interval())
	assert.Equal(t, 8, cfg.Ingest.Workers)
	assert.True(t, cfg.Ingest.DeleteMissing)
	assert.Equal(t, filepath.Join(dir, "state"), cfg.State.Dir)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestLoad_InvalidTOML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.toml", "[webdav\nurl=")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestApplyEnv_LocalSource(t *testing.T) {
	t.Setenv("DATA_SOURCE_DIR", "/data/inbox")
	t.Setenv("ALLOWED_SCHEMAIDS", "expA, expB ,,")
	t.Setenv("POLL_INTERVAL", "5")

	cfg := Default()
	cfg.applyEnv()

	assert.Equal(t, SourceLocal, cfg.Source.Kind)
	assert.Equal(t, "/data/inbox", cfg.Local.Dir)
	assert.Equal(t, []string{"expA", "expB"}, cfg.Schemas.Allowed)
	assert.Equal(t, 5, cfg.Ingest.IntervalSeconds)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"missing webdav url", func(c *Config) {}, "webdav.url"},
		{"missing local dir", func(c *Config) { c.Source.Kind = SourceLocal }, "local.dir"},
		{"unknown source", func(c *Config) { c.Source.Kind = "ftp" }, "unsupported source kind"},
		{"unknown driver", func(c *Config) {
			c.WebDAV.URL = "https://x"
			c.Destination.Driver = "oracle"
		}, "unsupported destination driver"},
		{"zero interval", func(c *Config) {
			c.WebDAV.URL = "https://x"
			c.Ingest.IntervalSeconds = 0
		}, "interval"},
		{"zero workers", func(c *Config) {
			c.WebDAV.URL = "https://x"
			c.Ingest.Workers = 0
		}, "workers"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, ".env", `
# comment
MDINGEST_TEST_A="quoted"
MDINGEST_TEST_B = plain
export MDINGEST_TEST_C=exported
MDINGEST_TEST_D='single # kept'
MDINGEST_TEST_E=say "hi"
`)
	t.Setenv("MDINGEST_TEST_B", "already-set")
	for _, key := range []string{"MDINGEST_TEST_A", "MDINGEST_TEST_C", "MDINGEST_TEST_D", "MDINGEST_TEST_E"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}

	require.NoError(t, LoadEnvFile(path))

	assert.Equal(t, "quoted", os.Getenv("MDINGEST_TEST_A"))
	assert.Equal(t, "already-set", os.Getenv("MDINGEST_TEST_B"))
	assert.Equal(t, "exported", os.Getenv("MDINGEST_TEST_C"))
	assert.Equal(t, "single # kept", os.Getenv("MDINGEST_TEST_D"))
	assert.Equal(t, `say "hi"`, os.Getenv("MDINGEST_TEST_E"))

	assert.NoError(t, LoadEnvFile(filepath.Join(dir, "missing.env")))
}
