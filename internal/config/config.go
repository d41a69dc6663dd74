// Package config loads mdingest configuration.
//
// Values are layered: built-in defaults, then the TOML file, then
// environment variables (optionally seeded from a .env file), then CLI flags
// applied by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Source kinds.
const (
	SourceWebDAV = "webdav"
	SourceLocal  = "local"
)

// Destination drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// Config holds all configuration for the application.
type Config struct {
	Source      SourceConfig      `toml:"source"`
	WebDAV      WebDAVConfig      `toml:"webdav"`
	Local       LocalConfig       `toml:"local"`
	Schemas     SchemaConfig      `toml:"schemas"`
	Destination DestinationConfig `toml:"destination"`
	State       StateConfig       `toml:"state"`
	Ingest      IngestConfig      `toml:"ingest"`
	Log         LogConfig         `toml:"log"`
	Metrics     MetricsConfig     `toml:"metrics"`
}

// SourceConfig selects the remote lister.
type SourceConfig struct {
	Kind string `toml:"kind"` // "webdav" or "local"
}

// WebDAVConfig holds WebDAV connection settings.
type WebDAVConfig struct {
	URL                string  `toml:"url"`
	Root               string  `toml:"root"`
	User               string  `toml:"user"`
	Password           string  `toml:"password"`
	Token              string  `toml:"token"` // bearer token, replaces basic auth when set
	TimeoutSeconds     int     `toml:"timeout_seconds"`
	RequestsPerSecond  float64 `toml:"requests_per_second"`
	StableFolderTokens bool    `toml:"stable_folder_tokens"`
}

// LocalConfig holds local directory source settings.
type LocalConfig struct {
	Dir    string `toml:"dir"`
	Notify bool   `toml:"notify"` // trigger passes on filesystem events
}

// SchemaConfig holds schema store settings.
type SchemaConfig struct {
	Dir     string   `toml:"dir"`
	Allowed []string `toml:"allowed"`
}

// DestinationConfig holds destination database settings.
type DestinationConfig struct {
	Driver   string `toml:"driver"`
	DSN      string `toml:"dsn"`
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Name     string `toml:"name"`
}

// StateConfig holds local state settings.
type StateConfig struct {
	Dir string `toml:"dir"`
}

// IngestConfig holds orchestrator settings.
type IngestConfig struct {
	IntervalSeconds    int    `toml:"interval_seconds"`
	Workers            int    `toml:"workers"`
	DeleteMissing      bool   `toml:"delete_missing"`
	FileTypeIdentifier string `toml:"file_type_identifier"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Format  string `toml:"format"`
	Verbose bool   `toml:"verbose"`
}

// MetricsConfig holds metrics endpoint settings.
type MetricsConfig struct {
	Addr string `toml:"addr"`
}

// Interval returns the poll period.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.Ingest.IntervalSeconds) * time.Second
}

// Timeout returns the WebDAV request timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.WebDAV.TimeoutSeconds) * time.Second
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Source: SourceConfig{Kind: SourceWebDAV},
		WebDAV: WebDAVConfig{
			Root:              "EMPI-RF",
			TimeoutSeconds:    30,
			RequestsPerSecond: 10,
		},
		Schemas: SchemaConfig{Dir: "schemas"},
		Destination: DestinationConfig{
			Driver: DriverSQLite,
		},
		Ingest: IngestConfig{
			IntervalSeconds: 10,
			Workers:         4,
		},
		Log: LogConfig{Format: "console"},
	}
}

// DefaultDir returns ~/.mdingest.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".mdingest"), nil
}

// Load builds the configuration from defaults, the TOML file at path and
// the environment. An empty path reads ~/.mdingest/config.toml if present;
// an explicit path must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		dir, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(dir, "config.toml")
	}

	if err := cfg.loadFile(path); err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			err = nil
		}
		if err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if cfg.State.Dir == "" {
		dir, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		cfg.State.Dir = filepath.Join(dir, "data")
	}

	return cfg, nil
}

// loadFile decodes the TOML file at path over the current values.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	return nil
}

// applyEnv overrides values from environment variables.
func (c *Config) applyEnv() {
	c.WebDAV.URL = getEnv("WEBDAV_URL", c.WebDAV.URL)
	c.WebDAV.Root = getEnv("WEBDAV_ROOT", c.WebDAV.Root)
	c.WebDAV.User = getEnv("WEBDAV_USER", c.WebDAV.User)
	c.WebDAV.Password = getEnv("WEBDAV_PASSWORD", c.WebDAV.Password)
	c.WebDAV.Token = getEnv("WEBDAV_TOKEN", c.WebDAV.Token)

	if dir := os.Getenv("DATA_SOURCE_DIR"); dir != "" {
		c.Local.Dir = dir
		c.Source.Kind = SourceLocal
	}
	c.Source.Kind = getEnv("SOURCE_KIND", c.Source.Kind)

	c.Schemas.Dir = getEnv("SCHEMA_DIR", c.Schemas.Dir)
	if allowed := os.Getenv("ALLOWED_SCHEMAIDS"); allowed != "" {
		c.Schemas.Allowed = splitList(allowed)
	}

	c.Destination.Driver = getEnv("DB_DRIVER", c.Destination.Driver)
	c.Destination.DSN = getEnv("DB_DSN", c.Destination.DSN)
	c.Destination.Host = getEnv("DB_HOST", c.Destination.Host)
	c.Destination.Port = getEnvInt("DB_PORT", c.Destination.Port)
	c.Destination.User = getEnv("DB_USER", c.Destination.User)
	c.Destination.Password = getEnv("DB_PASSWORD", c.Destination.Password)
	c.Destination.Name = getEnv("DB_NAME", c.Destination.Name)

	c.State.Dir = getEnv("STATE_DIR", c.State.Dir)
	c.Ingest.IntervalSeconds = getEnvInt("POLL_INTERVAL", c.Ingest.IntervalSeconds)
	c.Ingest.FileTypeIdentifier = getEnv("FILE_TYPE_IDENTIFIER", c.Ingest.FileTypeIdentifier)
	c.Metrics.Addr = getEnv("METRICS_ADDR", c.Metrics.Addr)
}

// Validate checks the configuration is usable.
func (c *Config) Validate() error {
	switch c.Source.Kind {
	case SourceWebDAV:
		if c.WebDAV.URL == "" {
			return errors.New("webdav.url is required for the webdav source")
		}
	case SourceLocal:
		if c.Local.Dir == "" {
			return errors.New("local.dir is required for the local source")
		}
	default:
		return fmt.Errorf("unsupported source kind: %q", c.Source.Kind)
	}

	switch c.Destination.Driver {
	case DriverSQLite, DriverPostgres, DriverMySQL:
	default:
		return fmt.Errorf("unsupported destination driver: %q", c.Destination.Driver)
	}

	if c.Schemas.Dir == "" {
		return errors.New("schemas.dir is required")
	}
	if c.Ingest.IntervalSeconds <= 0 {
		return fmt.Errorf("interval must be positive, got %d", c.Ingest.IntervalSeconds)
	}
	if c.Ingest.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Ingest.Workers)
	}
	return nil
}

// LoadEnvFile sets variables from a dotenv file without overriding
// variables already present in the environment. A missing file is ignored.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
