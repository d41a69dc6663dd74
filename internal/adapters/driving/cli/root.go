// Package cli provides the cobra command tree of mdingest.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/empirf/mdingest/internal/config"
	"github.com/empirf/mdingest/internal/core/ports/driving"
	"github.com/empirf/mdingest/internal/logger"
)

// version is set by main from build flags.
var version = "dev"

// Persistent flags.
var (
	cfgFile     string
	verbose     bool
	metricsAddr string
)

// Factory builds the services the commands run against.
// Each builder returns a close function releasing what it opened.
type Factory struct {
	// Watch builds the ingestion loop for the configured root.
	Watch func(ctx context.Context, cfg *config.Config) (driving.Watcher, func() error, error)

	// Status builds the read-only status service.
	Status func(ctx context.Context, cfg *config.Config) (driving.StatusService, func() error, error)
}

// Services are set by main and replaced by tests.
var (
	factory    Factory
	loadConfig = config.Load
)

var rootCmd = &cobra.Command{
	Use:   "mdingest",
	Short: "Mirror remote JSON metadata files into database tables",
	Long: `mdingest watches a WebDAV share or local directory for JSON metadata
files, validates each against its declared JSON Schema and keeps one
database table per schema in step with the remote file set.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if verbose {
			logger.SetVerbose(true)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.mdingest/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
}

// SetFactory installs the service builders.
func SetFactory(f Factory) {
	factory = f
}

// SetVersion sets the version reported by "mdingest version".
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with ctx.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// loadCommandConfig loads the configuration and applies the persistent flags.
func loadCommandConfig() (*config.Config, error) {
	cfg, err := loadConfig(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if verbose {
		cfg.Log.Verbose = true
	}
	if metricsAddr != "" {
		cfg.Metrics.Addr = metricsAddr
	}
	logger.SetFormat(cfg.Log.Format)
	if cfg.Log.Verbose {
		logger.SetVerbose(true)
	}
	return cfg, nil
}

// ensurePassword prompts for the WebDAV password when a user is configured
// without one and stdin is a terminal.
func ensurePassword(cmd *cobra.Command, cfg *config.Config) {
	if cfg.Source.Kind != config.SourceWebDAV || cfg.WebDAV.User == "" ||
		cfg.WebDAV.Password != "" || cfg.WebDAV.Token != "" {
		return
	}
	if !isTerminal(os.Stdin) {
		return
	}
	cmd.Printf("WebDAV password for %s: ", cfg.WebDAV.User)
	cfg.WebDAV.Password = readPassword()
	cmd.Println()
}

var errNotConfigured = errors.New("service not configured")
