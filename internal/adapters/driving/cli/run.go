package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/empirf/mdingest/internal/config"
	"github.com/empirf/mdingest/internal/core/domain"
)

var (
	runWatch         bool
	runOnce          bool
	runInterval      intervalValue
	runDeleteMissing bool
	runWorkers       int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Ingest the watched root",
	Long: `Runs one ingestion pass over the watched root and exits.
With --watch, passes repeat on every interval and on change notifications
until interrupted. --interval takes seconds ("30") or a duration ("30s", "1m").
The exit status is non-zero when the root cannot be listed.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().BoolVar(&runWatch, "watch", false, "keep running passes until interrupted")
	runCmd.Flags().BoolVar(&runOnce, "once", false, "run a single pass and exit (default)")
	runCmd.Flags().Var(&runInterval, "interval", "seconds or duration between passes in watch mode (default 10)")
	runCmd.Flags().BoolVar(&runDeleteMissing, "delete-missing", false, "delete rows of files that vanished from the root")
	runCmd.Flags().IntVar(&runWorkers, "workers", 0, "number of files processed concurrently (default 4)")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, _ []string) error {
	if runWatch && runOnce {
		return errors.New("--watch and --once cannot be combined")
	}
	if factory.Watch == nil {
		return fmt.Errorf("ingestion %w", errNotConfigured)
	}

	cfg, err := loadCommandConfig()
	if err != nil {
		return err
	}
	applyRunFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	ensurePassword(cmd, cfg)

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	watcher, closeFn, err := factory.Watch(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = closeFn() }()

	if cfg.Metrics.Addr != "" {
		stopMetrics := serveMetrics(cfg.Metrics.Addr)
		defer stopMetrics()
	}

	if !runWatch {
		report, err := watcher.Once(ctx)
		printReport(cmd, report)
		if err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			cmd.Println("Interrupted.")
			return nil
		}
		return err
	}

	cmd.Printf("Watching every %s (Ctrl+C to stop)\n", cfg.Interval())
	return watcher.Run(ctx)
}

// intervalValue is a flag value holding either a bare number of seconds
// or a duration string.
type intervalValue time.Duration

func (v *intervalValue) Set(s string) error {
	if n, err := strconv.Atoi(s); err == nil {
		*v = intervalValue(time.Duration(n) * time.Second)
		return nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("want seconds or a duration such as 30s, got %q", s)
	}
	*v = intervalValue(d)
	return nil
}

func (v *intervalValue) String() string { return time.Duration(*v).String() }

func (v *intervalValue) Type() string { return "seconds|duration" }

// applyRunFlags overrides configuration with explicitly set flags.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("interval") {
		seconds := int(time.Duration(runInterval).Round(time.Second) / time.Second)
		if seconds < 1 {
			seconds = 1
		}
		cfg.Ingest.IntervalSeconds = seconds
	}
	if flags.Changed("delete-missing") {
		cfg.Ingest.DeleteMissing = runDeleteMissing
	}
	if flags.Changed("workers") {
		cfg.Ingest.Workers = runWorkers
	}
}

// printReport writes a one-pass summary.
func printReport(cmd *cobra.Command, report *domain.PassReport) {
	if report == nil {
		return
	}
	s := outputStyles

	cmd.Println(s.Title.Render("Pass " + report.RunID))
	cmd.Printf("  Root:      %s\n", report.Root)
	cmd.Printf("  Listed:    %d (%d unchanged, %d carried)\n", report.Listed, report.Unchanged, report.Carried)
	cmd.Printf("  Processed: %d\n", report.Processed)
	cmd.Printf("  Succeeded: %s\n", s.Success.Render(fmt.Sprint(report.Succeeded)))
	if report.Failed > 0 {
		cmd.Printf("  Failed:    %s\n", s.Error.Render(fmt.Sprint(report.Failed)))
	} else {
		cmd.Printf("  Failed:    0\n")
	}
	cmd.Printf("  Deleted:   %d\n", report.Deleted)
	if report.FoldersSkipped > 0 || report.FolderErrors > 0 {
		cmd.Printf("  Folders:   %d skipped, %d failed\n", report.FoldersSkipped, report.FolderErrors)
	}
	if report.Error != "" {
		cmd.Printf("  Error:     %s\n", s.Error.Render(report.Error))
	}
	cmd.Println(s.Muted.Render(fmt.Sprintf("  Took %s", report.Duration().Round(time.Millisecond))))
}
