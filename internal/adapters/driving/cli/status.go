package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/empirf/mdingest/internal/core/domain"
)

var (
	statusErrors  bool
	statusFolders bool
	statusRuns    int
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show ingestion status",
	Long: `Shows how many files are pending, ingested or failed, followed by the
per-file status. Use --errors to list only failed files with their error,
--folders for folder tokens and --runs for recent passes.`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusErrors, "errors", false, "list only files whose last attempt failed")
	statusCmd.Flags().BoolVar(&statusFolders, "folders", false, "list folder states")
	statusCmd.Flags().IntVar(&statusRuns, "runs", 0, "list the N most recent passes")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if factory.Status == nil {
		return fmt.Errorf("status %w", errNotConfigured)
	}

	cfg, err := loadCommandConfig()
	if err != nil {
		return err
	}

	svc, closeFn, err := factory.Status(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer func() { _ = closeFn() }()

	ctx := cmd.Context()
	s := outputStyles

	summary, err := svc.Summary(ctx)
	if err != nil {
		return fmt.Errorf("reading status: %w", err)
	}
	cmd.Println(s.Title.Render("Files"))
	cmd.Printf("  %s  %s  %s\n",
		s.Success.Render(fmt.Sprintf("%d ingested", summary[domain.StatusSuccess])),
		s.Warning.Render(fmt.Sprintf("%d pending", summary[domain.StatusPending])),
		s.Error.Render(fmt.Sprintf("%d failed", summary[domain.StatusError])))

	var filter domain.FileStatus
	if statusErrors {
		filter = domain.StatusError
	}
	files, err := svc.Files(ctx, filter)
	if err != nil {
		return fmt.Errorf("listing files: %w", err)
	}
	if len(files) == 0 {
		cmd.Println(s.Muted.Render("  No files."))
	}
	for _, f := range files {
		printFile(cmd, f)
	}

	if statusFolders {
		folders, err := svc.Folders(ctx)
		if err != nil {
			return fmt.Errorf("listing folders: %w", err)
		}
		cmd.Println()
		cmd.Println(s.Title.Render("Folders"))
		if len(folders) == 0 {
			cmd.Println(s.Muted.Render("  No folders."))
		}
		for _, f := range folders {
			name := f.Path
			if name == "" {
				name = "/"
			}
			cmd.Printf("  %-40s %-30s %s\n", name, f.ChangeToken, s.Muted.Render(formatTime(f.LastScanned)))
		}
	}

	if statusRuns > 0 {
		runs, err := svc.Runs(ctx, statusRuns)
		if err != nil {
			return fmt.Errorf("listing runs: %w", err)
		}
		cmd.Println()
		cmd.Println(s.Title.Render("Recent passes"))
		if len(runs) == 0 {
			cmd.Println(s.Muted.Render("  No passes recorded."))
		}
		for i := range runs {
			printRun(cmd, &runs[i])
		}
	}

	return nil
}

func printFile(cmd *cobra.Command, f domain.FileState) {
	s := outputStyles
	var status string
	switch f.Status {
	case domain.StatusSuccess:
		status = s.Success.Render("ok     ")
	case domain.StatusError:
		status = s.Error.Render("error  ")
	default:
		status = s.Warning.Render("pending")
	}

	cmd.Printf("  %s %s", status, f.Path)
	if f.Identifier != "" {
		cmd.Printf(" %s", s.Muted.Render(f.SchemaID+"/"+f.Identifier))
	}
	cmd.Println()
	if f.Status == domain.StatusError && f.ErrorMessage != "" {
		cmd.Printf("          %s\n", s.Error.Render(f.ErrorMessage))
	}
}

func printRun(cmd *cobra.Command, r *domain.PassReport) {
	s := outputStyles
	outcome := s.Success.Render("ok")
	switch {
	case r.Canceled:
		outcome = s.Warning.Render("canceled")
	case r.Error != "":
		outcome = s.Error.Render("failed")
	}
	cmd.Printf("  %s  %-8s %d processed, %d failed, %d deleted in %s\n",
		formatTime(r.StartedAt), outcome, r.Processed, r.Failed, r.Deleted,
		r.Duration().Round(time.Millisecond))
	if r.Error != "" {
		cmd.Printf("      %s\n", s.Error.Render(r.Error))
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}
