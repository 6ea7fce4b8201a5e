package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/akrishnanDG/legacy-profile-migrator/internal/migrator"
	"github.com/akrishnanDG/legacy-profile-migrator/internal/models"
	"github.com/akrishnanDG/legacy-profile-migrator/pkg/config"
)

// maxPrintedErrors bounds the errors listed in a table summary.
const maxPrintedErrors = 20

// NewMigrateCmd creates the migrate command
func NewMigrateCmd(g *globalFlags) *cobra.Command {
	var (
		once    bool
		reset   bool
		phase   string
		afterID int64
	)

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Migrate legacy profiles into the target plugin tables",
		Long: `Migrate user profiles, account state and (for Ultimate Member) content
restrictions and custom roles into the target plugin tables.

For detailed configuration, use a config file (recommended):
  profile-migrator migrate --config config.yaml --dry-run

Full migration with config file:
  profile-migrator migrate --config config.yaml

Run a single page and print its JSON result:
  profile-migrator migrate --config config.yaml --once --batch-offset 100

See config.example.yaml for all available options.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, cfg, err := g.open(cmd, true)
			if err != nil {
				return err
			}
			defer m.Close()

			ctx, cancel := signalContext(contextOf(cmd))
			defer cancel()

			if reset {
				if err := m.ResetCheckpoint(); err != nil {
					return fmt.Errorf("failed to remove checkpoint: %w", err)
				}
			}
			if once {
				opts := m.Options()
				opts.AfterID = afterID
				result, err := m.RunBatch(ctx, phase, opts)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), result)
			}
			return runMigrate(ctx, cmd.OutOrStdout(), m, cfg)
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&once, "once", false, "Process one page and print its JSON result")
	flags.StringVar(&phase, "phase", migrator.PhaseUsers, "Phase for --once: users, restrictions, roles")
	flags.Int64Var(&afterID, "after-id", 0, "Keyset cursor for --once: process users with a greater ID")
	flags.BoolVar(&g.cfg.Checkpoint.Resume, "resume", false, "Resume from the checkpoint file")
	flags.BoolVar(&reset, "reset", false, "Remove the checkpoint file before running")
	flags.BoolVar(&g.cfg.Output.DryRun, "dry-run", false, "Preview without making changes")
	flags.BoolVar(&g.cfg.Output.Progress, "progress", g.cfg.Output.Progress, "Show progress bars")
	addMigrationFlags(flags, g.cfg)

	return cmd
}

// addMigrationFlags registers the per-run options shared by the commands
// that write to the target tables.
func addMigrationFlags(flags *pflag.FlagSet, cfg *config.Config) {
	flags.StringVar(&cfg.Migration.FieldMappingFile, "mapping", "", "Field mapping YAML file")
	flags.StringVar(&cfg.Migration.Preset, "preset", "", "Saved mapping preset to apply")
	flags.IntVar(&cfg.Migration.BatchSize, "batch-size", cfg.Migration.BatchSize, "Records per page; 0 processes everything at once")
	flags.IntVar(&cfg.Migration.BatchOffset, "batch-offset", cfg.Migration.BatchOffset, "Records to skip before the first page")
	flags.BoolVar(&cfg.Migration.SkipExisting, "skip-existing", cfg.Migration.SkipExisting, "Skip users already verified in the target")
	flags.BoolVar(&cfg.Migration.SetVerified, "set-verified", cfg.Migration.SetVerified, "Mark imported users as verified")
	flags.BoolVar(&cfg.Migration.SendEmails, "send-emails", cfg.Migration.SendEmails, "Record that welcome emails are requested")
	flags.BoolVar(&cfg.Migration.CopyPhotos, "copy-photos", cfg.Migration.CopyPhotos, "Copy profile and cover photos")
	flags.BoolVar(&cfg.Migration.Cursor, "cursor", cfg.Migration.Cursor, "Page users by last ID instead of offset")
	flags.IntVar(&cfg.Concurrency.Workers, "workers", cfg.Concurrency.Workers, "Number of parallel workers")
}

// signalContext cancels on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	// Handle signals for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			fmt.Fprintln(os.Stderr, "\nReceived interrupt signal, shutting down gracefully...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}

func runMigrate(ctx context.Context, out io.Writer, m *migrator.Migrator, cfg *config.Config) error {
	startTime := time.Now()
	report, err := m.Run(ctx)
	duration := time.Since(startTime)

	if report != nil {
		if werr := writeReport(out, report, duration, cfg); werr != nil {
			return werr
		}
	}
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	// Return error if any records failed (unless dry-run)
	if failed := reportFailed(report); !cfg.Output.DryRun && failed > 0 {
		return fmt.Errorf("migration completed with %d failures", failed)
	}
	return nil
}

func writeReport(out io.Writer, report *models.MigrationReport, duration time.Duration, cfg *config.Config) error {
	if cfg.Output.ReportFile != "" {
		f, err := os.Create(cfg.Output.ReportFile)
		if err != nil {
			return fmt.Errorf("failed to create report file: %w", err)
		}
		defer f.Close()
		if err := writeJSON(f, report); err != nil {
			return err
		}
	}
	if cfg.Output.Format == "json" {
		return writeJSON(out, report)
	}
	printMigrationSummary(out, report, duration)
	return nil
}

func reportFailed(report *models.MigrationReport) int {
	if report == nil {
		return 0
	}
	failed := 0
	if report.Users != nil {
		failed += report.Users.Failed()
	}
	if report.Restrictions != nil {
		failed += report.Restrictions.Failed()
	}
	if report.Roles != nil {
		failed += report.Roles.Failed()
	}
	return failed
}

func writeJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}

func printMigrationSummary(out io.Writer, report *models.MigrationReport, duration time.Duration) {
	failed := reportFailed(report)

	fmt.Fprintln(out)
	fmt.Fprintln(out, "═══════════════════════════════════════════════════════════════")
	if report.DryRun {
		fmt.Fprintln(out, "                     DRY RUN COMPLETE")
	} else {
		if failed > 0 {
			fmt.Fprintln(out, "              MIGRATION COMPLETED WITH ERRORS")
		} else {
			fmt.Fprintln(out, "                MIGRATION COMPLETED SUCCESSFULLY")
		}
	}
	fmt.Fprintln(out, "═══════════════════════════════════════════════════════════════")
	fmt.Fprintf(out, "  Run ID:          %s\n", report.RunID)
	fmt.Fprintf(out, "  Duration:        %s\n", duration.Round(time.Second))
	fmt.Fprintf(out, "  Plugin:          %s\n", report.Source.PluginName)
	fmt.Fprintf(out, "  Legacy users:    %d\n", report.Source.UserCount)

	var errs []string
	if u := report.Users; u != nil {
		fmt.Fprintf(out, "  Users:           %d imported, %d skipped, %d failed\n", u.Imported, u.Skipped, u.Failed())
		fmt.Fprintf(out, "  Photos:          %d\n", u.PhotosMigrated)
		fmt.Fprintf(out, "  Fields mapped:   %d\n", u.FieldsMapped)
		if len(u.FieldsUnmapped) > 0 {
			fmt.Fprintf(out, "  Unmapped fields: %v\n", u.FieldsUnmapped)
		}
		errs = append(errs, u.Errors...)
	}
	if r := report.Restrictions; r != nil {
		fmt.Fprintf(out, "  Restrictions:    %d migrated, %d skipped, %d failed\n", r.Migrated, r.Skipped, r.Failed())
		if r.Rejected > 0 {
			fmt.Fprintf(out, "  Redirects:       %d off-site redirects replaced by a message [WARNING]\n", r.Rejected)
		}
		errs = append(errs, r.Errors...)
	}
	if r := report.Roles; r != nil {
		fmt.Fprintf(out, "  Roles:           %d created, %d updated, %d failed\n", r.Created, r.Updated, r.Failed())
		errs = append(errs, r.Errors...)
	}
	if len(report.Preview) > 0 {
		fmt.Fprintf(out, "  Previewed:       %d users\n", len(report.Preview))
	}
	if failed > 0 {
		fmt.Fprintf(out, "  Failed:          %d [ERROR]\n", failed)
	}
	fmt.Fprintln(out, "═══════════════════════════════════════════════════════════════")

	for _, w := range report.Warnings {
		fmt.Fprintf(out, "  WARNING: %s: %s\n", w.Field, w.Message)
	}

	// Print errors if any
	if len(errs) > 0 {
		printErrors(out, errs)
	}
	if report.DryRun && len(report.Preview) > 0 {
		printPreview(out, report.Preview)
	}
}

func printErrors(out io.Writer, errs []string) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, "ERRORS:")
	fmt.Fprintln(out, "───────")
	for i, e := range errs {
		if i == maxPrintedErrors {
			fmt.Fprintf(out, "  +%d more\n", len(errs)-maxPrintedErrors)
			break
		}
		fmt.Fprintf(out, "  %d. %s\n", i+1, e)
	}
	fmt.Fprintln(out)
}
