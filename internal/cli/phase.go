package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/akrishnanDG/legacy-profile-migrator/internal/migrator"
)

// NewPhaseCmd creates a command that runs a single migration phase.
func NewPhaseCmd(g *globalFlags, phase, short string) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   phase,
		Short: short,
		Long: fmt.Sprintf(`%s.

Every page is processed until the phase completes. The checkpoint file used
by "migrate" is not read or written.`, short),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, cfg, err := g.open(cmd, true)
			if err != nil {
				return err
			}
			defer m.Close()

			ctx, cancel := signalContext(contextOf(cmd))
			defer cancel()

			if dryRun {
				count, err := m.Count(ctx, phase)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "DRY RUN: %d %s records would be migrated\n", count, phase)
				return nil
			}

			startTime := time.Now()
			report, err := m.RunPhase(ctx, phase)
			if report != nil {
				if werr := writeReport(cmd.OutOrStdout(), report, time.Since(startTime), cfg); werr != nil {
					return werr
				}
			}
			if err != nil {
				return fmt.Errorf("%s migration failed: %w", phase, err)
			}
			if failed := reportFailed(report); failed > 0 {
				return fmt.Errorf("%s migration completed with %d failures", phase, failed)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&dryRun, "dry-run", false, "Only count the records that would be migrated")
	flags.IntVar(&g.cfg.Migration.BatchSize, "batch-size", g.cfg.Migration.BatchSize, "Records per page; 0 processes everything at once")
	flags.IntVar(&g.cfg.Migration.BatchOffset, "batch-offset", g.cfg.Migration.BatchOffset, "Records to skip before the first page")
	if phase == migrator.PhaseRestrictions {
		flags.StringVar(&g.cfg.Source.SiteURL, "site-url", "", "Site URL redirects must stay on; empty reads the siteurl option")
	}
	return cmd
}
