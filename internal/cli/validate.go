package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewValidateCmd creates the validate command
func NewValidateCmd(g *globalFlags) *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration and field mapping without running migration",
		Long: `Validate the configuration file or command-line arguments without
actually performing the migration. Unless --offline is set, the legacy
database is opened and the effective field mapping is checked as well.

This is useful for checking your configuration before running a migration.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load(cmd)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("validation failed:\n%w", err)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintln(w, "✓ Configuration is valid")
			if offline {
				return nil
			}

			m, _, err := g.open(cmd, false)
			if err != nil {
				return err
			}
			defer m.Close()

			result, err := m.Validate(contextOf(cmd))
			if err != nil {
				return err
			}
			for _, issue := range result.Warnings {
				fmt.Fprintf(w, "  WARNING: %s: %s\n", issue.Field, issue.Message)
			}
			for _, issue := range result.Errors {
				fmt.Fprintf(w, "  ERROR: %s: %s\n", issue.Field, issue.Message)
			}
			if result.HasErrors() {
				return fmt.Errorf("field mapping has %d errors", len(result.Errors))
			}
			fmt.Fprintln(w, "✓ Field mapping is valid")
			return nil
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "Only check the configuration file")
	cmd.Flags().StringVar(&g.cfg.Migration.FieldMappingFile, "mapping", "", "Field mapping YAML file")
	cmd.Flags().StringVar(&g.cfg.Migration.Preset, "preset", "", "Saved mapping preset to apply")
	return cmd
}
