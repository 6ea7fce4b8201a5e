package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/akrishnanDG/legacy-profile-migrator/internal/store"
)

// NewRollbackCmd creates the rollback command
func NewRollbackCmd(g *globalFlags) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "rollback TABLE...",
		Short: "Delete every row of target tables",
		Long: fmt.Sprintf(`Delete every row of one or more target tables. There is no per-row undo:
migrated and pre-existing rows are removed alike.

Tables: %s`, strings.Join(store.RollbackTables(), ", ")),
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("rollback deletes all rows of %s; pass --yes to confirm", strings.Join(args, ", "))
			}
			m, _, err := g.open(cmd, false)
			if err != nil {
				return err
			}
			defer m.Close()

			for _, table := range args {
				n, err := store.Rollback(contextOf(cmd), m.TargetDB(), table)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Removed %d rows from %s\n", n, table)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm the deletion")
	return cmd
}
