package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// sourceInfo is what the info command reports.
type sourceInfo struct {
	Plugin   string           `json:"plugin"`
	Name     string           `json:"name"`
	Active   bool             `json:"active"`
	Counts   map[string]int64 `json:"counts"`
	Phases   []string         `json:"phases"`
	Mappings int              `json:"default_mappings"`
}

// NewInfoCmd creates the info command
func NewInfoCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show what the legacy plugin holds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, cfg, err := g.open(cmd, false)
			if err != nil {
				return err
			}
			defer m.Close()

			ctx := contextOf(cmd)
			a, err := m.Adapter()
			if err != nil {
				return err
			}
			if err := a.CheckPreconditions(ctx); err != nil {
				return err
			}

			info := sourceInfo{
				Plugin: a.Slug(),
				Name:   a.Name(),
				Counts: make(map[string]int64),
				Phases: m.Phases(),
			}
			if info.Active, err = a.IsActive(ctx); err != nil {
				return fmt.Errorf("failed to read active plugins: %w", err)
			}
			for _, phase := range info.Phases {
				n, err := m.Count(ctx, phase)
				if err != nil {
					return fmt.Errorf("failed to count %s: %w", phase, err)
				}
				info.Counts[phase] = n
			}
			defaults, err := a.DefaultFieldMapping(ctx)
			if err != nil {
				return err
			}
			info.Mappings = len(defaults)

			if cfg.Output.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), info)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Plugin:           %s (%s)\n", info.Name, info.Plugin)
			fmt.Fprintf(w, "Active:           %v\n", info.Active)
			fmt.Fprintf(w, "Default mappings: %d\n", info.Mappings)
			for _, phase := range info.Phases {
				fmt.Fprintf(w, "%-17s %d\n", phase+":", info.Counts[phase])
			}
			return nil
		},
	}
}
