package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/akrishnanDG/legacy-profile-migrator/internal/mapper"
	"github.com/akrishnanDG/legacy-profile-migrator/internal/models"
)

// discovered pairs a field with its best mapping candidates.
type discovered struct {
	models.DiscoveredField
	Suggestions []models.Suggestion `json:"suggestions,omitempty"`
}

// NewDiscoverCmd creates the discover command
func NewDiscoverCmd(g *globalFlags) *cobra.Command {
	var suggest int

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "List legacy custom fields the default mapping does not cover",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, cfg, err := g.open(cmd, false)
			if err != nil {
				return err
			}
			defer m.Close()

			a, err := m.Adapter()
			if err != nil {
				return err
			}
			fields, err := a.DiscoverCustomFields(contextOf(cmd))
			if err != nil {
				return fmt.Errorf("failed to discover fields: %w", err)
			}

			targets := models.DefaultTargets()
			out := make([]discovered, 0, len(fields))
			for _, f := range fields {
				d := discovered{DiscoveredField: f}
				if suggest > 0 {
					d.Suggestions = topSuggestions(mapper.Suggest(targets, f.FieldLabel), suggest)
				}
				out = append(out, d)
			}

			if cfg.Output.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), out)
			}
			w := cmd.OutOrStdout()
			if len(out) == 0 {
				fmt.Fprintln(w, "No custom fields found")
				return nil
			}
			fmt.Fprintf(w, "%-32s %-12s %-28s %s\n", "FIELD", "TYPE", "LABEL", "SAMPLES")
			for _, d := range out {
				fmt.Fprintf(w, "%-32s %-12s %-28s %s\n", d.FieldKey, d.FieldType, d.FieldLabel, strings.Join(d.Samples, " | "))
				for _, s := range d.Suggestions {
					fmt.Fprintf(w, "    -> %-24s %3d%%\n", s.Target, s.Confidence)
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&suggest, "suggest", 0, "Also show this many mapping suggestions per field")
	return cmd
}

func topSuggestions(all []models.Suggestion, n int) []models.Suggestion {
	if len(all) > n {
		return all[:n]
	}
	return all
}
