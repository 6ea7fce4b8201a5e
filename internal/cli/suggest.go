package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/akrishnanDG/legacy-profile-migrator/internal/mapper"
	"github.com/akrishnanDG/legacy-profile-migrator/internal/models"
)

// NewSuggestCmd creates the suggest command
func NewSuggestCmd(g *globalFlags) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "suggest FIELD...",
		Short: "Rank target fields by similarity to legacy field names",
		Long: `Rank target fields by similarity to one or more legacy field names or
labels. No database connection is needed.

  profile-migrator suggest "Zip Code" mobile_number`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load(cmd)
			if err != nil {
				return err
			}

			targets := models.DefaultTargets()
			results := make(map[string][]models.Suggestion, len(args))
			for _, field := range args {
				results[field] = topSuggestions(mapper.Suggest(targets, field), limit)
			}

			if cfg.Output.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), results)
			}
			w := cmd.OutOrStdout()
			for _, field := range args {
				fmt.Fprintf(w, "%s\n", field)
				if len(results[field]) == 0 {
					fmt.Fprintln(w, "    no match")
					continue
				}
				for _, s := range results[field] {
					fmt.Fprintf(w, "    %-24s %-28s %3d%%\n", s.Target, strings.TrimSpace(s.Label), s.Confidence)
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 5, "Suggestions per field")
	return cmd
}
