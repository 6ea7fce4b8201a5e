package cli

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/akrishnanDG/legacy-profile-migrator/internal/models"
)

// NewPreviewCmd creates the preview command
func NewPreviewCmd(g *globalFlags) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Show what importing the first users would write",
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
			mapping, err := m.Mapping(ctx)
			if err != nil {
				return err
			}
			rows, err := a.PreviewImport(ctx, limit, mapping)
			if err != nil {
				return fmt.Errorf("failed to preview import: %w", err)
			}

			if cfg.Output.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), rows)
			}
			if len(rows) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No users to import")
				return nil
			}
			printPreview(cmd.OutOrStdout(), rows)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 5, "Number of users to preview")
	cmd.Flags().StringVar(&g.cfg.Migration.FieldMappingFile, "mapping", "", "Field mapping YAML file")
	cmd.Flags().StringVar(&g.cfg.Migration.Preset, "preset", "", "Saved mapping preset to apply")
	return cmd
}

func printPreview(out io.Writer, rows []models.PreviewRow) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, "PREVIEW:")
	fmt.Fprintln(out, "────────")
	for _, row := range rows {
		fmt.Fprintf(out, "  User %d (%s)\n", row.UserID, row.Login)
		printValues(out, "profile", row.Profile)
		printValues(out, "account", row.Account)
		for _, kind := range sortedKeys(row.Photos) {
			fmt.Fprintf(out, "    photo.%-22s %s\n", kind, row.Photos[kind])
		}
		if len(row.FieldsUnmapped) > 0 {
			fmt.Fprintf(out, "    unmapped: %v\n", row.FieldsUnmapped)
		}
	}
	fmt.Fprintln(out)
}

func printValues(out io.Writer, group string, values map[string]interface{}) {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(out, "    %-28s %v\n", group+"."+k, values[k])
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
