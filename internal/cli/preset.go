package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/akrishnanDG/legacy-profile-migrator/internal/adapter/plugins"
	"github.com/akrishnanDG/legacy-profile-migrator/internal/mapper"
	"github.com/akrishnanDG/legacy-profile-migrator/internal/migrator"
	"github.com/akrishnanDG/legacy-profile-migrator/pkg/config"
)

// NewPresetCmd creates the preset command and its subcommands
func NewPresetCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preset",
		Short: "Manage saved field mapping presets",
		Long: `Manage saved field mapping presets. Presets are stored per plugin in the
target database and applied with "migrate --preset NAME".`,
	}

	cmd.AddCommand(newPresetSaveCmd(g))
	cmd.AddCommand(newPresetShowCmd(g))
	cmd.AddCommand(newPresetListCmd(g))
	cmd.AddCommand(newPresetDeleteCmd(g))
	cmd.AddCommand(newPresetExportCmd(g))
	cmd.AddCommand(newPresetImportCmd(g))
	return cmd
}

// presetRun opens a migrator and resolves the plugin slug presets are
// stored under.
func presetRun(g *globalFlags, cmd *cobra.Command, fn func(m *migrator.Migrator, cfg *config.Config, slug string) error) error {
	m, cfg, err := g.open(cmd, false)
	if err != nil {
		return err
	}
	defer m.Close()

	slug, err := plugins.Canonical(cfg.Migration.Plugin)
	if err != nil {
		return err
	}
	return fn(m, cfg, slug)
}

func newPresetSaveCmd(g *globalFlags) *cobra.Command {
	var from string

	cmd := &cobra.Command{
		Use:   "save NAME",
		Short: "Save a mapping preset from a mapping file or the effective mapping",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return presetRun(g, cmd, func(m *migrator.Migrator, cfg *config.Config, slug string) error {
				ctx := contextOf(cmd)
				var (
					table mapper.Table
					err   error
				)
				if from != "" {
					table, err = mapper.LoadMappingFile(from, m.Transforms())
				} else {
					table, err = m.Mapping(ctx)
				}
				if err != nil {
					return err
				}
				if err := m.Presets().SaveMappingPreset(ctx, slug, args[0], table); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Saved preset %s/%s (%d mappings)\n", slug, args[0], len(table))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "Mapping file to save; empty saves the effective mapping")
	cmd.Flags().StringVar(&g.cfg.Migration.FieldMappingFile, "mapping", "", "Mapping file layered over the defaults")
	return cmd
}

func newPresetShowCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show NAME",
		Short: "Print a preset as a mapping file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return presetRun(g, cmd, func(m *migrator.Migrator, cfg *config.Config, slug string) error {
				table, err := m.Presets().LoadMappingPreset(contextOf(cmd), slug, args[0])
				if err != nil {
					return err
				}
				if cfg.Output.Format == "json" {
					return writeJSON(cmd.OutOrStdout(), table.Specs())
				}
				data, err := mapper.EncodeMappingFile(slug, table)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			})
		},
	}
}

func newPresetListCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the presets of the configured plugin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return presetRun(g, cmd, func(m *migrator.Migrator, cfg *config.Config, slug string) error {
				recs, err := m.Presets().ListPresets(contextOf(cmd), slug)
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				if cfg.Output.Format == "json" {
					type item struct {
						Name      string `json:"name"`
						Version   int    `json:"version"`
						CreatedAt string `json:"created_at"`
					}
					items := make([]item, 0, len(recs))
					for _, r := range recs {
						items = append(items, item{r.Name, r.Version, r.CreatedAt.Format("2006-01-02 15:04:05")})
					}
					return writeJSON(w, items)
				}
				if len(recs) == 0 {
					fmt.Fprintf(w, "No presets for %s\n", slug)
					return nil
				}
				fmt.Fprintf(w, "%-32s %-8s %s\n", "NAME", "VERSION", "CREATED")
				for _, r := range recs {
					fmt.Fprintf(w, "%-32s %-8d %s\n", r.Name, r.Version, r.CreatedAt.Format("2006-01-02 15:04:05"))
				}
				return nil
			})
		},
	}
}

func newPresetDeleteCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a preset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return presetRun(g, cmd, func(m *migrator.Migrator, cfg *config.Config, slug string) error {
				if err := m.Presets().DeletePreset(contextOf(cmd), slug, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted preset %s/%s\n", slug, args[0])
				return nil
			})
		},
	}
}

func newPresetExportCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "export NAME FILE",
		Short: "Write a preset to a mapping file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return presetRun(g, cmd, func(m *migrator.Migrator, cfg *config.Config, slug string) error {
				table, err := m.Presets().LoadMappingPreset(contextOf(cmd), slug, args[0])
				if err != nil {
					return err
				}
				if err := mapper.SaveMappingFile(args[1], slug, table); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Exported preset %s/%s to %s\n", slug, args[0], args[1])
				return nil
			})
		},
	}
}

func newPresetImportCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "import NAME FILE",
		Short: "Save a mapping file as a preset",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return presetRun(g, cmd, func(m *migrator.Migrator, cfg *config.Config, slug string) error {
				table, err := mapper.LoadMappingFile(args[1], m.Transforms())
				if err != nil {
					return err
				}
				if err := m.Presets().SaveMappingPreset(contextOf(cmd), slug, args[0], table); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Imported %s as preset %s/%s\n", args[1], slug, args[0])
				return nil
			})
		},
	}
}
