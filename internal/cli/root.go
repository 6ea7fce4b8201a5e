package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/akrishnanDG/legacy-profile-migrator/internal/logging"
	"github.com/akrishnanDG/legacy-profile-migrator/internal/migrator"
	"github.com/akrishnanDG/legacy-profile-migrator/pkg/config"
)

// globalFlags are shared by every command that touches a database.
type globalFlags struct {
	configFile string
	envFile    string
	cfg        *config.Config
}

// NewRootCmd creates the root command
func NewRootCmd(version, buildTime string) *cobra.Command {
	g := &globalFlags{cfg: config.NewDefaultConfig()}

	rootCmd := &cobra.Command{
		Use:   "profile-migrator",
		Short: "Migrate legacy WordPress membership profiles into the target plugin tables",
		Long: `A batch migration tool that copies user profiles, account state, content
restrictions and custom roles from legacy WordPress membership plugins
(Ultimate Member, BuddyPress) into the target plugin's own tables.

Features:
  - Resumable batches with offset or user ID cursors
  - Field mapping presets, mapping files and suggestions
  - Custom field discovery with type detection
  - Profile and cover photo copy to a directory or S3
  - Dry-run previews and rollback of target tables`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&g.configFile, "config", "c", "", "Config file path (recommended)")
	flags.StringVar(&g.envFile, "env-file", ".env", "Environment file loaded before the config")

	// Source
	flags.StringVar(&g.cfg.Source.Driver, "source-driver", g.cfg.Source.Driver, "Legacy database driver: mysql, postgres, sqlite")
	flags.StringVar(&g.cfg.Source.DSN, "source-dsn", "", "Legacy database DSN (or set "+config.EnvSourceDSN+")")
	flags.StringVar(&g.cfg.Source.TablePrefix, "table-prefix", g.cfg.Source.TablePrefix, "WordPress table prefix")
	flags.StringVar(&g.cfg.Source.UploadsDir, "uploads-dir", g.cfg.Source.UploadsDir, "WordPress uploads directory")

	// Target
	flags.StringVar(&g.cfg.Target.DSN, "target-dsn", "", "Target database DSN; empty uses the legacy database")

	// Common options
	flags.StringVarP(&g.cfg.Migration.Plugin, "plugin", "p", "", "Legacy plugin: ultimate-member, buddypress")
	flags.StringVar(&g.cfg.Output.Format, "format", g.cfg.Output.Format, "Output format: table, json")
	flags.StringVar(&g.cfg.Output.LogLevel, "log-level", g.cfg.Output.LogLevel, "Log level: debug, info, warn, error")

	// Add subcommands
	rootCmd.AddCommand(NewMigrateCmd(g))
	rootCmd.AddCommand(NewPhaseCmd(g, migrator.PhaseRestrictions, "Migrate Ultimate Member content restrictions"))
	rootCmd.AddCommand(NewPhaseCmd(g, migrator.PhaseRoles, "Migrate Ultimate Member custom roles"))
	rootCmd.AddCommand(NewPreviewCmd(g))
	rootCmd.AddCommand(NewDiscoverCmd(g))
	rootCmd.AddCommand(NewSuggestCmd(g))
	rootCmd.AddCommand(NewPresetCmd(g))
	rootCmd.AddCommand(NewRollbackCmd(g))
	rootCmd.AddCommand(NewInfoCmd(g))
	rootCmd.AddCommand(NewValidateCmd(g))
	rootCmd.AddCommand(NewVersionCmd(version, buildTime))

	return rootCmd
}

// load builds the effective configuration: .env, then the config file,
// then the environment, then explicitly set flags.
func (g *globalFlags) load(cmd *cobra.Command) (*config.Config, error) {
	if g.envFile != "" {
		if err := godotenv.Load(g.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file: %w", err)
		}
	}

	cfg := config.NewDefaultConfig()
	if g.configFile != "" {
		loaded, err := config.LoadFromFile(g.configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
		cfg = loaded
	}
	cfg.ApplyEnv(os.Getenv)
	return mergeConfigs(cfg, g.cfg, cmd), nil
}

// mergeConfigs merges loaded config with CLI flags, giving precedence to CLI flags
func mergeConfigs(fileConfig, cliConfig *config.Config, cmd *cobra.Command) *config.Config {
	merged := fileConfig

	// Override with CLI flags if they were explicitly set
	flags := cmd.Flags()

	// Source config
	if flags.Changed("source-driver") {
		merged.Source.Driver = cliConfig.Source.Driver
	}
	if flags.Changed("source-dsn") {
		merged.Source.DSN = cliConfig.Source.DSN
	}
	if flags.Changed("table-prefix") {
		merged.Source.TablePrefix = cliConfig.Source.TablePrefix
	}
	if flags.Changed("uploads-dir") {
		merged.Source.UploadsDir = cliConfig.Source.UploadsDir
	}
	if flags.Changed("site-url") {
		merged.Source.SiteURL = cliConfig.Source.SiteURL
	}

	// Target config
	if flags.Changed("target-dsn") {
		merged.Target.DSN = cliConfig.Target.DSN
	}

	// Migration config
	if flags.Changed("plugin") {
		merged.Migration.Plugin = cliConfig.Migration.Plugin
	}
	if flags.Changed("mapping") {
		merged.Migration.FieldMappingFile = cliConfig.Migration.FieldMappingFile
	}
	if flags.Changed("preset") {
		merged.Migration.Preset = cliConfig.Migration.Preset
	}
	if flags.Changed("batch-size") {
		merged.Migration.BatchSize = cliConfig.Migration.BatchSize
	}
	if flags.Changed("batch-offset") {
		merged.Migration.BatchOffset = cliConfig.Migration.BatchOffset
	}
	if flags.Changed("skip-existing") {
		merged.Migration.SkipExisting = cliConfig.Migration.SkipExisting
	}
	if flags.Changed("set-verified") {
		merged.Migration.SetVerified = cliConfig.Migration.SetVerified
	}
	if flags.Changed("send-emails") {
		merged.Migration.SendEmails = cliConfig.Migration.SendEmails
	}
	if flags.Changed("copy-photos") {
		merged.Migration.CopyPhotos = cliConfig.Migration.CopyPhotos
	}
	if flags.Changed("cursor") {
		merged.Migration.Cursor = cliConfig.Migration.Cursor
	}

	// Common options
	if flags.Changed("workers") {
		merged.Concurrency.Workers = cliConfig.Concurrency.Workers
	}
	if flags.Changed("resume") {
		merged.Checkpoint.Resume = cliConfig.Checkpoint.Resume
	}
	if flags.Changed("dry-run") {
		merged.Output.DryRun = cliConfig.Output.DryRun
	}
	if flags.Changed("progress") {
		merged.Output.Progress = cliConfig.Output.Progress
	}
	if flags.Changed("format") {
		merged.Output.Format = cliConfig.Output.Format
	}
	if flags.Changed("log-level") {
		merged.Output.LogLevel = cliConfig.Output.LogLevel
	}

	return merged
}

// open loads the configuration, sets up logging and opens a migrator for
// one command run. The caller closes the migrator.
func (g *globalFlags) open(cmd *cobra.Command, validate bool) (*migrator.Migrator, *config.Config, error) {
	cfg, err := g.load(cmd)
	if err != nil {
		return nil, nil, err
	}
	if validate {
		if err := cfg.Validate(); err != nil {
			return nil, nil, fmt.Errorf("configuration validation failed: %w", err)
		}
	}

	logging.Setup(cfg.Output.LogLevel, cfg.Output.LogFile)
	runID := uuid.NewString()
	logging.WithRunID(runID)

	m, err := migrator.New(contextOf(cmd), cfg, runID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create migrator: %w", err)
	}
	return m, cfg, nil
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
