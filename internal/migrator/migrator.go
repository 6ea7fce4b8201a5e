package migrator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/schollz/progressbar/v3"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/akrishnanDG/legacy-profile-migrator/internal/adapter"
	"github.com/akrishnanDG/legacy-profile-migrator/internal/adapter/plugins"
	"github.com/akrishnanDG/legacy-profile-migrator/internal/adapter/ultimatemember"
	"github.com/akrishnanDG/legacy-profile-migrator/internal/fieldtype"
	"github.com/akrishnanDG/legacy-profile-migrator/internal/logging"
	"github.com/akrishnanDG/legacy-profile-migrator/internal/mapper"
	"github.com/akrishnanDG/legacy-profile-migrator/internal/media"
	"github.com/akrishnanDG/legacy-profile-migrator/internal/models"
	"github.com/akrishnanDG/legacy-profile-migrator/internal/store"
	"github.com/akrishnanDG/legacy-profile-migrator/internal/transform"
	"github.com/akrishnanDG/legacy-profile-migrator/internal/validator"
	"github.com/akrishnanDG/legacy-profile-migrator/internal/wordpress"
	"github.com/akrishnanDG/legacy-profile-migrator/internal/worker"
	"github.com/akrishnanDG/legacy-profile-migrator/pkg/config"
)

// Phases of a full run, in order
const (
	PhaseUsers        = "users"
	PhaseRestrictions = "restrictions"
	PhaseRoles        = "roles"
)

// Migrator orchestrates the migration process
type Migrator struct {
	config       *config.Config
	runID        string
	sourceDB     *gorm.DB
	targetDB     *gorm.DB
	source       *wordpress.Source
	adapter      adapter.Adapter
	runner       *adapter.Runner
	restrictions *RestrictionMigrator
	roles        *RoleMigrator
	presets      *mapper.Presets
	transforms   *transform.Registry
	validator    *validator.Validator
	checkpoint   *worker.CheckpointManager
	security     *logging.SlogSecurityLogger
}

// New creates a new Migrator. It opens both databases and ensures the
// target schema exists.
func New(ctx context.Context, cfg *config.Config, runID string) (*Migrator, error) {
	m := &Migrator{config: cfg, runID: runID, transforms: transform.NewRegistry()}
	if err := m.open(ctx); err != nil {
		m.Close()
		return nil, err
	}
	return m, nil
}

func (m *Migrator) open(ctx context.Context) error {
	cfg := m.config

	// Open the legacy database
	var err error
	m.sourceDB, err = store.Open(cfg.Source.Driver, cfg.Source.DSN, cfg.Target.TablePrefix)
	if err != nil {
		return fmt.Errorf("failed to open source database: %w", err)
	}
	m.targetDB = m.sourceDB
	if cfg.Target.DSN != "" {
		m.targetDB, err = store.Open(cfg.TargetDriver(), cfg.Target.DSN, cfg.Target.TablePrefix)
		if err != nil {
			return fmt.Errorf("failed to open target database: %w", err)
		}
	}
	if err := store.AutoMigrate(ctx, m.targetDB); err != nil {
		return err
	}
	m.source = wordpress.New(m.sourceDB, cfg.Source.TablePrefix)

	// Security channel
	m.security, err = logging.NewSecurityLogger(cfg.Output.SecurityLogFile)
	if err != nil {
		return err
	}

	// Photo storage; dry runs only locate
	var photos *media.PhotoMigrator
	if cfg.Migration.CopyPhotos {
		var backend media.Store
		if !cfg.Output.DryRun {
			backend, err = media.NewStore(ctx, cfg.Media)
			if err != nil {
				return fmt.Errorf("failed to create media store: %w", err)
			}
		}
		photos = media.NewPhotoMigrator(media.NewLocator(cfg.Source.UploadsDir), backend, m.security)
	}

	detector, err := fieldtype.New(cfg.FieldTypes)
	if err != nil {
		return fmt.Errorf("failed to create field type detector: %w", err)
	}

	targets := models.DefaultTargets()
	accounts := store.NewUserDataRepository(m.targetDB)
	deps := adapter.Deps{
		Source:   m.source,
		Profiles: store.NewProfileRepository(m.targetDB),
		Accounts: accounts,
		Photos:   photos,
		Targets:  targets,
		Detector: detector,
	}

	if cfg.Migration.Plugin != "" {
		m.adapter, err = plugins.New(cfg.Migration.Plugin, deps)
		if err != nil {
			return err
		}
	}

	m.runner = adapter.NewRunner(worker.NewPool(cfg), accounts, adapter.WithCursor(cfg.Migration.Cursor))

	siteURL, err := ResolveSiteURL(ctx, m.source, cfg.Source.SiteURL)
	if err != nil {
		return fmt.Errorf("failed to resolve site URL: %w", err)
	}
	m.restrictions = NewRestrictionMigrator(m.source, store.NewRestrictionRepository(m.targetDB),
		m.security, siteURL, cfg.Migration.LoginPath)
	m.roles = NewRoleMigrator(m.source, store.NewRoleRepository(m.targetDB))

	m.presets = mapper.NewPresets(store.NewPresetRepository(m.targetDB), m.transforms)
	m.validator = validator.New(targets, m.transforms)

	if cfg.Checkpoint.File != "" {
		m.checkpoint = worker.NewCheckpointManager(cfg.Checkpoint.File)
	}
	return nil
}

// Close releases both databases and the security log.
func (m *Migrator) Close() error {
	var errs []error
	if m.security != nil {
		errs = append(errs, m.security.Close())
	}
	if m.targetDB != nil && m.targetDB != m.sourceDB {
		errs = append(errs, store.Close(m.targetDB))
	}
	if m.sourceDB != nil {
		errs = append(errs, store.Close(m.sourceDB))
	}
	return errors.Join(errs...)
}

// Adapter returns the configured plugin adapter.
func (m *Migrator) Adapter() (adapter.Adapter, error) {
	if m.adapter == nil {
		return nil, fmt.Errorf("no plugin configured: %w", adapter.ErrUnknownPlugin)
	}
	return m.adapter, nil
}

// Presets returns the mapping preset service.
func (m *Migrator) Presets() *mapper.Presets { return m.presets }

// Transforms returns the transform registry used to decode mappings.
func (m *Migrator) Transforms() *transform.Registry { return m.transforms }

// TargetDB returns the target database handle.
func (m *Migrator) TargetDB() *gorm.DB { return m.targetDB }

// Options converts the migration config into run options.
func (m *Migrator) Options() models.Options {
	c := m.config.Migration
	return models.Options{
		SendEmails:   c.SendEmails,
		SetVerified:  c.SetVerified,
		SkipExisting: c.SkipExisting,
		BatchSize:    c.BatchSize,
		BatchOffset:  c.BatchOffset,
		CopyPhotos:   c.CopyPhotos,
	}
}

// Mapping resolves the effective field mapping: adapter defaults, then the
// configured preset, then the mapping file.
func (m *Migrator) Mapping(ctx context.Context) (mapper.Table, error) {
	a, err := m.Adapter()
	if err != nil {
		return nil, err
	}
	override := mapper.Table{}
	if name := m.config.Migration.Preset; name != "" {
		preset, err := m.presets.LoadMappingPreset(ctx, a.Slug(), name)
		if err != nil {
			return nil, fmt.Errorf("failed to load preset %s: %w", name, err)
		}
		for k, v := range preset {
			override[k] = v
		}
	}
	if path := m.config.Migration.FieldMappingFile; path != "" {
		file, err := mapper.LoadMappingFile(path, m.transforms)
		if err != nil {
			return nil, err
		}
		for k, v := range file {
			override[k] = v
		}
	}
	return adapter.ResolveMapping(ctx, a, override)
}

// Validate checks the effective mapping.
func (m *Migrator) Validate(ctx context.Context) (*validator.ValidationResult, error) {
	mapping, err := m.Mapping(ctx)
	if err != nil {
		return nil, err
	}
	return m.validator.ValidateAll(mapping), nil
}

// Phases returns the phases the configured plugin runs.
func (m *Migrator) Phases() []string {
	if m.adapter != nil && m.adapter.Slug() == ultimatemember.Slug {
		return []string{PhaseUsers, PhaseRestrictions, PhaseRoles}
	}
	return []string{PhaseUsers}
}

// RunBatch processes a single page of one phase and returns its result.
func (m *Migrator) RunBatch(ctx context.Context, phase string, opts models.Options) (interface{}, error) {
	switch phase {
	case PhaseUsers:
		a, err := m.Adapter()
		if err != nil {
			return nil, err
		}
		mapping, err := m.Mapping(ctx)
		if err != nil {
			return nil, err
		}
		return m.runner.RunBatch(ctx, a, opts, mapping), nil
	case PhaseRestrictions:
		return m.restrictions.Run(ctx, opts), nil
	case PhaseRoles:
		return m.roles.Run(ctx, opts), nil
	default:
		return nil, fmt.Errorf("unknown phase: %s", phase)
	}
}

// Count returns the number of source records a phase would process.
func (m *Migrator) Count(ctx context.Context, phase string) (int64, error) {
	switch phase {
	case PhaseUsers:
		a, err := m.Adapter()
		if err != nil {
			return 0, err
		}
		return a.UserCount(ctx)
	case PhaseRestrictions:
		return m.restrictions.Count(ctx)
	case PhaseRoles:
		return m.roles.Count(ctx)
	default:
		return 0, fmt.Errorf("unknown phase: %s", phase)
	}
}

// RunPhase runs every remaining page of one phase, starting at the
// configured offset. The checkpoint file is left alone.
func (m *Migrator) RunPhase(ctx context.Context, phase string) (*models.MigrationReport, error) {
	report := models.NewMigrationReport(m.runID, false)
	report.Options = m.Options()

	var mapping mapper.Table
	if phase == PhaseUsers {
		var err error
		if mapping, err = m.Mapping(ctx); err != nil {
			return nil, err
		}
	}

	state := models.NewMigrationState(m.runID, "", m.config.Migration.Plugin, phase)
	state.NextOffset = m.config.Migration.BatchOffset

	single := *m
	single.checkpoint = nil
	err := single.runPhase(ctx, phase, m.adapter, mapping, state, report)
	report.Finish()
	return report, err
}

// Run executes the migration
func (m *Migrator) Run(ctx context.Context) (*models.MigrationReport, error) {
	a, err := m.Adapter()
	if err != nil {
		return nil, err
	}
	report := models.NewMigrationReport(m.runID, m.config.Output.DryRun)
	report.Options = m.Options()

	// Step 1: Inspect source
	fmt.Printf("[1/3] Inspecting %s data...\n", a.Name())
	active, err := a.IsActive(ctx)
	if err != nil {
		slog.Warn("Could not read active plugins", "error", err)
	}
	count, err := a.UserCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	report.Source = models.SourceReport{
		Plugin:      a.Slug(),
		PluginName:  a.Name(),
		Active:      active,
		Driver:      m.config.Source.Driver,
		TablePrefix: m.config.Source.TablePrefix,
		UserCount:   count,
	}
	fmt.Printf("      Found %d users (plugin active: %v)\n", count, active)

	// Step 2: Validate mapping
	fmt.Println("\n[2/3] Validating field mapping...")
	mapping, err := m.Mapping(ctx)
	if err != nil {
		return nil, err
	}
	validation := m.validator.ValidateAll(mapping)
	report.Warnings = append(report.Warnings, validation.Warnings...)
	for _, w := range validation.Warnings {
		fmt.Printf("      WARNING: %s: %s\n", w.Field, w.Message)
	}
	if validation.HasErrors() {
		for _, e := range validation.Errors {
			fmt.Printf("      ERROR: %s: %s\n", e.Field, e.Message)
		}
		if !m.config.Output.DryRun {
			return nil, fmt.Errorf("validation failed with %d errors", len(validation.Errors))
		}
	}

	// If dry-run, preview and return
	if m.config.Output.DryRun {
		fmt.Println("\n[3/3] DRY RUN - No changes will be made")
		limit := m.config.Migration.BatchSize
		if limit <= 0 {
			limit = models.DefaultOptions().BatchSize
		}
		report.Preview, err = a.PreviewImport(ctx, limit, mapping)
		if err != nil {
			return nil, fmt.Errorf("failed to preview import: %w", err)
		}
		report.Finish()
		return report, nil
	}

	// Step 3: Execute migration
	fmt.Println("\n[3/3] Executing migration...")
	state := m.loadState(a.Slug())

	for _, phase := range m.Phases() {
		if m.phaseDone(state, phase) {
			continue
		}
		if state.Phase != phase {
			state.StartPhase(phase)
		}

		if err := m.runPhase(ctx, phase, a, mapping, state, report); err != nil {
			m.saveState(state)
			report.Finish()
			return report, err
		}
	}

	if m.checkpoint != nil && m.config.Checkpoint.Resume {
		fmt.Printf("      Run complete; checkpoint kept at %s\n", m.checkpoint.Path())
	}
	report.Finish()
	return report, nil
}

// phaseDone reports whether a resumed state already finished phase.
func (m *Migrator) phaseDone(state *models.MigrationState, phase string) bool {
	order := m.Phases()
	idx := func(p string) int {
		for i, o := range order {
			if o == p {
				return i
			}
		}
		return -1
	}
	current, target := idx(state.Phase), idx(phase)
	if current < 0 {
		return false
	}
	return target < current || (target == current && state.Complete)
}

func (m *Migrator) runPhase(ctx context.Context, phase string, a adapter.Adapter, mapping mapper.Table, state *models.MigrationState, report *models.MigrationReport) error {
	opts := m.Options()
	opts.BatchOffset = state.NextOffset
	if state.LastID > 0 && phase == PhaseUsers && m.config.Migration.Cursor {
		opts.AfterID = state.LastID
	}
	if state.NextOffset > 0 || state.LastID > 0 {
		fmt.Printf("      Resuming %s from offset %d (last id %d)\n", phase, state.NextOffset, state.LastID)
	}

	switch phase {
	case PhaseUsers:
		total, _ := a.UserCount(ctx)
		bar := m.progressBar(total, "      Importing users")
		result, err := m.runner.RunAll(ctx, a, opts, mapping, func(page *models.MigrationResult, next models.Options) error {
			state.Record(page)
			if bar != nil {
				bar.Add(page.Total)
			}
			m.saveState(state)
			return nil
		})
		if bar != nil {
			bar.Finish()
			fmt.Println()
		}
		report.Users = result
		return err

	case PhaseRestrictions:
		total, _ := m.restrictions.Count(ctx)
		bar := m.progressBar(total, "      Migrating restrictions")
		result := models.NewRestrictionResult()
		err := runPages(ctx, opts, func(opts models.Options) (models.BatchStatus, error) {
			page := m.restrictions.Run(ctx, opts)
			mergeRestriction(result, page)
			state.RecordBatch(page.BatchStatus, page.Migrated)
			if bar != nil {
				bar.Add(page.Total)
			}
			m.saveState(state)
			return page.BatchStatus, nil
		})
		if bar != nil {
			bar.Finish()
			fmt.Println()
		}
		report.Restrictions = result
		return err

	case PhaseRoles:
		result := models.NewRoleResult()
		err := runPages(ctx, opts, func(opts models.Options) (models.BatchStatus, error) {
			page := m.roles.Run(ctx, opts)
			mergeRole(result, page)
			state.RecordBatch(page.BatchStatus, page.Migrated)
			m.saveState(state)
			return page.BatchStatus, nil
		})
		report.Roles = result
		return err
	}
	return fmt.Errorf("unknown phase: %s", phase)
}

// runPages calls step with advancing offsets until a page completes the batch.
func runPages(ctx context.Context, opts models.Options, step func(models.Options) (models.BatchStatus, error)) error {
	opts.AfterID = 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		status, err := step(opts)
		if err != nil {
			return err
		}
		if status.BatchComplete {
			return nil
		}
		opts.BatchOffset = status.NextOffset
	}
}

func mergeStatus(total *models.BatchStatus, page models.BatchStatus) {
	total.Total += page.Total
	total.Skipped += page.Skipped
	total.Errors = append(total.Errors, page.Errors...)
	total.BatchComplete = page.BatchComplete
	total.NextOffset = page.NextOffset
}

func mergeRestriction(total, page *models.RestrictionResult) {
	mergeStatus(&total.BatchStatus, page.BatchStatus)
	total.Migrated += page.Migrated
	total.Rejected += page.Rejected
}

func mergeRole(total, page *models.RoleResult) {
	mergeStatus(&total.BatchStatus, page.BatchStatus)
	total.Migrated += page.Migrated
	total.Created += page.Created
	total.Updated += page.Updated
}

func (m *Migrator) progressBar(total int64, description string) *progressbar.ProgressBar {
	if !m.config.Output.Progress || total <= 0 {
		return nil
	}
	return progressbar.NewOptions64(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(50),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

// loadState resumes from the checkpoint when asked and the file belongs
// to the same plugin and configuration. A fresh state starts the first
// phase at migration.batch_offset.
func (m *Migrator) loadState(plugin string) *models.MigrationState {
	hash := m.configHash()
	fresh := models.NewMigrationState(m.runID, hash, plugin, PhaseUsers)
	fresh.NextOffset = m.config.Migration.BatchOffset
	if m.checkpoint == nil || !m.config.Checkpoint.Resume {
		return fresh
	}
	state, err := m.checkpoint.LoadMatching(plugin, hash)
	if err != nil {
		fmt.Printf("      WARNING: Could not resume: %v, starting fresh\n", err)
		return fresh
	}
	if state == nil {
		return fresh
	}
	fmt.Printf("      Resuming run %s at phase %s (%d records processed)\n", state.RunID, state.Phase, state.Processed())
	return state
}

// ResetCheckpoint removes the checkpoint file so the next run starts fresh.
func (m *Migrator) ResetCheckpoint() error {
	if m.checkpoint == nil {
		return nil
	}
	return m.checkpoint.Delete()
}

func (m *Migrator) saveState(state *models.MigrationState) {
	if m.checkpoint == nil {
		return
	}
	if err := m.checkpoint.Save(state); err != nil {
		fmt.Printf("      WARNING: Failed to save checkpoint: %v\n", err)
	}
}

// configHash fingerprints the settings that change what a run writes.
func (m *Migrator) configHash() string {
	data, err := yaml.Marshal(struct {
		Source    config.SourceConfig
		Migration config.MigrationConfig
	}{m.config.Source, m.config.Migration})
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:8])
}
