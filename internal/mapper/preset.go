package mapper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/akrishnanDG/legacy-profile-migrator/internal/models"
	"github.com/akrishnanDG/legacy-profile-migrator/internal/transform"
)

// PresetVersion is the current preset payload version. Version 0 payloads
// (plain source -> target string maps) are upgraded on load.
const PresetVersion = 1

var (
	// ErrPresetNotFound is returned when no preset exists under a name.
	ErrPresetNotFound = errors.New("mapping preset not found")
	// ErrPresetVersion is returned for presets written by a newer release.
	ErrPresetVersion = errors.New("unsupported mapping preset version")
)

// PresetRecord is a stored preset.
type PresetRecord struct {
	PluginSlug string
	Name       string
	Version    int
	Payload    []byte
	CreatedAt  time.Time
}

// PresetStore persists presets. Implementations return models.ErrNotFound
// for missing presets.
type PresetStore interface {
	SavePreset(ctx context.Context, rec PresetRecord) error
	LoadPreset(ctx context.Context, pluginSlug, name string) (PresetRecord, error)
	ListPresets(ctx context.Context, pluginSlug string) ([]PresetRecord, error)
	DeletePreset(ctx context.Context, pluginSlug, name string) error
}

// Presets saves and restores named mapping tables.
type Presets struct {
	store      PresetStore
	transforms *transform.Registry
	now        func() time.Time
}

// NewPresets creates a preset manager.
func NewPresets(store PresetStore, reg *transform.Registry) *Presets {
	return &Presets{
		store:      store,
		transforms: reg,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// SaveMappingPreset stores t under (pluginSlug, name), replacing any preset
// already there.
func (p *Presets) SaveMappingPreset(ctx context.Context, pluginSlug, name string, t Table) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("preset name is required")
	}
	payload, err := json.Marshal(t.Specs())
	if err != nil {
		return fmt.Errorf("failed to encode preset: %w", err)
	}
	return p.store.SavePreset(ctx, PresetRecord{
		PluginSlug: pluginSlug,
		Name:       name,
		Version:    PresetVersion,
		Payload:    payload,
		CreatedAt:  p.now(),
	})
}

// LoadMappingPreset restores a preset.
func (p *Presets) LoadMappingPreset(ctx context.Context, pluginSlug, name string) (Table, error) {
	rec, err := p.store.LoadPreset(ctx, pluginSlug, name)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s/%s", ErrPresetNotFound, pluginSlug, name)
		}
		return nil, fmt.Errorf("failed to load preset: %w", err)
	}
	return DecodePreset(rec, p.transforms)
}

// ListPresets returns the presets stored for a plugin.
func (p *Presets) ListPresets(ctx context.Context, pluginSlug string) ([]PresetRecord, error) {
	return p.store.ListPresets(ctx, pluginSlug)
}

// DeletePreset removes a preset.
func (p *Presets) DeletePreset(ctx context.Context, pluginSlug, name string) error {
	err := p.store.DeletePreset(ctx, pluginSlug, name)
	if errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("%w: %s/%s", ErrPresetNotFound, pluginSlug, name)
	}
	return err
}

// DecodePreset turns a stored preset into a table.
func DecodePreset(rec PresetRecord, reg *transform.Registry) (Table, error) {
	if rec.Version > PresetVersion {
		return nil, fmt.Errorf("%w: %d", ErrPresetVersion, rec.Version)
	}
	// Spec decodes bare strings too, so version 0 needs no separate path.
	var specs map[string]Spec
	if err := json.Unmarshal(rec.Payload, &specs); err != nil {
		return nil, fmt.Errorf("failed to decode preset %s: %w", rec.Name, err)
	}
	return TableFromSpecs(specs, reg), nil
}
