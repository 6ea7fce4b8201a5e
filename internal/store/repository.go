package store

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/akrishnanDG/legacy-profile-migrator/internal/mapper"
)

// ProfileRepository writes UserProfile rows.
type ProfileRepository struct {
	db *gorm.DB
}

// NewProfileRepository creates a ProfileRepository.
func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Upsert creates the profile of userID or updates the given columns.
// Columns not named in fields keep their current values.
func (r *ProfileRepository) Upsert(ctx context.Context, userID int64, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	return upsertByUser(ctx, r.db, &UserProfile{}, userID, fields)
}

// Get returns the profile of userID.
func (r *ProfileRepository) Get(ctx context.Context, userID int64) (*UserProfile, error) {
	var p UserProfile
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Take(&p).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// UserDataRepository writes UserData rows.
type UserDataRepository struct {
	db *gorm.DB
}

// NewUserDataRepository creates a UserDataRepository.
func NewUserDataRepository(db *gorm.DB) *UserDataRepository {
	return &UserDataRepository{db: db}
}

// Upsert creates the account row of userID or updates the given columns.
func (r *UserDataRepository) Upsert(ctx context.Context, userID int64, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	return upsertByUser(ctx, r.db, &UserData{}, userID, fields)
}

// Get returns the account row of userID.
func (r *UserDataRepository) Get(ctx context.Context, userID int64) (*UserData, error) {
	var d UserData
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Take(&d).Error; err != nil {
		return nil, notFound(err)
	}
	return &d, nil
}

// IsVerified reports whether userID already has a verified account row.
func (r *UserDataRepository) IsVerified(ctx context.Context, userID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&UserData{}).
		Where("user_id = ? AND is_verified = ?", userID, true).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check verified state: %w", err)
	}
	return count > 0, nil
}

func upsertByUser(ctx context.Context, db *gorm.DB, model interface{}, userID int64, fields map[string]interface{}) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(model).Where("user_id = ?", userID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return tx.Model(model).Where("user_id = ?", userID).Updates(fields).Error
		}

		row := make(map[string]interface{}, len(fields)+1)
		for k, v := range fields {
			row[k] = v
		}
		row["user_id"] = userID
		return tx.Model(model).Create(row).Error
	})
}

// RestrictionRepository writes ContentRestriction rows.
type RestrictionRepository struct {
	db *gorm.DB
}

// NewRestrictionRepository creates a RestrictionRepository.
func NewRestrictionRepository(db *gorm.DB) *RestrictionRepository {
	return &RestrictionRepository{db: db}
}

// Upsert writes a restriction keyed by (content_id, content_type).
func (r *RestrictionRepository) Upsert(ctx context.Context, rec *ContentRestriction) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "content_id"}, {Name: "content_type"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"visibility", "allowed_roles", "restriction_action",
			"custom_message", "redirect_url", "updated_at",
		}),
	}).Create(rec).Error
}

// Get returns the restriction of one piece of content.
func (r *RestrictionRepository) Get(ctx context.Context, contentID int64, contentType string) (*ContentRestriction, error) {
	var rec ContentRestriction
	err := r.db.WithContext(ctx).
		Where("content_id = ? AND content_type = ?", contentID, contentType).
		Take(&rec).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &rec, nil
}

// RoleRepository writes CustomRole rows.
type RoleRepository struct {
	db *gorm.DB
}

// NewRoleRepository creates a RoleRepository.
func NewRoleRepository(db *gorm.DB) *RoleRepository {
	return &RoleRepository{db: db}
}

// Upsert creates the role if its key is new and updates it otherwise.
func (r *RoleRepository) Upsert(ctx context.Context, role *CustomRole) (created bool, err error) {
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing CustomRole
		findErr := tx.Where("role_key = ?", role.RoleKey).Take(&existing).Error
		if errors.Is(findErr, gorm.ErrRecordNotFound) {
			created = true
			return tx.Create(role).Error
		}
		if findErr != nil {
			return findErr
		}
		role.ID = existing.ID
		role.CreatedAt = existing.CreatedAt
		return tx.Model(&existing).Updates(map[string]interface{}{
			"role_name":    role.RoleName,
			"capabilities": role.Capabilities,
			"priority":     role.Priority,
			"source":       role.Source,
		}).Error
	})
	return created, err
}

// Get returns a role by key.
func (r *RoleRepository) Get(ctx context.Context, roleKey string) (*CustomRole, error) {
	var role CustomRole
	if err := r.db.WithContext(ctx).Where("role_key = ?", roleKey).Take(&role).Error; err != nil {
		return nil, notFound(err)
	}
	return &role, nil
}

// PresetRepository persists mapping presets. It implements mapper.PresetStore.
type PresetRepository struct {
	db *gorm.DB
}

// NewPresetRepository creates a PresetRepository.
func NewPresetRepository(db *gorm.DB) *PresetRepository {
	return &PresetRepository{db: db}
}

var _ mapper.PresetStore = (*PresetRepository)(nil)

// SavePreset stores a preset, replacing one with the same plugin and name.
func (r *PresetRepository) SavePreset(ctx context.Context, rec mapper.PresetRecord) error {
	row := &MappingPreset{
		PluginSlug:    rec.PluginSlug,
		PresetName:    rec.Name,
		PresetVersion: rec.Version,
		Mappings:      rec.Payload,
		CreatedAt:     rec.CreatedAt,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "plugin_slug"}, {Name: "preset_name"}},
		DoUpdates: clause.AssignmentColumns([]string{"preset_version", "mappings", "created_at", "updated_at"}),
	}).Create(row).Error
	if err != nil {
		return fmt.Errorf("failed to save preset: %w", err)
	}
	return nil
}

// LoadPreset returns a stored preset.
func (r *PresetRepository) LoadPreset(ctx context.Context, pluginSlug, name string) (mapper.PresetRecord, error) {
	var row MappingPreset
	err := r.db.WithContext(ctx).
		Where("plugin_slug = ? AND preset_name = ?", pluginSlug, name).
		Take(&row).Error
	if err != nil {
		return mapper.PresetRecord{}, notFound(err)
	}
	return toRecord(row), nil
}

// ListPresets returns the presets of a plugin ordered by name.
func (r *PresetRepository) ListPresets(ctx context.Context, pluginSlug string) ([]mapper.PresetRecord, error) {
	var rows []MappingPreset
	err := r.db.WithContext(ctx).
		Where("plugin_slug = ?", pluginSlug).
		Order("preset_name ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list presets: %w", err)
	}
	out := make([]mapper.PresetRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, toRecord(row))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// DeletePreset removes a preset.
func (r *PresetRepository) DeletePreset(ctx context.Context, pluginSlug, name string) error {
	res := r.db.WithContext(ctx).
		Where("plugin_slug = ? AND preset_name = ?", pluginSlug, name).
		Delete(&MappingPreset{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete preset: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func toRecord(row MappingPreset) mapper.PresetRecord {
	return mapper.PresetRecord{
		PluginSlug: row.PluginSlug,
		Name:       row.PresetName,
		Version:    row.PresetVersion,
		Payload:    []byte(row.Mappings),
		CreatedAt:  row.CreatedAt,
	}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
