package migrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"gorm.io/datatypes"

	"github.com/akrishnanDG/legacy-profile-migrator/internal/models"
	"github.com/akrishnanDG/legacy-profile-migrator/internal/phpvalue"
	"github.com/akrishnanDG/legacy-profile-migrator/internal/store"
	"github.com/akrishnanDG/legacy-profile-migrator/internal/wordpress"
)

// RoleSource is stored on every migrated role.
const RoleSource = "ultimate-member"

// BuiltinRoles are owned by WordPress and never touched.
var BuiltinRoles = []string{"administrator", "editor", "author", "contributor", "subscriber"}

func isBuiltinRole(key string) bool {
	for _, r := range BuiltinRoles {
		if r == key {
			return true
		}
	}
	return false
}

// RoleMigrator copies custom roles and their UM settings.
type RoleMigrator struct {
	source *wordpress.Source
	repo   *store.RoleRepository
}

// NewRoleMigrator creates a RoleMigrator.
func NewRoleMigrator(source *wordpress.Source, repo *store.RoleRepository) *RoleMigrator {
	return &RoleMigrator{source: source, repo: repo}
}

func (m *RoleMigrator) roles(ctx context.Context) (map[string]interface{}, error) {
	raw, err := m.source.Option(ctx, m.source.Prefix()+"user_roles")
	if err != nil {
		return nil, fmt.Errorf("failed to read role definitions: %w", err)
	}
	roles, err := phpvalue.DecodeMap(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode role definitions: %w", err)
	}
	return roles, nil
}

// Keys returns the custom role keys, sorted.
func (m *RoleMigrator) Keys(ctx context.Context) ([]string, error) {
	roles, err := m.roles(ctx)
	if err != nil {
		return nil, err
	}
	return customKeys(roles), nil
}

func customKeys(roles map[string]interface{}) []string {
	keys := make([]string, 0, len(roles))
	for k := range roles {
		if !isBuiltinRole(k) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// Count returns the number of custom roles.
func (m *RoleMigrator) Count(ctx context.Context) (int64, error) {
	keys, err := m.Keys(ctx)
	return int64(len(keys)), err
}

// Run migrates one page of custom roles. Roles are keyed by string, so
// keyset paging falls back to the offset.
func (m *RoleMigrator) Run(ctx context.Context, opts models.Options) *models.RoleResult {
	result := models.NewRoleResult()

	roles, err := m.roles(ctx)
	if err != nil {
		result.AddError("%s", err)
		result.BatchComplete = true
		return result
	}
	page := opts.Page()
	page.AfterID = 0
	batch := pageStrings(customKeys(roles), page)

	for _, key := range batch {
		created, err := m.migrateOne(ctx, key, roles[key])
		if err != nil {
			result.AddError("Role %s: %s", key, err)
			continue
		}
		result.Migrated++
		if created {
			result.Created++
		} else {
			result.Updated++
		}
	}

	result.Advance(page, len(batch))
	slog.Info("Roles batch finished", "created", result.Created, "updated", result.Updated, "failed", result.Failed())
	return result
}

func (m *RoleMigrator) migrateOne(ctx context.Context, key string, def interface{}) (bool, error) {
	d, _ := def.(map[string]interface{})
	name := strings.TrimSpace(phpvalue.String(d["name"]))
	if name == "" {
		name = key
	}

	caps := datatypes.JSONMap{}
	if c, ok := d["capabilities"].(map[string]interface{}); ok {
		for capName, granted := range c {
			caps[capName] = phpvalue.Bool(granted)
		}
	}

	meta, err := m.roleMeta(ctx, key)
	if err != nil {
		return false, err
	}
	priority := atoi(meta["_um_priority"])

	return m.repo.Upsert(ctx, &store.CustomRole{
		RoleKey:      key,
		RoleName:     name,
		Capabilities: caps,
		Priority:     priority,
		Source:       RoleSource,
	})
}

// roleMeta reads um_role_<key>_meta. UM role keys carry an "um_" prefix
// that the option name omits.
func (m *RoleMigrator) roleMeta(ctx context.Context, key string) (map[string]interface{}, error) {
	candidates := []string{"um_role_" + key + "_meta"}
	if trimmed := strings.TrimPrefix(key, "um_"); trimmed != key {
		candidates = append(candidates, "um_role_"+trimmed+"_meta")
	}
	for _, name := range candidates {
		raw, err := m.source.Option(ctx, name)
		if errors.Is(err, models.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		meta, err := phpvalue.DecodeMap(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", name, err)
		}
		return meta, nil
	}
	return map[string]interface{}{}, nil
}

func pageStrings(keys []string, page models.Page) []string {
	if page.Unbounded() {
		return keys
	}
	if page.Offset >= len(keys) {
		return nil
	}
	keys = keys[page.Offset:]
	if len(keys) > page.Limit {
		keys = keys[:page.Limit]
	}
	return keys
}
