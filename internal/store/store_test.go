package store

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	"github.com/akrishnanDG/legacy-profile-migrator/internal/mapper"
	"github.com/akrishnanDG/legacy-profile-migrator/internal/models"
)

var dbSeq struct {
	sync.Mutex
	n int
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dbSeq.Lock()
	dbSeq.n++
	name := fmt.Sprintf("file:store_test_%d?mode=memory&cache=shared", dbSeq.n)
	dbSeq.Unlock()

	db, err := Open("sqlite", name, "nbuf_")
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })
	require.NoError(t, AutoMigrate(context.Background(), db))
	return db
}

func TestUserProfile_ColumnsCoverRegistry(t *testing.T) {
	s, err := schema.Parse(&UserProfile{}, &sync.Map{}, schema.NamingStrategy{TablePrefix: "nbuf_", SingularTable: true})
	require.NoError(t, err)

	assert.Equal(t, "nbuf_user_profile", s.Table)
	for _, key := range models.DefaultTargets().ProfileColumns() {
		if _, ok := s.FieldsByDBName[key]; !ok {
			t.Errorf("UserProfile has no column %q", key)
		}
	}
}

func TestProfileRepository_Upsert(t *testing.T) {
	ctx := context.Background()
	repo := NewProfileRepository(openTestDB(t))

	require.NoError(t, repo.Upsert(ctx, 7, map[string]interface{}{"city": "Lisbon", "phone": "555"}))
	require.NoError(t, repo.Upsert(ctx, 7, map[string]interface{}{"city": "Porto"}))

	p, err := repo.Get(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "Porto", p.City)
	assert.Equal(t, "555", p.Phone, "columns not named in the update keep their value")

	_, err = repo.Get(ctx, 8)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProfileRepository_UpsertEmpty(t *testing.T) {
	ctx := context.Background()
	repo := NewProfileRepository(openTestDB(t))

	require.NoError(t, repo.Upsert(ctx, 1, nil))
	_, err := repo.Get(ctx, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserDataRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewUserDataRepository(openTestDB(t))

	verified, err := repo.IsVerified(ctx, 3)
	require.NoError(t, err)
	assert.False(t, verified)

	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Upsert(ctx, 3, map[string]interface{}{
		"is_verified":   true,
		"verified_date": now,
	}))
	require.NoError(t, repo.Upsert(ctx, 3, map[string]interface{}{
		"is_disabled":     true,
		"disabled_reason": "rejected",
	}))

	d, err := repo.Get(ctx, 3)
	require.NoError(t, err)
	assert.True(t, d.IsVerified)
	assert.True(t, d.IsDisabled)
	assert.Equal(t, "rejected", d.DisabledReason)
	require.NotNil(t, d.VerifiedDate)
	assert.True(t, d.VerifiedDate.Equal(now))

	verified, err = repo.IsVerified(ctx, 3)
	require.NoError(t, err)
	assert.True(t, verified)
}

func TestRestrictionRepository_UpsertReplaces(t *testing.T) {
	ctx := context.Background()
	repo := NewRestrictionRepository(openTestDB(t))

	require.NoError(t, repo.Upsert(ctx, &ContentRestriction{
		ContentID: 10, ContentType: "page",
		Visibility: VisibilityRoleBased, AllowedRoles: []string{"editor"},
		RestrictionAction: ActionMessage,
	}))
	require.NoError(t, repo.Upsert(ctx, &ContentRestriction{
		ContentID: 10, ContentType: "page",
		Visibility: VisibilityLoggedIn,
		RestrictionAction: ActionRedirect, RedirectURL: "/wp-login.php",
	}))

	rec, err := repo.Get(ctx, 10, "page")
	require.NoError(t, err)
	assert.Equal(t, VisibilityLoggedIn, rec.Visibility)
	assert.Equal(t, ActionRedirect, rec.RestrictionAction)
	assert.Equal(t, "/wp-login.php", rec.RedirectURL)
	assert.Empty(t, rec.AllowedRoles)

	var count int64
	require.NoError(t, repo.db.Model(&ContentRestriction{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestRoleRepository_Upsert(t *testing.T) {
	ctx := context.Background()
	repo := NewRoleRepository(openTestDB(t))

	created, err := repo.Upsert(ctx, &CustomRole{
		RoleKey: "vip", RoleName: "VIP",
		Capabilities: datatypes.JSONMap{"read": true},
		Priority:     5, Source: "ultimate-member",
	})
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.Upsert(ctx, &CustomRole{
		RoleKey: "vip", RoleName: "VIP Member",
		Capabilities: datatypes.JSONMap{"read": true, "edit_posts": true},
		Priority:     9, Source: "ultimate-member",
	})
	require.NoError(t, err)
	assert.False(t, created)

	role, err := repo.Get(ctx, "vip")
	require.NoError(t, err)
	assert.Equal(t, "VIP Member", role.RoleName)
	assert.Equal(t, 9, role.Priority)
	assert.Contains(t, role.Capabilities, "edit_posts")
}

func TestPresetRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewPresetRepository(openTestDB(t))

	_, err := repo.LoadPreset(ctx, "ultimate-member", "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	for _, name := range []string{"staff", "alumni"} {
		require.NoError(t, repo.SavePreset(ctx, mapper.PresetRecord{
			PluginSlug: "ultimate-member", Name: name,
			Version: mapper.PresetVersion, Payload: []byte(`{"phone_number":"phone"}`),
			CreatedAt: time.Now(),
		}))
	}
	require.NoError(t, repo.SavePreset(ctx, mapper.PresetRecord{
		PluginSlug: "ultimate-member", Name: "staff",
		Version: mapper.PresetVersion, Payload: []byte(`{"mobile":"mobile_phone"}`),
		CreatedAt: time.Now(),
	}))

	rec, err := repo.LoadPreset(ctx, "ultimate-member", "staff")
	require.NoError(t, err)
	assert.JSONEq(t, `{"mobile":"mobile_phone"}`, string(rec.Payload))

	list, err := repo.ListPresets(ctx, "ultimate-member")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "alumni", list[0].Name)
	assert.Equal(t, "staff", list[1].Name)

	other, err := repo.ListPresets(ctx, "buddypress")
	require.NoError(t, err)
	assert.Empty(t, other)

	require.NoError(t, repo.DeletePreset(ctx, "ultimate-member", "alumni"))
	assert.ErrorIs(t, repo.DeletePreset(ctx, "ultimate-member", "alumni"), ErrNotFound)
}

func TestPresetRepository_WithPresets(t *testing.T) {
	ctx := context.Background()
	presets := mapper.NewPresets(NewPresetRepository(openTestDB(t)), nil)

	table := mapper.Table{"zip": mapper.Direct("postal_code")}
	require.NoError(t, presets.SaveMappingPreset(ctx, "buddypress", "default", table))

	loaded, err := presets.LoadMappingPreset(ctx, "buddypress", "default")
	require.NoError(t, err)
	assert.Equal(t, "postal_code", loaded["zip"].Target)
}

func TestRollback(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	profiles := NewProfileRepository(db)

	for id := int64(1); id <= 3; id++ {
		require.NoError(t, profiles.Upsert(ctx, id, map[string]interface{}{"city": "X"}))
	}

	n, err := Rollback(ctx, db, TableProfile)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	_, err = profiles.Get(ctx, 1)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = Rollback(ctx, db, "wp_users")
	assert.Error(t, err)
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	if _, err := Open("oracle", "x", "nbuf_"); err == nil {
		t.Error("expected error for unsupported driver")
	}
}
