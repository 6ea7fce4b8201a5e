package migrator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akrishnanDG/legacy-profile-migrator/internal/models"
	"github.com/akrishnanDG/legacy-profile-migrator/internal/store"
	"github.com/akrishnanDG/legacy-profile-migrator/internal/wordpress"
	"github.com/akrishnanDG/legacy-profile-migrator/internal/wordpress/wptest"
)

func seedRoles(site *wptest.Site) {
	site.AddOption(wptest.Prefix+"user_roles", wptest.Serialize([]wptest.KV{
		{Key: "administrator", Value: []wptest.KV{
			{Key: "name", Value: "Administrator"},
			{Key: "capabilities", Value: []wptest.KV{{Key: "manage_options", Value: true}}},
		}},
		{Key: "um_vip", Value: []wptest.KV{
			{Key: "name", Value: "VIP"},
			{Key: "capabilities", Value: []wptest.KV{{Key: "read", Value: true}, {Key: "edit_posts", Value: false}}},
		}},
		{Key: "shop_manager", Value: []wptest.KV{
			{Key: "capabilities", Value: []wptest.KV{{Key: "read", Value: true}}},
		}},
	}))
	site.AddOption("um_role_vip_meta", wptest.Serialize([]wptest.KV{
		{Key: "_um_priority", Value: "10"},
		{Key: "_um_can_access_wpadmin", Value: "0"},
	}))
}

func TestRoleMigrator_Run(t *testing.T) {
	ctx := context.Background()
	site := wptest.New(t)
	seedRoles(site)
	repo := store.NewRoleRepository(site.DB)
	m := NewRoleMigrator(wordpress.New(site.DB, wptest.Prefix), repo)

	keys, err := m.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"shop_manager", "um_vip"}, keys)

	count, err := m.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	opts := models.DefaultOptions()
	first := m.Run(ctx, opts)
	assert.Empty(t, first.Errors)
	assert.Equal(t, 2, first.Total)
	assert.Equal(t, 2, first.Migrated)
	assert.Equal(t, 2, first.Created)
	assert.Equal(t, 0, first.Updated)
	assert.True(t, first.BatchComplete)

	vip, err := repo.Get(ctx, "um_vip")
	require.NoError(t, err)
	assert.Equal(t, "VIP", vip.RoleName)
	assert.Equal(t, 10, vip.Priority)
	assert.Equal(t, RoleSource, vip.Source)
	assert.Equal(t, true, vip.Capabilities["read"])
	assert.Equal(t, false, vip.Capabilities["edit_posts"])

	shop, err := repo.Get(ctx, "shop_manager")
	require.NoError(t, err)
	assert.Equal(t, "shop_manager", shop.RoleName, "a role without a name falls back to its key")
	assert.Equal(t, 0, shop.Priority)

	_, err = repo.Get(ctx, "administrator")
	assert.ErrorIs(t, err, models.ErrNotFound)

	second := m.Run(ctx, opts)
	assert.Equal(t, 0, second.Created)
	assert.Equal(t, 2, second.Updated)

	var rows int64
	require.NoError(t, site.DB.Model(&store.CustomRole{}).Count(&rows).Error)
	assert.Equal(t, int64(2), rows)
}

func TestRoleMigrator_Paging(t *testing.T) {
	ctx := context.Background()
	site := wptest.New(t)
	seedRoles(site)
	m := NewRoleMigrator(wordpress.New(site.DB, wptest.Prefix), store.NewRoleRepository(site.DB))

	opts := models.DefaultOptions()
	opts.BatchSize = 1
	opts.AfterID = 99

	first := m.Run(ctx, opts)
	assert.Equal(t, 1, first.Migrated)
	assert.False(t, first.BatchComplete)
	assert.Equal(t, 1, first.NextOffset)

	opts.BatchOffset = first.NextOffset
	second := m.Run(ctx, opts)
	assert.Equal(t, 1, second.Migrated)
	assert.False(t, second.BatchComplete)

	opts.BatchOffset = 2
	third := m.Run(ctx, opts)
	assert.Equal(t, 0, third.Total)
	assert.True(t, third.BatchComplete)
}

func TestRoleMigrator_MissingOption(t *testing.T) {
	site := wptest.New(t)
	m := NewRoleMigrator(wordpress.New(site.DB, wptest.Prefix), store.NewRoleRepository(site.DB))

	result := m.Run(context.Background(), models.DefaultOptions())
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "failed to read role definitions")
	assert.True(t, result.BatchComplete)
}

func TestPageStrings(t *testing.T) {
	keys := []string{"a", "b", "c"}
	tests := []struct {
		name     string
		page     models.Page
		expected []string
	}{
		{"unbounded", models.Page{}, []string{"a", "b", "c"}},
		{"first", models.Page{Limit: 2}, []string{"a", "b"}},
		{"tail", models.Page{Limit: 2, Offset: 2}, []string{"c"}},
		{"past end", models.Page{Limit: 2, Offset: 3}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, pageStrings(keys, tt.page))
		})
	}
}
