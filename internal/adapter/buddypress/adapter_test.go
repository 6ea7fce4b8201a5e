package buddypress

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akrishnanDG/legacy-profile-migrator/internal/adapter"
	"github.com/akrishnanDG/legacy-profile-migrator/internal/fieldtype"
	"github.com/akrishnanDG/legacy-profile-migrator/internal/mapper"
	"github.com/akrishnanDG/legacy-profile-migrator/internal/media"
	"github.com/akrishnanDG/legacy-profile-migrator/internal/models"
	"github.com/akrishnanDG/legacy-profile-migrator/internal/store"
	"github.com/akrishnanDG/legacy-profile-migrator/internal/wordpress"
	"github.com/akrishnanDG/legacy-profile-migrator/internal/wordpress/wptest"
)

type fixture struct {
	site     *wptest.Site
	adapter  *Adapter
	profiles *store.ProfileRepository
	uploads  string
	media    string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	site := wptest.New(t).WithXProfile()
	site.AddXProfileField(1, "Name", "textbox").
		AddXProfileField(2, "Zip Code", "textbox").
		AddXProfileField(3, "City", "textbox").
		AddXProfileField(4, "Favorite Color", "textbox").
		AddXProfileField(5, "Skills", "checkbox").
		AddXProfileOption(6, 5, "Go")

	f := &fixture{
		site:     site,
		profiles: store.NewProfileRepository(site.DB),
		uploads:  t.TempDir(),
		media:    t.TempDir(),
	}
	f.adapter = New(adapter.Deps{
		Source:   wordpress.New(site.DB, wptest.Prefix),
		Profiles: f.profiles,
		Accounts: store.NewUserDataRepository(site.DB),
		Photos:   media.NewPhotoMigrator(media.NewLocator(f.uploads), media.NewFSStore(f.media), nil),
	})
	return f
}

func (f *fixture) addMember(id int64, zip, city, color string) {
	f.site.AddUser(id, "member").
		AddXProfileData(1, id, "Member Name").
		AddXProfileData(2, id, zip).
		AddXProfileData(3, id, city).
		AddXProfileData(4, id, color)
}

func (f *fixture) writePhoto(t *testing.T, rel string) {
	t.Helper()
	p := filepath.Join(f.uploads, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
	require.NoError(t, os.WriteFile(p, []byte("img"), 0644))
}

func TestDefaultFieldMapping(t *testing.T) {
	f := newFixture(t)

	table, err := f.adapter.DefaultFieldMapping(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "postal_code", table["field_2"].Target)
	assert.Equal(t, "city", table["field_3"].Target)
	assert.NotContains(t, table, "field_1", "the name field is never migrated")
	assert.NotContains(t, table, "field_4")
	assert.NotContains(t, table, "field_6", "option rows are not fields")
}

func TestImportUser(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addMember(7, "90210", "Lisbon", "blue")

	defaults, err := f.adapter.DefaultFieldMapping(ctx)
	require.NoError(t, err)

	outcome, err := f.adapter.ImportUser(ctx, 7, models.DefaultOptions(), defaults)
	require.NoError(t, err)
	assert.Equal(t, 2, outcome.FieldsMapped)
	assert.Equal(t, []string{"Favorite Color"}, outcome.FieldsUnmapped)

	profile, err := f.profiles.Get(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "90210", profile.PostalCode)
	assert.Equal(t, "Lisbon", profile.City)
	assert.Empty(t, profile.PreferredName)
}

func TestImportUser_MappingOverride(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addMember(7, "90210", "Lisbon", "blue")

	mapping, err := adapter.ResolveMapping(ctx, f.adapter, mapper.Table{
		"field_4": mapper.Direct("nickname"),
		"field_3": mapper.Direct(""),
	})
	require.NoError(t, err)

	outcome, err := f.adapter.ImportUser(ctx, 7, models.DefaultOptions(), mapping)
	require.NoError(t, err)
	assert.Equal(t, []string{"City"}, outcome.FieldsUnmapped)

	profile, err := f.profiles.Get(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "blue", profile.Nickname)
	assert.Empty(t, profile.City)
}

func TestImportUser_Photos(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addMember(7, "90210", "Lisbon", "blue")
	f.writePhoto(t, "avatars/7/5f3c-bpthumb.jpg")
	f.writePhoto(t, "avatars/7/5f3c-bpfull.jpg")
	f.writePhoto(t, "buddypress/members/7/cover-image/beach.webp")

	defaults, _ := f.adapter.DefaultFieldMapping(ctx)
	outcome, err := f.adapter.ImportUser(ctx, 7, models.DefaultOptions(), defaults)
	require.NoError(t, err)
	assert.Equal(t, 2, outcome.PhotosMigrated)

	profile, err := f.profiles.Get(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, filepath.ToSlash(filepath.Join(f.media, "7", "profile_photo.jpg")), profile.ProfilePhoto)
	assert.Equal(t, filepath.ToSlash(filepath.Join(f.media, "7", "cover_photo.webp")), profile.CoverPhoto)

	rows, err := f.adapter.PreviewImport(ctx, 5, defaults)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Contains(t, rows[0].Photos[media.KindProfile], "5f3c-bpfull.jpg")
}

func TestDiscoverCustomFields(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addMember(7, "90210", "Lisbon", "blue")
	f.addMember(8, "10001", "Porto", "green")

	fields, err := f.adapter.DiscoverCustomFields(ctx)
	require.NoError(t, err)
	require.Len(t, fields, 2)

	assert.Equal(t, models.DiscoveredField{
		FieldKey:   "field_4",
		FieldType:  fieldtype.Text,
		FieldLabel: "Favorite Color",
		Samples:    []string{"blue", "green"},
	}, fields[0])
	assert.Equal(t, "field_5", fields[1].FieldKey)
	assert.Equal(t, fieldtype.MultiSelect, fields[1].FieldType)
	assert.Equal(t, []string{}, fields[1].Samples)
}

func TestUserIDsForBatch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	for id := int64(1); id <= 5; id++ {
		f.addMember(id, "00000", "X", "red")
	}

	count, err := f.adapter.UserCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), count)

	ids, err := f.adapter.UserIDsForBatch(ctx, models.Page{Limit: 2, AfterID: 2})
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 4}, ids)
}

func TestCheckPreconditions(t *testing.T) {
	f := newFixture(t)
	assert.NoError(t, f.adapter.CheckPreconditions(context.Background()))

	bare := wptest.New(t)
	a := New(adapter.Deps{Source: wordpress.New(bare.DB, wptest.Prefix)})
	err := a.CheckPreconditions(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wp_bp_xprofile_fields")
}
