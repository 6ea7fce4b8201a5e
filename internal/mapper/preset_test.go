package mapper

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/akrishnanDG/legacy-profile-migrator/internal/models"
	"github.com/akrishnanDG/legacy-profile-migrator/internal/transform"
)

// MockPresetStore is a mock implementation of the PresetStore interface
type MockPresetStore struct {
	mock.Mock
}

func (m *MockPresetStore) SavePreset(ctx context.Context, rec PresetRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockPresetStore) LoadPreset(ctx context.Context, pluginSlug, name string) (PresetRecord, error) {
	args := m.Called(ctx, pluginSlug, name)
	return args.Get(0).(PresetRecord), args.Error(1)
}

func (m *MockPresetStore) ListPresets(ctx context.Context, pluginSlug string) ([]PresetRecord, error) {
	args := m.Called(ctx, pluginSlug)
	return args.Get(0).([]PresetRecord), args.Error(1)
}

func (m *MockPresetStore) DeletePreset(ctx context.Context, pluginSlug, name string) error {
	args := m.Called(ctx, pluginSlug, name)
	return args.Error(0)
}

func TestPresets_SaveThenLoad(t *testing.T) {
	ctx := context.Background()
	store := new(MockPresetStore)
	presets := NewPresets(store, nil)

	table := Table{
		"phone_number":   Direct("phone"),
		"account_status": WithTransform("is_verified", transform.Builtin(transform.StatusToVerified), 1),
	}

	var saved PresetRecord
	store.On("SavePreset", ctx, mock.AnythingOfType("mapper.PresetRecord")).
		Run(func(args mock.Arguments) { saved = args.Get(1).(PresetRecord) }).
		Return(nil)

	require.NoError(t, presets.SaveMappingPreset(ctx, "ultimate-member", "default", table))
	assert.Equal(t, "ultimate-member", saved.PluginSlug)
	assert.Equal(t, "default", saved.Name)
	assert.Equal(t, PresetVersion, saved.Version)
	assert.False(t, saved.CreatedAt.IsZero())

	store.On("LoadPreset", ctx, "ultimate-member", "default").Return(saved, nil)

	loaded, err := presets.LoadMappingPreset(ctx, "ultimate-member", "default")
	require.NoError(t, err)
	assert.Equal(t, "phone", loaded["phone_number"].Target)
	assert.Equal(t, transform.StatusToVerified, loaded["account_status"].Transform.Kind())
	store.AssertExpectations(t)
}

func TestPresets_SaveRequiresName(t *testing.T) {
	presets := NewPresets(new(MockPresetStore), nil)
	err := presets.SaveMappingPreset(context.Background(), "buddypress", "  ", Table{})
	assert.Error(t, err)
}

func TestPresets_NotFound(t *testing.T) {
	ctx := context.Background()
	store := new(MockPresetStore)
	store.On("LoadPreset", ctx, "buddypress", "missing").
		Return(PresetRecord{}, models.ErrNotFound)

	_, err := NewPresets(store, nil).LoadMappingPreset(ctx, "buddypress", "missing")
	assert.True(t, errors.Is(err, ErrPresetNotFound))
}

func TestPresets_DeleteNotFound(t *testing.T) {
	ctx := context.Background()
	store := new(MockPresetStore)
	store.On("DeletePreset", ctx, "buddypress", "missing").Return(models.ErrNotFound)

	err := NewPresets(store, nil).DeletePreset(ctx, "buddypress", "missing")
	assert.True(t, errors.Is(err, ErrPresetNotFound))
}

func TestDecodePreset_UpgradesVersionZero(t *testing.T) {
	rec := PresetRecord{
		Name:    "legacy",
		Version: 0,
		Payload: []byte(`{"field_2":"city","field_5":"postal_code"}`),
	}

	table, err := DecodePreset(rec, nil)
	require.NoError(t, err)
	assert.Equal(t, "city", table["field_2"].Target)
	assert.Equal(t, DefaultPriority, table["field_5"].Priority)
}

func TestDecodePreset_RejectsNewerVersion(t *testing.T) {
	rec := PresetRecord{Name: "future", Version: PresetVersion + 1, Payload: []byte(`{}`)}

	_, err := DecodePreset(rec, nil)
	assert.True(t, errors.Is(err, ErrPresetVersion))
}

func TestDecodePreset_KeepsUnknownTransformName(t *testing.T) {
	rec := PresetRecord{
		Name:    "custom",
		Version: 1,
		Payload: []byte(`{"code":{"target":"country","transform":"iso_country"}}`),
	}

	table, err := DecodePreset(rec, nil)
	require.NoError(t, err)
	assert.Equal(t, "iso_country", table["code"].Transform.Name())
	assert.Equal(t, "pt", table["code"].Transform.Apply("pt"))
}
