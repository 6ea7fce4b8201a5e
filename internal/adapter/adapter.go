// Package adapter defines the contract every legacy plugin source
// implements and the batch runner that drives it.
package adapter

import (
	"context"
	"errors"
	"time"

	"github.com/akrishnanDG/legacy-profile-migrator/internal/fieldtype"
	"github.com/akrishnanDG/legacy-profile-migrator/internal/mapper"
	"github.com/akrishnanDG/legacy-profile-migrator/internal/media"
	"github.com/akrishnanDG/legacy-profile-migrator/internal/models"
	"github.com/akrishnanDG/legacy-profile-migrator/internal/store"
	"github.com/akrishnanDG/legacy-profile-migrator/internal/wordpress"
	"github.com/akrishnanDG/legacy-profile-migrator/pkg/config"
)

// ErrUnknownPlugin is returned for a plugin slug no adapter serves.
var ErrUnknownPlugin = errors.New("unknown plugin")

// Adapter is one legacy profile source.
type Adapter interface {
	Name() string
	Slug() string
	// IsActive is informational; migration from an inactive plugin's
	// residual tables is allowed.
	IsActive(ctx context.Context) (bool, error)
	CheckPreconditions(ctx context.Context) error
	UserCount(ctx context.Context) (int64, error)
	DefaultFieldMapping(ctx context.Context) (mapper.Table, error)
	DiscoverCustomFields(ctx context.Context) ([]models.DiscoveredField, error)
	PreviewImport(ctx context.Context, limit int, mapping mapper.Table) ([]models.PreviewRow, error)
	// ImportUser must be idempotent.
	ImportUser(ctx context.Context, userID int64, opts models.Options, mapping mapper.Table) (models.ImportOutcome, error)
	// UserIDsForBatch returns distinct user IDs ascending.
	UserIDsForBatch(ctx context.Context, page models.Page) ([]int64, error)
}

// Deps are the collaborators shared by every adapter.
type Deps struct {
	Source   *wordpress.Source
	Profiles *store.ProfileRepository
	Accounts *store.UserDataRepository
	// Photos may be nil, which disables photo migration.
	Photos   *media.PhotoMigrator
	Targets  *models.TargetRegistry
	Detector *fieldtype.Detector
	// Aliases feeds field association; nil uses mapper.DefaultAliases.
	Aliases map[string]string
	Now     func() time.Time
}

// WithDefaults fills unset optional collaborators.
func (d Deps) WithDefaults() Deps {
	if d.Targets == nil {
		d.Targets = models.DefaultTargets()
	}
	if d.Aliases == nil {
		d.Aliases = mapper.DefaultAliases()
	}
	if d.Now == nil {
		d.Now = func() time.Time { return time.Now().UTC() }
	}
	if d.Detector == nil {
		if det, err := fieldtype.New(config.NewDefaultConfig().FieldTypes); err == nil {
			d.Detector = det
		}
	}
	return d
}

// ResolveMapping merges override on top of the adapter's default mapping.
func ResolveMapping(ctx context.Context, a Adapter, override mapper.Table) (mapper.Table, error) {
	defaults, err := a.DefaultFieldMapping(ctx)
	if err != nil {
		return nil, err
	}
	return defaults.Merge(override), nil
}
