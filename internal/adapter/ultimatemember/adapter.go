// Package ultimatemember migrates Ultimate Member profiles stored in usermeta.
package ultimatemember

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/akrishnanDG/legacy-profile-migrator/internal/adapter"
	"github.com/akrishnanDG/legacy-profile-migrator/internal/mapper"
	"github.com/akrishnanDG/legacy-profile-migrator/internal/media"
	"github.com/akrishnanDG/legacy-profile-migrator/internal/models"
	"github.com/akrishnanDG/legacy-profile-migrator/internal/normalizer"
	"github.com/akrishnanDG/legacy-profile-migrator/internal/phpvalue"
)

// Adapter identity
const (
	Slug       = "ultimate-member"
	Name       = "Ultimate Member"
	PluginFile = "ultimate-member/ultimate-member.php"
)

// Adapter reads Ultimate Member profiles.
type Adapter struct {
	adapter.Deps
	cfg      Config
	excluded map[string]bool
}

var _ adapter.Adapter = (*Adapter)(nil)

// New creates an adapter with the stock configuration.
func New(deps adapter.Deps) *Adapter {
	return NewWithConfig(deps, DefaultConfig())
}

// NewWithConfig creates an adapter with a custom configuration.
func NewWithConfig(deps adapter.Deps, cfg Config) *Adapter {
	excluded := make(map[string]bool, len(cfg.ExcludedKeys))
	for _, k := range cfg.ExcludedKeys {
		excluded[k] = true
	}
	return &Adapter{Deps: deps.WithDefaults(), cfg: cfg, excluded: excluded}
}

func (a *Adapter) Name() string { return Name }
func (a *Adapter) Slug() string { return Slug }

// IsActive reports whether UM is listed in active_plugins.
func (a *Adapter) IsActive(ctx context.Context) (bool, error) {
	return a.Source.PluginActive(ctx, PluginFile)
}

// CheckPreconditions verifies the usermeta table exists.
func (a *Adapter) CheckPreconditions(ctx context.Context) error {
	if !a.Source.HasTable(ctx, "usermeta") {
		return fmt.Errorf("legacy table %s not found", a.Source.Table("usermeta"))
	}
	return nil
}

// UserCount counts users carrying UM data.
func (a *Adapter) UserCount(ctx context.Context) (int64, error) {
	return a.Source.CountUsersWithMeta(ctx, a.userKeys())
}

// UserIDsForBatch returns a page of users carrying UM data.
func (a *Adapter) UserIDsForBatch(ctx context.Context, page models.Page) ([]int64, error) {
	return a.Source.UserIDsWithMeta(ctx, a.userKeys(), page)
}

func (a *Adapter) userKeys() []string {
	keys := a.cfg.DefaultMapping.Sources()
	for _, k := range keys {
		if k == a.cfg.StatusKey {
			return keys
		}
	}
	return append(keys, a.cfg.StatusKey)
}

// DefaultFieldMapping returns the static UM mapping.
func (a *Adapter) DefaultFieldMapping(ctx context.Context) (mapper.Table, error) {
	return a.cfg.DefaultMapping.Clone(), nil
}

// IsCustomKey reports whether a meta key is a candidate custom field: not
// WordPress or UM internal and not covered by the default mapping.
func (a *Adapter) IsCustomKey(key string) bool {
	if key == "" || a.excluded[key] {
		return false
	}
	if _, mapped := a.cfg.DefaultMapping[key]; mapped {
		return false
	}
	if strings.HasPrefix(key, a.Source.Prefix()) {
		return false
	}
	for _, p := range a.cfg.ExcludedPrefixes {
		if strings.HasPrefix(key, p) {
			return false
		}
	}
	return true
}

type formField struct {
	Type  string
	Label string
}

// formFields reads field definitions from every UM form.
func (a *Adapter) formFields(ctx context.Context) (map[string]formField, error) {
	raw, err := a.Source.PostMetaByKey(ctx, a.cfg.FormFieldsKey)
	if err != nil {
		return nil, err
	}
	out := make(map[string]formField)
	for _, r := range raw {
		fields, err := phpvalue.DecodeMap(r)
		if err != nil {
			slog.Debug("Skipping unreadable form definition", "error", err)
			continue
		}
		for key, def := range fields {
			m, ok := def.(map[string]interface{})
			if !ok {
				continue
			}
			metakey := phpvalue.String(m["metakey"])
			if metakey == "" {
				metakey = key
			}
			label := phpvalue.String(m["label"])
			if label == "" {
				label = phpvalue.String(m["title"])
			}
			if _, seen := out[metakey]; !seen {
				out[metakey] = formField{Type: phpvalue.String(m["type"]), Label: label}
			}
		}
	}
	return out, nil
}

// DiscoverCustomFields lists UM meta keys outside the default mapping with
// up to three sample values each.
func (a *Adapter) DiscoverCustomFields(ctx context.Context) ([]models.DiscoveredField, error) {
	keys, err := a.Source.MetaKeysForUsersWith(ctx, a.cfg.StatusKey)
	if err != nil {
		return nil, err
	}
	forms, err := a.formFields(ctx)
	if err != nil {
		return nil, err
	}

	candidates := make(map[string]bool)
	for _, k := range keys {
		if a.IsCustomKey(k) {
			candidates[k] = true
		}
	}
	for k := range forms {
		if a.IsCustomKey(k) {
			candidates[k] = true
		}
	}

	sorted := make([]string, 0, len(candidates))
	for k := range candidates {
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)

	fields := make([]models.DiscoveredField, 0, len(sorted))
	for _, key := range sorted {
		samples, err := a.Source.MetaSamples(ctx, key, models.MaxSamples)
		if err != nil {
			return nil, err
		}
		if samples == nil {
			samples = []string{}
		}
		field := models.DiscoveredField{
			FieldKey:   key,
			FieldLabel: normalizer.Humanize(key),
			Samples:    samples,
		}
		if def, ok := forms[key]; ok && def.Type != "" {
			field.FieldType = def.Type
		} else if a.Detector != nil {
			field.FieldType = a.Detector.Detect(key, samples).Type
		}
		if def, ok := forms[key]; ok && def.Label != "" {
			field.FieldLabel = def.Label
		}
		fields = append(fields, field)
	}
	return fields, nil
}

// ImportUser writes one user's profile and account state.
func (a *Adapter) ImportUser(ctx context.Context, userID int64, opts models.Options, mapping mapper.Table) (models.ImportOutcome, error) {
	rec, err := a.plan(ctx, userID, opts, mapping, false)
	if err != nil {
		return models.ImportOutcome{}, err
	}
	if err := a.Persist(ctx, rec); err != nil {
		return models.ImportOutcome{}, err
	}
	return rec.Outcome(), nil
}

// PreviewImport shows what importing the first limit users would write.
func (a *Adapter) PreviewImport(ctx context.Context, limit int, mapping mapper.Table) ([]models.PreviewRow, error) {
	ids, err := a.UserIDsForBatch(ctx, models.Page{Limit: limit})
	if err != nil {
		return nil, err
	}
	opts := models.DefaultOptions()
	rows := make([]models.PreviewRow, 0, len(ids))
	for _, id := range ids {
		rec, err := a.plan(ctx, id, opts, mapping, true)
		if err != nil {
			slog.Warn("Skipping user in preview", "user_id", id, "error", err)
			continue
		}
		login, _ := a.Source.UserLogin(ctx, id)
		rows = append(rows, rec.Preview(login))
	}
	return rows, nil
}

func (a *Adapter) plan(ctx context.Context, userID int64, opts models.Options, mapping mapper.Table, dryRun bool) (*adapter.Record, error) {
	exists, err := a.Source.UserExists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("user does not exist")
	}

	meta, err := a.Source.UserMeta(ctx, userID)
	if err != nil {
		return nil, err
	}
	existing, err := a.ExistingAccount(ctx, userID)
	if err != nil {
		return nil, err
	}

	raw := make(map[string]string, len(meta))
	values := make([]models.FieldValue, 0, len(meta))
	for _, m := range meta {
		raw[m.Source] = m.Value
		if _, mapped := mapping[m.Source]; mapped || a.IsCustomKey(m.Source) {
			values = append(values, m)
		}
	}

	rec := adapter.NewRecord(userID)
	a.MapValues(rec, values, mapping, opts, existing)
	if status, ok := raw[a.cfg.StatusKey]; ok {
		ApplyStatus(rec.Account, status, opts, existing, a.Now())
	}

	if opts.CopyPhotos {
		dir := "ultimatemember/" + strconv.FormatInt(userID, 10)
		for _, kind := range []string{media.KindProfile, media.KindCover} {
			a.Photo(ctx, rec, media.PhotoRequest{
				UserID:   userID,
				Kind:     kind,
				Dir:      dir,
				Name:     raw[kind],
				Patterns: []string{kind},
			}, dryRun)
		}
	}
	return rec, nil
}
