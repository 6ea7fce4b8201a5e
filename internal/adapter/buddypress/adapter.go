// Package buddypress migrates BuddyPress extended profile data.
package buddypress

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/akrishnanDG/legacy-profile-migrator/internal/adapter"
	"github.com/akrishnanDG/legacy-profile-migrator/internal/fieldtype"
	"github.com/akrishnanDG/legacy-profile-migrator/internal/mapper"
	"github.com/akrishnanDG/legacy-profile-migrator/internal/media"
	"github.com/akrishnanDG/legacy-profile-migrator/internal/models"
	"github.com/akrishnanDG/legacy-profile-migrator/internal/wordpress"
)

// Adapter identity
const (
	Slug       = "buddypress"
	Name       = "BuddyPress"
	PluginFile = "buddypress/bp-loader.php"
)

// NameFieldID is the core full-name field. The host owns display names,
// so it is never migrated.
const NameFieldID = 1

// fieldTypes maps xprofile field types to discovered field types.
var fieldTypes = map[string]string{
	"textbox":        fieldtype.Text,
	"wp-textbox":     fieldtype.Text,
	"textarea":       fieldtype.Textarea,
	"wp-biography":   fieldtype.Textarea,
	"datebox":        fieldtype.Date,
	"url":            fieldtype.URL,
	"number":         fieldtype.Number,
	"telephone":      fieldtype.Phone,
	"multiselectbox": fieldtype.MultiSelect,
	"checkbox":       fieldtype.MultiSelect,
	"selectbox":      "select",
	"radio":          "radio",
}

// Adapter reads BuddyPress xprofile data.
type Adapter struct {
	adapter.Deps
	associator *mapper.Associator

	mu     sync.Mutex
	fields []wordpress.XProfileField
}

var _ adapter.Adapter = (*Adapter)(nil)

// New creates a BuddyPress adapter.
func New(deps adapter.Deps) *Adapter {
	deps = deps.WithDefaults()
	return &Adapter{
		Deps:       deps,
		associator: mapper.NewAssociator(deps.Targets, deps.Aliases),
	}
}

func (a *Adapter) Name() string { return Name }
func (a *Adapter) Slug() string { return Slug }

// IsActive reports whether BuddyPress is listed in active_plugins.
func (a *Adapter) IsActive(ctx context.Context) (bool, error) {
	return a.Source.PluginActive(ctx, PluginFile)
}

// CheckPreconditions verifies both xprofile tables exist.
func (a *Adapter) CheckPreconditions(ctx context.Context) error {
	for _, t := range []string{wordpress.XProfileFieldsTable, wordpress.XProfileDataTable} {
		if !a.Source.HasTable(ctx, t) {
			return fmt.Errorf("BuddyPress table %s not found", a.Source.Table(t))
		}
	}
	return nil
}

// UserCount counts users with xprofile data.
func (a *Adapter) UserCount(ctx context.Context) (int64, error) {
	return a.Source.CountXProfileUsers(ctx)
}

// UserIDsForBatch returns a page of users with xprofile data.
func (a *Adapter) UserIDsForBatch(ctx context.Context, page models.Page) ([]int64, error) {
	return a.Source.XProfileUserIDs(ctx, page)
}

// profileFields loads the xprofile field list once per adapter.
func (a *Adapter) profileFields(ctx context.Context) ([]wordpress.XProfileField, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.fields != nil {
		return a.fields, nil
	}
	fields, err := a.Source.XProfileFields(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]wordpress.XProfileField, 0, len(fields))
	for _, f := range fields {
		if f.ID != NameFieldID {
			out = append(out, f)
		}
	}
	a.fields = out
	return out, nil
}

// DefaultFieldMapping associates every xprofile field with a target by
// name. Fields that match nothing are left out.
func (a *Adapter) DefaultFieldMapping(ctx context.Context) (mapper.Table, error) {
	fields, err := a.profileFields(ctx)
	if err != nil {
		return nil, err
	}
	table := make(mapper.Table)
	for _, f := range fields {
		assoc, ok := a.associator.Associate(f.Name)
		if !ok {
			continue
		}
		slog.Debug("Associated field", "field", f.Name, "target", assoc.Target, "rule", assoc.Rule)
		table[f.Key()] = mapper.Direct(assoc.Target)
	}
	return table, nil
}

// DiscoverCustomFields lists xprofile fields the default mapping leaves out.
func (a *Adapter) DiscoverCustomFields(ctx context.Context) ([]models.DiscoveredField, error) {
	fields, err := a.profileFields(ctx)
	if err != nil {
		return nil, err
	}
	defaults, err := a.DefaultFieldMapping(ctx)
	if err != nil {
		return nil, err
	}

	var out []models.DiscoveredField
	for _, f := range fields {
		if _, mapped := defaults[f.Key()]; mapped {
			continue
		}
		samples, err := a.Source.XProfileSamples(ctx, f.ID, models.MaxSamples)
		if err != nil {
			return nil, err
		}
		if samples == nil {
			samples = []string{}
		}
		fieldType, ok := fieldTypes[f.Type]
		if !ok && a.Detector != nil {
			fieldType = a.Detector.Detect(f.Name, samples).Type
		}
		out = append(out, models.DiscoveredField{
			FieldKey:   f.Key(),
			FieldType:  fieldType,
			FieldLabel: f.Name,
			Samples:    samples,
		})
	}
	return out, nil
}

// ImportUser writes one user's profile.
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

// sourceKey picks the mapping key for a field: field_<id> when mapped that
// way, otherwise the field name, which is also how unmapped fields are
// reported.
func sourceKey(f wordpress.XProfileField, mapping mapper.Table) string {
	if _, ok := mapping[f.Key()]; ok {
		return f.Key()
	}
	return f.Name
}

func (a *Adapter) plan(ctx context.Context, userID int64, opts models.Options, mapping mapper.Table, dryRun bool) (*adapter.Record, error) {
	exists, err := a.Source.UserExists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("user does not exist")
	}

	fields, err := a.profileFields(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]wordpress.XProfileField, len(fields))
	for _, f := range fields {
		byID[f.ID] = f
	}

	data, err := a.Source.XProfileData(ctx, userID)
	if err != nil {
		return nil, err
	}
	values := make([]models.FieldValue, 0, len(data))
	for _, d := range data {
		f, ok := byID[d.FieldID]
		if !ok {
			continue
		}
		values = append(values, models.FieldValue{Source: sourceKey(f, mapping), Value: d.Value})
	}

	existing, err := a.ExistingAccount(ctx, userID)
	if err != nil {
		return nil, err
	}

	rec := adapter.NewRecord(userID)
	a.MapValues(rec, values, mapping, opts, existing)

	if opts.CopyPhotos {
		id := strconv.FormatInt(userID, 10)
		a.Photo(ctx, rec, media.PhotoRequest{
			UserID:   userID,
			Kind:     media.KindProfile,
			Dir:      "avatars/" + id,
			Patterns: []string{"-bpfull", ""},
		}, dryRun)
		a.Photo(ctx, rec, media.PhotoRequest{
			UserID: userID,
			Kind:   media.KindCover,
			Dir:    "buddypress/members/" + id + "/cover-image",
		}, dryRun)
	}
	return rec, nil
}
