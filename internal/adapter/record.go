package adapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/akrishnanDG/legacy-profile-migrator/internal/mapper"
	"github.com/akrishnanDG/legacy-profile-migrator/internal/media"
	"github.com/akrishnanDG/legacy-profile-migrator/internal/models"
	"github.com/akrishnanDG/legacy-profile-migrator/internal/store"
	"github.com/akrishnanDG/legacy-profile-migrator/internal/transform"
)

// Record is everything one user's import writes.
type Record struct {
	UserID   int64
	Profile  map[string]interface{}
	Account  map[string]interface{}
	Unmapped []string
	Photos   map[string]string
}

// NewRecord creates an empty record.
func NewRecord(userID int64) *Record {
	return &Record{
		UserID:  userID,
		Profile: make(map[string]interface{}),
		Account: make(map[string]interface{}),
		Photos:  make(map[string]string),
	}
}

// FieldsMapped counts the mapped columns, photos excluded.
func (r *Record) FieldsMapped() int {
	n := len(r.Account)
	for k := range r.Profile {
		if _, photo := r.Photos[k]; !photo {
			n++
		}
	}
	return n
}

// Outcome summarizes the record for the batch runner.
func (r *Record) Outcome() models.ImportOutcome {
	return models.ImportOutcome{
		FieldsMapped:   r.FieldsMapped(),
		FieldsUnmapped: r.Unmapped,
		PhotosMigrated: len(r.Photos),
	}
}

// Preview renders the record without writing it.
func (r *Record) Preview(login string) models.PreviewRow {
	account := make(map[string]interface{}, len(r.Account))
	for k, v := range r.Account {
		if t, ok := v.(time.Time); ok {
			v = t.Format(transform.DatetimeLayout)
		}
		account[k] = v
	}
	return models.PreviewRow{
		UserID:         r.UserID,
		Login:          login,
		Profile:        r.Profile,
		Account:        account,
		FieldsUnmapped: r.Unmapped,
		Photos:         r.Photos,
	}
}

// MapValues runs values through mapping and splits the result into
// profile columns and account fields.
func (d Deps) MapValues(rec *Record, values []models.FieldValue, mapping mapper.Table, opts models.Options, existing *store.UserData) {
	m := mapper.New(d.Targets)
	m.SetMappings(mapping)
	mapped, unmapped := m.MapAll(values)
	rec.Unmapped = append(rec.Unmapped, unmapped...)

	for key, value := range mapped {
		field, ok := d.Targets.Lookup(key)
		if !ok {
			slog.Debug("Dropping value for unknown target", "user_id", rec.UserID, "target", key)
			continue
		}
		if field.IsProfileColumn() {
			rec.Profile[key] = value
			continue
		}
		switch key {
		case "is_verified":
			d.applyVerified(rec, truthy(value), opts, existing)
		case "last_login_at":
			if t, ok := parseDatetime(value); ok {
				rec.Account["last_login_at"] = t
			}
		}
	}
}

// applyVerified sets is_verified; verified_date is only stamped once.
func (d Deps) applyVerified(rec *Record, verified bool, opts models.Options, existing *store.UserData) {
	if !verified {
		rec.Account["is_verified"] = false
		return
	}
	if !opts.SetVerified {
		return
	}
	rec.Account["is_verified"] = true
	if existing == nil || existing.VerifiedDate == nil {
		rec.Account["verified_date"] = d.Now()
	}
}

// ExistingAccount loads the current account row, or nil when none exists.
func (d Deps) ExistingAccount(ctx context.Context, userID int64) (*store.UserData, error) {
	existing, err := d.Accounts.Get(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read account state: %w", err)
	}
	return existing, nil
}

// Photo locates, and unless dryRun copies, one legacy photo into rec.
func (d Deps) Photo(ctx context.Context, rec *Record, req media.PhotoRequest, dryRun bool) {
	if d.Photos == nil {
		return
	}
	var (
		ref string
		ok  bool
	)
	if dryRun {
		ref, ok = d.Photos.Locate(ctx, req)
	} else {
		ref, ok = d.Photos.Migrate(ctx, req)
	}
	if !ok {
		return
	}
	rec.Photos[req.Kind] = ref
	if !dryRun {
		rec.Profile[req.Kind] = ref
	}
}

// Persist upserts the record's profile and account rows.
func (d Deps) Persist(ctx context.Context, rec *Record) error {
	if err := d.Profiles.Upsert(ctx, rec.UserID, rec.Profile); err != nil {
		return fmt.Errorf("failed to write profile: %w", err)
	}
	if err := d.Accounts.Upsert(ctx, rec.UserID, rec.Account); err != nil {
		return fmt.Errorf("failed to write account state: %w", err)
	}
	return nil
}

func truthy(v interface{}) bool {
	switch t := v.(type) {
	case bool:
		return t
	case int:
		return t != 0
	case int64:
		return t != 0
	case float64:
		return t != 0
	case string:
		s := strings.TrimSpace(t)
		if n, err := strconv.Atoi(s); err == nil {
			return n != 0
		}
		return strings.EqualFold(s, "true")
	default:
		return false
	}
}

func parseDatetime(v interface{}) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), true
	case string:
		parsed, err := time.ParseInLocation(transform.DatetimeLayout, strings.TrimSpace(t), time.UTC)
		if err != nil {
			return time.Time{}, false
		}
		return parsed, true
	default:
		return time.Time{}, false
	}
}
