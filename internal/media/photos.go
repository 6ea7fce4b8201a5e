package media

import (
	"context"
	"errors"
	"log/slog"

	"github.com/akrishnanDG/legacy-profile-migrator/internal/logging"
)

// PhotoRequest describes where one legacy photo may live.
type PhotoRequest struct {
	UserID int64
	Kind   string
	// Dir is relative to the uploads directory.
	Dir string
	// Name is the file name recorded in user meta, if any.
	Name string
	// Patterns are tried in order when Name is empty or missing.
	Patterns []string
}

// PhotoMigrator finds legacy photos and stores them. Every failure
// degrades to "no photo".
type PhotoMigrator struct {
	locator  *Locator
	store    Store
	security logging.SecurityLogger
}

// NewPhotoMigrator creates a PhotoMigrator. store may be nil for dry runs.
func NewPhotoMigrator(locator *Locator, store Store, security logging.SecurityLogger) *PhotoMigrator {
	return &PhotoMigrator{locator: locator, store: store, security: security}
}

// Locate returns the path of the legacy photo without copying it.
func (m *PhotoMigrator) Locate(ctx context.Context, req PhotoRequest) (string, bool) {
	p, err := m.find(req)
	if err == nil {
		return p, true
	}
	if errors.Is(err, ErrPathEscape) {
		if m.security != nil {
			m.security.Event(ctx, logging.EventPathEscape,
				slog.Int64("user_id", req.UserID),
				slog.String("kind", req.Kind),
				slog.String("dir", req.Dir),
				slog.String("name", req.Name),
				slog.String("error", err.Error()),
			)
		}
		return "", false
	}
	slog.Debug("No legacy photo", "user_id", req.UserID, "kind", req.Kind, "error", err)
	return "", false
}

// Migrate copies the legacy photo to the store and returns its reference.
func (m *PhotoMigrator) Migrate(ctx context.Context, req PhotoRequest) (string, bool) {
	src, ok := m.Locate(ctx, req)
	if !ok || m.store == nil {
		return "", false
	}
	ref, err := m.store.Put(ctx, req.UserID, req.Kind, src)
	if err != nil {
		slog.Warn("Failed to store photo", "user_id", req.UserID, "kind", req.Kind, "error", err)
		return "", false
	}
	return ref, true
}

func (m *PhotoMigrator) find(req PhotoRequest) (string, error) {
	if req.Name != "" {
		p, err := m.locator.File(req.Dir, req.Name)
		if err == nil || errors.Is(err, ErrPathEscape) {
			return p, err
		}
	}
	return m.locator.FindImage(req.Dir, req.Patterns...)
}
