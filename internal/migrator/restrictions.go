package migrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/akrishnanDG/legacy-profile-migrator/internal/logging"
	"github.com/akrishnanDG/legacy-profile-migrator/internal/models"
	"github.com/akrishnanDG/legacy-profile-migrator/internal/phpvalue"
	"github.com/akrishnanDG/legacy-profile-migrator/internal/store"
	"github.com/akrishnanDG/legacy-profile-migrator/internal/validator"
	"github.com/akrishnanDG/legacy-profile-migrator/internal/wordpress"
)

// RestrictionMetaKey is the postmeta key holding UM access settings.
const RestrictionMetaKey = "um_content_restriction"

// Values of _um_accessible
const (
	AccessEveryone  = 0
	AccessLoggedOut = 1
	AccessLoggedIn  = 2
)

// LegacyRestriction is the decoded UM access setting of one post.
type LegacyRestriction struct {
	Accessible       int
	Roles            []string
	NoAccessAction   int
	UseCustomMessage bool
	CustomMessage    string
	// Redirect is 1 for a custom URL, 0 for the login page.
	Redirect    int
	RedirectURL string
}

// ParseRestriction decodes a serialized um_content_restriction value.
func ParseRestriction(raw string) (LegacyRestriction, error) {
	m, err := phpvalue.DecodeMap(raw)
	if err != nil {
		return LegacyRestriction{}, err
	}
	return LegacyRestriction{
		Accessible:       atoi(m["_um_accessible"]),
		Roles:            roleList(m["_um_access_roles"]),
		NoAccessAction:   atoi(m["_um_noaccess_action"]),
		UseCustomMessage: phpvalue.Bool(m["_um_restrict_by_custom_message"]),
		CustomMessage:    phpvalue.String(m["_um_restrict_custom_message"]),
		Redirect:         atoi(m["_um_access_redirect"]),
		RedirectURL:      strings.TrimSpace(phpvalue.String(m["_um_access_redirect_url"])),
	}, nil
}

// roleList accepts both list form (0 => "editor") and UM's checkbox form
// (editor => 1).
func roleList(v interface{}) []string {
	m, ok := v.(map[string]interface{})
	if !ok {
		if s := strings.TrimSpace(phpvalue.String(v)); s != "" {
			return []string{s}
		}
		return nil
	}
	var roles []string
	for _, k := range phpvalue.SortedKeys(m) {
		if _, err := strconv.Atoi(k); err == nil {
			if s := strings.TrimSpace(phpvalue.String(m[k])); s != "" {
				roles = append(roles, s)
			}
			continue
		}
		if phpvalue.Bool(m[k]) {
			roles = append(roles, k)
		}
	}
	return roles
}

func atoi(v interface{}) int {
	n, err := strconv.Atoi(strings.TrimSpace(phpvalue.String(v)))
	if err != nil {
		return 0
	}
	return n
}

// Conversion is the outcome of converting one legacy restriction.
type Conversion struct {
	Restriction *store.ContentRestriction
	// Skip is set when the legacy rule lets everyone in.
	Skip bool
	// RejectedURL is the off-site redirect that was dropped, if any.
	RejectedURL string
}

// ConvertRestriction maps a legacy restriction onto the target model.
// Redirects must stay on siteURL; anything else falls back to a message.
func ConvertRestriction(contentID int64, contentType string, legacy LegacyRestriction, siteURL, loginPath string) Conversion {
	rec := &store.ContentRestriction{
		ContentID:         contentID,
		ContentType:       contentType,
		RestrictionAction: store.ActionMessage,
	}

	switch legacy.Accessible {
	case AccessLoggedOut:
		rec.Visibility = store.VisibilityLoggedOut
	case AccessLoggedIn:
		rec.Visibility = store.VisibilityLoggedIn
		if len(legacy.Roles) > 0 {
			rec.Visibility = store.VisibilityRoleBased
			rec.AllowedRoles = legacy.Roles
		}
	default:
		return Conversion{Skip: true}
	}

	if legacy.UseCustomMessage {
		rec.CustomMessage = legacy.CustomMessage
	}

	if legacy.NoAccessAction != 1 {
		return Conversion{Restriction: rec}
	}

	target := loginPath
	if legacy.Redirect == 1 {
		target = legacy.RedirectURL
	}
	if !validator.IsInternalRedirect(target, siteURL) {
		return Conversion{Restriction: rec, RejectedURL: target}
	}
	rec.RestrictionAction = store.ActionRedirect
	rec.RedirectURL = target
	return Conversion{Restriction: rec}
}

// RestrictionMigrator copies UM content restrictions.
type RestrictionMigrator struct {
	source    *wordpress.Source
	repo      *store.RestrictionRepository
	security  logging.SecurityLogger
	siteURL   string
	loginPath string
}

// NewRestrictionMigrator creates a RestrictionMigrator.
func NewRestrictionMigrator(source *wordpress.Source, repo *store.RestrictionRepository, security logging.SecurityLogger, siteURL, loginPath string) *RestrictionMigrator {
	return &RestrictionMigrator{
		source:    source,
		repo:      repo,
		security:  security,
		siteURL:   siteURL,
		loginPath: loginPath,
	}
}

// Count returns the number of posts carrying a restriction.
func (m *RestrictionMigrator) Count(ctx context.Context) (int64, error) {
	return m.source.CountPostsWithMeta(ctx, RestrictionMetaKey)
}

// Run migrates one page of restricted posts.
func (m *RestrictionMigrator) Run(ctx context.Context, opts models.Options) *models.RestrictionResult {
	result := models.NewRestrictionResult()
	if !m.source.HasTable(ctx, "postmeta") {
		result.AddError("legacy table %s not found", m.source.Table("postmeta"))
		result.BatchComplete = true
		return result
	}

	page := opts.Page()
	ids, err := m.source.PostIDsWithMeta(ctx, RestrictionMetaKey, page)
	if err != nil {
		result.AddError("%s", err)
		result.BatchComplete = true
		return result
	}

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			result.AddError("Post ID %d: %s", id, err)
			continue
		}
		migrated, rejected, err := m.migrateOne(ctx, id)
		switch {
		case err != nil:
			result.AddError("Post ID %d: %s", id, err)
		case !migrated:
			result.Skipped++
		default:
			result.Migrated++
		}
		if rejected {
			result.Rejected++
		}
	}

	result.Advance(page, len(ids))
	slog.Info("Restrictions batch finished", "migrated", result.Migrated, "skipped", result.Skipped,
		"rejected", result.Rejected, "failed", result.Failed())
	return result
}

func (m *RestrictionMigrator) migrateOne(ctx context.Context, postID int64) (migrated, rejected bool, err error) {
	raw, err := m.source.PostMetaValue(ctx, postID, RestrictionMetaKey)
	if err != nil {
		return false, false, err
	}
	legacy, err := ParseRestriction(raw)
	if err != nil {
		return false, false, err
	}
	postType, err := m.source.PostType(ctx, postID)
	if errors.Is(err, models.ErrNotFound) {
		return false, false, fmt.Errorf("post does not exist")
	}
	if err != nil {
		return false, false, err
	}

	conv := ConvertRestriction(postID, postType, legacy, m.siteURL, m.loginPath)
	if conv.Skip {
		return false, false, nil
	}
	if conv.RejectedURL != "" {
		rejected = true
		if m.security != nil {
			m.security.Event(ctx, logging.EventExternalRedirect,
				slog.Int64("post_id", postID),
				slog.String("url", conv.RejectedURL),
			)
		}
	}
	if err := m.repo.Upsert(ctx, conv.Restriction); err != nil {
		return false, rejected, err
	}
	return true, rejected, nil
}

// ResolveSiteURL returns configured, or the siteurl option when empty.
func ResolveSiteURL(ctx context.Context, source *wordpress.Source, configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	v, err := source.Option(ctx, "siteurl")
	if errors.Is(err, models.ErrNotFound) {
		return "", nil
	}
	return v, err
}
