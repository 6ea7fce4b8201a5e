// Package wordpress reads legacy WordPress tables. It never writes to them.
package wordpress

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/akrishnanDG/legacy-profile-migrator/internal/models"
	"github.com/akrishnanDG/legacy-profile-migrator/internal/phpvalue"
)

// Source is a read-only view over one WordPress installation.
type Source struct {
	db     *gorm.DB
	prefix string
}

// New creates a Source reading tables named prefix+name.
func New(db *gorm.DB, prefix string) *Source {
	return &Source{db: db, prefix: prefix}
}

// Prefix returns the table prefix.
func (s *Source) Prefix() string {
	return s.prefix
}

// Table returns the full name of a WordPress table.
func (s *Source) Table(name string) string {
	return s.prefix + name
}

// HasTable reports whether a WordPress table exists.
func (s *Source) HasTable(ctx context.Context, name string) bool {
	return s.db.WithContext(ctx).Migrator().HasTable(s.Table(name))
}

func (s *Source) table(ctx context.Context, name string) *gorm.DB {
	return s.db.WithContext(ctx).Table(s.Table(name))
}

// UserExists reports whether a row exists in the users table.
func (s *Source) UserExists(ctx context.Context, userID int64) (bool, error) {
	var count int64
	if err := s.table(ctx, "users").Where("ID = ?", userID).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to look up user %d: %w", userID, err)
	}
	return count > 0, nil
}

// UserLogin returns the login name of a user.
func (s *Source) UserLogin(ctx context.Context, userID int64) (string, error) {
	var logins []string
	if err := s.table(ctx, "users").Where("ID = ?", userID).Limit(1).Pluck("user_login", &logins).Error; err != nil {
		return "", fmt.Errorf("failed to read login of user %d: %w", userID, err)
	}
	if len(logins) == 0 {
		return "", models.ErrNotFound
	}
	return logins[0], nil
}

// CountUsersWithMeta counts users carrying at least one of keys.
func (s *Source) CountUsersWithMeta(ctx context.Context, keys []string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	var count int64
	err := s.table(ctx, "usermeta").
		Where("meta_key IN ?", keys).
		Distinct("user_id").
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

// UserIDsWithMeta returns one page of distinct user IDs carrying at least
// one of keys, ascending.
func (s *Source) UserIDsWithMeta(ctx context.Context, keys []string, page models.Page) ([]int64, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	q := s.table(ctx, "usermeta").Where("meta_key IN ?", keys)
	var ids []int64
	if err := paged(q, "user_id", page).Pluck("user_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return ids, nil
}

func paged(q *gorm.DB, column string, page models.Page) *gorm.DB {
	q = q.Distinct(column).Order(column + " ASC")
	if page.Keyset() {
		q = q.Where(column+" > ?", page.AfterID)
	}
	if page.Unbounded() {
		return q
	}
	q = q.Limit(page.Limit)
	if !page.Keyset() && page.Offset > 0 {
		q = q.Offset(page.Offset)
	}
	return q
}

type metaRow struct {
	MetaKey   string
	MetaValue string
}

// UserMeta returns every meta row of a user in insertion order. A key that
// appears more than once keeps its first value.
func (s *Source) UserMeta(ctx context.Context, userID int64) ([]models.FieldValue, error) {
	var rows []metaRow
	err := s.table(ctx, "usermeta").
		Select("meta_key, COALESCE(meta_value, '') AS meta_value").
		Where("user_id = ?", userID).
		Order("umeta_id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to read meta of user %d: %w", userID, err)
	}

	seen := make(map[string]bool, len(rows))
	out := make([]models.FieldValue, 0, len(rows))
	for _, r := range rows {
		if seen[r.MetaKey] {
			continue
		}
		seen[r.MetaKey] = true
		out = append(out, models.FieldValue{Source: r.MetaKey, Value: r.MetaValue})
	}
	return out, nil
}

// UserMetaValue returns one meta value of a user.
func (s *Source) UserMetaValue(ctx context.Context, userID int64, key string) (string, error) {
	var values []string
	err := s.table(ctx, "usermeta").
		Select("COALESCE(meta_value, '')").
		Where("user_id = ? AND meta_key = ?", userID, key).
		Order("umeta_id ASC").
		Limit(1).
		Scan(&values).Error
	if err != nil {
		return "", fmt.Errorf("failed to read %s of user %d: %w", key, userID, err)
	}
	if len(values) == 0 {
		return "", models.ErrNotFound
	}
	return values[0], nil
}

// MetaKeysForUsersWith returns the distinct meta keys of every user that
// carries the marker key, sorted.
func (s *Source) MetaKeysForUsersWith(ctx context.Context, marker string) ([]string, error) {
	users := s.table(ctx, "usermeta").Select("user_id").Where("meta_key = ?", marker)
	var keys []string
	err := s.table(ctx, "usermeta").
		Where("user_id IN (?)", users).
		Distinct("meta_key").
		Order("meta_key ASC").
		Pluck("meta_key", &keys).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list meta keys: %w", err)
	}
	return keys, nil
}

// MetaSamples returns up to limit distinct non-empty values of a meta key.
func (s *Source) MetaSamples(ctx context.Context, key string, limit int) ([]string, error) {
	var values []string
	err := s.table(ctx, "usermeta").
		Where("meta_key = ? AND meta_value IS NOT NULL AND meta_value <> ''", key).
		Distinct("meta_value").
		Order("meta_value ASC").
		Limit(limit).
		Pluck("meta_value", &values).Error
	if err != nil {
		return nil, fmt.Errorf("failed to sample %s: %w", key, err)
	}
	return values, nil
}

// Option returns a raw value from the options table.
func (s *Source) Option(ctx context.Context, name string) (string, error) {
	var values []string
	err := s.table(ctx, "options").
		Select("COALESCE(option_value, '')").
		Where("option_name = ?", name).
		Limit(1).
		Scan(&values).Error
	if err != nil {
		return "", fmt.Errorf("failed to read option %s: %w", name, err)
	}
	if len(values) == 0 {
		return "", models.ErrNotFound
	}
	return values[0], nil
}

// PluginActive reports whether pluginFile (e.g. "buddypress/bp-loader.php")
// is listed in the active_plugins option.
func (s *Source) PluginActive(ctx context.Context, pluginFile string) (bool, error) {
	raw, err := s.Option(ctx, "active_plugins")
	if errors.Is(err, models.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	plugins, err := phpvalue.Decode(raw)
	if err != nil {
		return false, fmt.Errorf("failed to decode active_plugins: %w", err)
	}
	for _, p := range phpvalue.Strings(plugins) {
		if strings.EqualFold(p, pluginFile) {
			return true, nil
		}
	}
	return false, nil
}

// PostIDsWithMeta returns one page of distinct post IDs carrying key.
func (s *Source) PostIDsWithMeta(ctx context.Context, key string, page models.Page) ([]int64, error) {
	q := s.table(ctx, "postmeta").Where("meta_key = ?", key)
	var ids []int64
	if err := paged(q, "post_id", page).Pluck("post_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return ids, nil
}

// CountPostsWithMeta counts distinct posts carrying key.
func (s *Source) CountPostsWithMeta(ctx context.Context, key string) (int64, error) {
	var count int64
	err := s.table(ctx, "postmeta").Where("meta_key = ?", key).Distinct("post_id").Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count posts: %w", err)
	}
	return count, nil
}

// PostMetaValue returns one meta value of a post.
func (s *Source) PostMetaValue(ctx context.Context, postID int64, key string) (string, error) {
	var values []string
	err := s.table(ctx, "postmeta").
		Select("COALESCE(meta_value, '')").
		Where("post_id = ? AND meta_key = ?", postID, key).
		Order("meta_id ASC").
		Limit(1).
		Scan(&values).Error
	if err != nil {
		return "", fmt.Errorf("failed to read %s of post %d: %w", key, postID, err)
	}
	if len(values) == 0 {
		return "", models.ErrNotFound
	}
	return values[0], nil
}

// PostMetaByKey returns every value stored under key across all posts.
func (s *Source) PostMetaByKey(ctx context.Context, key string) ([]string, error) {
	var values []string
	err := s.table(ctx, "postmeta").
		Where("meta_key = ?", key).
		Order("meta_id ASC").
		Pluck("meta_value", &values).Error
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return values, nil
}

// PostType returns the post_type of a post.
func (s *Source) PostType(ctx context.Context, postID int64) (string, error) {
	var types []string
	if err := s.table(ctx, "posts").Where("ID = ?", postID).Limit(1).Pluck("post_type", &types).Error; err != nil {
		return "", fmt.Errorf("failed to read post %d: %w", postID, err)
	}
	if len(types) == 0 {
		return "", models.ErrNotFound
	}
	return types[0], nil
}
