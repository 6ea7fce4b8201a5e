// Package wptest builds throwaway WordPress databases for tests.
package wptest

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/akrishnanDG/legacy-profile-migrator/internal/store"
)

// Prefix is the WordPress table prefix used by Site.
const Prefix = "wp_"

// TargetPrefix is the prefix of the target tables.
const TargetPrefix = "nbuf_"

var seq atomic.Int64

var schema = []string{
	`CREATE TABLE %susers (
		ID INTEGER PRIMARY KEY,
		user_login TEXT NOT NULL DEFAULT '',
		user_email TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE %susermeta (
		umeta_id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL DEFAULT 0,
		meta_key TEXT,
		meta_value TEXT
	)`,
	`CREATE TABLE %soptions (
		option_id INTEGER PRIMARY KEY AUTOINCREMENT,
		option_name TEXT NOT NULL UNIQUE,
		option_value TEXT NOT NULL DEFAULT '',
		autoload TEXT NOT NULL DEFAULT 'yes'
	)`,
	`CREATE TABLE %sposts (
		ID INTEGER PRIMARY KEY,
		post_type TEXT NOT NULL DEFAULT 'post',
		post_title TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE %spostmeta (
		meta_id INTEGER PRIMARY KEY AUTOINCREMENT,
		post_id INTEGER NOT NULL DEFAULT 0,
		meta_key TEXT,
		meta_value TEXT
	)`,
}

var xprofileSchema = []string{
	`CREATE TABLE %sbp_xprofile_fields (
		id INTEGER PRIMARY KEY,
		group_id INTEGER NOT NULL DEFAULT 1,
		parent_id INTEGER NOT NULL DEFAULT 0,
		type TEXT NOT NULL DEFAULT 'textbox',
		name TEXT NOT NULL,
		description TEXT,
		field_order INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE %sbp_xprofile_data (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		field_id INTEGER NOT NULL,
		user_id INTEGER NOT NULL,
		value TEXT
	)`,
}

// Site is an in-memory WordPress database that also holds the target tables.
type Site struct {
	DB *gorm.DB
	// DSN opens the same database from another handle while Site is alive.
	DSN string
	t   testing.TB
}

// New creates a Site with the core WordPress tables and the target schema.
func New(t testing.TB) *Site {
	t.Helper()
	dsn := fmt.Sprintf("file:wptest_%d?mode=memory&cache=shared", seq.Add(1))
	db, err := store.Open("sqlite", dsn, TargetPrefix)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(db) })

	s := &Site{DB: db, DSN: dsn, t: t}
	s.create(schema)
	require.NoError(t, store.AutoMigrate(context.Background(), db))
	return s
}

// WithXProfile adds the BuddyPress extended profile tables.
func (s *Site) WithXProfile() *Site {
	s.create(xprofileSchema)
	return s
}

func (s *Site) create(stmts []string) {
	s.t.Helper()
	for _, stmt := range stmts {
		require.NoError(s.t, s.DB.Exec(fmt.Sprintf(stmt, Prefix)).Error)
	}
}

func (s *Site) exec(sql string, args ...interface{}) {
	s.t.Helper()
	require.NoError(s.t, s.DB.Exec(sql, args...).Error)
}

// AddUser inserts a users row.
func (s *Site) AddUser(id int64, login string) *Site {
	s.exec("INSERT INTO "+Prefix+"users (ID, user_login, user_email) VALUES (?, ?, ?)",
		id, login, login+"@example.com")
	return s
}

// AddUserMeta inserts a usermeta row.
func (s *Site) AddUserMeta(userID int64, key, value string) *Site {
	s.exec("INSERT INTO "+Prefix+"usermeta (user_id, meta_key, meta_value) VALUES (?, ?, ?)",
		userID, key, value)
	return s
}

// AddOption inserts an options row.
func (s *Site) AddOption(name, value string) *Site {
	s.exec("INSERT INTO "+Prefix+"options (option_name, option_value) VALUES (?, ?)", name, value)
	return s
}

// AddPost inserts a posts row.
func (s *Site) AddPost(id int64, postType string) *Site {
	s.exec("INSERT INTO "+Prefix+"posts (ID, post_type, post_title) VALUES (?, ?, ?)",
		id, postType, fmt.Sprintf("Post %d", id))
	return s
}

// AddPostMeta inserts a postmeta row.
func (s *Site) AddPostMeta(postID int64, key, value string) *Site {
	s.exec("INSERT INTO "+Prefix+"postmeta (post_id, meta_key, meta_value) VALUES (?, ?, ?)",
		postID, key, value)
	return s
}

// AddXProfileField inserts a top-level xprofile field.
func (s *Site) AddXProfileField(id int64, name, fieldType string) *Site {
	s.exec("INSERT INTO "+Prefix+"bp_xprofile_fields (id, parent_id, type, name, field_order) VALUES (?, 0, ?, ?, ?)",
		id, fieldType, name, id)
	return s
}

// AddXProfileOption inserts an option row under a select field.
func (s *Site) AddXProfileOption(id, parentID int64, name string) *Site {
	s.exec("INSERT INTO "+Prefix+"bp_xprofile_fields (id, parent_id, type, name) VALUES (?, ?, 'option', ?)",
		id, parentID, name)
	return s
}

// AddXProfileData inserts a value of a field for a user.
func (s *Site) AddXProfileData(fieldID, userID int64, value string) *Site {
	s.exec("INSERT INTO "+Prefix+"bp_xprofile_data (field_id, user_id, value) VALUES (?, ?, ?)",
		fieldID, userID, value)
	return s
}

// KV is one entry of a serialized PHP array.
type KV struct {
	Key   string
	Value interface{}
}

// Serialize renders v the way PHP's serialize() does. It supports string,
// int, bool, nil, []string (a list) and []KV (an ordered array).
func Serialize(v interface{}) string {
	var b strings.Builder
	serialize(&b, v)
	return b.String()
}

func serialize(b *strings.Builder, v interface{}) {
	switch t := v.(type) {
	case nil:
		b.WriteString("N;")
	case string:
		fmt.Fprintf(b, "s:%d:\"%s\";", len(t), t)
	case int:
		fmt.Fprintf(b, "i:%d;", t)
	case bool:
		if t {
			b.WriteString("b:1;")
		} else {
			b.WriteString("b:0;")
		}
	case []string:
		fmt.Fprintf(b, "a:%d:{", len(t))
		for i, s := range t {
			fmt.Fprintf(b, "i:%d;", i)
			serialize(b, s)
		}
		b.WriteString("}")
	case []KV:
		fmt.Fprintf(b, "a:%d:{", len(t))
		for _, kv := range t {
			if n, err := strconv.Atoi(kv.Key); err == nil {
				fmt.Fprintf(b, "i:%d;", n)
			} else {
				serialize(b, kv.Key)
			}
			serialize(b, kv.Value)
		}
		b.WriteString("}")
	default:
		panic(fmt.Sprintf("wptest: cannot serialize %T", v))
	}
}
