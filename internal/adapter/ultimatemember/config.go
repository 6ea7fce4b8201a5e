package ultimatemember

import (
	"github.com/akrishnanDG/legacy-profile-migrator/internal/mapper"
	"github.com/akrishnanDG/legacy-profile-migrator/internal/transform"
)

// Config is the static knowledge the adapter needs about Ultimate Member
// storage. It is injected so tests and custom installs can swap it.
type Config struct {
	DefaultMapping mapper.Table
	// StatusKey marks UM users and carries their account status.
	StatusKey string
	// FormFieldsKey is the postmeta key holding UM form definitions.
	FormFieldsKey string
	// ExcludedKeys are WordPress core and UM internal meta keys that are
	// never offered as custom fields.
	ExcludedKeys []string
	// ExcludedPrefixes are matched against the start of a meta key.
	ExcludedPrefixes []string
}

// DefaultConfig returns the configuration for a stock Ultimate Member install.
func DefaultConfig() Config {
	return Config{
		DefaultMapping: DefaultMapping(),
		StatusKey:      "account_status",
		FormFieldsKey:  "_um_custom_fields",
		ExcludedKeys: []string{
			// WordPress core
			"nickname", "first_name", "last_name", "description",
			"rich_editing", "syntax_highlighting", "comment_shortcuts",
			"admin_color", "use_ssl", "show_admin_bar_front", "locale",
			"dismissed_wp_pointers", "show_welcome_panel", "session_tokens",
			"community-events-location", "default_password_nag",
			"primary_blog", "source_domain", "last_update",
			// Ultimate Member
			"account_status", "account_status_name", "full_name",
			"profile_photo", "cover_photo", "synced_profile_photo",
			"synced_gravatar_hashed_id", "submitted", "form_id", "timestamp",
			"role", "reset_pass_hash", "reset_pass_hash_token",
		},
		ExcludedPrefixes: []string{
			"_", "um_", "closedpostboxes_", "metaboxhidden_",
			"meta-box-order_", "screen_layout_", "manageedit-",
			"managenav-", "wp_persisted_preferences",
		},
	}
}

// DefaultMapping is the auto-applied UM usermeta mapping.
func DefaultMapping() mapper.Table {
	return mapper.Table{
		"phone_number":         mapper.Direct("phone"),
		"mobile_number":        mapper.Direct("mobile_phone"),
		"birth_date":           mapper.Direct("date_of_birth"),
		"gender":               mapper.Direct("gender"),
		"country":              mapper.Direct("country"),
		"description":          mapper.Direct("bio"),
		"secondary_user_email": mapper.Direct("secondary_email"),
		"facebook":             mapper.Direct("facebook"),
		"twitter":              mapper.Direct("twitter"),
		"linkedin":             mapper.Direct("linkedin"),
		"instagram":            mapper.Direct("instagram"),
		"youtube":              mapper.Direct("youtube"),
		"soundcloud":           mapper.Direct("soundcloud"),
		"tiktok":               mapper.Direct("tiktok"),
		"twitch":               mapper.Direct("twitch"),
		"reddit":               mapper.Direct("reddit"),
		"discord":              mapper.Direct("discord_username"),
		"telegram":             mapper.Direct("telegram"),
		"whatsapp":             mapper.Direct("whatsapp"),
		"viber":                mapper.Direct("viber"),
		"_um_last_login": mapper.WithTransform("last_login_at",
			transform.Builtin(transform.TimestampToDatetime), mapper.DefaultPriority),
		"account_status": mapper.WithTransform("is_verified",
			transform.Builtin(transform.StatusToVerified), mapper.DefaultPriority),
	}
}
