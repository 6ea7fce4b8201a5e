package transform

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akrishnanDG/legacy-profile-migrator/internal/models"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		expected Kind
	}{
		{"sanitize_text_field", SanitizeText},
		{"sanitize_text", SanitizeText},
		{"sanitize_textarea_field", SanitizeTextarea},
		{"sanitize_email", SanitizeEmail},
		{"esc_url_raw", SanitizeURL},
		{"sanitize_url", SanitizeURL},
		{"um_account_status_to_verified", StatusToVerified},
		{"status_to_verified", StatusToVerified},
		{"timestamp_to_datetime", TimestampToDatetime},
		{"", None},
		{"none", None},
		{"not_a_transform", None},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Parse(tt.name).Kind(); got != tt.expected {
				t.Errorf("Parse(%q).Kind() = %v, expected %v", tt.name, got, tt.expected)
			}
		})
	}
}

func TestUnknownTransformPassesThrough(t *testing.T) {
	tr := Parse("my_custom_thing")
	assert.Equal(t, "my_custom_thing", tr.Name())
	assert.Equal(t, "<b>raw</b>", tr.Apply("<b>raw</b>"))
}

func TestRegistry_Custom(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register("upper", func(v interface{}) interface{} {
		return strings.ToUpper(v.(string))
	}))

	tr := reg.Resolve("upper")
	assert.Equal(t, Custom, tr.Kind())
	assert.Equal(t, "ABC", tr.Apply("abc"))
	assert.True(t, reg.Known("upper"))
	assert.False(t, reg.Known("lower"))
	assert.Contains(t, reg.Names(), "upper")
}

func TestRegistry_RejectsBuiltinOverride(t *testing.T) {
	reg := NewRegistry()
	err := reg.Register("sanitize_email", func(v interface{}) interface{} { return v })
	assert.Error(t, err)
	assert.Error(t, reg.Register("", func(v interface{}) interface{} { return v }))
	assert.Error(t, reg.Register("nil_fn", nil))
}

func TestText(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"  Hello  ", "Hello"},
		{"<b>Bold</b> move", "Bold move"},
		{"line one\nline two", "line one line two"},
		{"tabs\t\tand   spaces", "tabs and spaces"},
		{"<script>alert(1)</script>Name", "Name"},
		{"Tom &amp; Jerry", "Tom & Jerry"},
		{"&lt;script&gt;alert(1)&lt;/script&gt;Name", "Name"},
		{"&amp;lt;b&amp;gt;Bold&amp;lt;/b&amp;gt;", "Bold"},
		{"a &lt; b", "a < b"},
		{"100%20off", "100off"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Text(tt.input); got != tt.expected {
				t.Errorf("Text(%q) = %q, expected %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestTextarea_KeepsLineBreaks(t *testing.T) {
	got := Textarea("first\r\nsecond <i>line</i>\n")
	assert.Equal(t, "first\nsecond line", got)
	got = Textarea("&lt;script&gt;alert(1)&lt;/script&gt;Name\n&lt;b&gt;next&lt;/b&gt;")
	assert.Equal(t, "Name\nnext", got)
	assert.NotContains(t, got, "<")
}

func TestRichText(t *testing.T) {
	got := RichText(`<p>Hello <a href="https://example.com">there</a></p><script>alert(1)</script>`)
	assert.Contains(t, got, "<p>")
	assert.Contains(t, got, `href="https://example.com"`)
	assert.NotContains(t, got, "script")
}

func TestEmail(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"user@example.com", "user@example.com"},
		{"  user@example.com ", "user@example.com"},
		{"us<er>@example.com", "user@example.com"},
		{"user@sub.example.co.uk", "user@sub.example.co.uk"},
		{"not-an-email", ""},
		{"a@b", ""},
		{"@example.com", ""},
		{"user@localhost", ""},
		{"user@@example.com", ""},
		{"user@exa..mple.com", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Email(tt.input); got != tt.expected {
				t.Errorf("Email(%q) = %q, expected %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestURL(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"https://example.com/me", "https://example.com/me"},
		{"example.com", "http://example.com"},
		{"twitter.com/jane", "http://twitter.com/jane"},
		{"localhost:8080/x", "http://localhost:8080/x"},
		{"/relative/path", "/relative/path"},
		{"mailto:jane@example.com", "mailto:jane@example.com"},
		{"tel:5551234", "tel:5551234"},
		{"javascript:alert(1)", ""},
		{"data:text/html,hi", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := URL(tt.input); got != tt.expected {
				t.Errorf("URL(%q) = %q, expected %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestStatusToVerified(t *testing.T) {
	tr := Builtin(StatusToVerified)
	assert.Equal(t, 1, tr.Apply("approved"))
	assert.Equal(t, 0, tr.Apply("rejected"))
	assert.Equal(t, 0, tr.Apply("awaiting_admin_review"))
	assert.Equal(t, 0, tr.Apply(""))
	assert.Equal(t, 0, tr.Apply(nil))
	assert.Equal(t, 0, tr.Apply(" approved"))
	assert.Equal(t, 0, tr.Apply("Approved"))
}

func TestTimestampToDatetime(t *testing.T) {
	tr := Builtin(TimestampToDatetime)
	assert.Equal(t, "2023-11-14 22:13:20", tr.Apply("1700000000"))
	assert.Nil(t, tr.Apply(int64(0)))
	assert.Nil(t, tr.Apply(0))
	assert.Nil(t, tr.Apply("0"))
	assert.Nil(t, tr.Apply(" 0 "))
	assert.Nil(t, tr.Apply(""))
	assert.Nil(t, tr.Apply(nil))
	assert.Nil(t, tr.Apply("yesterday"))
}

func TestConvert(t *testing.T) {
	tests := []struct {
		name     string
		class    models.FieldClass
		raw      string
		expected interface{}
	}{
		{"date iso", models.ClassDate, "1990-05-12", "1990-05-12"},
		{"date slashes", models.ClassDate, "05/12/1990", "1990-05-12"},
		{"date unparseable", models.ClassDate, "sometime in May", "sometime in May"},
		{"serialized list", models.ClassText, `a:2:{i:0;s:3:"Red";i:1;s:4:"Blue";}`, "Red, Blue"},
		{"email", models.ClassEmail, " jane@example.com ", "jane@example.com"},
		{"bad email", models.ClassEmail, "jane", ""},
		{"url", models.ClassURL, "example.org", "http://example.org"},
		{"text strips tags", models.ClassText, "<em>Acme</em> Corp", "Acme Corp"},
		{"text strips encoded tags", models.ClassText, "&lt;script&gt;alert(1)&lt;/script&gt;Acme", "Acme"},
		{"status passes", models.ClassStatus, " approved ", "approved"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Convert(tt.class, tt.raw))
		})
	}
}
