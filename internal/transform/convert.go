package transform

import (
	"strings"

	"github.com/araddon/dateparse"

	"github.com/akrishnanDG/legacy-profile-migrator/internal/models"
	"github.com/akrishnanDG/legacy-profile-migrator/internal/phpvalue"
)

// DateLayout is the format of date columns in the target schema.
const DateLayout = "2006-01-02"

// Convert applies the conversion policy of a target field class to a raw
// legacy value. Serialized arrays are flattened first.
func Convert(class models.FieldClass, raw string) interface{} {
	value := phpvalue.Flatten(raw)

	switch class {
	case models.ClassDate:
		return Date(value)
	case models.ClassRichText:
		return RichText(value)
	case models.ClassEmail:
		return Email(value)
	case models.ClassURL:
		return URL(value)
	case models.ClassStatus:
		return strings.TrimSpace(value)
	default:
		return Text(value)
	}
}

// Date normalizes a date to YYYY-MM-DD. Values that do not parse are kept
// as sanitized text.
func Date(s string) string {
	s = Text(s)
	if s == "" {
		return ""
	}
	t, err := dateparse.ParseAny(s)
	if err != nil {
		return s
	}
	return t.Format(DateLayout)
}
