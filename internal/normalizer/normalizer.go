package normalizer

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
)

var (
	suggestionPrefix = regexp.MustCompile(`^(user_|um_|_um_|custom_)`)
	suggestionSuffix = regexp.MustCompile(`(_field|_value|_data)$`)
	separatorRun     = regexp.MustCompile(`[_\-\s]+`)
)

// FieldKey normalizes a legacy field name or label to a snake_case key.
// "Zip Code", "zipCode" and "zip-code" all become "zip_code".
func FieldKey(name string) string {
	return toSnakeCase(replaceInvalidChars(strings.TrimSpace(name)))
}

// Slug normalizes a plugin name to its kebab-case slug.
func Slug(name string) string {
	return toKebabCase(replaceInvalidChars(strings.TrimSpace(name)))
}

// ForSuggestion strips one known prefix and one known suffix, turns
// separators into single spaces and lowercases the result.
func ForSuggestion(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = suggestionPrefix.ReplaceAllString(s, "")
	s = suggestionSuffix.ReplaceAllString(s, "")
	s = separatorRun.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Humanize turns a field key into a display label.
func Humanize(key string) string {
	words := strings.Fields(separatorRun.ReplaceAllString(strings.Trim(key, "_- "), " "))
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// replaceInvalidChars maps anything outside letters and digits to a separator
func replaceInvalidChars(name string) string {
	var builder strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			builder.WriteRune(r)
		} else {
			builder.WriteRune('_')
		}
	}
	return builder.String()
}

// toKebabCase converts a string to kebab-case
func toKebabCase(s string) string {
	return strings.ReplaceAll(toSnakeCase(s), "_", "-")
}

// toSnakeCase converts a string to snake_case
func toSnakeCase(s string) string {
	var result strings.Builder
	var prevWasUpper bool
	var prevWasSeparator bool

	for i, r := range s {
		isUpper := unicode.IsUpper(r)
		isSeparator := r == '_' || r == '-' || r == ' '

		if isSeparator {
			if !prevWasSeparator && result.Len() > 0 {
				result.WriteRune('_')
			}
			prevWasSeparator = true
			prevWasUpper = false
			continue
		}

		if isUpper {
			// camelCase transition, not an acronym run
			if i > 0 && !prevWasUpper && !prevWasSeparator {
				result.WriteRune('_')
			}
		}

		result.WriteRune(unicode.ToLower(r))
		prevWasUpper = isUpper
		prevWasSeparator = false
	}

	snake := result.String()
	for strings.Contains(snake, "__") {
		snake = strings.ReplaceAll(snake, "__", "_")
	}
	snake = strings.Trim(snake, "_")

	return snake
}

// Collision is a target claimed by more than one source at the same priority.
type Collision struct {
	Target   string
	Priority int
	Sources  []string
}

// Claim is one source-to-target edge of a mapping table.
type Claim struct {
	Source   string
	Target   string
	Priority int
}

// DetectCollisions finds targets that several sources claim with equal
// priority. Such sources race on input order.
func DetectCollisions(claims []Claim) []Collision {
	type key struct {
		target   string
		priority int
	}
	grouped := make(map[key][]string)
	for _, c := range claims {
		if c.Target == "" {
			continue
		}
		k := key{c.Target, c.Priority}
		grouped[k] = append(grouped[k], c.Source)
	}

	var collisions []Collision
	for k, sources := range grouped {
		if len(sources) > 1 {
			sort.Strings(sources)
			collisions = append(collisions, Collision{
				Target:   k.target,
				Priority: k.priority,
				Sources:  sources,
			})
		}
	}
	sort.Slice(collisions, func(i, j int) bool {
		if collisions[i].Target != collisions[j].Target {
			return collisions[i].Target < collisions[j].Target
		}
		return collisions[i].Priority < collisions[j].Priority
	})

	return collisions
}
