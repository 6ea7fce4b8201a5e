// Package phpvalue decodes the PHP-serialized strings WordPress stores in
// meta and option tables.
package phpvalue

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/elliotchance/phpserialize"
)

var serializedPattern = regexp.MustCompile(`^(a:\d+:\{|s:\d+:"|i:-?\d+;|d:-?[\d.Ee+-]+;|b:[01];|N;)`)

// IsSerialized reports whether raw looks like a PHP-serialized value.
func IsSerialized(raw string) bool {
	return serializedPattern.MatchString(strings.TrimSpace(raw))
}

// Decode unserializes raw. Non-serialized input is returned unchanged as a string.
func Decode(raw string) (interface{}, error) {
	trimmed := strings.TrimSpace(raw)
	if !IsSerialized(trimmed) {
		return raw, nil
	}
	if strings.HasPrefix(trimmed, "a:") {
		m, err := phpserialize.UnmarshalAssociativeArray([]byte(trimmed))
		if err != nil {
			return nil, fmt.Errorf("failed to unserialize array: %w", err)
		}
		return normalize(m), nil
	}
	data := []byte(trimmed)
	var (
		v   interface{}
		err error
	)
	switch trimmed[0] {
	case 's':
		v, err = phpserialize.UnmarshalString(data)
	case 'i':
		v, err = phpserialize.UnmarshalInt(data)
	case 'd':
		v, err = phpserialize.UnmarshalFloat(data)
	case 'b':
		v, err = phpserialize.UnmarshalBool(data)
	case 'N':
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to unserialize value: %w", err)
	}
	return v, nil
}

// DecodeMap unserializes raw into a string-keyed map. Scalars and
// malformed input yield an error.
func DecodeMap(raw string) (map[string]interface{}, error) {
	v, err := Decode(raw)
	if err != nil {
		return nil, err
	}
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("expected serialized array, got %T", v)
	}
	return m, nil
}

// Flatten renders raw as plain text. Arrays are joined with ", " in key
// order; anything that fails to decode is returned as-is.
func Flatten(raw string) string {
	if !IsSerialized(raw) {
		return raw
	}
	v, err := Decode(raw)
	if err != nil {
		return raw
	}
	return strings.Join(Strings(v), ", ")
}

// Strings returns the non-empty scalar leaves of v in key order.
func Strings(v interface{}) []string {
	switch t := v.(type) {
	case nil:
		return nil
	case map[string]interface{}:
		var out []string
		for _, k := range SortedKeys(t) {
			out = append(out, Strings(t[k])...)
		}
		return out
	default:
		s := String(t)
		if s == "" {
			return nil
		}
		return []string{s}
	}
}

// String renders a decoded scalar the way PHP would cast it to string.
func String(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		if t {
			return "1"
		}
		return ""
	case int64:
		return strconv.FormatInt(t, 10)
	case int:
		return strconv.Itoa(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case map[string]interface{}:
		return strings.Join(Strings(t), ", ")
	default:
		return fmt.Sprint(t)
	}
}

// Bool reports whether a decoded value is truthy in the PHP sense.
func Bool(v interface{}) bool {
	s := String(v)
	return s != "" && s != "0"
}

// SortedKeys orders array keys the way PHP lists iterate them: numeric
// keys ascending, then string keys lexically.
func SortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.SliceStable(keys, func(i, j int) bool {
		ni, errI := strconv.Atoi(keys[i])
		nj, errJ := strconv.Atoi(keys[j])
		switch {
		case errI == nil && errJ == nil:
			return ni < nj
		case errI == nil:
			return true
		case errJ == nil:
			return false
		default:
			return keys[i] < keys[j]
		}
	})
	return keys
}

func normalize(v interface{}) interface{} {
	switch t := v.(type) {
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = normalize(val)
		}
		return out
	case []interface{}:
		out := make(map[string]interface{}, len(t))
		for i, val := range t {
			out[strconv.Itoa(i)] = normalize(val)
		}
		return out
	default:
		return v
	}
}
