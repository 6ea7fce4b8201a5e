package mapper

import (
	"sort"
	"strings"

	"github.com/akrishnanDG/legacy-profile-migrator/internal/models"
	"github.com/akrishnanDG/legacy-profile-migrator/internal/transform"
)

// FieldMapper resolves legacy field keys to target fields and converts
// their values. It is not safe for concurrent use; adapters create one
// per imported user.
type FieldMapper struct {
	targets  *models.TargetRegistry
	mappings Table
	unmapped []string
	seen     map[string]bool
}

// New creates a FieldMapper over the given target registry.
func New(targets *models.TargetRegistry) *FieldMapper {
	if targets == nil {
		targets = models.DefaultTargets()
	}
	return &FieldMapper{
		targets:  targets,
		mappings: Table{},
		seen:     make(map[string]bool),
	}
}

// SetMappings replaces the mapping table.
func (m *FieldMapper) SetMappings(t Table) {
	m.mappings = t.Clone()
}

// Mappings returns a copy of the mapping table.
func (m *FieldMapper) Mappings() Table {
	return m.mappings.Clone()
}

// Targets returns the target registry.
func (m *FieldMapper) Targets() *models.TargetRegistry {
	return m.targets
}

// MapField maps one value. It returns ok=false, and records the source as
// unmapped, when no mapping exists for it.
func (m *FieldMapper) MapField(source string, value interface{}) (string, interface{}, bool) {
	mapping, ok := m.mappings[source]
	if !ok || mapping.Target == "" {
		m.recordUnmapped(source)
		return "", nil, false
	}
	return mapping.Target, m.convert(mapping, value), true
}

// MapAll maps a set of values. Mappings apply in ascending priority, then
// input order; a target that already holds a non-empty value is never
// overwritten. Unmapped sources are returned in first-seen order.
func (m *FieldMapper) MapAll(values []models.FieldValue) (map[string]interface{}, []string) {
	type candidate struct {
		source  string
		value   string
		mapping Mapping
	}

	var candidates []candidate
	var unmapped []string
	seen := make(map[string]bool)
	for _, v := range values {
		mapping, ok := m.mappings[v.Source]
		if !ok || mapping.Target == "" {
			m.recordUnmapped(v.Source)
			if !seen[v.Source] {
				seen[v.Source] = true
				unmapped = append(unmapped, v.Source)
			}
			continue
		}
		candidates = append(candidates, candidate{source: v.Source, value: v.Value, mapping: mapping})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].mapping.Priority < candidates[j].mapping.Priority
	})

	result := make(map[string]interface{})
	for _, c := range candidates {
		if existing, ok := result[c.mapping.Target]; ok && !IsEmpty(existing) {
			continue
		}
		converted := m.convert(c.mapping, c.value)
		if IsEmpty(converted) {
			continue
		}
		result[c.mapping.Target] = converted
	}

	return result, unmapped
}

// UnmappedFields returns every source seen without a mapping, deduplicated,
// in first-seen order.
func (m *FieldMapper) UnmappedFields() []string {
	out := make([]string, len(m.unmapped))
	copy(out, m.unmapped)
	return out
}

// ResetUnmapped clears the unmapped field record.
func (m *FieldMapper) ResetUnmapped() {
	m.unmapped = nil
	m.seen = make(map[string]bool)
}

// convert applies the mapping's transform, or the target class policy
// when the mapping has none.
func (m *FieldMapper) convert(mapping Mapping, value interface{}) interface{} {
	if mapping.Transform.Kind() != transform.None {
		return mapping.Transform.Apply(value)
	}
	raw, isString := value.(string)
	if !isString {
		return value
	}
	class := models.ClassText
	if field, ok := m.targets.Lookup(mapping.Target); ok {
		class = field.Class
	}
	return transform.Convert(class, raw)
}

func (m *FieldMapper) recordUnmapped(source string) {
	if m.seen[source] {
		return
	}
	m.seen[source] = true
	m.unmapped = append(m.unmapped, source)
}

// IsEmpty reports whether a converted value carries nothing worth writing.
// Zero integers count as values.
func IsEmpty(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	default:
		return false
	}
}
