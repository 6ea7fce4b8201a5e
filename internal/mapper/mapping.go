package mapper

import (
	"encoding/json"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/akrishnanDG/legacy-profile-migrator/internal/transform"
)

// DefaultPriority is the priority of mappings that do not name one.
const DefaultPriority = 1

// Mapping sends one legacy field to a target field. Lower priority wins
// when several sources feed the same target.
type Mapping struct {
	Target    string
	Transform transform.Transform
	Priority  int
}

// Table maps legacy field keys to mappings.
type Table map[string]Mapping

// Direct maps to target with no transform at default priority.
func Direct(target string) Mapping {
	return Mapping{Target: target, Priority: DefaultPriority}
}

// WithTransform maps to target through a transform at the given priority.
func WithTransform(target string, t transform.Transform, priority int) Mapping {
	if priority <= 0 {
		priority = DefaultPriority
	}
	return Mapping{Target: target, Transform: t, Priority: priority}
}

// Clone returns a copy of the table.
func (t Table) Clone() Table {
	out := make(Table, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// Merge returns a copy of t with overrides applied on top. An override
// with an empty target removes the source from the table.
func (t Table) Merge(overrides Table) Table {
	out := t.Clone()
	for k, v := range overrides {
		if v.Target == "" {
			delete(out, k)
			continue
		}
		out[k] = v
	}
	return out
}

// Sources returns the legacy keys in sorted order.
func (t Table) Sources() []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Specs converts the table to its serializable form.
func (t Table) Specs() map[string]Spec {
	out := make(map[string]Spec, len(t))
	for k, m := range t {
		out[k] = SpecOf(m)
	}
	return out
}

// TableFromSpecs resolves serialized mappings against a transform registry.
func TableFromSpecs(specs map[string]Spec, reg *transform.Registry) Table {
	out := make(Table, len(specs))
	for k, s := range specs {
		out[k] = s.Resolve(reg)
	}
	return out
}

// Spec is the serialized form of a Mapping. It decodes from either a bare
// target string or an object with target, transform and priority.
type Spec struct {
	Target    string `json:"target" yaml:"target"`
	Transform string `json:"transform,omitempty" yaml:"transform,omitempty"`
	Priority  int    `json:"priority,omitempty" yaml:"priority,omitempty"`
}

// SpecOf returns the serialized form of m.
func SpecOf(m Mapping) Spec {
	s := Spec{Target: m.Target, Transform: m.Transform.Name()}
	if m.Priority != DefaultPriority {
		s.Priority = m.Priority
	}
	return s
}

// Resolve turns s into a Mapping.
func (s Spec) Resolve(reg *transform.Registry) Mapping {
	return WithTransform(s.Target, reg.Resolve(s.Transform), s.Priority)
}

// Simple reports whether s can be written as a bare target string.
func (s Spec) Simple() bool {
	return s.Transform == "" && (s.Priority == 0 || s.Priority == DefaultPriority)
}

type specObject Spec

// UnmarshalYAML implements yaml.Unmarshaler
func (s *Spec) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*s = Spec{Target: node.Value}
		return nil
	case yaml.MappingNode:
		var obj specObject
		if err := node.Decode(&obj); err != nil {
			return err
		}
		*s = Spec(obj)
		return nil
	default:
		return fmt.Errorf("line %d: mapping must be a target name or an object", node.Line)
	}
}

// MarshalYAML implements yaml.Marshaler
func (s Spec) MarshalYAML() (interface{}, error) {
	if s.Simple() {
		return s.Target, nil
	}
	return specObject(s), nil
}

// UnmarshalJSON implements json.Unmarshaler
func (s *Spec) UnmarshalJSON(data []byte) error {
	var target string
	if err := json.Unmarshal(data, &target); err == nil {
		*s = Spec{Target: target}
		return nil
	}
	var obj specObject
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("mapping must be a target name or an object: %w", err)
	}
	*s = Spec(obj)
	return nil
}

// MarshalJSON implements json.Marshaler
func (s Spec) MarshalJSON() ([]byte, error) {
	if s.Simple() {
		return json.Marshal(s.Target)
	}
	return json.Marshal(specObject(s))
}
