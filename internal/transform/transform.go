// Package transform holds the closed set of value transforms a field mapping
// may name, plus a registry for transforms supplied at configuration time.
package transform

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Kind identifies a transform.
type Kind int

const (
	None Kind = iota
	SanitizeText
	SanitizeTextarea
	SanitizeEmail
	SanitizeURL
	StatusToVerified
	TimestampToDatetime
	Custom
)

// Func is a custom transform.
type Func func(value interface{}) interface{}

// Transform is a resolved transform that can be applied to a value.
type Transform struct {
	kind Kind
	name string
	fn   Func
}

var kindNames = map[Kind]string{
	SanitizeText:        "sanitize_text",
	SanitizeTextarea:    "sanitize_textarea",
	SanitizeEmail:       "sanitize_email",
	SanitizeURL:         "sanitize_url",
	StatusToVerified:    "status_to_verified",
	TimestampToDatetime: "timestamp_to_datetime",
}

// names accepted in mapping files and presets
var builtinAliases = map[string]Kind{
	"sanitize_text":                 SanitizeText,
	"sanitize_text_field":           SanitizeText,
	"sanitize_textarea":             SanitizeTextarea,
	"sanitize_textarea_field":       SanitizeTextarea,
	"sanitize_email":                SanitizeEmail,
	"sanitize_url":                  SanitizeURL,
	"esc_url_raw":                   SanitizeURL,
	"status_to_verified":            StatusToVerified,
	"um_account_status_to_verified": StatusToVerified,
	"timestamp_to_datetime":         TimestampToDatetime,
}

// Builtin returns the transform of a built-in kind.
func Builtin(kind Kind) Transform {
	if kind == None || kind == Custom {
		return Transform{}
	}
	return Transform{kind: kind, name: kindNames[kind]}
}

// Kind returns the transform kind.
func (t Transform) Kind() Kind {
	return t.kind
}

// Name returns the name the transform is persisted under. Unresolved
// names are kept so they survive a save and reload.
func (t Transform) Name() string {
	return t.name
}

// IsZero reports whether no transform applies.
func (t Transform) IsZero() bool {
	return t.kind == None
}

// String implements fmt.Stringer
func (t Transform) String() string {
	if t.name == "" {
		return "none"
	}
	return t.name
}

// Apply runs the transform. None and unresolved names pass the value through.
func (t Transform) Apply(value interface{}) interface{} {
	switch t.kind {
	case SanitizeText:
		return Text(toString(value))
	case SanitizeTextarea:
		return Textarea(toString(value))
	case SanitizeEmail:
		return Email(toString(value))
	case SanitizeURL:
		return URL(toString(value))
	case StatusToVerified:
		return StatusVerified(toString(value))
	case TimestampToDatetime:
		return TimestampDatetime(value)
	case Custom:
		if t.fn == nil {
			return value
		}
		return t.fn(value)
	default:
		return value
	}
}

// Registry resolves transform names, including custom ones registered at
// configuration time.
type Registry struct {
	mu     sync.RWMutex
	custom map[string]Func
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{custom: make(map[string]Func)}
}

// Register adds a custom transform. Built-in names cannot be replaced.
func (r *Registry) Register(name string, fn Func) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("transform name is required")
	}
	if fn == nil {
		return fmt.Errorf("transform %q has no function", name)
	}
	if _, builtin := builtinAliases[name]; builtin {
		return fmt.Errorf("transform %q is built in", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.custom[name] = fn
	return nil
}

// Resolve maps a name to a transform. Empty names resolve to None; names
// that are neither built in nor registered resolve to a pass-through that
// keeps the name.
func (r *Registry) Resolve(name string) Transform {
	name = strings.TrimSpace(name)
	if name == "" || name == "none" {
		return Transform{}
	}
	if kind, ok := builtinAliases[name]; ok {
		return Builtin(kind)
	}
	if r != nil {
		r.mu.RLock()
		fn, ok := r.custom[name]
		r.mu.RUnlock()
		if ok {
			return Transform{kind: Custom, name: name, fn: fn}
		}
	}
	return Transform{kind: None, name: name}
}

// Known reports whether name resolves to a built-in or registered transform.
func (r *Registry) Known(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" || name == "none" {
		return true
	}
	if _, ok := builtinAliases[name]; ok {
		return true
	}
	if r == nil {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.custom[name]
	return ok
}

// Names returns every name the registry accepts, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(builtinAliases))
	for n := range builtinAliases {
		names = append(names, n)
	}
	if r != nil {
		r.mu.RLock()
		for n := range r.custom {
			names = append(names, n)
		}
		r.mu.RUnlock()
	}
	sort.Strings(names)
	return names
}

// Parse resolves a name against built-ins only.
func Parse(name string) Transform {
	var r *Registry
	return r.Resolve(name)
}
