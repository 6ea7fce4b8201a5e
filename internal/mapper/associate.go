package mapper

import (
	"strings"

	"github.com/akrishnanDG/legacy-profile-migrator/internal/models"
	"github.com/akrishnanDG/legacy-profile-migrator/internal/normalizer"
)

// Rule names the association rule that matched.
type Rule string

const (
	RuleExact     Rule = "exact"
	RuleAlias     Rule = "alias"
	RuleSubstring Rule = "substring"
)

// minSubstringLen keeps short names like "x" from matching everything.
const minSubstringLen = 3

// Association is the result of associating a legacy field name.
type Association struct {
	Target string
	Rule   Rule
}

// Associator matches free-form legacy field names to profile targets.
type Associator struct {
	targets *models.TargetRegistry
	aliases map[string]string
}

// NewAssociator creates an Associator. Alias keys are normalized; aliases
// pointing at unknown or non-profile targets are dropped.
func NewAssociator(targets *models.TargetRegistry, aliases map[string]string) *Associator {
	if targets == nil {
		targets = models.DefaultTargets()
	}
	normalized := make(map[string]string, len(aliases))
	for alias, target := range aliases {
		if f, ok := targets.Lookup(target); ok && f.IsProfileColumn() {
			normalized[normalizer.FieldKey(alias)] = target
		}
	}
	return &Associator{targets: targets, aliases: normalized}
}

// Associate tries an exact key or label match, then the alias table, then
// substring containment against the key or label in either direction. Candidates are tried in registry order.
// Status fields are never association targets.
func (a *Associator) Associate(name string) (Association, bool) {
	key := normalizer.FieldKey(name)
	if key == "" {
		return Association{}, false
	}

	fields := a.profileFields()

	for _, f := range fields {
		if key == f.Key || key == normalizer.FieldKey(f.Label) {
			return Association{Target: f.Key, Rule: RuleExact}, true
		}
	}

	if target, ok := a.aliases[key]; ok {
		return Association{Target: target, Rule: RuleAlias}, true
	}

	if len(key) < minSubstringLen {
		return Association{}, false
	}
	for _, f := range fields {
		for _, candidate := range []string{f.Key, normalizer.FieldKey(f.Label)} {
			if len(candidate) < minSubstringLen {
				continue
			}
			if strings.Contains(key, candidate) || strings.Contains(candidate, key) {
				return Association{Target: f.Key, Rule: RuleSubstring}, true
			}
		}
	}

	return Association{}, false
}

func (a *Associator) profileFields() []models.TargetField {
	var out []models.TargetField
	for _, f := range a.targets.Fields() {
		if f.IsProfileColumn() {
			out = append(out, f)
		}
	}
	return out
}
