package validator

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/akrishnanDG/legacy-profile-migrator/internal/mapper"
	"github.com/akrishnanDG/legacy-profile-migrator/internal/models"
	"github.com/akrishnanDG/legacy-profile-migrator/internal/normalizer"
	"github.com/akrishnanDG/legacy-profile-migrator/internal/transform"
)

var targetPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// Validator validates field mappings before migration
type Validator struct {
	targets  *models.TargetRegistry
	registry *transform.Registry
}

// ValidationResult contains the results of validation
type ValidationResult struct {
	Errors   []models.ValidationIssue
	Warnings []models.ValidationIssue
}

// HasErrors returns true if there are validation errors
func (r *ValidationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// HasWarnings returns true if there are validation warnings
func (r *ValidationResult) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// New creates a new Validator. registry may be nil, in which case only
// built-in transforms are known.
func New(targets *models.TargetRegistry, registry *transform.Registry) *Validator {
	if targets == nil {
		targets = models.DefaultTargets()
	}
	return &Validator{targets: targets, registry: registry}
}

// ValidateAll validates every mapping of a table
func (v *Validator) ValidateAll(table mapper.Table) *ValidationResult {
	result := &ValidationResult{}

	sources := make([]string, 0, len(table))
	for source := range table {
		sources = append(sources, source)
	}
	sort.Strings(sources)

	claims := make([]normalizer.Claim, 0, len(table))
	for _, source := range sources {
		m := table[source]
		errs, warns := v.ValidateMapping(source, m)
		result.Errors = append(result.Errors, errs...)
		result.Warnings = append(result.Warnings, warns...)
		claims = append(claims, normalizer.Claim{Source: source, Target: m.Target, Priority: m.Priority})
	}

	// Equal priority means the winner depends on input order
	for _, c := range normalizer.DetectCollisions(claims) {
		result.Warnings = append(result.Warnings, models.ValidationIssue{
			Field: strings.Join(c.Sources, ", "),
			Message: fmt.Sprintf("Target collision: %d fields map to %s at priority %d",
				len(c.Sources), c.Target, c.Priority),
		})
	}

	return result
}

// ValidateMapping validates a single mapping
func (v *Validator) ValidateMapping(source string, m mapper.Mapping) ([]models.ValidationIssue, []models.ValidationIssue) {
	var errors []models.ValidationIssue
	var warnings []models.ValidationIssue

	if strings.TrimSpace(source) == "" {
		errors = append(errors, models.ValidationIssue{Field: source, Message: "source field cannot be empty"})
	}

	// An empty target leaves the field unmapped
	if m.Target == "" {
		return errors, warnings
	}

	if err := validateTargetName(m.Target); err != nil {
		errors = append(errors, models.ValidationIssue{Field: source, Message: err.Error()})
	} else if _, ok := v.targets.Lookup(m.Target); !ok {
		warnings = append(warnings, models.ValidationIssue{
			Field:   source,
			Message: "Unknown target " + m.Target + ": values will not be written",
		})
	}

	if name := m.Transform.Name(); name != "" && !v.registry.Known(name) {
		warnings = append(warnings, models.ValidationIssue{
			Field:   source,
			Message: "Unknown transform " + name + ": values pass through unchanged",
		})
	}

	if m.Priority < 0 {
		errors = append(errors, models.ValidationIssue{Field: source, Message: "priority cannot be negative"})
	}

	return errors, warnings
}

func validateTargetName(target string) error {
	if len(target) > 64 {
		return &ValidationError{Message: "target name exceeds maximum length of 64 characters"}
	}
	if !targetPattern.MatchString(target) {
		return &ValidationError{Message: "target name contains invalid characters (only lowercase letters, digits and underscores allowed)"}
	}
	return nil
}

// IsInternalRedirect reports whether raw is safe to use as a redirect
// target on the site at siteURL. Relative paths are internal; absolute
// URLs must be http(s) on the site's host and port. With no siteURL only
// relative paths pass.
func IsInternalRedirect(raw, siteURL string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false
	}
	for _, r := range raw {
		if r == '\\' || unicode.IsControl(r) || unicode.IsSpace(r) {
			return false
		}
	}
	// Scheme-relative URLs take the current scheme but any host
	if strings.HasPrefix(raw, "//") {
		return false
	}

	u, err := url.Parse(raw)
	if err != nil || u.Opaque != "" || u.User != nil {
		return false
	}
	if u.Scheme == "" && u.Host == "" {
		return true
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}

	site, err := url.Parse(strings.TrimSpace(siteURL))
	if err != nil || site.Host == "" {
		return false
	}
	return strings.EqualFold(u.Hostname(), site.Hostname()) && effectivePort(u) == effectivePort(site)
}

func effectivePort(u *url.URL) string {
	if p := u.Port(); p != "" {
		return p
	}
	if strings.EqualFold(u.Scheme, "https") {
		return "443"
	}
	return "80"
}

// ValidationError represents a validation error
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
