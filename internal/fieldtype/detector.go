package fieldtype

import (
	"fmt"
	"net/mail"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/araddon/dateparse"
	"gopkg.in/yaml.v3"

	"github.com/akrishnanDG/legacy-profile-migrator/internal/phpvalue"
	"github.com/akrishnanDG/legacy-profile-migrator/pkg/config"
)

// Field types reported for discovered fields
const (
	Text        = "text"
	Textarea    = "textarea"
	Email       = "email"
	URL         = "url"
	Date        = "date"
	Number      = "number"
	Phone       = "phone"
	MultiSelect = "multiselect"
)

// Detector guesses the type of a legacy field from its key and samples
type Detector struct {
	config    config.FieldTypeConfig
	patterns  []typePattern
	overrides map[string]string
}

type typePattern struct {
	fieldType string
	re        *regexp.Regexp
	builtin   bool
}

// TypeOverrideFile represents the structure of the type override file
type TypeOverrideFile struct {
	Overrides map[string]string   `yaml:"overrides"`
	Patterns  map[string][]string `yaml:"patterns"`
}

// DetectionResult contains the result of type detection
type DetectionResult struct {
	Type   string
	Reason string
}

// Built-in key patterns, checked in order
var builtinPatterns = []struct {
	fieldType string
	pattern   string
}{
	{Email, `(?i)e[-_]?mail`},
	{Phone, `(?i)(phone|mobile|cell|fax|^tel$|_tel$)`},
	{URL, `(?i)(url|website|homepage|link$|^web$)`},
	{Date, `(?i)(date|dob|birth|_at$|_on$)`},
	{Number, `(?i)(_count$|_number$|^num_|_year$|^age$)`},
	{Textarea, `(?i)(bio|about|description|notes?$|comments?$)`},
}

// New creates a new Detector
func New(cfg config.FieldTypeConfig) (*Detector, error) {
	d := &Detector{
		config:    cfg,
		overrides: make(map[string]string),
	}
	if d.config.DefaultType == "" {
		d.config.DefaultType = Text
	}

	userPatterns := make(map[string][]string)
	for t, ps := range cfg.Patterns {
		userPatterns[t] = append(userPatterns[t], ps...)
	}

	// Load override file if specified
	if cfg.TypeOverrideFile != "" {
		file, err := loadOverrideFile(cfg.TypeOverrideFile)
		if err != nil {
			return nil, err
		}
		for key, t := range file.Overrides {
			d.overrides[key] = t
		}
		for t, ps := range file.Patterns {
			userPatterns[t] = append(userPatterns[t], ps...)
		}
	}

	if err := d.compilePatterns(userPatterns); err != nil {
		return nil, err
	}

	return d, nil
}

func loadOverrideFile(path string) (*TypeOverrideFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read type override file: %w", err)
	}

	var file TypeOverrideFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse type override file: %w", err)
	}
	return &file, nil
}

func (d *Detector) compilePatterns(user map[string][]string) error {
	// User patterns take precedence over built-ins
	for _, t := range sortedTypes(user) {
		for _, pattern := range user[t] {
			re, err := regexp.Compile(pattern)
			if err != nil {
				return fmt.Errorf("invalid %s pattern %q: %w", t, pattern, err)
			}
			d.patterns = append(d.patterns, typePattern{fieldType: t, re: re})
		}
	}

	if !d.config.DisableBuiltinPatterns {
		for _, bp := range builtinPatterns {
			d.patterns = append(d.patterns, typePattern{
				fieldType: bp.fieldType,
				re:        regexp.MustCompile(bp.pattern),
				builtin:   true,
			})
		}
	}

	return nil
}

// Detect determines the type of a field
func (d *Detector) Detect(key string, samples []string) DetectionResult {
	// Priority 1: Explicit override
	if t, ok := d.overrides[key]; ok {
		return DetectionResult{Type: t, Reason: "Override file"}
	}

	// Priority 2: Key patterns
	for _, p := range d.patterns {
		if p.re.MatchString(key) {
			source := "User pattern"
			if p.builtin {
				source = "Built-in pattern"
			}
			return DetectionResult{Type: p.fieldType, Reason: source + ": " + p.re.String()}
		}
	}

	// Priority 3: Sample values
	if result := detectBySamples(samples); result.Type != "" {
		return result
	}

	// Priority 4: Default type
	return DetectionResult{Type: d.config.DefaultType, Reason: "Default type"}
}

// detectBySamples picks a type only when every non-empty sample agrees
func detectBySamples(samples []string) DetectionResult {
	var values []string
	for _, s := range samples {
		if s = strings.TrimSpace(s); s != "" {
			values = append(values, s)
		}
	}
	if len(values) == 0 {
		return DetectionResult{}
	}

	checks := []struct {
		fieldType string
		match     func(string) bool
	}{
		{MultiSelect, phpvalue.IsSerialized},
		{Email, isEmail},
		{URL, isURL},
		{Number, isNumber},
		{Date, isDate},
		{Textarea, isLongText},
	}

	for _, c := range checks {
		all := true
		for _, v := range values {
			if !c.match(v) {
				all = false
				break
			}
		}
		if all {
			return DetectionResult{Type: c.fieldType, Reason: "Structure: sample values"}
		}
	}

	return DetectionResult{}
}

func isEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

func isURL(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") || strings.HasPrefix(lower, "www.")
}

func isNumber(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

func isDate(s string) bool {
	if len(s) < 6 {
		return false
	}
	_, err := dateparse.ParseStrict(s)
	return err == nil
}

func isLongText(s string) bool {
	return strings.Contains(s, "\n") || len(s) > 200
}

func sortedTypes(m map[string][]string) []string {
	types := make([]string, 0, len(m))
	for t := range m {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
