package mapper

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akrishnanDG/legacy-profile-migrator/internal/models"
)

func TestSimilarity(t *testing.T) {
	tests := []struct {
		a, b     string
		expected int
	}{
		{"phone", "phone", 100},
		{"aa", "aa1", 87},
		{"abc", "xyz", 0},
		{"", "", 100},
		{"phone", "", 0},
		{"café", "cafe", 75},
		{"ñandú", "nandu", 60},
	}

	for _, tt := range tests {
		t.Run(tt.a+"|"+tt.b, func(t *testing.T) {
			if got := Similarity(tt.a, tt.b); got != tt.expected {
				t.Errorf("Similarity(%q, %q) = %d, expected %d", tt.a, tt.b, got, tt.expected)
			}
		})
	}
}

func TestSuggestMapping_ExactMatchFirst(t *testing.T) {
	m := New(nil)

	suggestions := m.SuggestMapping("um_city_field")
	require.NotEmpty(t, suggestions)
	assert.Equal(t, "city", suggestions[0].Target)
	assert.Equal(t, 100, suggestions[0].Confidence)
	assert.Equal(t, "City", suggestions[0].Label)
}

func TestSuggestMapping_Bounds(t *testing.T) {
	m := New(nil)

	for _, source := range []string{"user_phone", "work", "address", "social_url", "email_value"} {
		t.Run(source, func(t *testing.T) {
			suggestions := m.SuggestMapping(source)
			assert.LessOrEqual(t, len(suggestions), MaxSuggestions)
			for i, s := range suggestions {
				assert.Greater(t, s.Confidence, MinConfidence)
				assert.LessOrEqual(t, s.Confidence, 100)
				if i > 0 {
					assert.GreaterOrEqual(t, suggestions[i-1].Confidence, s.Confidence)
				}
			}
		})
	}
}

func TestSuggest_TiesKeepRegistryOrder(t *testing.T) {
	targets := models.NewTargetRegistry([]models.TargetField{
		{Key: "aa1", Label: "First", Class: models.ClassText},
		{Key: "aa2", Label: "Second", Class: models.ClassText},
	})

	suggestions := Suggest(targets, "aa")
	require.Len(t, suggestions, 2)
	assert.Equal(t, suggestions[0].Confidence, suggestions[1].Confidence)
	assert.Equal(t, "aa1", suggestions[0].Target)
	assert.Equal(t, "aa2", suggestions[1].Target)
}

func TestSuggest_ThresholdUsesUnroundedScore(t *testing.T) {
	source := strings.Repeat("a", 101)
	targets := models.NewTargetRegistry([]models.TargetField{
		// 50 substitutions over 101 runes scores 50.495.
		{Key: strings.Repeat("a", 51) + strings.Repeat("b", 50), Label: "Near", Class: models.ClassText},
		// 51 substitutions scores 49.5.
		{Key: strings.Repeat("a", 50) + strings.Repeat("b", 51), Label: "Far", Class: models.ClassText},
	})

	suggestions := Suggest(targets, source)
	require.Len(t, suggestions, 1)
	assert.Equal(t, "Near", suggestions[0].Label)
	assert.Greater(t, suggestions[0].Confidence, MinConfidence)
}

func TestSuggest_NoMatch(t *testing.T) {
	suggestions := Suggest(models.DefaultTargets(), "qqqqqqqqqq")
	assert.NotNil(t, suggestions)
	assert.Empty(t, suggestions)

	assert.Empty(t, Suggest(models.DefaultTargets(), "_um_"))
}

func TestAssociate(t *testing.T) {
	a := NewAssociator(nil, DefaultAliases())

	tests := []struct {
		name           string
		input          string
		expectedTarget string
		expectedRule   Rule
		expectedOK     bool
	}{
		{"alias from label", "Zip Code", "postal_code", RuleAlias, true},
		{"exact key", "Phone", "phone", RuleExact, true},
		{"exact label", "Job Title", "job_title", RuleExact, true},
		{"label with different key", "Biography", "bio", RuleExact, true},
		{"substring", "Company Name", "company", RuleSubstring, true},
		{"short alias", "X", "twitter", RuleAlias, true},
		{"too short for substring", "ab", "", "", false},
		{"no match", "Favorite Color", "", "", false},
		{"status never associated", "Verified", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assoc, ok := a.Associate(tt.input)
			if ok != tt.expectedOK {
				t.Fatalf("Associate(%q) ok = %v, expected %v", tt.input, ok, tt.expectedOK)
			}
			if assoc.Target != tt.expectedTarget {
				t.Errorf("Associate(%q) target = %q, expected %q", tt.input, assoc.Target, tt.expectedTarget)
			}
			if assoc.Rule != tt.expectedRule {
				t.Errorf("Associate(%q) rule = %q, expected %q", tt.input, assoc.Rule, tt.expectedRule)
			}
		})
	}
}

func TestAssociate_SubstringOfLabel(t *testing.T) {
	targets := models.NewTargetRegistry([]models.TargetField{
		{Key: "zip", Label: "Postal Region", Class: models.ClassText},
		{Key: "bio", Label: "Biography", Class: models.ClassRichText},
	})
	a := NewAssociator(targets, map[string]string{})

	tests := []struct {
		input    string
		expected string
	}{
		{"Region", "zip"},
		{"Biographical Notes", "bio"},
		{"Postal", "zip"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assoc, ok := a.Associate(tt.input)
			require.True(t, ok)
			if assoc.Target != tt.expected {
				t.Errorf("Associate(%q) target = %q, expected %q", tt.input, assoc.Target, tt.expected)
			}
			assert.Equal(t, RuleSubstring, assoc.Rule)
		})
	}
}

func TestAssociator_DropsAliasesToUnknownTargets(t *testing.T) {
	a := NewAssociator(nil, map[string]string{
		"Shoe Size": "shoe_size",
		"verified?": "is_verified",
	})

	_, ok := a.Associate("shoe size")
	assert.False(t, ok)
	_, ok = a.Associate("verified?")
	assert.False(t, ok)
}
