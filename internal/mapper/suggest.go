package mapper

import (
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"github.com/akrishnanDG/legacy-profile-migrator/internal/models"
	"github.com/akrishnanDG/legacy-profile-migrator/internal/normalizer"
)

const (
	// MaxSuggestions bounds SuggestMapping results.
	MaxSuggestions = 5
	// MinConfidence is exclusive; candidates must score above it.
	MinConfidence = 50

	containmentBonus = 20
)

// SuggestMapping ranks target fields by name similarity to source. Ties
// keep target registry order.
func (m *FieldMapper) SuggestMapping(source string) []models.Suggestion {
	return Suggest(m.targets, source)
}

// Suggest ranks the fields of targets by similarity to source.
func Suggest(targets *models.TargetRegistry, source string) []models.Suggestion {
	normalized := normalizer.ForSuggestion(source)
	if normalized == "" {
		return []models.Suggestion{}
	}

	var suggestions []models.Suggestion
	for _, field := range targets.Fields() {
		score := similarity(normalized, normalizer.ForSuggestion(field.Key))
		if score <= MinConfidence {
			continue
		}
		suggestions = append(suggestions, models.Suggestion{
			Target:     field.Key,
			Label:      field.Label,
			Confidence: confidence(score),
		})
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Confidence > suggestions[j].Confidence
	})

	if len(suggestions) > MaxSuggestions {
		suggestions = suggestions[:MaxSuggestions]
	}
	if suggestions == nil {
		suggestions = []models.Suggestion{}
	}
	return suggestions
}

// Similarity scores two normalized names from 0 to 100. Identical names
// score 100; otherwise the score is the Levenshtein ratio plus a bonus
// when one name contains the other.
func Similarity(a, b string) int {
	return int(math.Round(similarity(a, b)))
}

func similarity(a, b string) float64 {
	if a == b {
		return 100
	}
	longest := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > longest {
		longest = n
	}
	if longest == 0 {
		return 0
	}

	distance := levenshtein.ComputeDistance(a, b)
	score := (1 - float64(distance)/float64(longest)) * 100
	if a != "" && b != "" && (strings.Contains(a, b) || strings.Contains(b, a)) {
		score += containmentBonus
	}
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return score
}

// confidence rounds a score that passed the threshold. Scores just above
// MinConfidence report MinConfidence+1 rather than rounding onto it.
func confidence(score float64) int {
	c := int(math.Round(score))
	if c <= MinConfidence {
		return MinConfidence + 1
	}
	return c
}
