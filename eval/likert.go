package eval

import (
	"fmt"
	"strings"
)

// likertScale defines the six canonical categories, their scores, and the
// paraphrase variants seen in model answers. Variant order within a
// category does not matter; matching is exact first, then longest
// contained variant.
var likertScale = []struct {
	category string
	score    int
	variants []string
}{
	{
		category: "very much like me",
		score:    6,
		variants: []string{
			"very much like me",
			"likes me very much",
			"like me very much",
		},
	},
	{
		category: "like me",
		score:    5,
		variants: []string{
			"like me",
			"likes me",
		},
	},
	{
		category: "somewhat like me",
		score:    4,
		variants: []string{
			"somewhat like me",
			"somewhat likes me",
			"some what like me",
			"some what likes me",
		},
	},
	{
		category: "a little like me",
		score:    3,
		variants: []string{
			"a little like me",
			"little like me",
		},
	},
	{
		category: "not like me",
		score:    2,
		variants: []string{
			"not like me",
			"does not like me",
			"doesn't like me",
			"is not like me",
		},
	},
	{
		category: "not like me at all",
		score:    1,
		variants: []string{
			"not like me at all",
			"not at all like me",
			"does not like me at all",
			"isn't like me at all",
		},
	},
}

// UnparsableResponseError reports an answer that matches no known Likert
// phrase. It is a parsing defect, not a transient condition, and is never
// retried.
type UnparsableResponseError struct {
	Raw string
}

func (e *UnparsableResponseError) Error() string {
	return fmt.Sprintf("could not parse valid Likert response from: %s", e.Raw)
}

// normalizeText lowercases and collapses all whitespace runs to single
// spaces.
func normalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// ParseLikert maps a free-text answer to its canonical category. Matching
// is deterministic: exact match against any variant first, then substring
// containment where the longest matched variant wins, so "not like me at
// all" beats "not like me" beats "like me".
func ParseLikert(raw string) (string, error) {
	normalized := normalizeText(raw)

	for _, entry := range likertScale {
		for _, variant := range entry.variants {
			if normalizeText(variant) == normalized {
				return entry.category, nil
			}
		}
	}

	bestCategory := ""
	bestLen := 0
	for _, entry := range likertScale {
		for _, variant := range entry.variants {
			v := normalizeText(variant)
			if strings.Contains(normalized, v) && len(v) > bestLen {
				bestCategory = entry.category
				bestLen = len(v)
			}
		}
	}
	if bestLen > 0 {
		return bestCategory, nil
	}

	return "", &UnparsableResponseError{Raw: raw}
}

// LikertScore maps a canonical category to its numeric value, 6 down
// to 1.
func LikertScore(category string) (int, bool) {
	for _, entry := range likertScale {
		if entry.category == category {
			return entry.score, true
		}
	}
	return 0, false
}
