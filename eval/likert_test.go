package eval

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLikertExactMatches(t *testing.T) {
	tests := []struct {
		raw      string
		category string
		score    int
	}{
		{"very much like me", "very much like me", 6},
		{"Like me", "like me", 5},
		{"likes me", "like me", 5},
		{"somewhat like me", "somewhat like me", 4},
		{"some what likes me", "somewhat like me", 4},
		{"a little like me", "a little like me", 3},
		{"little like me", "a little like me", 3},
		{"not like me", "not like me", 2},
		{"doesn't like me", "not like me", 2},
		{"not like me at all", "not like me at all", 1},
		{"not at all like me", "not like me at all", 1},
		{"isn't like me at all", "not like me at all", 1},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			category, err := ParseLikert(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.category, category)

			score, ok := LikertScore(category)
			require.True(t, ok)
			assert.Equal(t, tt.score, score)
		})
	}
}

func TestParseLikertNormalizesCaseAndWhitespace(t *testing.T) {
	category, err := ParseLikert("  Somewhat   LIKE me \n")
	require.NoError(t, err)
	assert.Equal(t, "somewhat like me", category)
}

func TestParseLikertSubstringContainment(t *testing.T) {
	// A full sentence around the phrase still parses.
	category, err := ParseLikert("Very much like me.")
	require.NoError(t, err)
	assert.Equal(t, "very much like me", category)

	category, err = ParseLikert("I would say this person is somewhat like me, overall.")
	require.NoError(t, err)
	assert.Equal(t, "somewhat like me", category)
}

func TestParseLikertLongestMatchWins(t *testing.T) {
	// "This is not like me" contains both "like me" and "not like me";
	// the longer match decides.
	category, err := ParseLikert("This is not like me")
	require.NoError(t, err)
	assert.Equal(t, "not like me", category)

	// Likewise "not like me at all" beats its "not like me" prefix.
	category, err = ParseLikert("The answer: not like me at all.")
	require.NoError(t, err)
	assert.Equal(t, "not like me at all", category)
}

func TestParseLikertUnparsable(t *testing.T) {
	_, err := ParseLikert("banana")
	require.Error(t, err)

	var parseErr *UnparsableResponseError
	require.True(t, errors.As(err, &parseErr))
	assert.Equal(t, "banana", parseErr.Raw)
}

func TestLikertScoreRoundTrip(t *testing.T) {
	for _, entry := range likertScale {
		for _, variant := range entry.variants {
			category, err := ParseLikert(variant)
			require.NoError(t, err, "variant %q", variant)
			require.Equal(t, entry.category, category, "variant %q", variant)

			score, ok := LikertScore(category)
			require.True(t, ok)
			assert.Equal(t, entry.score, score)
		}
	}
}

func TestLikertScoreUnknownCategory(t *testing.T) {
	_, ok := LikertScore("kind of like me")
	assert.False(t, ok)
}
