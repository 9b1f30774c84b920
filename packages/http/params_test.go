package http

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubstituteParameters(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		start    string
		end      string
		params   []any
		expected string
	}{
		{
			name:     "in order of appearance",
			raw:      "http://api.test/items/{id}/parts/{part}",
			params:   []any{42, "wheel"},
			expected: "http://api.test/items/42/parts/wheel",
		},
		{
			name:     "names are ignored",
			raw:      "http://api.test/{b}/{a}",
			params:   []any{"first", "second"},
			expected: "http://api.test/first/second",
		},
		{
			name:     "tokens in query",
			raw:      `http://api.test/view?startkey="{start}"&endkey="{end}"`,
			params:   []any{"a", "z"},
			expected: `http://api.test/view?startkey="a"&endkey="z"`,
		},
		{
			name:     "exhausted parameters become empty",
			raw:      "http://api.test/{a}/{b}/{c}",
			params:   []any{1},
			expected: "http://api.test/1//",
		},
		{
			name:     "no tokens",
			raw:      "http://api.test/items",
			params:   []any{1},
			expected: "http://api.test/items",
		},
		{
			name:     "custom tokens",
			raw:      "http://api.test/{literal}/<<id>>",
			start:    "<<",
			end:      ">>",
			params:   []any{7},
			expected: "http://api.test/{literal}/7",
		},
		{
			name:     "substituted value is not rescanned",
			raw:      "http://api.test/{a}/{b}",
			params:   []any{"{x}", "y"},
			expected: "http://api.test/{x}/y",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := tt.start, tt.end
			if start == "" {
				start, end = DefaultStartToken, DefaultEndToken
			}
			got, err := SubstituteParameters(tt.raw, start, end, tt.params)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestSubstituteParameters_Space(t *testing.T) {
	_, err := SubstituteParameters("http://api.test/{a}/{b}", "{", "}", []any{"ok", "not ok"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConfiguration))
	assert.Contains(t, err.Error(), "URL parameter [2] cannot contain a space")
}

func TestSubstituteParameters_Unterminated(t *testing.T) {
	_, err := SubstituteParameters("http://api.test/{id", "{", "}", []any{1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConfiguration))
}
