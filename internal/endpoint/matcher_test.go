package endpoint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestParseFullURL(t *testing.T) {
	p, err := Parse("https://api.example.com/users/:id")
	require.NoError(t, err)
	assert.Equal(t, "api.example.com", p.Host())
}

func TestParseBarePath(t *testing.T) {
	p, err := Parse("/public-report")
	require.NoError(t, err)
	assert.Empty(t, p.Host())
	assert.True(t, p.MatchPath("/public-report"))
}

func TestParseRejectsHostless(t *testing.T) {
	_, err := Parse("not a url")
	assert.Error(t, err)
	_, err = Parse("")
	assert.Error(t, err)
}

func TestMatchPathTemplates(t *testing.T) {
	cases := []struct {
		pattern   string
		requested string
		want      bool
	}{
		{"https://api.example.com/users/:id", "/users/42", true},
		{"https://api.example.com/users/:id", "/users/42/extra", false},
		{"https://api.example.com/users/:id", "/users", false},
		{"https://api.example.com/ask", "/ask", true},
		{"https://api.example.com/ask", "/ask/", true},
		{"https://api.example.com/ask", "/other", false},
		{"https://api.example.com/", "/", true},
		{"https://api.example.com/v1/:model/completions", "/v1/gpt/completions", true},
		{"https://api.example.com/v1/:model/completions", "/v1/gpt/chat", false},
	}
	for _, tc := range cases {
		p, err := Parse(tc.pattern)
		require.NoError(t, err, tc.pattern)
		assert.Equal(t, tc.want, p.MatchPath(tc.requested), "%s vs %s", tc.pattern, tc.requested)
	}
}

func TestMatchPathPercentDecoding(t *testing.T) {
	p, err := Parse("https://api.example.com/files/hello world")
	require.NoError(t, err)
	assert.True(t, p.MatchPath("/files/hello%20world"))
}

func TestMatchAnySemantics(t *testing.T) {
	patterns := []string{
		"https://a.example.com/one",
		"https://b.example.com/two",
	}
	matched, ok := Match(patterns, "/two", zap.NewNop())
	require.True(t, ok)
	assert.Equal(t, "b.example.com", matched.Host())

	_, ok = Match(patterns, "/three", zap.NewNop())
	assert.False(t, ok)
}

func TestMatchSkipsBadPatterns(t *testing.T) {
	patterns := []string{
		"::not-a-url::",
		"https://good.example.com/ask",
	}
	matched, ok := Match(patterns, "/ask", zap.NewNop())
	require.True(t, ok)
	assert.Equal(t, "good.example.com", matched.Host())
}
