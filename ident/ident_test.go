package ident_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teamcore/teamcore/ident"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Acme Corp", "acme-corp"},
		{"  Spaced   Out  ", "spaced-out"},
		{"Ops/Infra (EU)!", "opsinfra-eu"},
		{"already-slugged", "already-slugged"},
		{"under_score", "under_score"},
		{"MixedCASE 42", "mixedcase-42"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ident.Slugify(tt.in), "input %q", tt.in)
	}
}

func TestNewSlug_Shape(t *testing.T) {
	slug := ident.NewSlug("Acme Corp")

	require.True(t, strings.HasPrefix(slug, "acme-corp-"), "slug %q should keep the slugified base", slug)

	suffix := strings.TrimPrefix(slug, "acme-corp-")
	assert.Len(t, suffix, 6)
	for _, r := range suffix {
		assert.True(t, (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'), "suffix rune %q out of alphabet", r)
	}
}

func TestNewSlug_LowCollision(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		slug := ident.NewSlug("dup")
		assert.False(t, seen[slug], "slug %q repeated", slug)
		seen[slug] = true
	}
}

func TestNewToken(t *testing.T) {
	tok1 := ident.NewToken()
	tok2 := ident.NewToken()

	assert.Len(t, tok1, 43, "32 bytes base64url without padding")
	assert.NotEqual(t, tok1, tok2)
	assert.NotContains(t, tok1, "=")
}
