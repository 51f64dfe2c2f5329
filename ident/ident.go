// Package ident generates team slugs and invite tokens.
package ident

import (
	"crypto/rand"
	"encoding/base64"
	"strings"
	"unicode"
)

const suffixAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// suffixLen is the length of the random slug suffix. Six base-36
// characters give enough entropy that the bounded insert retry in team
// creation almost never runs more than once.
const suffixLen = 6

// Slugify lowercases value, drops everything that is not a letter, digit,
// space, hyphen, or underscore, and collapses whitespace runs into single
// hyphens.
func Slugify(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))

	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}

	return strings.Join(strings.Fields(b.String()), "-")
}

// NewSlug builds a URL-safe, low-collision team slug from a display name:
// the slugified name plus a random six-character suffix.
func NewSlug(name string) string {
	return Slugify(name) + "-" + randomSuffix(suffixLen)
}

// NewToken returns an unguessable opaque credential: 32 random bytes,
// base64url-encoded without padding.
func NewToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand never fails on supported platforms.
		panic("ident: reading random bytes: " + err.Error())
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

func randomSuffix(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic("ident: reading random bytes: " + err.Error())
	}
	for i := range b {
		b[i] = suffixAlphabet[int(b[i])%len(suffixAlphabet)]
	}
	return string(b)
}
