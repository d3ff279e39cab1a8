package randstr

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateRandomString(t *testing.T) {
	g := New([]byte("abc123"))

	s := g.GenerateRandomString(16)
	assert.Len(t, s, 16)
	for _, r := range s {
		assert.True(t, strings.ContainsRune("abc123", r), "unexpected char %q", r)
	}
}

func TestGenerateRandomStringSingleCharAlphabet(t *testing.T) {
	g := New([]byte("x"))

	assert.Equal(t, "xxxx", g.GenerateRandomString(4))
}

func TestGenerateRandomStringUnique(t *testing.T) {
	g := New([]byte("abcdefghijklmnopqrstuvwxyz0123456789"))

	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		s := g.GenerateRandomString(12)
		_, dup := seen[s]
		assert.False(t, dup, "generated %q twice", s)
		seen[s] = struct{}{}
	}
}
