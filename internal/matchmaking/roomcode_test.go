package matchmaking

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoomCodeShapeAndAlphabet(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		code := NewRoomCode()
		assert.Len(t, code, 6)
		for _, r := range code {
			assert.True(t, strings.ContainsRune(codeAlphabet, r), "unexpected rune %q", r)
		}
		seen[code] = true
	}
	// Collisions over 200 draws from a 26^6 space would indicate a broken RNG.
	assert.Greater(t, len(seen), 195)
}

func TestShortRoomCode(t *testing.T) {
	assert.Len(t, NewShortRoomCode(), 4)
}

func TestCodeAlphabetAvoidsAmbiguousGlyphs(t *testing.T) {
	for _, r := range "01OIL58SB" {
		assert.NotContains(t, codeAlphabet, string(r))
	}
}
