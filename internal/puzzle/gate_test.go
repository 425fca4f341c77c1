package puzzle

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// deterministic seed sequence so retries actually reshuffle
func seedSequence() func() int64 {
	var n int64
	return func() int64 {
		n++
		return n * 101
	}
}

func TestGateCrosswordEventuallyAccepts(t *testing.T) {
	gate := NewGate(zerolog.Nop(), seedSequence())
	cw, err := gate.Crossword(DefaultPool, 12)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, cw.Quality, 60)
}

func TestGateCrosswordExhaustsBudget(t *testing.T) {
	few := []WordEntry{{Word: "casa", Clue: "moradia"}}
	gate := NewGate(zerolog.Nop(), seedSequence())
	_, err := gate.Crossword(few, 12)
	assert.ErrorIs(t, err, ErrGenerationFailed)
}

func TestGateFallbackLoosensBar(t *testing.T) {
	gate := NewGate(zerolog.Nop(), seedSequence())
	cw, err := gate.CrosswordFallback(DefaultPool, 12)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, cw.Quality, 40)
}

func TestGateWordSearchMinimumPlacements(t *testing.T) {
	gate := NewGate(zerolog.Nop(), seedSequence())
	ws, err := gate.WordSearch(DefaultPool, 10)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(ws.Words), 8)
}

func TestGateWordSearchRequirementShrinksWithRequest(t *testing.T) {
	// Asking for 3 words must not demand the default 8.
	gate := NewGate(zerolog.Nop(), seedSequence())
	ws, err := gate.WordSearch(DefaultPool, 3)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(ws.Words), 3)
}
