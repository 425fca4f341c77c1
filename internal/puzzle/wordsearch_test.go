package puzzle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWordSearchPlacementsRecoverable(t *testing.T) {
	gen := NewWordSearchGenerator(WordSearchOptions{}, 42)
	ws := gen.Generate(DefaultPool, 10)

	require.NotEmpty(t, ws.Words)
	for _, p := range ws.Words {
		for i, letter := range p.Word {
			r := p.Row + p.Direction.DR*i
			c := p.Col + p.Direction.DC*i
			require.GreaterOrEqual(t, r, 0)
			require.Less(t, r, ws.Size)
			require.GreaterOrEqual(t, c, 0)
			require.Less(t, c, ws.Size)
			assert.Equal(t, string(letter), ws.Grid[r][c],
				"word %q not walkable from (%d,%d) %s", p.Word, p.Row, p.Col, p.Direction.Name)
		}
	}
}

func TestWordSearchGridFullyFilled(t *testing.T) {
	gen := NewWordSearchGenerator(WordSearchOptions{}, 7)
	ws := gen.Generate(DefaultPool, 10)

	assert.Len(t, ws.Grid, ws.Size)
	for _, row := range ws.Grid {
		assert.Len(t, row, ws.Size)
		for _, cell := range row {
			assert.NotEmpty(t, cell)
			assert.Len(t, cell, 1)
		}
	}
}

func TestWordSearchDropsUnplaceableSilently(t *testing.T) {
	// A word longer than the grid can never fit; generation still succeeds.
	words := []WordEntry{
		{Word: "birds", Clue: ""},
		{Word: "impossibilidades", Clue: ""}, // 16 letters > 12 grid
	}
	gen := NewWordSearchGenerator(WordSearchOptions{}, 3)
	ws := gen.Generate(words, 10)

	for _, p := range ws.Words {
		assert.NotEqual(t, "IMPOSSIBILIDADES", p.Word)
	}
}

func TestWordSearchFoldsAccents(t *testing.T) {
	gen := NewWordSearchGenerator(WordSearchOptions{}, 11)
	ws := gen.Generate([]WordEntry{{Word: "coração", Clue: "órgão"}}, 5)

	require.Len(t, ws.Words, 1)
	assert.Equal(t, "CORACAO", ws.Words[0].Word)
}

func TestFoldPolicy(t *testing.T) {
	assert.Equal(t, "CORACAO", Fold("  coração "))
	assert.Equal(t, "AGUA", Fold("água"))
	assert.Equal(t, Fold("maçã"), Fold("MACA"))
}
