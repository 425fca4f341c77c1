package duel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckWinnerLines(t *testing.T) {
	cases := []struct {
		name  string
		board [9]string
		want  string
		line  []int
	}{
		{"top row", [9]string{"X", "X", "X", "", "O", "", "O", "", ""}, "X", []int{0, 1, 2}},
		{"left column", [9]string{"O", "X", "", "O", "X", "", "O", "", "X"}, "O", []int{0, 3, 6}},
		{"main diagonal", [9]string{"X", "O", "", "O", "X", "", "", "", "X"}, "X", []int{0, 4, 8}},
		{"anti diagonal", [9]string{"", "O", "X", "O", "X", "", "X", "", ""}, "X", []int{2, 4, 6}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			winner, line, isDraw := CheckWinner(tc.board)
			assert.Equal(t, tc.want, winner)
			assert.Equal(t, tc.line, line)
			assert.False(t, isDraw)
		})
	}
}

func TestCheckWinnerDraw(t *testing.T) {
	board := [9]string{
		"X", "O", "X",
		"X", "O", "O",
		"O", "X", "X",
	}
	winner, line, isDraw := CheckWinner(board)
	assert.Empty(t, winner)
	assert.Nil(t, line)
	assert.True(t, isDraw)
}

func TestApplyMoveRevalidates(t *testing.T) {
	s := NewTicTacToeState()

	assert.False(t, s.ApplyMove(SymbolO, 0), "not O's turn")
	assert.True(t, s.ApplyMove(SymbolX, 0))
	assert.False(t, s.ApplyMove(SymbolX, 1), "turn passed to O")
	assert.False(t, s.ApplyMove(SymbolO, 0), "cell taken")
	assert.False(t, s.ApplyMove(SymbolO, 9), "out of bounds")
	assert.True(t, s.ApplyMove(SymbolO, 4))
}

func TestApplyMoveDetectsRoundEnd(t *testing.T) {
	s := NewTicTacToeState()
	// X: 0,1,2 wins; O: 3,4
	moves := []struct {
		symbol string
		cell   int
	}{
		{SymbolX, 0}, {SymbolO, 3}, {SymbolX, 1}, {SymbolO, 4}, {SymbolX, 2},
	}
	for _, m := range moves {
		require.True(t, s.ApplyMove(m.symbol, m.cell))
	}
	assert.Equal(t, SymbolX, s.Winner)
	assert.Equal(t, []int{0, 1, 2}, s.WinningLine)
	assert.False(t, s.ApplyMove(SymbolO, 5), "round over")
}

func TestAdvanceRoundCountsWinsAndAlternatesOpener(t *testing.T) {
	s := NewTicTacToeState()
	assert.False(t, s.AdvanceRound(), "round not over yet")

	s.Winner = SymbolX
	require.True(t, s.AdvanceRound())
	assert.Equal(t, 1, s.Series.XWins)
	assert.Equal(t, 2, s.Series.RoundNumber)
	assert.Equal(t, SymbolO, s.CurrentPlayer, "round 2 opens with O")
	assert.Equal(t, [9]string{}, s.Board)
	assert.Empty(t, s.Winner)
}

func TestAdvanceRoundDrawReplaysWithoutCounting(t *testing.T) {
	s := NewTicTacToeState()
	s.IsDraw = true
	require.True(t, s.AdvanceRound())
	assert.Zero(t, s.Series.XWins)
	assert.Zero(t, s.Series.OWins)
	assert.Equal(t, 2, s.Series.RoundNumber)
}

func TestSeriesCompletesAtThreeWins(t *testing.T) {
	s := NewTicTacToeState()
	for i := 0; i < 3; i++ {
		s.Winner = SymbolO
		require.True(t, s.AdvanceRound())
	}
	assert.True(t, s.Series.IsSeriesComplete)
	assert.Equal(t, SymbolO, s.Series.SeriesWinner)

	s.Winner = SymbolX
	assert.False(t, s.AdvanceRound(), "completed series never advances")
	assert.False(t, s.ApplyMove(s.CurrentPlayer, 0), "completed series rejects moves")
}
