package duel

// Tic-tac-toe symbols. The host always plays X, the guest O.
const (
	SymbolX = "X"
	SymbolO = "O"
)

const seriesWinsNeeded = 3

// winningLines are the 8 three-in-a-row patterns: 3 rows, 3 columns,
// 2 diagonals.
var winningLines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

// Series aggregates a best-of-5 across rounds.
type Series struct {
	XWins            int    `json:"x_wins"`
	OWins            int    `json:"o_wins"`
	RoundNumber      int    `json:"round_number"`
	IsSeriesComplete bool   `json:"is_series_complete"`
	SeriesWinner     string `json:"series_winner,omitempty"`
}

// TicTacToeState is the shared board document for one room.
type TicTacToeState struct {
	Board         [9]string `json:"board"`
	CurrentPlayer string    `json:"current_player"`
	Winner        string    `json:"winner,omitempty"`
	WinningLine   []int     `json:"winning_line,omitempty"`
	IsDraw        bool      `json:"is_draw"`
	Initialized   bool      `json:"initialized"`
	Series        Series    `json:"series"`
}

// NewTicTacToeState builds the initial round-1 board. The host moves first
// as X.
func NewTicTacToeState() *TicTacToeState {
	return &TicTacToeState{
		CurrentPlayer: SymbolX,
		Initialized:   true,
		Series:        Series{RoundNumber: 1},
	}
}

// CheckWinner scans the 8 line patterns for three equal non-empty symbols.
// When the board is full without a line, it reports a draw.
func CheckWinner(board [9]string) (winner string, line []int, isDraw bool) {
	for _, l := range winningLines {
		if board[l[0]] != "" && board[l[0]] == board[l[1]] && board[l[1]] == board[l[2]] {
			return board[l[0]], []int{l[0], l[1], l[2]}, false
		}
	}
	for _, cell := range board {
		if cell == "" {
			return "", nil, false
		}
	}
	return "", nil, true
}

// ApplyMove writes symbol at cell and advances the turn, re-validating turn
// ownership and cell emptiness against the just-fetched state. Returns false
// (state untouched) when a precondition fails, so a raced update becomes a
// no-op write.
func (s *TicTacToeState) ApplyMove(symbol string, cell int) bool {
	if cell < 0 || cell >= len(s.Board) {
		return false
	}
	if s.Winner != "" || s.IsDraw || s.Series.IsSeriesComplete {
		return false
	}
	if s.CurrentPlayer != symbol {
		return false // not this player's turn anymore
	}
	if s.Board[cell] != "" {
		return false // cell taken by a racing move
	}

	s.Board[cell] = symbol
	winner, line, isDraw := CheckWinner(s.Board)
	s.Winner = winner
	s.WinningLine = line
	s.IsDraw = isDraw
	if symbol == SymbolX {
		s.CurrentPlayer = SymbolO
	} else {
		s.CurrentPlayer = SymbolX
	}
	return true
}

// AdvanceRound moves the series forward after a terminal round: the winner's
// counter increments (draws replay without counting), the board resets, and
// the series completes once either symbol reaches 3 wins. Returns false when
// the round is not actually over.
func (s *TicTacToeState) AdvanceRound() bool {
	if s.Winner == "" && !s.IsDraw {
		return false
	}
	if s.Series.IsSeriesComplete {
		return false
	}

	switch s.Winner {
	case SymbolX:
		s.Series.XWins++
	case SymbolO:
		s.Series.OWins++
	}
	if s.Series.XWins >= seriesWinsNeeded {
		s.Series.IsSeriesComplete = true
		s.Series.SeriesWinner = SymbolX
	} else if s.Series.OWins >= seriesWinsNeeded {
		s.Series.IsSeriesComplete = true
		s.Series.SeriesWinner = SymbolO
	}

	s.Board = [9]string{}
	s.Winner = ""
	s.WinningLine = nil
	s.IsDraw = false
	s.Series.RoundNumber++
	// Alternate the opening player each round.
	if s.Series.RoundNumber%2 == 1 {
		s.CurrentPlayer = SymbolX
	} else {
		s.CurrentPlayer = SymbolO
	}
	return true
}
