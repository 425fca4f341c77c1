package puzzle

import (
	"math/rand"
)

// CompassDirection of a word-search placement.
type CompassDirection struct {
	Name string `json:"name"`
	DR   int    `json:"dr"`
	DC   int    `json:"dc"`
}

var compassDirections = []CompassDirection{
	{Name: "n", DR: -1, DC: 0},
	{Name: "ne", DR: -1, DC: 1},
	{Name: "e", DR: 0, DC: 1},
	{Name: "se", DR: 1, DC: 1},
	{Name: "s", DR: 1, DC: 0},
	{Name: "sw", DR: 1, DC: -1},
	{Name: "w", DR: 0, DC: -1},
	{Name: "nw", DR: -1, DC: -1},
}

// WordSearchPlacement records one hidden word.
type WordSearchPlacement struct {
	Word      string           `json:"word"`
	Clue      string           `json:"clue,omitempty"`
	Row       int              `json:"row"`
	Col       int              `json:"col"`
	Direction CompassDirection `json:"direction"`
}

// WordSearch is a fully filled letter grid plus the placed words.
type WordSearch struct {
	Grid  [][]string            `json:"grid"`
	Size  int                   `json:"size"`
	Words []WordSearchPlacement `json:"words"`
}

// WordSearchOptions tunes the engine. Zero values take defaults.
type WordSearchOptions struct {
	GridSize    int // default 12
	MinWordLen  int // default 4
	MaxWordLen  int // default 12
	MaxAttempts int // random starts tried per direction, default 50
}

func (o WordSearchOptions) withDefaults() WordSearchOptions {
	if o.GridSize <= 0 {
		o.GridSize = 12
	}
	if o.MinWordLen <= 0 {
		o.MinWordLen = 4
	}
	if o.MaxWordLen <= 0 {
		o.MaxWordLen = 12
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 50
	}
	return o
}

// WordSearchGenerator hides words in an 8-directional letter grid. Always
// produces a grid; words that cannot be placed are silently dropped.
// Not safe for concurrent use.
type WordSearchGenerator struct {
	opts WordSearchOptions
	rng  *rand.Rand
}

// NewWordSearchGenerator creates an engine with the provided options.
func NewWordSearchGenerator(opts WordSearchOptions, seed int64) *WordSearchGenerator {
	return &WordSearchGenerator{
		opts: opts.withDefaults(),
		rng:  rand.New(rand.NewSource(seed)),
	}
}

// Generate hides up to maxWords words and fills the remainder with
// frequency-weighted random letters.
func (g *WordSearchGenerator) Generate(words []WordEntry, maxWords int) *WordSearch {
	opts := g.opts
	size := opts.GridSize

	candidates := make([]WordEntry, 0, len(words))
	for _, w := range words {
		n := len(foldRunes(w.Word))
		if n >= opts.MinWordLen && n <= opts.MaxWordLen && n <= size {
			candidates = append(candidates, w)
		}
	}
	// Longest first: long words are hardest to fit, try them while the grid
	// is emptiest.
	for i := 1; i < len(candidates); i++ {
		for j := i; j > 0 && len(foldRunes(candidates[j].Word)) > len(foldRunes(candidates[j-1].Word)); j-- {
			candidates[j], candidates[j-1] = candidates[j-1], candidates[j]
		}
	}

	grid := make([][]string, size)
	for i := range grid {
		grid[i] = make([]string, size)
	}

	ws := &WordSearch{Size: size}
	for _, entry := range candidates {
		if len(ws.Words) >= maxWords {
			break
		}
		if placement, ok := g.placeWord(grid, entry); ok {
			ws.Words = append(ws.Words, placement)
		}
	}

	for r := 0; r < size; r++ {
		for c := 0; c < size; c++ {
			if grid[r][c] == "" {
				grid[r][c] = randomLetter(g.rng.Intn)
			}
		}
	}
	ws.Grid = grid
	return ws
}

func (g *WordSearchGenerator) placeWord(grid [][]string, entry WordEntry) (WordSearchPlacement, bool) {
	letters := foldRunes(entry.Word)
	size := g.opts.GridSize

	dirs := make([]CompassDirection, len(compassDirections))
	copy(dirs, compassDirections)
	g.rng.Shuffle(len(dirs), func(i, j int) { dirs[i], dirs[j] = dirs[j], dirs[i] })

	for _, dir := range dirs {
		for attempt := 0; attempt < g.opts.MaxAttempts; attempt++ {
			row := g.rng.Intn(size)
			col := g.rng.Intn(size)
			if !fits(grid, size, row, col, dir, letters) {
				continue
			}
			for i, letter := range letters {
				grid[row+dir.DR*i][col+dir.DC*i] = string(letter)
			}
			return WordSearchPlacement{
				Word:      string(letters),
				Clue:      entry.Clue,
				Row:       row,
				Col:       col,
				Direction: dir,
			}, true
		}
	}
	return WordSearchPlacement{}, false
}

// fits reports whether every cell along the path is in bounds and either
// empty or already holding the same (folded) letter, so crossings are
// allowed on agreement.
func fits(grid [][]string, size, row, col int, dir CompassDirection, letters []rune) bool {
	endR := row + dir.DR*(len(letters)-1)
	endC := col + dir.DC*(len(letters)-1)
	if endR < 0 || endR >= size || endC < 0 || endC >= size {
		return false
	}
	for i, letter := range letters {
		cell := grid[row+dir.DR*i][col+dir.DC*i]
		if cell != "" && cell != string(letter) {
			return false
		}
	}
	return true
}
