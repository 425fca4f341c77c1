package puzzle

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
)

// Direction of a crossword placement.
const (
	DirAcross = "across"
	DirDown   = "down"
)

// ErrLowQuality is returned when a generated grid fails the structural
// quality bar. Callers (the quality gate) retry with a fresh shuffle.
var ErrLowQuality = errors.New("crossword below quality threshold")

// CrosswordPlacement records one word laid into the grid.
type CrosswordPlacement struct {
	Word      string `json:"word"`
	Clue      string `json:"clue"`
	Row       int    `json:"row"`
	Col       int    `json:"col"`
	Direction string `json:"direction"`
	Number    int    `json:"number"`
}

// CrosswordClue is a numbered clue in the across or down list.
type CrosswordClue struct {
	Number int    `json:"number"`
	Text   string `json:"text"`
	Word   string `json:"word"`
	Row    int    `json:"row"`
	Col    int    `json:"col"`
}

// Crossword is a trimmed, numbered grid. Empty strings in Grid are blocked
// (black) cells.
type Crossword struct {
	Grid       [][]string           `json:"grid"`
	Rows       int                  `json:"rows"`
	Cols       int                  `json:"cols"`
	Across     []CrosswordClue      `json:"across"`
	Down       []CrosswordClue      `json:"down"`
	Placements []CrosswordPlacement `json:"placements"`
	Quality    int                  `json:"quality"`
}

// CrosswordOptions tunes the constructive engine. Zero values take defaults.
type CrosswordOptions struct {
	GridSize            int     // working grid side, default 15
	MinWordLen          int     // default 3
	MaxWordLen          int     // default 10
	MinWords            int     // default 6
	MinAvgIntersections float64 // default 0.6
	MinDensity          float64 // default 0.35
	MinQuality          int     // default 60
}

func (o CrosswordOptions) withDefaults() CrosswordOptions {
	if o.GridSize <= 0 {
		o.GridSize = 15
	}
	if o.MinWordLen <= 0 {
		o.MinWordLen = 3
	}
	if o.MaxWordLen <= 0 {
		o.MaxWordLen = 10
	}
	if o.MinWords <= 0 {
		o.MinWords = 6
	}
	if o.MinAvgIntersections <= 0 {
		o.MinAvgIntersections = 0.6
	}
	if o.MinDensity <= 0 {
		o.MinDensity = 0.35
	}
	if o.MinQuality <= 0 {
		o.MinQuality = 60
	}
	return o
}

// CrosswordGenerator places dictionary words into an intersecting grid.
// Not safe for concurrent use; each generator owns its RNG.
type CrosswordGenerator struct {
	opts CrosswordOptions
	rng  *rand.Rand
}

// NewCrosswordGenerator creates an engine with the provided options.
func NewCrosswordGenerator(opts CrosswordOptions, seed int64) *CrosswordGenerator {
	return &CrosswordGenerator{
		opts: opts.withDefaults(),
		rng:  rand.New(rand.NewSource(seed)),
	}
}

type placedWord struct {
	entry   WordEntry
	letters []rune
	row     int
	col     int
	dir     string
}

type candidatePlacement struct {
	row     int
	col     int
	dir     string
	matches int
}

// Generate lays up to maxWords words into the grid and scores the result.
// Returns ErrLowQuality (wrapped with the failing check) when the grid does
// not meet the structural minimums.
func (g *CrosswordGenerator) Generate(words []WordEntry, maxWords int) (*Crossword, error) {
	opts := g.opts
	size := opts.GridSize

	candidates := make([]WordEntry, 0, len(words))
	for _, w := range words {
		n := len(foldRunes(w.Word))
		if n >= opts.MinWordLen && n <= opts.MaxWordLen {
			candidates = append(candidates, w)
		}
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: no candidate words", ErrLowQuality)
	}

	g.rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})

	cells := make([][]rune, size)
	for i := range cells {
		cells[i] = make([]rune, size)
	}

	var placed []placedWord
	intersections := 0

	// First word goes horizontally through the center.
	first := placedWord{
		entry:   candidates[0],
		letters: foldRunes(candidates[0].Word),
		row:     size / 2,
		dir:     DirAcross,
	}
	first.col = (size - len(first.letters)) / 2
	writeWord(cells, first)
	placed = append(placed, first)

	for _, entry := range candidates[1:] {
		if len(placed) >= maxWords {
			break
		}
		letters := foldRunes(entry.Word)
		best, ok := g.bestPlacement(cells, size, placed, letters)
		if !ok {
			continue
		}
		pw := placedWord{entry: entry, letters: letters, row: best.row, col: best.col, dir: best.dir}
		writeWord(cells, pw)
		placed = append(placed, pw)
		intersections += best.matches
	}

	if len(placed) < opts.MinWords {
		return nil, fmt.Errorf("%w: only %d words placed", ErrLowQuality, len(placed))
	}
	avgIntersections := float64(intersections) / float64(len(placed))
	if avgIntersections < opts.MinAvgIntersections {
		return nil, fmt.Errorf("%w: avg intersections %.2f", ErrLowQuality, avgIntersections)
	}

	cw := trimAndNumber(cells, size, placed)
	density := fillDensity(cw.Grid)
	if density < opts.MinDensity {
		return nil, fmt.Errorf("%w: density %.2f", ErrLowQuality, density)
	}

	score := float64(len(placed))*10 + avgIntersections*50 + density*30
	cw.Quality = int(math.Min(100, math.Round(score)))
	if cw.Quality < opts.MinQuality {
		return nil, fmt.Errorf("%w: score %d", ErrLowQuality, cw.Quality)
	}

	return cw, nil
}

// bestPlacement scans every shared letter between the candidate and each
// placed word, keeping the perpendicular position with the most simultaneous
// letter matches. A position with any conflicting cell is rejected whole.
func (g *CrosswordGenerator) bestPlacement(cells [][]rune, size int, placed []placedWord, letters []rune) (candidatePlacement, bool) {
	var best candidatePlacement
	found := false

	for _, pw := range placed {
		for j, existing := range pw.letters {
			for i, letter := range letters {
				if letter != existing {
					continue
				}
				var row, col int
				dir := DirDown
				if pw.dir == DirAcross {
					// Candidate runs down through (pw.row, pw.col+j).
					row = pw.row - i
					col = pw.col + j
				} else {
					dir = DirAcross
					row = pw.row + j
					col = pw.col - i
				}
				matches, ok := countMatches(cells, size, row, col, dir, letters)
				if !ok {
					continue
				}
				if !found || matches > best.matches {
					best = candidatePlacement{row: row, col: col, dir: dir, matches: matches}
					found = true
				}
			}
		}
	}
	return best, found
}

// countMatches validates a placement and counts cells that already hold the
// same letter. Any occupied cell with a different letter rejects the
// placement entirely, as does an occupied cell directly before the start or
// after the end along the word's direction: such a word would extend an
// existing run and its start cell could never receive a clue number.
func countMatches(cells [][]rune, size, row, col int, dir string, letters []rune) (int, bool) {
	preR, preC := row-1, col
	postR, postC := row+len(letters), col
	if dir == DirAcross {
		preR, preC = row, col-1
		postR, postC = row, col+len(letters)
	}
	if preR >= 0 && preR < size && preC >= 0 && preC < size && cells[preR][preC] != 0 {
		return 0, false
	}
	if postR >= 0 && postR < size && postC >= 0 && postC < size && cells[postR][postC] != 0 {
		return 0, false
	}

	matches := 0
	for i, letter := range letters {
		r, c := row, col
		if dir == DirAcross {
			c += i
		} else {
			r += i
		}
		if r < 0 || r >= size || c < 0 || c >= size {
			return 0, false
		}
		switch cells[r][c] {
		case 0:
		case letter:
			matches++
		default:
			return 0, false
		}
	}
	return matches, true
}

func writeWord(cells [][]rune, pw placedWord) {
	for i, letter := range pw.letters {
		if pw.dir == DirAcross {
			cells[pw.row][pw.col+i] = letter
		} else {
			cells[pw.row+i][pw.col] = letter
		}
	}
}

// trimAndNumber crops the working grid to the occupied bounding box plus one
// cell of padding, then assigns clue numbers in row-major order. A cell that
// starts both an across and a down word reuses the same number.
func trimAndNumber(cells [][]rune, size int, placed []placedWord) *Crossword {
	minR, minC := size, size
	maxR, maxC := -1, -1
	for r := 0; r < size; r++ {
		for c := 0; c < size; c++ {
			if cells[r][c] != 0 {
				if r < minR {
					minR = r
				}
				if r > maxR {
					maxR = r
				}
				if c < minC {
					minC = c
				}
				if c > maxC {
					maxC = c
				}
			}
		}
	}
	minR = max(0, minR-1)
	minC = max(0, minC-1)
	maxR = min(size-1, maxR+1)
	maxC = min(size-1, maxC+1)

	rows := maxR - minR + 1
	cols := maxC - minC + 1
	grid := make([][]string, rows)
	for r := 0; r < rows; r++ {
		grid[r] = make([]string, cols)
		for c := 0; c < cols; c++ {
			if letter := cells[minR+r][minC+c]; letter != 0 {
				grid[r][c] = string(letter)
			}
		}
	}

	isLetter := func(r, c int) bool {
		return r >= 0 && r < rows && c >= 0 && c < cols && grid[r][c] != ""
	}

	numbers := make(map[[2]int]int)
	next := 1
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if !isLetter(r, c) {
				continue
			}
			startsAcross := !isLetter(r, c-1) && isLetter(r, c+1)
			startsDown := !isLetter(r-1, c) && isLetter(r+1, c)
			if startsAcross || startsDown {
				numbers[[2]int{r, c}] = next
				next++
			}
		}
	}

	cw := &Crossword{Grid: grid, Rows: rows, Cols: cols}
	for _, pw := range placed {
		r := pw.row - minR
		c := pw.col - minC
		num := numbers[[2]int{r, c}]
		placement := CrosswordPlacement{
			Word:      string(pw.letters),
			Clue:      pw.entry.Clue,
			Row:       r,
			Col:       c,
			Direction: pw.dir,
			Number:    num,
		}
		cw.Placements = append(cw.Placements, placement)
		clue := CrosswordClue{Number: num, Text: pw.entry.Clue, Word: placement.Word, Row: r, Col: c}
		if pw.dir == DirAcross {
			cw.Across = append(cw.Across, clue)
		} else {
			cw.Down = append(cw.Down, clue)
		}
	}
	sortCluesByNumber(cw.Across)
	sortCluesByNumber(cw.Down)
	return cw
}

func sortCluesByNumber(clues []CrosswordClue) {
	for i := 1; i < len(clues); i++ {
		for j := i; j > 0 && clues[j].Number < clues[j-1].Number; j-- {
			clues[j], clues[j-1] = clues[j-1], clues[j]
		}
	}
}

func fillDensity(grid [][]string) float64 {
	total, filled := 0, 0
	for _, row := range grid {
		for _, cell := range row {
			total++
			if cell != "" {
				filled++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(filled) / float64(total)
}
