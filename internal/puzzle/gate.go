package puzzle

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// ErrGenerationFailed signals that no acceptable puzzle could be produced
// within the attempt budget. Callers surface "no puzzle available" instead
// of serving degraded content.
var ErrGenerationFailed = errors.New("puzzle generation failed")

const (
	defaultGateAttempts     = 5
	crosswordMinQuality     = 60
	crosswordFallbackMin    = 40
	wordSearchMinPlacements = 8
)

// Gate wraps the placement engines in a bounded retry loop, accepting only
// results that clear the per-type quality bar.
type Gate struct {
	attempts int
	logger   zerolog.Logger
	seed     func() int64
}

// NewGate creates a quality gate. seed may be nil; each attempt then uses
// the wall clock so retries reshuffle.
func NewGate(logger zerolog.Logger, seed func() int64) *Gate {
	if seed == nil {
		seed = func() int64 { return time.Now().UnixNano() }
	}
	return &Gate{
		attempts: defaultGateAttempts,
		logger:   logger.With().Str("component", "puzzle_gate").Logger(),
		seed:     seed,
	}
}

// Crossword generates a standard-quality crossword (score >= 60).
func (g *Gate) Crossword(words []WordEntry, maxWords int) (*Crossword, error) {
	return g.crossword(words, maxWords, crosswordMinQuality)
}

// CrosswordFallback uses the looser daily-fallback bar (score >= 40).
func (g *Gate) CrosswordFallback(words []WordEntry, maxWords int) (*Crossword, error) {
	return g.crossword(words, maxWords, crosswordFallbackMin)
}

func (g *Gate) crossword(words []WordEntry, maxWords, minQuality int) (*Crossword, error) {
	var lastErr error
	for attempt := 1; attempt <= g.attempts; attempt++ {
		gen := NewCrosswordGenerator(CrosswordOptions{MinQuality: minQuality}, g.seed())
		cw, err := gen.Generate(words, maxWords)
		if err == nil {
			g.logger.Debug().
				Int("attempt", attempt).
				Int("quality", cw.Quality).
				Int("words", len(cw.Placements)).
				Msg("crossword accepted")
			return cw, nil
		}
		lastErr = err
		g.logger.Debug().Int("attempt", attempt).Err(err).Msg("crossword rejected")
	}
	return nil, fmt.Errorf("%w: crossword after %d attempts: %v", ErrGenerationFailed, g.attempts, lastErr)
}

// WordSearch generates a grid, accepting the first attempt hiding at least
// 8 of the requested words (or all of them when fewer were requested).
func (g *Gate) WordSearch(words []WordEntry, maxWords int) (*WordSearch, error) {
	required := wordSearchMinPlacements
	if maxWords < required {
		required = maxWords
	}
	if len(words) < required {
		required = len(words)
	}

	var best *WordSearch
	for attempt := 1; attempt <= g.attempts; attempt++ {
		gen := NewWordSearchGenerator(WordSearchOptions{}, g.seed())
		ws := gen.Generate(words, maxWords)
		if len(ws.Words) >= required {
			g.logger.Debug().
				Int("attempt", attempt).
				Int("placed", len(ws.Words)).
				Msg("word search accepted")
			return ws, nil
		}
		if best == nil || len(ws.Words) > len(best.Words) {
			best = ws
		}
		g.logger.Debug().Int("attempt", attempt).Int("placed", len(ws.Words)).Msg("word search below minimum")
	}
	placed := 0
	if best != nil {
		placed = len(best.Words)
	}
	return nil, fmt.Errorf("%w: word search placed %d/%d words after %d attempts", ErrGenerationFailed, placed, required, g.attempts)
}
