package puzzle

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/palavraduelo/arena/internal/metrics"
)

// Puzzle type identifiers used in cache keys and duel puzzle references.
const (
	TypeCrossword  = "crossword"
	TypeWordSearch = "wordsearch"
)

// ServiceOptions configures puzzle generation defaults.
type ServiceOptions struct {
	MaxCrosswordWords  int // default 12
	MaxWordSearchWords int // default 10
}

// Service builds daily puzzles and on-demand duel puzzles on top of the
// quality gate, caching daily instances in Redis.
type Service struct {
	gate    *Gate
	cache   *Cache
	pool    []WordEntry
	opts    ServiceOptions
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// NewService creates the puzzle service. An empty pool falls back to the
// built-in dictionary slice; metrics may be nil in tests.
func NewService(gate *Gate, cache *Cache, pool []WordEntry, opts ServiceOptions, m *metrics.Metrics, logger zerolog.Logger) *Service {
	if len(pool) == 0 {
		pool = DefaultPool
	}
	if opts.MaxCrosswordWords <= 0 {
		opts.MaxCrosswordWords = 12
	}
	if opts.MaxWordSearchWords <= 0 {
		opts.MaxWordSearchWords = 10
	}
	return &Service{
		gate:    gate,
		cache:   cache,
		pool:    pool,
		opts:    opts,
		metrics: m,
		logger:  logger.With().Str("component", "puzzle_service").Logger(),
	}
}

func (s *Service) observe(puzzleType string, err error) {
	if s.metrics == nil {
		return
	}
	s.metrics.PuzzleAttempts.WithLabelValues(puzzleType).Inc()
	if err != nil {
		s.metrics.PuzzleFailures.WithLabelValues(puzzleType).Inc()
	}
}

// Daily returns the cached puzzle for the given type and date (YYYY-MM-DD),
// generating and caching it on first request. The crossword path retries on
// the looser fallback bar before giving up, but never serves a silent
// degraded grid.
func (s *Service) Daily(ctx context.Context, puzzleType, date string) (json.RawMessage, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, puzzleType, date)
		if err != nil {
			s.logger.Warn().Err(err).Str("type", puzzleType).Msg("daily cache read failed")
		} else if cached != nil {
			return cached, nil
		}
	}

	var doc any
	switch puzzleType {
	case TypeCrossword:
		cw, err := s.gate.Crossword(s.pool, s.opts.MaxCrosswordWords)
		if err != nil {
			s.logger.Warn().Err(err).Msg("standard crossword failed, trying fallback bar")
			cw, err = s.gate.CrosswordFallback(s.pool, s.opts.MaxCrosswordWords)
			if err != nil {
				s.observe(puzzleType, err)
				return nil, err
			}
		}
		s.observe(puzzleType, nil)
		doc = cw
	case TypeWordSearch:
		ws, err := s.gate.WordSearch(s.pool, s.opts.MaxWordSearchWords)
		if err != nil {
			s.observe(puzzleType, err)
			return nil, err
		}
		s.observe(puzzleType, nil)
		doc = ws
	default:
		return nil, fmt.Errorf("unknown puzzle type %q", puzzleType)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, puzzleType, date, doc); err != nil {
			s.logger.Warn().Err(err).Str("type", puzzleType).Msg("daily cache write failed")
		}
	}
	return json.Marshal(doc)
}

// ForDuel builds a fresh puzzle instance for a matched duel pair. Unlike the
// daily path this never uses the fallback quality bar.
func (s *Service) ForDuel(ctx context.Context, puzzleType string) (json.RawMessage, error) {
	switch puzzleType {
	case TypeCrossword:
		cw, err := s.gate.Crossword(s.pool, s.opts.MaxCrosswordWords)
		s.observe(puzzleType, err)
		if err != nil {
			return nil, err
		}
		return json.Marshal(cw)
	case TypeWordSearch:
		ws, err := s.gate.WordSearch(s.pool, s.opts.MaxWordSearchWords)
		s.observe(puzzleType, err)
		if err != nil {
			return nil, err
		}
		return json.Marshal(ws)
	default:
		return nil, fmt.Errorf("unknown puzzle type %q", puzzleType)
	}
}

// GenerateDailies is the daily cron target: it pre-generates and caches both
// puzzle types for today's date.
func (s *Service) GenerateDailies(ctx context.Context) error {
	date := time.Now().UTC().Format("2006-01-02")
	for _, t := range []string{TypeCrossword, TypeWordSearch} {
		if _, err := s.Daily(ctx, t, date); err != nil {
			return fmt.Errorf("generate daily %s: %w", t, err)
		}
		s.logger.Info().Str("type", t).Str("date", date).Msg("daily puzzle ready")
	}
	return nil
}
