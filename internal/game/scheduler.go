package game

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"

	"github.com/palavraduelo/arena/internal/duel"
	"github.com/palavraduelo/arena/internal/puzzle"
)

// SchedulerConfig holds the background job cadences.
type SchedulerConfig struct {
	MatcherInterval      time.Duration // per-game-type pass cadence
	ForfeitSweepInterval time.Duration // battleship stale-shot sweep cadence
	ForfeitTimeout       time.Duration // pending shot age before forfeit
	DailyPuzzleCron      string        // cron expression for pre-generation
}

// Scheduler owns the background jobs: matcher passes per game type, the
// battleship forfeit sweep, and daily puzzle pre-generation. Jobs run in
// singleton mode so a slow run never overlaps itself within one instance;
// cross-instance overlap is handled by the matcher pass lock.
type Scheduler struct {
	sched   gocron.Scheduler
	service *Service
	puzzles *puzzle.Service
	cfg     SchedulerConfig
	logger  zerolog.Logger
}

// NewScheduler builds the scheduler with all jobs registered but not started.
func NewScheduler(service *Service, puzzles *puzzle.Service, cfg SchedulerConfig, logger zerolog.Logger) (*Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	s := &Scheduler{
		sched:   sched,
		service: service,
		puzzles: puzzles,
		cfg:     cfg,
		logger:  logger.With().Str("component", "scheduler").Logger(),
	}
	if err := s.register(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scheduler) register() error {
	for _, gameType := range duel.GameTypes {
		gt := gameType
		_, err := s.sched.NewJob(
			gocron.DurationJob(s.cfg.MatcherInterval),
			gocron.NewTask(func() { s.runMatcherPass(gt) }),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if err != nil {
			return fmt.Errorf("register matcher job %s: %w", gt, err)
		}
	}

	_, err := s.sched.NewJob(
		gocron.DurationJob(s.cfg.ForfeitSweepInterval),
		gocron.NewTask(s.runForfeitSweep),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("register forfeit sweep: %w", err)
	}

	_, err = s.sched.NewJob(
		gocron.CronJob(s.cfg.DailyPuzzleCron, false),
		gocron.NewTask(s.runDailyPuzzles),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("register daily puzzle job: %w", err)
	}
	return nil
}

// Start launches all jobs.
func (s *Scheduler) Start() {
	s.sched.Start()
	s.logger.Info().
		Dur("matcher_interval", s.cfg.MatcherInterval).
		Dur("forfeit_sweep_interval", s.cfg.ForfeitSweepInterval).
		Str("daily_puzzle_cron", s.cfg.DailyPuzzleCron).
		Msg("background jobs started")
}

// Shutdown stops all jobs and waits for running ones.
func (s *Scheduler) Shutdown() error {
	return s.sched.Shutdown()
}

func (s *Scheduler) runMatcherPass(gameType string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.MatcherInterval)
	defer cancel()
	if err := s.service.RunPass(ctx, gameType); err != nil {
		s.logger.Warn().Err(err).Str("game_type", gameType).Msg("matcher pass failed")
	}
}

func (s *Scheduler) runForfeitSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ForfeitSweepInterval)
	defer cancel()
	if err := s.service.SweepForfeits(ctx, s.cfg.ForfeitTimeout); err != nil {
		s.logger.Warn().Err(err).Msg("forfeit sweep failed")
	}
}

func (s *Scheduler) runDailyPuzzles() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	if err := s.puzzles.GenerateDailies(ctx); err != nil {
		s.logger.Error().Err(err).Msg("daily puzzle generation failed")
	}
}
