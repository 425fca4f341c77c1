package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the service's Prometheus collectors. Constructed once and
// injected; nothing here is package-global.
type Metrics struct {
	MatchesTotal        *prometheus.CounterVec
	MatcherPassDuration prometheus.Histogram
	QueueDepth          *prometheus.GaugeVec
	PuzzleAttempts      *prometheus.CounterVec
	PuzzleFailures      *prometheus.CounterVec
	StateConflicts      prometheus.Counter
	ShotResolutions     *prometheus.CounterVec
}

// New registers all collectors on the given registry.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		MatchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "arena_matches_total",
			Help: "Matches created, labeled by game type and match reason.",
		}, []string{"game_type", "reason"}),
		MatcherPassDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "arena_matcher_pass_seconds",
			Help:    "Duration of one matcher batch pass.",
			Buckets: prometheus.DefBuckets,
		}),
		QueueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "arena_queue_depth",
			Help: "Queued entries observed at the start of a matcher pass.",
		}, []string{"game_type"}),
		PuzzleAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "arena_puzzle_generation_attempts_total",
			Help: "Puzzle generation attempts, labeled by puzzle type.",
		}, []string{"puzzle_type"}),
		PuzzleFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "arena_puzzle_generation_failures_total",
			Help: "Puzzle generations that exhausted the retry budget.",
		}, []string{"puzzle_type"}),
		StateConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "arena_room_state_conflicts_total",
			Help: "Room state writes that lost the version check and retried.",
		}),
		ShotResolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "arena_battleship_shot_resolutions_total",
			Help: "Battleship shot resolutions, labeled by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(
		m.MatchesTotal,
		m.MatcherPassDuration,
		m.QueueDepth,
		m.PuzzleAttempts,
		m.PuzzleFailures,
		m.StateConflicts,
		m.ShotResolutions,
	)
	return m
}
