package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/palavraduelo/arena/internal/duel"
	"github.com/palavraduelo/arena/internal/matchmaking"
	"github.com/palavraduelo/arena/internal/metrics"
	"github.com/palavraduelo/arena/internal/puzzle"
	"github.com/palavraduelo/arena/internal/store"
)

var (
	// ErrInvalidGameType rejects a join for an unknown game.
	ErrInvalidGameType = errors.New("invalid game type")
	// ErrInvalidSeat rejects a seat preference outside host/guest.
	ErrInvalidSeat = errors.New("invalid seat preference")
	// ErrNotQueueOwner rejects a cancel for someone else's entry.
	ErrNotQueueOwner = errors.New("queue entry belongs to another user")
)

// JoinRequest is a player's matchmaking request.
type JoinRequest struct {
	UserID       uuid.UUID
	GameType     string
	Rating       int
	SkillBracket string
	Region       string
	Private      bool
	MatchCode    string
	Seat         string
}

// JoinResult reports the outcome of a join: always the queued entry, plus the
// room when the immediate pairing attempt matched right away.
type JoinResult struct {
	Entry matchmaking.QueueEntry
	Room  *duel.Room
}

// MatchNotice announces a committed pairing to the delivery layer.
type MatchNotice struct {
	Room  *duel.Room
	Host  matchmaking.QueueEntry
	Guest matchmaking.QueueEntry
}

// roomCreation carries a built room plus the private side effects that must
// land after the transaction commits.
type roomCreation struct {
	room      *duel.Room
	fleets    map[uuid.UUID]*duel.Fleet
	puzzleDoc []byte
}

// Service orchestrates matchmaking and room lifecycle: queue joins with an
// immediate pairing attempt, scheduled batch passes under a single-flight
// lock, and server-side battleship resolution.
type Service struct {
	store    *store.Store
	notifier *store.Notifier
	puzzles  *puzzle.Service
	vault    *FleetVault
	stash    *PuzzleStash
	metrics  *metrics.Metrics
	passLock *matchmaking.PassLock
	logger   zerolog.Logger

	mu      sync.Mutex
	rng     *rand.Rand
	onMatch func(MatchNotice)
}

// NewService wires the orchestrator.
func NewService(st *store.Store, notifier *store.Notifier, puzzles *puzzle.Service, vault *FleetVault, stash *PuzzleStash, m *metrics.Metrics, passLock *matchmaking.PassLock, logger zerolog.Logger) *Service {
	return &Service{
		store:    st,
		notifier: notifier,
		puzzles:  puzzles,
		vault:    vault,
		stash:    stash,
		metrics:  m,
		passLock: passLock,
		logger:   logger.With().Str("component", "game_service").Logger(),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SetOnMatch registers the delivery callback invoked after every committed
// pairing. Must be called before any join or pass runs.
func (s *Service) SetOnMatch(fn func(MatchNotice)) {
	s.mu.Lock()
	s.onMatch = fn
	s.mu.Unlock()
}

// Rooms exposes the room store for read paths (attach, history).
func (s *Service) Rooms() *store.RoomStore { return s.store.Rooms }

// Queue exposes the queue store for read paths (reconcile).
func (s *Service) Queue() *store.QueueStore { return s.store.Queue }

// Notifier exposes the room change notifier for session subscriptions.
func (s *Service) Notifier() *store.Notifier { return s.notifier }

// Vault exposes the private fleet vault.
func (s *Service) Vault() *FleetVault { return s.vault }

// Stash exposes the duel puzzle stash.
func (s *Service) Stash() *PuzzleStash { return s.stash }

// Metrics exposes the collectors for session-level counters.
func (s *Service) Metrics() *metrics.Metrics { return s.metrics }

// JoinQueue inserts a queue entry and immediately tries to pair it, both
// inside one transaction: either the player is queued (and possibly matched
// with a room) or nothing happened at all. Private joins without a code get a
// fresh room code to share.
func (s *Service) JoinQueue(ctx context.Context, req JoinRequest) (*JoinResult, error) {
	if !validGameType(req.GameType) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidGameType, req.GameType)
	}
	if req.Seat != "" && req.Seat != matchmaking.SeatHost && req.Seat != matchmaking.SeatGuest {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSeat, req.Seat)
	}

	code := strings.ToUpper(strings.TrimSpace(req.MatchCode))
	if req.Private && code == "" {
		code = matchmaking.NewRoomCode()
	}
	now := time.Now().UTC()
	entry := matchmaking.QueueEntry{
		ID:             uuid.New(),
		UserID:         req.UserID,
		GameType:       req.GameType,
		RatingSnapshot: req.Rating,
		SkillBracket:   strings.ToLower(strings.TrimSpace(req.SkillBracket)),
		Region:         strings.ToLower(strings.TrimSpace(req.Region)),
		Status:         matchmaking.EntryStatusQueued,
		Metadata: matchmaking.EntryMetadata{
			MatchCode: code,
			Seat:      req.Seat,
		},
		JoinedAt: now,
	}

	var (
		created *roomCreation
		pair    matchmaking.MatchPair
	)
	err := s.store.WithTx(ctx, func(rooms *store.RoomStore, queue *store.QueueStore) error {
		if err := queue.Insert(ctx, entry); err != nil {
			return err
		}
		entries, err := queue.ListQueued(ctx, entry.GameType)
		if err != nil {
			return err
		}
		// Only a pair involving the new entry is committed here; everyone
		// else waits for the scheduled pass so join latency stays flat.
		for _, p := range matchmaking.BuildMatches(entries, now) {
			if p.Host.ID != entry.ID && p.Guest.ID != entry.ID {
				continue
			}
			c, err := s.buildRoom(ctx, p, now)
			if err != nil {
				// Generation failed: the player still joins the queue and
				// the scheduled pass retries the pairing.
				s.logger.Warn().Err(err).Str("game_type", entry.GameType).Msg("immediate pairing build failed, entry stays queued")
				return nil
			}
			if err := s.commitPair(ctx, rooms, queue, p, c, now); err != nil {
				return err
			}
			created, pair = c, p
			return nil
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &JoinResult{Entry: entry}
	if created != nil {
		s.afterMatch(ctx, pair, created)
		result.Room = created.room
		if pair.Host.ID == entry.ID {
			result.Entry = withMatchMeta(pair.Host, created.room, pair.Reason, now)
		} else {
			result.Entry = withMatchMeta(pair.Guest, created.room, pair.Reason, now)
		}
	}
	return result, nil
}

// LeaveQueue cancels a queued entry. An entry the matcher already consumed
// reports store.ErrEntryNotFound; callers then reconcile against active rooms.
func (s *Service) LeaveQueue(ctx context.Context, userID, entryID uuid.UUID) error {
	entry, err := s.store.Queue.Get(ctx, entryID)
	if err != nil {
		return err
	}
	if entry.UserID != userID {
		return ErrNotQueueOwner
	}
	return s.store.Queue.Delete(ctx, entryID)
}

// Reconcile resolves an ambiguous join after a timed-out RPC: the entry may
// be queued, matched into a room, or gone. Exactly one of entry/room is
// non-zero on success.
func (s *Service) Reconcile(ctx context.Context, userID uuid.UUID, gameType string) (*matchmaking.QueueEntry, *duel.Room, error) {
	entry, err := s.store.Queue.GetQueuedByUser(ctx, userID, gameType)
	if err == nil {
		return &entry, nil, nil
	}
	if !errors.Is(err, store.ErrEntryNotFound) {
		return nil, nil, err
	}
	room, err := s.store.Rooms.GetActiveByUser(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return nil, room, nil
}

// RunPass executes one matcher batch for a game type under the single-flight
// lock. A pass held elsewhere is silently skipped. Each pair commits in its
// own transaction; a failed pair stays queued for the next pass.
func (s *Service) RunPass(ctx context.Context, gameType string) error {
	unlock, err := s.passLock.Acquire(ctx, gameType)
	if errors.Is(err, matchmaking.ErrPassInProgress) {
		return nil
	}
	if err != nil {
		return err
	}
	defer func() {
		if err := unlock(); err != nil {
			s.logger.Warn().Err(err).Str("game_type", gameType).Msg("pass unlock failed")
		}
	}()

	start := time.Now()
	now := start.UTC()
	entries, err := s.store.Queue.ListQueued(ctx, gameType)
	if err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.QueueDepth.WithLabelValues(gameType).Set(float64(len(entries)))
	}

	for _, pair := range matchmaking.BuildMatches(entries, now) {
		c, err := s.buildRoom(ctx, pair, now)
		if err != nil {
			s.logger.Warn().Err(err).Str("game_type", gameType).Msg("room build failed, pair stays queued")
			continue
		}
		err = s.store.WithTx(ctx, func(rooms *store.RoomStore, queue *store.QueueStore) error {
			return s.commitPair(ctx, rooms, queue, pair, c, now)
		})
		if err != nil {
			s.logger.Warn().Err(err).Str("game_type", gameType).Msg("pair commit failed, pair stays queued")
			continue
		}
		s.afterMatch(ctx, pair, c)
	}

	if s.metrics != nil {
		s.metrics.MatcherPassDuration.Observe(time.Since(start).Seconds())
	}
	return nil
}

// buildRoom assembles the initial room document for a pair: the shared state
// variant for the game type, private fleets for battleship, and a fresh
// puzzle instance for race duels.
func (s *Service) buildRoom(ctx context.Context, pair matchmaking.MatchPair, now time.Time) (*roomCreation, error) {
	participants := []duel.Participant{
		{
			UserID:       pair.Host.UserID,
			Seat:         duel.SeatHost,
			Rating:       pair.Host.RatingSnapshot,
			SkillBracket: pair.Host.SkillBracket,
			Region:       pair.Host.EffectiveRegion(),
		},
		{
			UserID:       pair.Guest.UserID,
			Seat:         duel.SeatGuest,
			Rating:       pair.Guest.RatingSnapshot,
			SkillBracket: pair.Guest.SkillBracket,
			Region:       pair.Guest.EffectiveRegion(),
		},
	}

	state := &duel.GameState{
		GameType:     pair.Host.GameType,
		Phase:        duel.PhasePlaying,
		RoomCode:     pair.Host.Metadata.MatchCode,
		MatchReason:  pair.Reason,
		Participants: participants,
	}
	creation := &roomCreation{}
	var puzzleID string

	switch pair.Host.GameType {
	case duel.GameTicTacToe:
		state.TicTacToe = duel.NewTicTacToeState()

	case duel.GameBattleship:
		fleets := make(map[uuid.UUID]*duel.Fleet, 2)
		for i := range state.Participants {
			fleet, err := s.placeFleet()
			if err != nil {
				return nil, err
			}
			state.Participants[i].FleetHash = fleet.Hash()
			fleets[state.Participants[i].UserID] = fleet
		}
		state.Battleship = duel.NewBattleshipState(pair.Host.UserID)
		creation.fleets = fleets

	case duel.GameCrosswordDuel, duel.GameWordSearchDuel:
		puzzleType := puzzle.TypeCrossword
		if pair.Host.GameType == duel.GameWordSearchDuel {
			puzzleType = puzzle.TypeWordSearch
		}
		doc, err := s.puzzles.ForDuel(ctx, puzzleType)
		if err != nil {
			return nil, err
		}
		puzzleID = uuid.New().String()
		state.Race = duel.NewProgressState(puzzleID, pair.Host.UserID, pair.Guest.UserID)
		creation.puzzleDoc = doc

	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidGameType, pair.Host.GameType)
	}

	if err := state.Validate(); err != nil {
		return nil, err
	}

	startedAt := now
	creation.room = &duel.Room{
		ID:         uuid.New(),
		HostID:     pair.Host.UserID,
		GameType:   pair.Host.GameType,
		PuzzleID:   puzzleID,
		Status:     duel.RoomStatusPlaying,
		MaxPlayers: duel.DefaultMaxPlayers,
		State:      state,
		StartedAt:  &startedAt,
		CreatedAt:  now,
	}
	return creation, nil
}

func (s *Service) placeFleet() (*duel.Fleet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return duel.AutoPlaceFleet(s.rng)
}

// commitPair persists the room and flips both entries to matched inside the
// caller's transaction. A MarkMatched conflict (entry consumed elsewhere)
// rolls the whole pair back.
func (s *Service) commitPair(ctx context.Context, rooms *store.RoomStore, queue *store.QueueStore, pair matchmaking.MatchPair, c *roomCreation, now time.Time) error {
	if err := rooms.Insert(ctx, c.room); err != nil {
		return err
	}
	for _, entry := range []matchmaking.QueueEntry{pair.Host, pair.Guest} {
		meta := entry.Metadata
		meta.RoomID = c.room.ID.String()
		meta.MatchReason = pair.Reason
		if err := queue.MarkMatched(ctx, entry.ID, meta, now); err != nil {
			return err
		}
	}
	return nil
}

// afterMatch lands the post-commit side effects: private fleets into the
// vault, the puzzle document into the stash, metrics, and delivery.
func (s *Service) afterMatch(ctx context.Context, pair matchmaking.MatchPair, c *roomCreation) {
	for userID, fleet := range c.fleets {
		if err := s.vault.Save(ctx, c.room.ID, userID, fleet); err != nil {
			s.logger.Error().Err(err).
				Str("room_id", c.room.ID.String()).
				Str("user_id", userID.String()).
				Msg("fleet vault save failed, shots against this player will forfeit")
		}
	}
	if len(c.puzzleDoc) > 0 {
		if err := s.stash.Save(ctx, c.room.PuzzleID, c.puzzleDoc); err != nil {
			s.logger.Error().Err(err).Str("room_id", c.room.ID.String()).Msg("puzzle stash save failed")
		}
	}
	if s.metrics != nil {
		s.metrics.MatchesTotal.WithLabelValues(c.room.GameType, pair.Reason).Inc()
	}
	if err := s.notifier.PublishState(ctx, c.room.ID, c.room.StateVersion, c.room.State); err != nil {
		s.logger.Warn().Err(err).Str("room_id", c.room.ID.String()).Msg("publish initial state failed")
	}

	s.mu.Lock()
	fn := s.onMatch
	s.mu.Unlock()
	if fn != nil {
		notice := MatchNotice{
			Room:  c.room,
			Host:  withMatchMeta(pair.Host, c.room, pair.Reason, c.room.CreatedAt),
			Guest: withMatchMeta(pair.Guest, c.room, pair.Reason, c.room.CreatedAt),
		}
		fn(notice)
	}
}

// ResolvePendingShots runs the defender side of the shot handshake on the
// server: it loads the defender's private fleet and confirms every pending
// shot against it as hit or miss. Called when the defender attaches and on
// every observed change while attached. Returns how many shots were resolved.
func (s *Service) ResolvePendingShots(ctx context.Context, roomID, defenderID uuid.UUID) (int, error) {
	fleet, err := s.vault.Load(ctx, roomID, defenderID)
	if err != nil {
		return 0, err
	}

	resolved := 0
	var results []string
	_, changed, err := s.updateState(ctx, roomID, func(state *duel.GameState) bool {
		if state.GameType != duel.GameBattleship || state.Battleship == nil {
			return false
		}
		resolved = 0
		results = results[:0]
		now := time.Now().UTC()
		for _, shot := range state.Battleship.PendingShotsAgainst(defenderID) {
			hit := fleet.HasShipAt(shot.Row, shot.Col)
			if state.Battleship.ResolveShot(shot.Key, defenderID, hit, now) {
				resolved++
				if hit {
					results = append(results, duel.ShotHit)
				} else {
					results = append(results, duel.ShotMiss)
				}
			}
		}
		if state.Battleship.WinnerID != nil {
			state.Phase = duel.PhaseFinished
		}
		return resolved > 0
	})
	if err != nil {
		return 0, err
	}
	if changed && s.metrics != nil {
		for _, r := range results {
			s.metrics.ShotResolutions.WithLabelValues(r).Inc()
		}
	}
	return resolved, nil
}

// SweepForfeits closes the never-confirming-defender gap: pending shots older
// than timeout across all active battleship rooms resolve as forfeit, awarding
// the room to the attacker.
func (s *Service) SweepForfeits(ctx context.Context, timeout time.Duration) error {
	rooms, err := s.store.Rooms.ListActive(ctx, duel.GameBattleship)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	for _, room := range rooms {
		_, changed, err := s.updateState(ctx, room.ID, func(state *duel.GameState) bool {
			if state.Battleship == nil {
				return false
			}
			if !state.Battleship.ForfeitStaleShots(now, timeout) {
				return false
			}
			if state.Battleship.WinnerID != nil {
				state.Phase = duel.PhaseFinished
			}
			return true
		})
		if err != nil {
			s.logger.Warn().Err(err).Str("room_id", room.ID.String()).Msg("forfeit sweep update failed")
			continue
		}
		if changed {
			if s.metrics != nil {
				s.metrics.ShotResolutions.WithLabelValues(duel.ShotForfeit).Inc()
			}
			s.logger.Info().Str("room_id", room.ID.String()).Msg("stale pending shot forfeited")
		}
	}
	return nil
}

// updateState is the sessionless compare-and-swap loop used by server-side
// updates (shot resolution, forfeit sweep). Same retry discipline as a
// participant session.
func (s *Service) updateState(ctx context.Context, roomID uuid.UUID, updater func(*duel.GameState) bool) (*duel.Room, bool, error) {
	var lastErr error
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		room, err := s.store.Rooms.Get(ctx, roomID)
		if err != nil {
			return nil, false, err
		}
		next, err := room.State.Clone()
		if err != nil {
			return nil, false, err
		}
		if !updater(next) {
			return room, false, nil
		}
		version, err := s.store.Rooms.UpdateState(ctx, roomID, room.StateVersion, next)
		if errors.Is(err, store.ErrVersionConflict) {
			if s.metrics != nil {
				s.metrics.StateConflicts.Inc()
			}
			lastErr = err
			continue
		}
		if err != nil {
			return nil, false, err
		}
		room.State = next
		room.StateVersion = version
		if err := s.notifier.PublishState(ctx, roomID, version, next); err != nil {
			s.logger.Warn().Err(err).Str("room_id", roomID.String()).Msg("publish state change failed")
		}
		return room, true, nil
	}
	return nil, false, fmt.Errorf("update room state: %w", lastErr)
}

func withMatchMeta(entry matchmaking.QueueEntry, room *duel.Room, reason string, matchedAt time.Time) matchmaking.QueueEntry {
	entry.Status = matchmaking.EntryStatusMatched
	entry.Metadata.RoomID = room.ID.String()
	entry.Metadata.MatchReason = reason
	at := matchedAt
	entry.MatchedAt = &at
	return entry
}

func validGameType(gameType string) bool {
	for _, t := range duel.GameTypes {
		if t == gameType {
			return true
		}
	}
	return false
}
