package game

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/palavraduelo/arena/internal/duel"
	"github.com/palavraduelo/arena/internal/metrics"
	"github.com/palavraduelo/arena/internal/store"
)

// Synchronizer session states.
type SyncStatus string

const (
	StatusIdle     SyncStatus = "idle"
	StatusJoining  SyncStatus = "joining"
	StatusQueued   SyncStatus = "queued"
	StatusMatched  SyncStatus = "matched"
	StatusFinished SyncStatus = "finished"
	StatusError    SyncStatus = "error"
)

var (
	// ErrUpdateInFlight rejects an overlapping update from the same session;
	// callers retry after the pending update resolves.
	ErrUpdateInFlight = errors.New("room update already in flight")
	// ErrNotParticipant means the user is not part of the room.
	ErrNotParticipant = errors.New("user is not a room participant")
)

const maxUpdateAttempts = 3

// Synchronizer mediates one participant's view of one room: optimistic
// state updates with a version check, and wholesale snapshot replacement on
// every observed change. One synchronizer exists per (user, room) session.
type Synchronizer struct {
	rooms    *store.RoomStore
	notifier *store.Notifier
	metrics  *metrics.Metrics
	logger   zerolog.Logger
	roomID   uuid.UUID
	userID   uuid.UUID

	mu       sync.Mutex
	status   SyncStatus
	snapshot *duel.Room
	inFlight bool
}

// NewSynchronizer creates a session for a participant.
func NewSynchronizer(rooms *store.RoomStore, notifier *store.Notifier, m *metrics.Metrics, logger zerolog.Logger, roomID, userID uuid.UUID) *Synchronizer {
	return &Synchronizer{
		rooms:    rooms,
		notifier: notifier,
		metrics:  m,
		logger:   logger.With().Str("component", "synchronizer").Str("room_id", roomID.String()).Logger(),
		roomID:   roomID,
		userID:   userID,
		status:   StatusIdle,
	}
}

// Attach fetches the room, verifies membership, and primes the local
// snapshot. Safe to call again on reconnect.
func (s *Synchronizer) Attach(ctx context.Context) (*duel.Room, error) {
	s.setStatus(StatusJoining)
	room, err := s.rooms.Get(ctx, s.roomID)
	if err != nil {
		s.setStatus(StatusError)
		return nil, err
	}
	if _, ok := room.State.ParticipantByID(s.userID); !ok {
		s.setStatus(StatusError)
		return nil, ErrNotParticipant
	}

	s.mu.Lock()
	s.snapshot = room
	s.mu.Unlock()
	if room.Status == duel.RoomStatusFinished {
		s.setStatus(StatusFinished)
	} else {
		s.setStatus(StatusMatched)
	}
	return room, nil
}

// Watch runs the subscription loop until ctx is cancelled. Every change
// replaces the local snapshot wholesale (no sub-document merging) before
// onChange fires.
func (s *Synchronizer) Watch(ctx context.Context, onChange func(store.RoomChange)) {
	for change := range s.notifier.Subscribe(ctx, s.roomID) {
		state, err := duel.ParseGameState(change.State)
		if err != nil {
			s.logger.Warn().Err(err).Msg("skip invalid room change")
			continue
		}
		s.mu.Lock()
		if s.snapshot != nil && change.Version > s.snapshot.StateVersion {
			s.snapshot.State = state
			s.snapshot.StateVersion = change.Version
		}
		s.mu.Unlock()
		if state.Phase == duel.PhaseFinished {
			s.setStatus(StatusFinished)
		}
		if onChange != nil {
			onChange(change)
		}
	}
}

// UpdateState applies a pure updater to the just-fetched state and writes it
// back conditionally on the version. The updater must re-validate its
// preconditions against the current state and return false to signal a no-op
// (nothing is written in that case). A lost version check re-fetches and
// retries up to 3 times. Only one update may be in flight per session.
func (s *Synchronizer) UpdateState(ctx context.Context, updater func(*duel.GameState) bool) (*duel.Room, error) {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return nil, ErrUpdateInFlight
	}
	s.inFlight = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.inFlight = false
		s.mu.Unlock()
	}()

	var lastErr error
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		room, err := s.rooms.Get(ctx, s.roomID)
		if err != nil {
			return nil, err
		}

		next, err := room.State.Clone()
		if err != nil {
			return nil, fmt.Errorf("clone state: %w", err)
		}
		if !updater(next) {
			// Precondition failed against current state: tolerated race,
			// deliberately not surfaced as an error.
			return room, nil
		}

		version, err := s.rooms.UpdateState(ctx, s.roomID, room.StateVersion, next)
		if errors.Is(err, store.ErrVersionConflict) {
			if s.metrics != nil {
				s.metrics.StateConflicts.Inc()
			}
			lastErr = err
			continue
		}
		if err != nil {
			return nil, err
		}

		room.State = next
		room.StateVersion = version
		s.mu.Lock()
		s.snapshot = room
		s.mu.Unlock()
		if next.Phase == duel.PhaseFinished {
			s.setStatus(StatusFinished)
		}

		if err := s.notifier.PublishState(ctx, s.roomID, version, next); err != nil {
			s.logger.Warn().Err(err).Msg("publish state change failed")
		}
		return room, nil
	}
	return nil, fmt.Errorf("update room state: %w", lastErr)
}

// Status returns the session state.
func (s *Synchronizer) Status() SyncStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Snapshot returns the last observed room.
func (s *Synchronizer) Snapshot() *duel.Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot
}

func (s *Synchronizer) setStatus(status SyncStatus) {
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()
}
