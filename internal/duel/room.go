package duel

import (
	"time"

	"github.com/google/uuid"
)

// Room lifecycle. Rooms are never deleted; terminal rooms are marked
// finished and kept for history.
const (
	RoomStatusWaiting  = "waiting"
	RoomStatusPlaying  = "playing"
	RoomStatusFinished = "finished"
)

// DefaultMaxPlayers is fixed at 2 for all current games.
const DefaultMaxPlayers = 2

// Room is the shared mutable document representing one active match. All
// participants read and write the same State; StateVersion backs the
// conditional-update check.
type Room struct {
	ID           uuid.UUID
	HostID       uuid.UUID
	GameType     string
	PuzzleID     string
	Status       string
	MaxPlayers   int
	State        *GameState
	StateVersion int64
	StartedAt    *time.Time
	FinishedAt   *time.Time
	CreatedAt    time.Time
}
