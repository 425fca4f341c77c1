package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/palavraduelo/arena/internal/duel"
)

var (
	// ErrRoomNotFound is returned for an unknown room id.
	ErrRoomNotFound = errors.New("room not found")
	// ErrVersionConflict is returned when a conditional state update loses
	// the version check; callers re-fetch and retry.
	ErrVersionConflict = errors.New("room state version conflict")
)

// RoomStore persists rooms. game_state is stored as JSONB next to a version
// counter so updates are true compare-and-swap at the storage layer.
type RoomStore struct {
	db DB
}

// NewRoomStore creates a room store over the given connection or tx.
func NewRoomStore(db DB) *RoomStore {
	return &RoomStore{db: db}
}

const roomColumns = "id, host_id, game_type, puzzle_id, status, max_players, game_state, state_version, started_at, finished_at, created_at"

// Insert persists a new room with its initial game_state at version 1.
func (s *RoomStore) Insert(ctx context.Context, room *duel.Room) error {
	state, err := json.Marshal(room.State)
	if err != nil {
		return fmt.Errorf("marshal game_state: %w", err)
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO rooms (id, host_id, game_type, puzzle_id, status, max_players, game_state, state_version, started_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 1, $8, $9)`,
		pgUUID(room.ID), pgUUID(room.HostID), room.GameType, room.PuzzleID, room.Status,
		room.MaxPlayers, state, room.StartedAt, room.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert room: %w", err)
	}
	room.StateVersion = 1
	return nil
}

// Get fetches a room with its current state and version.
func (s *RoomStore) Get(ctx context.Context, id uuid.UUID) (*duel.Room, error) {
	row := s.db.QueryRow(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = $1`, pgUUID(id))
	room, err := scanRoom(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRoomNotFound
	}
	return room, err
}

// GetActiveByUser finds the newest unfinished room a user participates in,
// used for reconnect.
func (s *RoomStore) GetActiveByUser(ctx context.Context, userID uuid.UUID) (*duel.Room, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+roomColumns+` FROM rooms
		WHERE status <> $1
		  AND game_state->'participants' @> $2
		ORDER BY created_at DESC LIMIT 1`,
		duel.RoomStatusFinished,
		fmt.Sprintf(`[{"user_id":%q}]`, userID))
	room, err := scanRoom(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRoomNotFound
	}
	return room, err
}

// ListRecentByUser returns a user's match history, newest first. Rooms are
// retained forever for this.
func (s *RoomStore) ListRecentByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*duel.Room, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(ctx, `
		SELECT `+roomColumns+` FROM rooms
		WHERE game_state->'participants' @> $1
		ORDER BY created_at DESC LIMIT $2`,
		fmt.Sprintf(`[{"user_id":%q}]`, userID), limit)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	defer rows.Close()

	var rooms []*duel.Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}

// ListActive returns unfinished rooms for a game type, used by the
// battleship forfeit sweep.
func (s *RoomStore) ListActive(ctx context.Context, gameType string) ([]*duel.Room, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+roomColumns+` FROM rooms
		WHERE game_type = $1 AND status = $2
		ORDER BY created_at ASC`,
		gameType, duel.RoomStatusPlaying)
	if err != nil {
		return nil, fmt.Errorf("list active rooms: %w", err)
	}
	defer rows.Close()

	var rooms []*duel.Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}

// UpdateState conditionally replaces game_state: the write only lands when
// the stored version still equals expectedVersion, otherwise
// ErrVersionConflict. Terminal states also flip the room status and stamp
// finished_at.
func (s *RoomStore) UpdateState(ctx context.Context, id uuid.UUID, expectedVersion int64, state *duel.GameState) (int64, error) {
	data, err := json.Marshal(state)
	if err != nil {
		return 0, fmt.Errorf("marshal game_state: %w", err)
	}
	status := duel.RoomStatusPlaying
	var finishedAt *time.Time
	if state.Phase == duel.PhaseFinished {
		status = duel.RoomStatusFinished
		now := time.Now().UTC()
		finishedAt = &now
	}

	tag, err := s.db.Exec(ctx, `
		UPDATE rooms
		SET game_state = $1,
		    state_version = state_version + 1,
		    status = $2,
		    finished_at = COALESCE(finished_at, $3)
		WHERE id = $4 AND state_version = $5`,
		data, status, finishedAt, pgUUID(id), expectedVersion)
	if err != nil {
		return 0, fmt.Errorf("update room state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return 0, ErrVersionConflict
	}
	return expectedVersion + 1, nil
}

func scanRoom(row pgx.Row) (*duel.Room, error) {
	var (
		room     duel.Room
		id, host pgtype.UUID
		state    []byte
	)
	err := row.Scan(&id, &host, &room.GameType, &room.PuzzleID, &room.Status,
		&room.MaxPlayers, &state, &room.StateVersion, &room.StartedAt, &room.FinishedAt, &room.CreatedAt)
	if err != nil {
		return nil, err
	}
	room.ID = fromPGUUID(id)
	room.HostID = fromPGUUID(host)
	if len(state) > 0 {
		parsed, err := duel.ParseGameState(state)
		if err != nil {
			return nil, err
		}
		room.State = parsed
	}
	return &room, nil
}
