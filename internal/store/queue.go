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

	"github.com/palavraduelo/arena/internal/matchmaking"
)

// ErrEntryNotFound is returned when a queue entry does not exist (already
// deleted on cancel, or consumed by a matcher pass).
var ErrEntryNotFound = errors.New("queue entry not found")

// QueueStore persists matchmaking queue entries.
type QueueStore struct {
	db DB
}

// NewQueueStore creates a queue store over the given connection or tx.
func NewQueueStore(db DB) *QueueStore {
	return &QueueStore{db: db}
}

const queueColumns = "id, user_id, game_type, rating_snapshot, skill_bracket, region, status, metadata, joined_at, matched_at"

// Insert persists a new queued entry.
func (s *QueueStore) Insert(ctx context.Context, e matchmaking.QueueEntry) error {
	meta, err := json.Marshal(e.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO queue_entries (id, user_id, game_type, rating_snapshot, skill_bracket, region, status, metadata, joined_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		pgUUID(e.ID), pgUUID(e.UserID), e.GameType, e.RatingSnapshot, e.SkillBracket,
		e.Region, e.Status, meta, e.JoinedAt)
	if err != nil {
		return fmt.Errorf("insert queue entry: %w", err)
	}
	return nil
}

// Delete removes an entry, used when a player cancels. Deleting an entry the
// matcher already consumed reports ErrEntryNotFound so the caller reconciles.
func (s *QueueStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM queue_entries WHERE id = $1 AND status = $2`, pgUUID(id), matchmaking.EntryStatusQueued)
	if err != nil {
		return fmt.Errorf("delete queue entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrEntryNotFound
	}
	return nil
}

// Get fetches one entry by id.
func (s *QueueStore) Get(ctx context.Context, id uuid.UUID) (matchmaking.QueueEntry, error) {
	row := s.db.QueryRow(ctx, `SELECT `+queueColumns+` FROM queue_entries WHERE id = $1`, pgUUID(id))
	e, err := scanQueueEntry(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return matchmaking.QueueEntry{}, ErrEntryNotFound
	}
	return e, err
}

// GetQueuedByUser finds a user's open entry for a game type, used to
// reconcile after a timed-out join RPC (the entry may or may not exist).
func (s *QueueStore) GetQueuedByUser(ctx context.Context, userID uuid.UUID, gameType string) (matchmaking.QueueEntry, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+queueColumns+` FROM queue_entries
		WHERE user_id = $1 AND game_type = $2 AND status = $3
		ORDER BY joined_at DESC LIMIT 1`,
		pgUUID(userID), gameType, matchmaking.EntryStatusQueued)
	e, err := scanQueueEntry(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return matchmaking.QueueEntry{}, ErrEntryNotFound
	}
	return e, err
}

// ListQueued returns all queued entries for one game type, oldest first —
// the matcher pass input order.
func (s *QueueStore) ListQueued(ctx context.Context, gameType string) ([]matchmaking.QueueEntry, error) {
	rows, err := s.db.Query(ctx, `
		SELECT `+queueColumns+` FROM queue_entries
		WHERE game_type = $1 AND status = $2
		ORDER BY joined_at ASC`,
		gameType, matchmaking.EntryStatusQueued)
	if err != nil {
		return nil, fmt.Errorf("list queued: %w", err)
	}
	defer rows.Close()

	var entries []matchmaking.QueueEntry
	for rows.Next() {
		e, err := scanQueueEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// MarkMatched flips an entry to matched with room/seat/reason metadata. The
// status guard makes a double-pairing attempt fail loudly instead of
// silently double-booking the player.
func (s *QueueStore) MarkMatched(ctx context.Context, id uuid.UUID, meta matchmaking.EntryMetadata, matchedAt time.Time) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	tag, err := s.db.Exec(ctx, `
		UPDATE queue_entries
		SET status = $1, metadata = $2, matched_at = $3
		WHERE id = $4 AND status = $5`,
		matchmaking.EntryStatusMatched, data, matchedAt, pgUUID(id), matchmaking.EntryStatusQueued)
	if err != nil {
		return fmt.Errorf("mark matched: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: entry %s no longer queued", ErrEntryNotFound, id)
	}
	return nil
}

func scanQueueEntry(row pgx.Row) (matchmaking.QueueEntry, error) {
	var (
		e         matchmaking.QueueEntry
		id, user  pgtype.UUID
		meta      []byte
		matchedAt *time.Time
	)
	err := row.Scan(&id, &user, &e.GameType, &e.RatingSnapshot, &e.SkillBracket,
		&e.Region, &e.Status, &meta, &e.JoinedAt, &matchedAt)
	if err != nil {
		return matchmaking.QueueEntry{}, err
	}
	e.ID = fromPGUUID(id)
	e.UserID = fromPGUUID(user)
	e.MatchedAt = matchedAt
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &e.Metadata); err != nil {
			return matchmaking.QueueEntry{}, fmt.Errorf("decode metadata: %w", err)
		}
	}
	return e, nil
}
