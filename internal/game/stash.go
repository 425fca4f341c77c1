package game

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrPuzzleNotFound means no stashed puzzle exists for the id.
var ErrPuzzleNotFound = errors.New("duel puzzle not found")

const puzzleStashTTL = 24 * time.Hour

// PuzzleStash holds the per-duel puzzle documents in Redis so both players
// fetch the exact same generated instance when they attach to the room. Rooms
// only carry the puzzle id.
type PuzzleStash struct {
	client *redis.Client
}

// NewPuzzleStash creates the stash over a shared Redis client.
func NewPuzzleStash(client *redis.Client) *PuzzleStash {
	return &PuzzleStash{client: client}
}

func puzzleStashKey(puzzleID string) string {
	return "puzzle:duel:" + puzzleID
}

// Save stores a generated puzzle document under its id.
func (p *PuzzleStash) Save(ctx context.Context, puzzleID string, doc json.RawMessage) error {
	return p.client.Set(ctx, puzzleStashKey(puzzleID), []byte(doc), puzzleStashTTL).Err()
}

// Load fetches a stashed puzzle document.
func (p *PuzzleStash) Load(ctx context.Context, puzzleID string) (json.RawMessage, error) {
	data, err := p.client.Get(ctx, puzzleStashKey(puzzleID)).Bytes()
	if err == redis.Nil {
		return nil, ErrPuzzleNotFound
	}
	if err != nil {
		return nil, err
	}
	return json.RawMessage(data), nil
}
