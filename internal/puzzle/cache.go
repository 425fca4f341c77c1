package puzzle

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultDailyTTL = 48 * time.Hour

// Cache provides Redis-backed storage for generated daily puzzles so every
// player on a given date receives the same instance.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache creates a daily-puzzle cache. ttl <= 0 uses the 48h default.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = defaultDailyTTL
	}
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) key(puzzleType, date string) string {
	return strings.Join([]string{"puzzle", "daily", puzzleType, date}, ":")
}

// Get returns the cached puzzle document for the type+date, or nil on miss.
func (c *Cache) Get(ctx context.Context, puzzleType, date string) (json.RawMessage, error) {
	data, err := c.client.Get(ctx, c.key(puzzleType, date)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	return json.RawMessage(data), nil
}

// Set stores a puzzle document for the type+date.
func (c *Cache) Set(ctx context.Context, puzzleType, date string, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(puzzleType, date), data, c.ttl).Err()
}
