package matchmaking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrPassInProgress means another matcher pass for the same game type holds
// the single-flight lock; the caller skips this tick.
var ErrPassInProgress = errors.New("matcher pass already in progress")

const passLockTTL = 30 * time.Second

// NewPassLock creates the lock over a shared Redis client.
func NewPassLock(client *redis.Client) *PassLock {
	return &PassLock{redis: client}
}

// PassLock is the single-flight guard per game type. Overlapping passes over
// the same queue could double-pair an entry, so only one pass runs at a time
// across all instances.
type PassLock struct {
	redis *redis.Client
}

// Acquire takes the lock for a game type. Returns an unlock func, or
// ErrPassInProgress when held elsewhere.
func (l *PassLock) Acquire(ctx context.Context, gameType string) (func() error, error) {
	key := "matchmaker:pass:" + gameType
	lockValue := uuid.New().String()

	acquired, err := l.redis.SetNX(ctx, key, lockValue, passLockTTL).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire pass lock: %w", err)
	}
	if !acquired {
		return nil, ErrPassInProgress
	}

	unlock := func() error {
		// Lua script ensures we only delete our own lock
		script := `
			if redis.call("get", KEYS[1]) == ARGV[1] then
				return redis.call("del", KEYS[1])
			else
				return 0
			end
		`
		return l.redis.Eval(ctx, script, []string{key}, lockValue).Err()
	}
	return unlock, nil
}
