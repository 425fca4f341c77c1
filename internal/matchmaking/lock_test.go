package matchmaking

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLock(t *testing.T) *PassLock {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	return NewPassLock(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
}

func TestPassLockSingleFlight(t *testing.T) {
	lock := newTestLock(t)
	ctx := context.Background()

	unlock, err := lock.Acquire(ctx, GameTicTacToe)
	require.NoError(t, err)

	_, err = lock.Acquire(ctx, GameTicTacToe)
	assert.ErrorIs(t, err, ErrPassInProgress)

	// A different game type holds an independent lock.
	unlockOther, err := lock.Acquire(ctx, GameBattleship)
	require.NoError(t, err)
	require.NoError(t, unlockOther())

	require.NoError(t, unlock())
	unlock2, err := lock.Acquire(ctx, GameTicTacToe)
	require.NoError(t, err)
	require.NoError(t, unlock2())
}
