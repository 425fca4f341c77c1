package store

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palavraduelo/arena/internal/duel"
)

func newTestNotifier(t *testing.T) *Notifier {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewNotifier(client, zerolog.Nop())
}

func testState() *duel.GameState {
	return &duel.GameState{
		GameType: duel.GameTicTacToe,
		Phase:    duel.PhasePlaying,
		Participants: []duel.Participant{
			{UserID: uuid.New(), Seat: duel.SeatHost},
			{UserID: uuid.New(), Seat: duel.SeatGuest},
		},
		TicTacToe: duel.NewTicTacToeState(),
	}
}

func TestNotifierDeliversChanges(t *testing.T) {
	n := newTestNotifier(t)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	roomID := uuid.New()
	changes := n.Subscribe(ctx, roomID)

	// Give the subscriber loop a beat to establish before publishing.
	require.Eventually(t, func() bool {
		if err := n.PublishState(ctx, roomID, 2, testState()); err != nil {
			return false
		}
		select {
		case change := <-changes:
			assert.Equal(t, roomID, change.RoomID)
			assert.Equal(t, int64(2), change.Version)
			state, err := duel.ParseGameState(change.State)
			require.NoError(t, err)
			assert.Equal(t, duel.GameTicTacToe, state.GameType)
			return true
		default:
			return false
		}
	}, 2*time.Second, 50*time.Millisecond)
}

func TestNotifierChannelsAreIsolated(t *testing.T) {
	n := newTestNotifier(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	roomA, roomB := uuid.New(), uuid.New()
	changesB := n.Subscribe(ctx, roomB)

	time.Sleep(100 * time.Millisecond)
	require.NoError(t, n.PublishState(ctx, roomA, 1, testState()))

	select {
	case change := <-changesB:
		t.Fatalf("room B received room A's change: %+v", change)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestNotifierClosesOnCancel(t *testing.T) {
	n := newTestNotifier(t)
	ctx, cancel := context.WithCancel(context.Background())

	changes := n.Subscribe(ctx, uuid.New())
	cancel()

	select {
	case _, open := <-changes:
		assert.False(t, open, "channel should close after cancel")
	case <-time.After(2 * time.Second):
		t.Fatal("channel did not close")
	}
}
