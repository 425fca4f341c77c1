package presence

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
)

func newTestTracker(t *testing.T, ttl time.Duration) *Tracker {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewTracker(client, ttl, zerolog.Nop())
}

func TestTrackerAggregatesAnnouncements(t *testing.T) {
	tracker := newTestTracker(t, time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() { _ = tracker.Run(ctx, []string{"tic_tac_toe", "battleship"}) }()

	announce := func(clientID, game, region, bracket string) {
		_ = tracker.Announce(ctx, Announcement{
			ClientID:     clientID,
			UserID:       uuid.New(),
			GameType:     game,
			Region:       region,
			SkillBracket: bracket,
		})
	}

	require.Eventually(t, func() bool {
		announce("c1", "tic_tac_toe", "br-south", "ouro")
		announce("c2", "tic_tac_toe", "br-south", "prata")
		announce("c3", "battleship", "eu-west", "ouro")
		return tracker.Stats("tic_tac_toe").Total == 2
	}, 3*time.Second, 100*time.Millisecond)

	stats := tracker.Stats("tic_tac_toe")
	assert.Equal(t, 2, stats.ByRegion["br-south"])
	assert.Equal(t, 1, stats.ByBracket["ouro"])
	assert.Equal(t, 1, stats.ByBracket["prata"])
	assert.Equal(t, 1, tracker.Stats("battleship").Total)
}

func TestTrackerLatestAnnouncementWinsPerClient(t *testing.T) {
	tracker := newTestTracker(t, time.Minute)
	tracker.record(Announcement{ClientID: "c1", GameType: "battleship", Region: "br-south", SentAt: time.Now().UTC()})
	tracker.record(Announcement{ClientID: "c1", GameType: "battleship", Region: "eu-west", SentAt: time.Now().UTC()})

	stats := tracker.Stats("battleship")
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 1, stats.ByRegion["eu-west"])
	assert.Zero(t, stats.ByRegion["br-south"])
}

func TestTrackerExpiresStaleEntries(t *testing.T) {
	tracker := newTestTracker(t, 50*time.Millisecond)
	tracker.record(Announcement{ClientID: "c1", GameType: "battleship", SentAt: time.Now().UTC()})

	assert.Equal(t, 1, tracker.Stats("battleship").Total)
	time.Sleep(80 * time.Millisecond)
	assert.Zero(t, tracker.Stats("battleship").Total, "stale beacon must not count")

	tracker.evict(time.Now().UTC())
	tracker.mu.RLock()
	defer tracker.mu.RUnlock()
	assert.Empty(t, tracker.byGame)
}

func TestTrackerIgnoresAnonymousBeacons(t *testing.T) {
	tracker := newTestTracker(t, time.Minute)
	stats := tracker.Stats("unknown_game")
	assert.Zero(t, stats.Total)
	assert.NotNil(t, stats.ByRegion)
	assert.NotNil(t, stats.ByBracket)
}
