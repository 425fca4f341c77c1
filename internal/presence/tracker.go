package presence

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	channelPrefix  = "presence:"
	retryDelay     = 2 * time.Second
	defaultTTL     = 45 * time.Second
	evictionPeriod = 10 * time.Second
)

// Announcement is one client's periodic "I am in the lobby" beacon. The
// client id distinguishes multiple tabs of the same user; the latest
// announcement per client wins.
type Announcement struct {
	ClientID     string    `json:"client_id"`
	UserID       uuid.UUID `json:"user_id"`
	GameType     string    `json:"game_type"`
	Region       string    `json:"region,omitempty"`
	SkillBracket string    `json:"skill_bracket,omitempty"`
	SentAt       time.Time `json:"sent_at"`
}

// LobbyStats is the aggregated lobby view for one game type.
type LobbyStats struct {
	GameType  string         `json:"game_type"`
	Total     int            `json:"total"`
	ByRegion  map[string]int `json:"by_region"`
	ByBracket map[string]int `json:"by_bracket"`
}

// Tracker aggregates lobby presence over Redis Pub/Sub, one channel per game
// type. Every instance publishes the announcements of its own clients and
// consumes everyone's, so lobby counts converge across instances without a
// shared table.
type Tracker struct {
	client *redis.Client
	logger zerolog.Logger
	ttl    time.Duration

	mu     sync.RWMutex
	byGame map[string]map[string]Announcement // game_type -> client_id -> latest
}

// NewTracker creates a presence tracker. A non-positive ttl falls back to the
// default announcement lifetime.
func NewTracker(client *redis.Client, ttl time.Duration, logger zerolog.Logger) *Tracker {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Tracker{
		client: client,
		logger: logger.With().Str("component", "presence_tracker").Logger(),
		ttl:    ttl,
		byGame: make(map[string]map[string]Announcement),
	}
}

func channelFor(gameType string) string {
	return channelPrefix + gameType
}

// Announce publishes a client's beacon. SentAt is stamped here so skewed
// client clocks cannot pin an entry alive.
func (t *Tracker) Announce(ctx context.Context, a Announcement) error {
	a.SentAt = time.Now().UTC()
	payload, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal announcement: %w", err)
	}
	return t.client.Publish(ctx, channelFor(a.GameType), payload).Err()
}

// Run consumes announcements for the given game types until ctx is
// cancelled. Subscription disruption triggers resubscription after a fixed
// delay. Expired entries are evicted on a timer.
func (t *Tracker) Run(ctx context.Context, gameTypes []string) error {
	channels := make([]string, len(gameTypes))
	for i, gt := range gameTypes {
		channels[i] = channelFor(gt)
	}

	go t.evictLoop(ctx)

	for {
		if err := t.consume(ctx, channels); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			t.logger.Warn().Err(err).Msg("presence subscription dropped, retrying")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryDelay):
		}
	}
}

func (t *Tracker) consume(ctx context.Context, channels []string) error {
	sub := t.client.Subscribe(ctx, channels...)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return fmt.Errorf("subscription channel closed")
			}
			var a Announcement
			if err := json.Unmarshal([]byte(msg.Payload), &a); err != nil {
				t.logger.Warn().Err(err).Msg("skip malformed announcement")
				continue
			}
			if a.ClientID == "" || a.GameType == "" {
				continue
			}
			t.record(a)
		}
	}
}

func (t *Tracker) record(a Announcement) {
	t.mu.Lock()
	defer t.mu.Unlock()
	clients := t.byGame[a.GameType]
	if clients == nil {
		clients = make(map[string]Announcement)
		t.byGame[a.GameType] = clients
	}
	clients[a.ClientID] = a
}

func (t *Tracker) evictLoop(ctx context.Context) {
	ticker := time.NewTicker(evictionPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.evict(time.Now().UTC())
		}
	}
}

func (t *Tracker) evict(now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for gameType, clients := range t.byGame {
		for clientID, a := range clients {
			if now.Sub(a.SentAt) > t.ttl {
				delete(clients, clientID)
			}
		}
		if len(clients) == 0 {
			delete(t.byGame, gameType)
		}
	}
}

// Stats aggregates the live lobby counts for one game type.
func (t *Tracker) Stats(gameType string) LobbyStats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	stats := LobbyStats{
		GameType:  gameType,
		ByRegion:  make(map[string]int),
		ByBracket: make(map[string]int),
	}
	now := time.Now().UTC()
	for _, a := range t.byGame[gameType] {
		if now.Sub(a.SentAt) > t.ttl {
			continue // expired but not yet evicted
		}
		stats.Total++
		if a.Region != "" {
			stats.ByRegion[a.Region]++
		}
		if a.SkillBracket != "" {
			stats.ByBracket[a.SkillBracket]++
		}
	}
	return stats
}
