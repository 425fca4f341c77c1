package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/palavraduelo/arena/internal/duel"
)

const notifierRetryDelay = 2 * time.Second

// RoomChange is one row-level change notification: the full new state
// replaces the subscriber's local snapshot (no sub-document merging).
type RoomChange struct {
	RoomID  uuid.UUID       `json:"room_id"`
	Version int64           `json:"version"`
	State   json.RawMessage `json:"state"`
}

// Notifier broadcasts room state changes over Redis Pub/Sub, one channel per
// room, so every attached participant observes each committed write.
type Notifier struct {
	client *redis.Client
	logger zerolog.Logger
}

// NewNotifier creates a room change notifier.
func NewNotifier(client *redis.Client, logger zerolog.Logger) *Notifier {
	return &Notifier{
		client: client,
		logger: logger.With().Str("component", "room_notifier").Logger(),
	}
}

func roomChannel(roomID uuid.UUID) string {
	return "room:changes:" + roomID.String()
}

// PublishState announces a committed state write to all subscribers.
func (n *Notifier) PublishState(ctx context.Context, roomID uuid.UUID, version int64, state *duel.GameState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	payload, err := json.Marshal(RoomChange{RoomID: roomID, Version: version, State: raw})
	if err != nil {
		return fmt.Errorf("marshal change: %w", err)
	}
	return n.client.Publish(ctx, roomChannel(roomID), payload).Err()
}

// Subscribe delivers room changes on the returned channel until ctx is
// cancelled. Channel disruption triggers resubscription after a fixed delay;
// there is no permanent giving-up state.
func (n *Notifier) Subscribe(ctx context.Context, roomID uuid.UUID) <-chan RoomChange {
	out := make(chan RoomChange, 16)
	go func() {
		defer close(out)
		for {
			if err := n.consume(ctx, roomID, out); err != nil {
				if ctx.Err() != nil {
					return
				}
				n.logger.Warn().Err(err).Str("room_id", roomID.String()).Msg("room subscription dropped, retrying")
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(notifierRetryDelay):
			}
		}
	}()
	return out
}

func (n *Notifier) consume(ctx context.Context, roomID uuid.UUID, out chan<- RoomChange) error {
	sub := n.client.Subscribe(ctx, roomChannel(roomID))
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
			var change RoomChange
			if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
				n.logger.Warn().Err(err).Msg("skip malformed room change")
				continue
			}
			select {
			case out <- change:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}
