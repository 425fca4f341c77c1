package game

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/palavraduelo/arena/internal/duel"
)

// ErrFleetNotFound means no private fleet is stored for the room/user pair.
var ErrFleetNotFound = errors.New("fleet not found")

const fleetTTL = 24 * time.Hour

// FleetVault stores each battleship player's private ocean grid, keyed by
// room and user. Fleets live here precisely so they never enter the shared
// room state; the defender's side reads its own fleet from the vault to
// resolve incoming shots.
type FleetVault struct {
	client *redis.Client
}

// NewFleetVault creates the vault over a shared Redis client.
func NewFleetVault(client *redis.Client) *FleetVault {
	return &FleetVault{client: client}
}

func fleetKey(roomID, userID uuid.UUID) string {
	return fmt.Sprintf("fleet:%s:%s", roomID, userID)
}

// Save stores a player's fleet for the lifetime of the match.
func (v *FleetVault) Save(ctx context.Context, roomID, userID uuid.UUID, fleet *duel.Fleet) error {
	data, err := json.Marshal(fleet)
	if err != nil {
		return fmt.Errorf("marshal fleet: %w", err)
	}
	return v.client.Set(ctx, fleetKey(roomID, userID), data, fleetTTL).Err()
}

// Load retrieves a player's own fleet.
func (v *FleetVault) Load(ctx context.Context, roomID, userID uuid.UUID) (*duel.Fleet, error) {
	data, err := v.client.Get(ctx, fleetKey(roomID, userID)).Bytes()
	if err == redis.Nil {
		return nil, ErrFleetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load fleet: %w", err)
	}
	var fleet duel.Fleet
	if err := json.Unmarshal(data, &fleet); err != nil {
		return nil, fmt.Errorf("decode fleet: %w", err)
	}
	return &fleet, nil
}
