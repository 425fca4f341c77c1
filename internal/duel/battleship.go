package duel

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// OceanSize is the side of the battleship grid.
const OceanSize = 10

// FleetBlueprint is the fixed set of ship sizes every fleet must contain.
var FleetBlueprint = []int{5, 4, 3, 3, 2}

// FleetCells is the total number of ship segments (5+4+3+3+2).
const FleetCells = 17

const fleetPlacementAttempts = 100

// ErrFleetPlacement is returned when the auto-placer cannot fit a ship
// within its attempt budget.
var ErrFleetPlacement = errors.New("fleet auto-placement failed")

// Shot results. A shot is pending until the defender resolves it against its
// private fleet; forfeit marks a pending shot whose defender never answered.
const (
	ShotPending = "pending"
	ShotHit     = "hit"
	ShotMiss    = "miss"
	ShotForfeit = "forfeit"
)

// Coord is one ocean cell.
type Coord struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Fleet is a player's private ship layout. Each non-zero cell holds the size
// of the ship occupying it. The raw ocean never crosses the wire; only
// Hash() and derived hit/miss results are shared.
type Fleet struct {
	Ocean [OceanSize][OceanSize]int `json:"ocean"`
}

// AutoPlaceFleet lays the blueprint ships at random, rejecting overlaps, with
// up to 100 attempts per ship.
func AutoPlaceFleet(rng *rand.Rand) (*Fleet, error) {
	f := &Fleet{}
	for _, size := range FleetBlueprint {
		placed := false
		for attempt := 0; attempt < fleetPlacementAttempts; attempt++ {
			horizontal := rng.Intn(2) == 0
			var row, col int
			if horizontal {
				row = rng.Intn(OceanSize)
				col = rng.Intn(OceanSize - size + 1)
			} else {
				row = rng.Intn(OceanSize - size + 1)
				col = rng.Intn(OceanSize)
			}
			if f.overlaps(row, col, size, horizontal) {
				continue
			}
			for i := 0; i < size; i++ {
				if horizontal {
					f.Ocean[row][col+i] = size
				} else {
					f.Ocean[row+i][col] = size
				}
			}
			placed = true
			break
		}
		if !placed {
			return nil, fmt.Errorf("%w: ship size %d", ErrFleetPlacement, size)
		}
	}
	return f, nil
}

func (f *Fleet) overlaps(row, col, size int, horizontal bool) bool {
	for i := 0; i < size; i++ {
		r, c := row, col
		if horizontal {
			c += i
		} else {
			r += i
		}
		if f.Ocean[r][c] != 0 {
			return true
		}
	}
	return false
}

// CellCount returns the number of occupied cells; a valid fleet has 17.
func (f *Fleet) CellCount() int {
	n := 0
	for _, row := range f.Ocean {
		for _, cell := range row {
			if cell != 0 {
				n++
			}
		}
	}
	return n
}

// HasShipAt reports whether the cell holds a ship segment.
func (f *Fleet) HasShipAt(row, col int) bool {
	if row < 0 || row >= OceanSize || col < 0 || col >= OceanSize {
		return false
	}
	return f.Ocean[row][col] != 0
}

// Hash returns the one-way digest shared in place of raw ship positions.
func (f *Fleet) Hash() string {
	h := sha256.New()
	for _, row := range f.Ocean {
		for _, cell := range row {
			h.Write([]byte{byte(cell)})
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Shot is one attack in the two-phase handshake: the attacker proposes a
// pending record, the defender confirms hit or miss.
type Shot struct {
	Key        string     `json:"key"`
	AttackerID uuid.UUID  `json:"attacker_id"`
	DefenderID uuid.UUID  `json:"defender_id"`
	Row        int        `json:"row"`
	Col        int        `json:"col"`
	Result     string     `json:"result"`
	ProposedAt time.Time  `json:"proposed_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

// BattleshipState is the shared document for one battleship room. Fleets stay
// private; participants only expose fleet hashes (carried on Participant).
type BattleshipState struct {
	CurrentTurn  uuid.UUID          `json:"current_turn"`
	HitsReceived map[string][]Coord `json:"hits_received"`
	LastMove     *Shot              `json:"last_move,omitempty"`
	MoveHistory  []Shot             `json:"move_history"`
	WinnerID     *uuid.UUID         `json:"winner_id,omitempty"`
}

// NewBattleshipState builds the initial shared state. The host fires first.
func NewBattleshipState(hostID uuid.UUID) *BattleshipState {
	return &BattleshipState{
		CurrentTurn:  hostID,
		HitsReceived: make(map[string][]Coord),
	}
}

// shotKey builds the dedupe key for a proposed shot. The monotonic
// per-attacker move count keeps replays of the same notification idempotent.
func shotKey(attackerID uuid.UUID, moveIndex int) string {
	return fmt.Sprintf("%s:%d", attackerID, moveIndex)
}

// ProposeShot appends a pending shot for the attacker, re-validating turn
// ownership, that no earlier shot of the attacker is still pending, and that
// the cell was not already attacked. Returns false (state untouched) when a
// precondition fails. The turn only passes on resolution, so the pending
// check is what keeps an attacker to one shot per turn.
func (s *BattleshipState) ProposeShot(attackerID, defenderID uuid.UUID, row, col int, now time.Time) bool {
	if s.WinnerID != nil {
		return false
	}
	if s.CurrentTurn != attackerID {
		return false
	}
	if row < 0 || row >= OceanSize || col < 0 || col >= OceanSize {
		return false
	}
	moves := 0
	for _, shot := range s.MoveHistory {
		if shot.AttackerID == attackerID {
			moves++
			if shot.Result == ShotPending {
				return false // previous shot still awaiting the defender
			}
			if shot.Row == row && shot.Col == col {
				return false // cell already attacked
			}
		}
	}
	shot := Shot{
		Key:        shotKey(attackerID, moves),
		AttackerID: attackerID,
		DefenderID: defenderID,
		Row:        row,
		Col:        col,
		Result:     ShotPending,
		ProposedAt: now,
	}
	s.MoveHistory = append(s.MoveHistory, shot)
	s.LastMove = &s.MoveHistory[len(s.MoveHistory)-1]
	return true
}

// PendingShotsAgainst returns unresolved shots addressed to the defender, in
// proposal order. A reconnecting defender re-scans these on attach.
func (s *BattleshipState) PendingShotsAgainst(defenderID uuid.UUID) []Shot {
	var pending []Shot
	for _, shot := range s.MoveHistory {
		if shot.Result == ShotPending && shot.DefenderID == defenderID {
			pending = append(pending, shot)
		}
	}
	return pending
}

// ResolveShot is the defender's half of the handshake: it confirms hit or
// miss (computed by the defender against its private fleet), records the
// coordinate under its hits-received list, and passes the turn. A shot key
// that is unknown or already resolved is a no-op, which dedupes re-processing
// of the same notification.
func (s *BattleshipState) ResolveShot(key string, defenderID uuid.UUID, hit bool, now time.Time) bool {
	for i := range s.MoveHistory {
		shot := &s.MoveHistory[i]
		if shot.Key != key {
			continue
		}
		if shot.Result != ShotPending || shot.DefenderID != defenderID {
			return false
		}
		if hit {
			shot.Result = ShotHit
		} else {
			shot.Result = ShotMiss
		}
		resolved := now
		shot.ResolvedAt = &resolved
		if hit {
			k := defenderID.String()
			s.HitsReceived[k] = append(s.HitsReceived[k], Coord{Row: shot.Row, Col: shot.Col})
			if len(s.HitsReceived[k]) >= FleetCells {
				winner := shot.AttackerID
				s.WinnerID = &winner
			}
		}
		s.LastMove = shot
		s.CurrentTurn = defenderID
		return true
	}
	return false
}

// ForfeitStaleShots resolves pending shots older than timeout as forfeit and
// awards the room to the attacker. This closes the never-confirming-defender
// gap: a defender that disconnects mid-handshake loses after the timeout.
func (s *BattleshipState) ForfeitStaleShots(now time.Time, timeout time.Duration) bool {
	if s.WinnerID != nil {
		return false
	}
	changed := false
	for i := range s.MoveHistory {
		shot := &s.MoveHistory[i]
		if shot.Result != ShotPending || now.Sub(shot.ProposedAt) < timeout {
			continue
		}
		shot.Result = ShotForfeit
		resolved := now
		shot.ResolvedAt = &resolved
		winner := shot.AttackerID
		s.WinnerID = &winner
		changed = true
	}
	return changed
}
