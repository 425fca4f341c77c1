package matchmaking

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/palavraduelo/arena/internal/duel"
)

// Game type tags, shared with the duel package.
const (
	GameTicTacToe      = duel.GameTicTacToe
	GameBattleship     = duel.GameBattleship
	GameCrosswordDuel  = duel.GameCrosswordDuel
	GameWordSearchDuel = duel.GameWordSearchDuel
)

// GameTypes lists every supported game, in matcher pass order.
var GameTypes = []string{GameTicTacToe, GameBattleship, GameCrosswordDuel, GameWordSearchDuel}

// Queue entry lifecycle.
const (
	EntryStatusQueued  = "queued"
	EntryStatusMatched = "matched"
)

// Skill brackets, ordered from lowest to highest tier.
var brackets = []string{"bronze", "prata", "ouro", "platina", "diamante"}

// BracketIndex returns the position of a bracket on the ordered scale, or -1
// for an unknown bracket (treated as maximally distant from everything).
func BracketIndex(bracket string) int {
	for i, b := range brackets {
		if b == strings.ToLower(bracket) {
			return i
		}
	}
	return -1
}

// Seat preferences for private lobbies.
const (
	SeatHost  = duel.SeatHost
	SeatGuest = duel.SeatGuest
)

// RegionGlobal is the wildcard region compatible with everyone.
const RegionGlobal = "global"

// Match reasons recorded for observability.
const (
	ReasonStrict          = "strict"
	ReasonCrossRegion     = "cross-region"
	ReasonAdjacentBracket = "adjacent-bracket"
	ReasonWideOpen        = "wide-open"
	ReasonPrivateCode     = "private-code"
	ReasonRelaxed         = "relaxed"
)

// EntryMetadata is the opaque key-value bag carried on a queue entry.
type EntryMetadata struct {
	MatchCode      string `json:"match_code,omitempty"`
	Seat           string `json:"seat,omitempty"`
	RegionOverride string `json:"region_override,omitempty"`
	RoomID         string `json:"room_id,omitempty"`
	MatchReason    string `json:"match_reason,omitempty"`
}

// QueueEntry is a player's pending matchmaking request.
type QueueEntry struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	GameType       string
	RatingSnapshot int
	SkillBracket   string
	Region         string
	Status         string
	Metadata       EntryMetadata
	JoinedAt       time.Time
	MatchedAt      *time.Time
}

// EffectiveRegion resolves the region used for compatibility: metadata
// override first, then the entry's region, then the global wildcard. Regions
// are compared lowercased.
func (e QueueEntry) EffectiveRegion() string {
	if r := strings.TrimSpace(e.Metadata.RegionOverride); r != "" {
		return strings.ToLower(r)
	}
	if r := strings.TrimSpace(e.Region); r != "" {
		return strings.ToLower(r)
	}
	return RegionGlobal
}

// WaitTime is how long the entry has been queued as of now.
func (e QueueEntry) WaitTime(now time.Time) time.Duration {
	if now.Before(e.JoinedAt) {
		return 0
	}
	return now.Sub(e.JoinedAt)
}

// MatchPair is a compatible pairing produced by a matcher pass. The first
// entry takes the host seat unless seat preferences dictate otherwise.
type MatchPair struct {
	Host   QueueEntry
	Guest  QueueEntry
	Reason string
	Weight float64
}
