package duel

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Game type tags of the game_state union.
const (
	GameTicTacToe      = "tic_tac_toe"
	GameBattleship     = "battleship"
	GameCrosswordDuel  = "crossword_duel"
	GameWordSearchDuel = "wordsearch_duel"
)

// GameTypes lists every supported game.
var GameTypes = []string{GameTicTacToe, GameBattleship, GameCrosswordDuel, GameWordSearchDuel}

// Seats in a two-player room.
const (
	SeatHost  = "host"
	SeatGuest = "guest"
)

// Game phases inside a game_state document.
const (
	PhaseWaiting  = "waiting"
	PhasePlaying  = "playing"
	PhaseFinished = "finished"
)

// Participant is one player's entry in the shared state. For battleship only
// the one-way fleet hash is carried; the raw ocean never appears here.
type Participant struct {
	UserID       uuid.UUID `json:"user_id"`
	Seat         string    `json:"seat"`
	Rating       int       `json:"rating"`
	SkillBracket string    `json:"skill_bracket,omitempty"`
	Region       string    `json:"region,omitempty"`
	FleetHash    string    `json:"fleet_hash,omitempty"`
}

// GameState is the per-game payload of a room, a tagged union keyed by
// GameType: exactly one variant field is set, matching the tag.
type GameState struct {
	GameType     string           `json:"game_type"`
	Phase        string           `json:"phase"`
	RoomCode     string           `json:"room_code,omitempty"`
	MatchReason  string           `json:"match_reason,omitempty"`
	Participants []Participant    `json:"participants"`
	TicTacToe    *TicTacToeState  `json:"tic_tac_toe,omitempty"`
	Battleship   *BattleshipState `json:"battleship,omitempty"`
	Race         *ProgressState   `json:"race,omitempty"`
}

// ParseGameState decodes and validates a raw game_state document at the
// boundary, rejecting documents whose variant does not match the tag.
func ParseGameState(raw json.RawMessage) (*GameState, error) {
	var state GameState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("decode game_state: %w", err)
	}
	if err := state.Validate(); err != nil {
		return nil, err
	}
	return &state, nil
}

// Validate enforces the tagged-union shape and the two-participant minimum.
func (s *GameState) Validate() error {
	if len(s.Participants) < 2 {
		return fmt.Errorf("game_state requires at least 2 participants, got %d", len(s.Participants))
	}
	switch s.GameType {
	case GameTicTacToe:
		if s.TicTacToe == nil || s.Battleship != nil || s.Race != nil {
			return fmt.Errorf("tic_tac_toe state variant mismatch")
		}
	case GameBattleship:
		if s.Battleship == nil || s.TicTacToe != nil || s.Race != nil {
			return fmt.Errorf("battleship state variant mismatch")
		}
	case GameCrosswordDuel, GameWordSearchDuel:
		if s.Race == nil || s.TicTacToe != nil || s.Battleship != nil {
			return fmt.Errorf("%s state variant mismatch", s.GameType)
		}
	default:
		return fmt.Errorf("unknown game type %q", s.GameType)
	}
	return nil
}

// Clone deep-copies the state so updaters mutate a private copy.
func (s *GameState) Clone() (*GameState, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	var clone GameState
	if err := json.Unmarshal(data, &clone); err != nil {
		return nil, err
	}
	return &clone, nil
}

// ParticipantByID returns the participant entry for a user.
func (s *GameState) ParticipantByID(userID uuid.UUID) (Participant, bool) {
	for _, p := range s.Participants {
		if p.UserID == userID {
			return p, true
		}
	}
	return Participant{}, false
}

// Host returns the participant holding the host seat.
func (s *GameState) Host() (Participant, bool) {
	for _, p := range s.Participants {
		if p.Seat == SeatHost {
			return p, true
		}
	}
	return Participant{}, false
}

// Opponent returns the other participant in a two-player room.
func (s *GameState) Opponent(userID uuid.UUID) (Participant, bool) {
	for _, p := range s.Participants {
		if p.UserID != userID {
			return p, true
		}
	}
	return Participant{}, false
}

// SymbolFor derives a tic-tac-toe symbol purely from seat: host is X,
// guest is O.
func (s *GameState) SymbolFor(userID uuid.UUID) string {
	p, ok := s.ParticipantByID(userID)
	if !ok {
		return ""
	}
	if p.Seat == SeatHost {
		return SymbolX
	}
	return SymbolO
}
