package ws

import "encoding/json"

// MessageType constants for the duel WebSocket protocol.
const (
	// Client -> Server
	TypeJoinQueue        = "join_queue"
	TypeLeaveQueue       = "leave_queue"
	TypeAttachRoom       = "attach_room"
	TypeMakeMove         = "make_move"
	TypeFireShot         = "fire_shot"
	TypeReportProgress   = "report_progress"
	TypeClaimVictory     = "claim_victory"
	TypeAdvanceRound     = "advance_round"
	TypeResetMatch       = "reset_match"
	TypeAnnouncePresence = "announce_presence"

	// Server -> Client
	TypeQueueUpdate  = "queue_update"
	TypeMatchFound   = "match_found"
	TypeRoomState    = "room_state"
	TypeFleetIssued  = "fleet_issued"
	TypePuzzleIssued = "puzzle_issued"
	TypeLobbyStats   = "lobby_stats"
	TypeError        = "error"
	TypePing         = "ping"
	TypePong         = "pong"
)

// Message wraps all WebSocket payloads with type and optional request ID.
type Message struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	RequestID string          `json:"request_id,omitempty"`
}

// Client Messages (incoming)

type JoinQueuePayload struct {
	GameType     string `json:"game_type"`
	Rating       int    `json:"rating"`
	SkillBracket string `json:"skill_bracket"`
	Region       string `json:"region,omitempty"`
	Mode         string `json:"mode,omitempty"` // public (default) | private
	MatchCode    string `json:"match_code,omitempty"`
	Seat         string `json:"seat,omitempty"` // host | guest
}

type LeaveQueuePayload struct {
	EntryID string `json:"entry_id"`
}

type AttachRoomPayload struct {
	RoomID string `json:"room_id"`
}

type MakeMovePayload struct {
	RoomID string `json:"room_id"`
	Cell   int    `json:"cell"`
}

type FireShotPayload struct {
	RoomID string `json:"room_id"`
	Row    int    `json:"row"`
	Col    int    `json:"col"`
}

type ReportProgressPayload struct {
	RoomID  string `json:"room_id"`
	Percent int    `json:"percent"`
}

type ClaimVictoryPayload struct {
	RoomID string `json:"room_id"`
}

type AdvanceRoundPayload struct {
	RoomID string `json:"room_id"`
}

type ResetMatchPayload struct {
	RoomID string `json:"room_id"`
}

// AnnouncePresencePayload is the periodic lobby beacon. ClientID
// distinguishes multiple tabs of one user.
type AnnouncePresencePayload struct {
	ClientID     string `json:"client_id"`
	GameType     string `json:"game_type"`
	Region       string `json:"region,omitempty"`
	SkillBracket string `json:"skill_bracket,omitempty"`
}

// Server Messages (outgoing)

type QueueUpdatePayload struct {
	EntryID   string `json:"entry_id"`
	Status    string `json:"status"`
	MatchCode string `json:"match_code,omitempty"`
}

type MatchFoundPayload struct {
	RoomID   string `json:"room_id"`
	GameType string `json:"game_type"`
	Reason   string `json:"reason"`
	Seat     string `json:"seat"`
}

type RoomStatePayload struct {
	RoomID  string          `json:"room_id"`
	Version int64           `json:"version"`
	State   json.RawMessage `json:"state"`
}

// FleetIssuedPayload delivers a battleship player's own ocean grid privately.
// It never travels through shared room state.
type FleetIssuedPayload struct {
	RoomID string          `json:"room_id"`
	Ocean  json.RawMessage `json:"ocean"`
}

// PuzzleIssuedPayload delivers the duel's shared puzzle instance on attach.
type PuzzleIssuedPayload struct {
	RoomID   string          `json:"room_id"`
	PuzzleID string          `json:"puzzle_id"`
	Puzzle   json.RawMessage `json:"puzzle"`
}

type LobbyStatsPayload struct {
	GameType  string         `json:"game_type"`
	Total     int            `json:"total"`
	ByRegion  map[string]int `json:"by_region"`
	ByBracket map[string]int `json:"by_bracket"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
