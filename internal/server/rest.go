package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/palavraduelo/arena/internal/auth"
	"github.com/palavraduelo/arena/internal/duel"
	"github.com/palavraduelo/arena/internal/logging"
	"github.com/palavraduelo/arena/internal/presence"
	"github.com/palavraduelo/arena/internal/puzzle"
	"github.com/palavraduelo/arena/internal/store"
	httperrors "github.com/palavraduelo/arena/pkg/http/errors"
)

// RESTHandlers serves the read-only HTTP surface: lobby stats, daily puzzles,
// and per-user room history.
type RESTHandlers struct {
	puzzles  *puzzle.Service
	rooms    *store.RoomStore
	tracker  *presence.Tracker
	verifier *auth.Verifier
}

// NewRESTHandlers wires the REST surface. Handlers log through the
// request-scoped logger injected by the server middleware.
func NewRESTHandlers(puzzles *puzzle.Service, rooms *store.RoomStore, tracker *presence.Tracker, verifier *auth.Verifier) *RESTHandlers {
	return &RESTHandlers{
		puzzles:  puzzles,
		rooms:    rooms,
		tracker:  tracker,
		verifier: verifier,
	}
}

// LobbyStats returns live lobby counts for one game type.
func (h *RESTHandlers) LobbyStats(w http.ResponseWriter, r *http.Request) {
	gameType := r.PathValue("game")
	valid := false
	for _, t := range duel.GameTypes {
		if t == gameType {
			valid = true
			break
		}
	}
	if !valid {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidGameType, "unknown game type")
		return
	}
	writeJSON(w, h.tracker.Stats(gameType))
}

// DailyPuzzle returns today's (or the requested date's) shared puzzle.
func (h *RESTHandlers) DailyPuzzle(w http.ResponseWriter, r *http.Request) {
	puzzleType := r.PathValue("type")
	if puzzleType != puzzle.TypeCrossword && puzzleType != puzzle.TypeWordSearch {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidPuzzleType, "unknown puzzle type")
		return
	}

	date := r.URL.Query().Get("date")
	if date == "" {
		date = time.Now().UTC().Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", date); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "date must be YYYY-MM-DD")
		return
	}

	doc, err := h.puzzles.Daily(r.Context(), puzzleType, date)
	if err != nil {
		if errors.Is(err, puzzle.ErrGenerationFailed) {
			httperrors.RespondServiceUnavailable(w, httperrors.ErrCodeNoPuzzleAvailable, "puzzle generation failed")
			return
		}
		logger := logging.FromContext(r.Context())
		logger.Error().Err(err).Str("type", puzzleType).Msg("daily puzzle failed")
		httperrors.RespondInternalError(w, "failed to load daily puzzle")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(doc)
}

// RoomHistory returns the caller's recent matches, newest first.
func (h *RESTHandlers) RoomHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	rooms, err := h.rooms.ListRecentByUser(r.Context(), userID, limit)
	if err != nil {
		logger := logging.FromContext(r.Context())
		logger.Error().Err(err).Msg("room history failed")
		httperrors.RespondInternalError(w, "failed to load room history")
		return
	}
	writeJSON(w, toRoomSummaries(rooms))
}

// ActiveRoom returns the caller's current unfinished room, for reconnect.
func (h *RESTHandlers) ActiveRoom(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	room, err := h.rooms.GetActiveByUser(r.Context(), userID)
	if errors.Is(err, store.ErrRoomNotFound) {
		httperrors.RespondNotFound(w, httperrors.ErrCodeRoomNotFound, "no active room")
		return
	}
	if err != nil {
		logger := logging.FromContext(r.Context())
		logger.Error().Err(err).Msg("active room lookup failed")
		httperrors.RespondInternalError(w, "failed to load active room")
		return
	}
	writeJSON(w, toRoomSummary(room))
}

func (h *RESTHandlers) authenticate(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	header := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeUnauthorized, "missing bearer token")
		return uuid.Nil, false
	}
	claims, err := h.verifier.Parse(token)
	if err != nil {
		code := httperrors.ErrCodeInvalidToken
		if errors.Is(err, auth.ErrExpiredToken) {
			code = httperrors.ErrCodeTokenExpired
		}
		httperrors.RespondUnauthorized(w, code, "invalid token")
		return uuid.Nil, false
	}
	return claims.UserID, true
}

// RoomSummary is the REST view of a room.
type RoomSummary struct {
	ID          string     `json:"id"`
	GameType    string     `json:"game_type"`
	Status      string     `json:"status"`
	MatchReason string     `json:"match_reason,omitempty"`
	RoomCode    string     `json:"room_code,omitempty"`
	WinnerID    string     `json:"winner_id,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
}

func toRoomSummaries(rooms []*duel.Room) []RoomSummary {
	out := make([]RoomSummary, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, toRoomSummary(room))
	}
	return out
}

func toRoomSummary(room *duel.Room) RoomSummary {
	summary := RoomSummary{
		ID:         room.ID.String(),
		GameType:   room.GameType,
		Status:     room.Status,
		StartedAt:  room.StartedAt,
		FinishedAt: room.FinishedAt,
	}
	if room.State != nil {
		summary.MatchReason = room.State.MatchReason
		summary.RoomCode = room.State.RoomCode
		summary.WinnerID = winnerOf(room.State)
	}
	return summary
}

func winnerOf(state *duel.GameState) string {
	switch {
	case state.TicTacToe != nil && state.TicTacToe.Series.IsSeriesComplete:
		for _, p := range state.Participants {
			seatSymbol := duel.SymbolO
			if p.Seat == duel.SeatHost {
				seatSymbol = duel.SymbolX
			}
			if seatSymbol == state.TicTacToe.Series.SeriesWinner {
				return p.UserID.String()
			}
		}
	case state.Battleship != nil && state.Battleship.WinnerID != nil:
		return state.Battleship.WinnerID.String()
	case state.Race != nil && state.Race.WinnerID != nil:
		return state.Race.WinnerID.String()
	}
	return ""
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
