package game

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/palavraduelo/arena/internal/auth"
	"github.com/palavraduelo/arena/internal/duel"
	"github.com/palavraduelo/arena/internal/presence"
	"github.com/palavraduelo/arena/internal/store"
	httperrors "github.com/palavraduelo/arena/pkg/http/errors"
	"github.com/palavraduelo/arena/pkg/http/ws"
)

// joinQueueTimeout bounds the join transaction. On expiry the outcome is
// ambiguous (the commit may or may not have landed), so the handler
// reconciles instead of reporting a plain failure.
const joinQueueTimeout = 10 * time.Second

// roomSession is one participant's live attachment to one room: the
// synchronizer plus the cancel for its watch goroutine.
type roomSession struct {
	sync   *Synchronizer
	cancel context.CancelFunc
}

// Handler manages WebSocket connections and routes duel messages.
type Handler struct {
	service  *Service
	hub      *ws.Hub
	verifier *auth.Verifier
	presence *presence.Tracker
	logger   zerolog.Logger

	upgrader websocket.Upgrader

	sessionsMu sync.Mutex
	sessions   map[uuid.UUID]map[uuid.UUID]*roomSession // user_id -> room_id -> session
}

// NewHandler creates the duel WebSocket handler and registers itself as the
// match delivery callback.
func NewHandler(service *Service, hub *ws.Hub, verifier *auth.Verifier, tracker *presence.Tracker, logger zerolog.Logger) *Handler {
	h := &Handler{
		service:  service,
		hub:      hub,
		verifier: verifier,
		presence: tracker,
		logger:   logger.With().Str("component", "duel_handler").Logger(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		sessions: make(map[uuid.UUID]map[uuid.UUID]*roomSession),
	}
	service.SetOnMatch(h.deliverMatch)
	return h
}

// HandleWebSocket upgrades the connection after validating the access token
// (query parameter "token") and runs the read loop until disconnect.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	claims, err := h.verifier.Parse(r.URL.Query().Get("token"))
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	h.HandleConnection(conn, claims.UserID)
}

// HandleConnection processes an authenticated WebSocket connection.
func (h *Handler) HandleConnection(conn *websocket.Conn, userID uuid.UUID) {
	wsConn := ws.NewConnection(conn, h.logger)
	h.hub.RegisterConnection(userID, wsConn)

	go wsConn.WritePump()

	wsConn.ReadPump(func(msg ws.Message) error {
		return h.handleMessage(context.Background(), userID, msg)
	})

	h.dropSessions(userID)
	h.hub.UnregisterConnection(userID)
}

// handleMessage routes incoming WebSocket messages.
func (h *Handler) handleMessage(ctx context.Context, userID uuid.UUID, msg ws.Message) error {
	switch msg.Type {
	case ws.TypeJoinQueue:
		return h.handleJoinQueue(ctx, userID, msg.Payload)
	case ws.TypeLeaveQueue:
		return h.handleLeaveQueue(ctx, userID, msg.Payload)
	case ws.TypeAttachRoom:
		return h.handleAttachRoom(ctx, userID, msg.Payload)
	case ws.TypeMakeMove:
		return h.handleMakeMove(ctx, userID, msg.Payload)
	case ws.TypeFireShot:
		return h.handleFireShot(ctx, userID, msg.Payload)
	case ws.TypeReportProgress:
		return h.handleReportProgress(ctx, userID, msg.Payload)
	case ws.TypeClaimVictory:
		return h.handleClaimVictory(ctx, userID, msg.Payload)
	case ws.TypeAdvanceRound:
		return h.handleAdvanceRound(ctx, userID, msg.Payload)
	case ws.TypeResetMatch:
		return h.handleResetMatch(ctx, userID, msg.Payload)
	case ws.TypeAnnouncePresence:
		return h.handleAnnouncePresence(ctx, userID, msg.Payload)
	case ws.TypePing:
		return h.hub.SendToUser(userID, ws.Message{Type: ws.TypePong})
	default:
		return h.sendError(userID, httperrors.ErrCodeUnknownMessageType, fmt.Sprintf("Unknown message type: %s", msg.Type))
	}
}

func (h *Handler) handleJoinQueue(ctx context.Context, userID uuid.UUID, payload json.RawMessage) error {
	var req ws.JoinQueuePayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return h.sendError(userID, httperrors.ErrCodeInvalidPayload, "Invalid join_queue payload")
	}

	joinCtx, cancel := context.WithTimeout(ctx, joinQueueTimeout)
	defer cancel()

	result, err := h.service.JoinQueue(joinCtx, JoinRequest{
		UserID:       userID,
		GameType:     req.GameType,
		Rating:       req.Rating,
		SkillBracket: req.SkillBracket,
		Region:       req.Region,
		Private:      req.Mode == "private",
		MatchCode:    req.MatchCode,
		Seat:         req.Seat,
	})
	switch {
	case errors.Is(err, ErrInvalidGameType):
		return h.sendError(userID, httperrors.ErrCodeInvalidGameType, err.Error())
	case errors.Is(err, ErrInvalidSeat):
		return h.sendError(userID, httperrors.ErrCodeInvalidRequest, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return h.reconcileJoin(ctx, userID, req.GameType)
	case err != nil:
		return h.sendError(userID, httperrors.ErrCodeEnqueueFailed, err.Error())
	}

	// The match_found for an immediate pairing is delivered by the onMatch
	// callback; here the join itself is acknowledged.
	return h.hub.SendToUser(userID, ws.Message{
		Type: ws.TypeQueueUpdate,
		Payload: mustMarshal(ws.QueueUpdatePayload{
			EntryID:   result.Entry.ID.String(),
			Status:    result.Entry.Status,
			MatchCode: result.Entry.Metadata.MatchCode,
		}),
	})
}

// reconcileJoin resolves a join whose transaction timed out: the entry may be
// queued, matched into a room, or nowhere. The queued entry answers with the
// usual acknowledgement, an active room with match_found, and only the
// nothing-landed case surfaces as a timeout error.
func (h *Handler) reconcileJoin(ctx context.Context, userID uuid.UUID, gameType string) error {
	reconcileCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	entry, room, err := h.service.Reconcile(reconcileCtx, userID, gameType)
	switch {
	case errors.Is(err, store.ErrRoomNotFound):
		return h.sendError(userID, httperrors.ErrCodeJoinQueueTimedOut, "Join timed out and nothing was queued, try again")
	case err != nil:
		return h.sendError(userID, httperrors.ErrCodeEnqueueFailed, err.Error())
	case entry != nil:
		return h.hub.SendToUser(userID, ws.Message{
			Type: ws.TypeQueueUpdate,
			Payload: mustMarshal(ws.QueueUpdatePayload{
				EntryID:   entry.ID.String(),
				Status:    entry.Status,
				MatchCode: entry.Metadata.MatchCode,
			}),
		})
	default:
		h.sendMatchFound(userID, room)
		return nil
	}
}

func (h *Handler) handleLeaveQueue(ctx context.Context, userID uuid.UUID, payload json.RawMessage) error {
	var req ws.LeaveQueuePayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return h.sendError(userID, httperrors.ErrCodeInvalidPayload, "Invalid leave_queue payload")
	}
	entryID, err := uuid.Parse(req.EntryID)
	if err != nil {
		return h.sendError(userID, httperrors.ErrCodeInvalidRequest, "Invalid entry id")
	}

	err = h.service.LeaveQueue(ctx, userID, entryID)
	switch {
	case errors.Is(err, store.ErrEntryNotFound):
		// The matcher consumed the entry first: the cancel lost the race, so
		// reconcile against active rooms and hand back the match instead.
		room, roomErr := h.service.Rooms().GetActiveByUser(ctx, userID)
		if roomErr == nil {
			h.sendMatchFound(userID, room)
			return nil
		}
		return h.sendError(userID, httperrors.ErrCodeEntryNotFound, "Queue entry not found")
	case errors.Is(err, ErrNotQueueOwner):
		return h.sendError(userID, httperrors.ErrCodeLeaveQueueFailed, err.Error())
	case err != nil:
		return h.sendError(userID, httperrors.ErrCodeLeaveQueueFailed, err.Error())
	}

	return h.hub.SendToUser(userID, ws.Message{
		Type:    ws.TypeQueueUpdate,
		Payload: mustMarshal(ws.QueueUpdatePayload{EntryID: req.EntryID, Status: "cancelled"}),
	})
}

func (h *Handler) handleAttachRoom(ctx context.Context, userID uuid.UUID, payload json.RawMessage) error {
	var req ws.AttachRoomPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return h.sendError(userID, httperrors.ErrCodeInvalidPayload, "Invalid attach_room payload")
	}
	roomID, err := uuid.Parse(req.RoomID)
	if err != nil {
		return h.sendError(userID, httperrors.ErrCodeInvalidRoomID, "Invalid room id")
	}

	syncer := NewSynchronizer(h.service.Rooms(), h.service.Notifier(), h.service.Metrics(), h.logger, roomID, userID)
	room, err := syncer.Attach(ctx)
	switch {
	case errors.Is(err, store.ErrRoomNotFound):
		return h.sendError(userID, httperrors.ErrCodeRoomNotFound, "Room not found")
	case errors.Is(err, ErrNotParticipant):
		return h.sendError(userID, httperrors.ErrCodeNotParticipant, "Not a room participant")
	case err != nil:
		return h.sendError(userID, httperrors.ErrCodeInternalError, err.Error())
	}

	h.hub.JoinRoom(roomID, userID)
	h.startSession(userID, roomID, syncer)

	if err := h.sendRoomState(userID, room); err != nil {
		return err
	}
	if room.GameType == duel.GameBattleship {
		h.issueFleet(ctx, userID, roomID)
		h.resolvePending(ctx, roomID, userID)
	}
	if room.PuzzleID != "" {
		h.issuePuzzle(ctx, userID, room)
	}
	return nil
}

func (h *Handler) handleMakeMove(ctx context.Context, userID uuid.UUID, payload json.RawMessage) error {
	var req ws.MakeMovePayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return h.sendError(userID, httperrors.ErrCodeInvalidPayload, "Invalid make_move payload")
	}
	return h.applyUpdate(ctx, userID, req.RoomID, func(state *duel.GameState) bool {
		if state.TicTacToe == nil {
			return false
		}
		if !state.TicTacToe.ApplyMove(state.SymbolFor(userID), req.Cell) {
			return false
		}
		if state.TicTacToe.Series.IsSeriesComplete {
			state.Phase = duel.PhaseFinished
		}
		return true
	})
}

func (h *Handler) handleFireShot(ctx context.Context, userID uuid.UUID, payload json.RawMessage) error {
	var req ws.FireShotPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return h.sendError(userID, httperrors.ErrCodeInvalidPayload, "Invalid fire_shot payload")
	}
	now := time.Now().UTC()
	return h.applyUpdate(ctx, userID, req.RoomID, func(state *duel.GameState) bool {
		if state.Battleship == nil {
			return false
		}
		opponent, ok := state.Opponent(userID)
		if !ok {
			return false
		}
		return state.Battleship.ProposeShot(userID, opponent.UserID, req.Row, req.Col, now)
	})
}

func (h *Handler) handleReportProgress(ctx context.Context, userID uuid.UUID, payload json.RawMessage) error {
	var req ws.ReportProgressPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return h.sendError(userID, httperrors.ErrCodeInvalidPayload, "Invalid report_progress payload")
	}
	return h.applyUpdate(ctx, userID, req.RoomID, func(state *duel.GameState) bool {
		if state.Race == nil {
			return false
		}
		return state.Race.ReportProgress(userID, req.Percent)
	})
}

func (h *Handler) handleClaimVictory(ctx context.Context, userID uuid.UUID, payload json.RawMessage) error {
	var req ws.ClaimVictoryPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return h.sendError(userID, httperrors.ErrCodeInvalidPayload, "Invalid claim_victory payload")
	}
	return h.applyUpdate(ctx, userID, req.RoomID, func(state *duel.GameState) bool {
		if state.Race == nil {
			return false
		}
		if !state.Race.ClaimVictory(userID) {
			return false
		}
		state.Phase = duel.PhaseFinished
		return true
	})
}

func (h *Handler) handleAdvanceRound(ctx context.Context, userID uuid.UUID, payload json.RawMessage) error {
	var req ws.AdvanceRoundPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return h.sendError(userID, httperrors.ErrCodeInvalidPayload, "Invalid advance_round payload")
	}
	return h.applyUpdate(ctx, userID, req.RoomID, func(state *duel.GameState) bool {
		if state.TicTacToe == nil {
			return false
		}
		if !state.TicTacToe.AdvanceRound() {
			return false
		}
		if state.TicTacToe.Series.IsSeriesComplete {
			state.Phase = duel.PhaseFinished
		}
		return true
	})
}

// handleResetMatch starts a rematch in the same room: a fresh board and
// series. Only tic-tac-toe rooms support it, and only once the series ended.
func (h *Handler) handleResetMatch(ctx context.Context, userID uuid.UUID, payload json.RawMessage) error {
	var req ws.ResetMatchPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return h.sendError(userID, httperrors.ErrCodeInvalidPayload, "Invalid reset_match payload")
	}
	return h.applyUpdate(ctx, userID, req.RoomID, func(state *duel.GameState) bool {
		if state.TicTacToe == nil || !state.TicTacToe.Series.IsSeriesComplete {
			return false
		}
		state.TicTacToe = duel.NewTicTacToeState()
		state.Phase = duel.PhasePlaying
		return true
	})
}

// handleAnnouncePresence forwards the lobby beacon and answers with the
// current lobby counts for that game type.
func (h *Handler) handleAnnouncePresence(ctx context.Context, userID uuid.UUID, payload json.RawMessage) error {
	var req ws.AnnouncePresencePayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return h.sendError(userID, httperrors.ErrCodeInvalidPayload, "Invalid announce_presence payload")
	}
	if req.ClientID == "" || req.GameType == "" {
		return h.sendError(userID, httperrors.ErrCodeMissingField, "client_id and game_type are required")
	}

	err := h.presence.Announce(ctx, presence.Announcement{
		ClientID:     req.ClientID,
		UserID:       userID,
		GameType:     req.GameType,
		Region:       req.Region,
		SkillBracket: req.SkillBracket,
	})
	if err != nil {
		return h.sendError(userID, httperrors.ErrCodeInternalError, err.Error())
	}

	stats := h.presence.Stats(req.GameType)
	return h.hub.SendToUser(userID, ws.Message{
		Type: ws.TypeLobbyStats,
		Payload: mustMarshal(ws.LobbyStatsPayload{
			GameType:  stats.GameType,
			Total:     stats.Total,
			ByRegion:  stats.ByRegion,
			ByBracket: stats.ByBracket,
		}),
	})
}

// applyUpdate runs an updater through the caller's attached session. A false
// return from the updater is a tolerated race and acknowledged with the
// current state rather than an error.
func (h *Handler) applyUpdate(ctx context.Context, userID uuid.UUID, rawRoomID string, updater func(*duel.GameState) bool) error {
	roomID, err := uuid.Parse(rawRoomID)
	if err != nil {
		return h.sendError(userID, httperrors.ErrCodeInvalidRoomID, "Invalid room id")
	}
	session := h.getSession(userID, roomID)
	if session == nil {
		return h.sendError(userID, httperrors.ErrCodeNotAttached, "Attach to the room before sending moves")
	}

	room, err := session.sync.UpdateState(ctx, updater)
	switch {
	case errors.Is(err, ErrUpdateInFlight):
		return h.sendError(userID, httperrors.ErrCodeUpdateInFlight, "Previous update still in flight")
	case errors.Is(err, store.ErrVersionConflict):
		return h.sendError(userID, httperrors.ErrCodeStateConflict, "Room state changed too quickly, retry")
	case err != nil:
		return h.sendError(userID, httperrors.ErrCodeInternalError, err.Error())
	}
	return h.sendRoomState(userID, room)
}

// startSession stores the session and spawns its watch goroutine. Re-attaching
// to the same room replaces the previous session.
func (h *Handler) startSession(userID, roomID uuid.UUID, syncer *Synchronizer) {
	watchCtx, cancel := context.WithCancel(context.Background())

	h.sessionsMu.Lock()
	if h.sessions[userID] == nil {
		h.sessions[userID] = make(map[uuid.UUID]*roomSession)
	}
	if old := h.sessions[userID][roomID]; old != nil {
		old.cancel()
	}
	h.sessions[userID][roomID] = &roomSession{sync: syncer, cancel: cancel}
	h.sessionsMu.Unlock()

	go syncer.Watch(watchCtx, func(change store.RoomChange) {
		msg := ws.Message{
			Type: ws.TypeRoomState,
			Payload: mustMarshal(ws.RoomStatePayload{
				RoomID:  roomID.String(),
				Version: change.Version,
				State:   change.State,
			}),
		}
		if err := h.hub.SendToUser(userID, msg); err != nil {
			h.logger.Debug().Err(err).Str("user_id", userID.String()).Msg("room state delivery failed")
		}
		// The defender half of the shot handshake: confirm any shots that
		// arrived with this change.
		if snapshot := syncer.Snapshot(); snapshot != nil && snapshot.GameType == duel.GameBattleship {
			h.resolvePending(watchCtx, roomID, userID)
		}
	})
}

func (h *Handler) getSession(userID, roomID uuid.UUID) *roomSession {
	h.sessionsMu.Lock()
	defer h.sessionsMu.Unlock()
	return h.sessions[userID][roomID]
}

func (h *Handler) dropSessions(userID uuid.UUID) {
	h.sessionsMu.Lock()
	for _, session := range h.sessions[userID] {
		session.cancel()
	}
	delete(h.sessions, userID)
	h.sessionsMu.Unlock()
}

// deliverMatch pushes match_found to both players of a committed pairing.
// Offline players learn about the room on reconnect via reconcile.
func (h *Handler) deliverMatch(notice MatchNotice) {
	for _, entry := range []struct {
		userID uuid.UUID
		seat   string
	}{
		{notice.Host.UserID, duel.SeatHost},
		{notice.Guest.UserID, duel.SeatGuest},
	} {
		msg := ws.Message{
			Type: ws.TypeMatchFound,
			Payload: mustMarshal(ws.MatchFoundPayload{
				RoomID:   notice.Room.ID.String(),
				GameType: notice.Room.GameType,
				Reason:   notice.Room.State.MatchReason,
				Seat:     entry.seat,
			}),
		}
		if err := h.hub.SendToUser(entry.userID, msg); err != nil {
			h.logger.Debug().Str("user_id", entry.userID.String()).Msg("match delivery skipped, user offline")
		}
	}
}

func (h *Handler) sendMatchFound(userID uuid.UUID, room *duel.Room) {
	seat := duel.SeatGuest
	if room.HostID == userID {
		seat = duel.SeatHost
	}
	_ = h.hub.SendToUser(userID, ws.Message{
		Type: ws.TypeMatchFound,
		Payload: mustMarshal(ws.MatchFoundPayload{
			RoomID:   room.ID.String(),
			GameType: room.GameType,
			Reason:   room.State.MatchReason,
			Seat:     seat,
		}),
	})
}

func (h *Handler) sendRoomState(userID uuid.UUID, room *duel.Room) error {
	state, err := json.Marshal(room.State)
	if err != nil {
		return err
	}
	return h.hub.SendToUser(userID, ws.Message{
		Type: ws.TypeRoomState,
		Payload: mustMarshal(ws.RoomStatePayload{
			RoomID:  room.ID.String(),
			Version: room.StateVersion,
			State:   state,
		}),
	})
}

// issueFleet privately delivers the player's own ocean grid.
func (h *Handler) issueFleet(ctx context.Context, userID, roomID uuid.UUID) {
	fleet, err := h.service.Vault().Load(ctx, roomID, userID)
	if err != nil {
		h.logger.Warn().Err(err).Str("room_id", roomID.String()).Msg("fleet load failed on attach")
		return
	}
	ocean, err := json.Marshal(fleet.Ocean)
	if err != nil {
		return
	}
	_ = h.hub.SendToUser(userID, ws.Message{
		Type:    ws.TypeFleetIssued,
		Payload: mustMarshal(ws.FleetIssuedPayload{RoomID: roomID.String(), Ocean: ocean}),
	})
}

func (h *Handler) issuePuzzle(ctx context.Context, userID uuid.UUID, room *duel.Room) {
	doc, err := h.service.Stash().Load(ctx, room.PuzzleID)
	if err != nil {
		h.logger.Warn().Err(err).Str("room_id", room.ID.String()).Msg("puzzle load failed on attach")
		return
	}
	_ = h.hub.SendToUser(userID, ws.Message{
		Type: ws.TypePuzzleIssued,
		Payload: mustMarshal(ws.PuzzleIssuedPayload{
			RoomID:   room.ID.String(),
			PuzzleID: room.PuzzleID,
			Puzzle:   doc,
		}),
	})
}

func (h *Handler) resolvePending(ctx context.Context, roomID, userID uuid.UUID) {
	resolved, err := h.service.ResolvePendingShots(ctx, roomID, userID)
	if err != nil && !errors.Is(err, ErrFleetNotFound) {
		h.logger.Warn().Err(err).Str("room_id", roomID.String()).Msg("pending shot resolution failed")
		return
	}
	if resolved > 0 {
		h.logger.Info().Int("resolved", resolved).Str("room_id", roomID.String()).Msg("pending shots confirmed")
	}
}

func (h *Handler) sendError(userID uuid.UUID, code, message string) error {
	return h.hub.SendToUser(userID, ws.Message{
		Type:    ws.TypeError,
		Payload: mustMarshal(ws.ErrorPayload{Code: code, Message: message}),
	})
}

func mustMarshal(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}
