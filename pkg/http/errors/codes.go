package errors

// Error codes for standardized error responses
const (
	// Authentication errors
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeInvalidToken = "invalid_token"
	ErrCodeTokenExpired = "token_expired"

	// Validation errors
	ErrCodeInvalidRequest = "invalid_request"
	ErrCodeMissingField   = "missing_field"

	// Resource errors
	ErrCodeNotFound = "not_found"
	ErrCodeConflict = "conflict"

	// Queue errors
	ErrCodeEnqueueFailed     = "enqueue_failed"
	ErrCodeEntryNotFound     = "queue_entry_not_found"
	ErrCodeLeaveQueueFailed  = "leave_queue_failed"
	ErrCodeInvalidGameType   = "invalid_game_type"
	ErrCodeInvalidMatchCode  = "invalid_match_code"
	ErrCodeAlreadyQueued     = "already_queued"
	ErrCodeJoinQueueTimedOut = "join_queue_timed_out"

	// Room errors
	ErrCodeRoomNotFound      = "room_not_found"
	ErrCodeNotParticipant    = "not_participant"
	ErrCodeNotAttached       = "not_attached"
	ErrCodeInvalidRoomID     = "invalid_room_id"
	ErrCodeMoveRejected      = "move_rejected"
	ErrCodeUpdateInFlight    = "update_in_flight"
	ErrCodeStateConflict     = "state_conflict"
	ErrCodeRoomFinished      = "room_finished"

	// Puzzle errors
	ErrCodeNoPuzzleAvailable = "no_puzzle_available"
	ErrCodeInvalidPuzzleType = "invalid_puzzle_type"

	// WebSocket errors
	ErrCodeInvalidPayload     = "invalid_payload"
	ErrCodeUnknownMessageType = "unknown_message_type"
	ErrCodeConnectionError    = "connection_error"

	// Server errors
	ErrCodeInternalError      = "internal_error"
	ErrCodeServiceUnavailable = "service_unavailable"
)
