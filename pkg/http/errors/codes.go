package errors

// Error codes for standardized error responses
const (
	// Authentication errors
	ErrCodeUnauthorized           = "unauthorized"
	ErrCodeInvalidToken           = "invalid_token"
	ErrCodeTokenExpired           = "token_expired"
	ErrCodeAuthenticationRequired = "authentication_required"

	// Validation errors
	ErrCodeInvalidRequest   = "invalid_request"
	ErrCodeValidationFailed = "validation_failed"
	ErrCodeInvalidUsername  = "invalid_username"

	// Session errors
	ErrCodeSessionNotFound   = "session_not_found"
	ErrCodeSessionFull       = "session_full"
	ErrCodeNotInvited        = "not_invited"
	ErrCodeNotMember         = "not_member"
	ErrCodeNotPlaying        = "not_playing"
	ErrCodeNotYourTurn       = "not_your_turn"
	ErrCodeInvalidLength     = "invalid_length"
	ErrCodeInvalidWord       = "invalid_word"
	ErrCodeGuessLimitReached = "guess_limit_reached"
	ErrCodeAlreadyFinished   = "already_finished"
	ErrCodeRoundInProgress   = "round_in_progress"
	ErrCodeMatchComplete     = "match_complete"
	ErrCodeTurnNotExpired    = "turn_not_expired"
	ErrCodeInvalidSettings   = "invalid_settings"
	ErrCodeWordUnavailable   = "word_unavailable"
	ErrCodeConflict          = "transaction_conflict"

	// WebSocket errors
	ErrCodeInvalidPayload     = "invalid_payload"
	ErrCodeUnknownMessageType = "unknown_message_type"

	// Server errors
	ErrCodeInternalError      = "internal_error"
	ErrCodeServiceUnavailable = "service_unavailable"

	// Leaderboard errors
	ErrCodeLeaderboardFetchFailed = "leaderboard_fetch_failed"
	ErrCodeUnknownWindow          = "unknown_leaderboard_window"
)
