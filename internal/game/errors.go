package game

import (
	"errors"

	httperrors "github.com/gokatarajesh/kelime-arena/pkg/http/errors"
)

var (
	ErrWordUnavailable     = errors.New("no secret word available")
	ErrSessionNotFound     = errors.New("session not found")
	ErrSessionExists       = errors.New("session already exists")
	ErrSessionFull         = errors.New("session is full")
	ErrNotInvited          = errors.New("session is reserved for another player")
	ErrNotMember           = errors.New("player is not in this session")
	ErrNotPlaying          = errors.New("round has not started")
	ErrNotYourTurn         = errors.New("not your turn")
	ErrInvalidLength       = errors.New("guess has the wrong number of letters")
	ErrInvalidWord         = errors.New("guess is not in the dictionary")
	ErrGuessLimitReached   = errors.New("no guesses left this round")
	ErrAlreadyFinished     = errors.New("round already finished")
	ErrRoundInProgress     = errors.New("round still in progress")
	ErrMatchComplete       = errors.New("match already complete")
	ErrTurnNotExpired      = errors.New("turn has not timed out")
	ErrInvalidConfig       = errors.New("invalid session settings")
	ErrInvalidUsername     = errors.New("username must be 1-12 characters")
	ErrTransactionConflict = errors.New("concurrent update conflict")
	ErrInvalidRecord       = errors.New("record violates session state rules")

	// ErrNoChange is returned by an update function to commit nothing.
	// Store.Update then yields the current record and a nil error.
	ErrNoChange = errors.New("no change")
)

// Code maps err to its stable wire code.
func Code(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrSessionNotFound):
		return httperrors.ErrCodeSessionNotFound
	case errors.Is(err, ErrSessionFull):
		return httperrors.ErrCodeSessionFull
	case errors.Is(err, ErrNotInvited):
		return httperrors.ErrCodeNotInvited
	case errors.Is(err, ErrNotMember):
		return httperrors.ErrCodeNotMember
	case errors.Is(err, ErrNotPlaying):
		return httperrors.ErrCodeNotPlaying
	case errors.Is(err, ErrNotYourTurn):
		return httperrors.ErrCodeNotYourTurn
	case errors.Is(err, ErrInvalidLength):
		return httperrors.ErrCodeInvalidLength
	case errors.Is(err, ErrInvalidWord):
		return httperrors.ErrCodeInvalidWord
	case errors.Is(err, ErrGuessLimitReached):
		return httperrors.ErrCodeGuessLimitReached
	case errors.Is(err, ErrAlreadyFinished):
		return httperrors.ErrCodeAlreadyFinished
	case errors.Is(err, ErrRoundInProgress):
		return httperrors.ErrCodeRoundInProgress
	case errors.Is(err, ErrMatchComplete):
		return httperrors.ErrCodeMatchComplete
	case errors.Is(err, ErrTurnNotExpired):
		return httperrors.ErrCodeTurnNotExpired
	case errors.Is(err, ErrInvalidConfig):
		return httperrors.ErrCodeInvalidSettings
	case errors.Is(err, ErrInvalidUsername):
		return httperrors.ErrCodeInvalidUsername
	case errors.Is(err, ErrWordUnavailable):
		return httperrors.ErrCodeWordUnavailable
	case errors.Is(err, ErrTransactionConflict):
		return httperrors.ErrCodeConflict
	default:
		return httperrors.ErrCodeInternalError
	}
}
