package apperror

import "errors"

var (
	ErrProtocol        = errors.New("malformed message")
	ErrIllegalMove     = errors.New("illegal move")
	ErrNotYourTurn     = errors.New("it's not your turn")
	ErrCardNotInHand   = errors.New("card is not in hand")
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionClosed   = errors.New("session is closed")
	ErrSessionFull     = errors.New("session is full")
	ErrSessionStarting = errors.New("session is starting")
	ErrAlreadyJoined   = errors.New("player id or name already in session")
	ErrInvalidConfig   = errors.New("invalid session config")

	ErrGameFinished     = errors.New("game is already finished")
	ErrGameIsNotStarted = errors.New("game is not started")
)
