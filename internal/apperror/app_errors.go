package apperror

import "errors"

var (
	ErrGameNotActive       = errors.New("game is not active")
	ErrGameNotResolved     = errors.New("game is not resolved")
	ErrAlreadyResolved     = errors.New("game is already resolved and paid out")
	ErrNoPlayersRegistered = errors.New("no players registered")
	ErrCooldownActive      = errors.New("resolution cooldown is still active")
	ErrLimitExceeded       = errors.New("ticket limit exceeded")
	ErrInvalidTicketCount  = errors.New("invalid ticket count")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrGameNotFound        = errors.New("game not found")
	ErrGameAlreadyStarted  = errors.New("game is already started")
)
