package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound      = errors.New("player not found")
	ErrUnknownModel  = errors.New("unknown rating model")
	ErrInvalidLimit  = errors.New("invalid leaderboard limit")
	ErrDuplicateGame = errors.New("game already recorded")
)
