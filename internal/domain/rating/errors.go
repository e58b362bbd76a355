package rating

import "errors"

// Sentinel kinds for rating computation errors. Validation failures leave
// prior ratings untouched; numerical degeneracies inside the optimizers are
// absorbed locally and never surface as errors.
var (
	ErrNoParticipants  = errors.New("game has no participants")
	ErrMissingPlayer   = errors.New("participant has no player id")
	ErrDuplicatePlayer = errors.New("duplicate player in game")
	ErrInvalidPosition = errors.New("invalid normalized position")
	ErrRatingRange     = errors.New("rating outside representable range")
	ErrEmptyHistory    = errors.New("history has no games")
)
