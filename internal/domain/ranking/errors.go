package ranking

import "errors"

// Sentinel kinds for normalization errors.
var (
	ErrEmptyGame     = errors.New("game has no eliminations")
	ErrInvalidIndex  = errors.New("elimination index must be positive")
	ErrMissingPlayer = errors.New("elimination has no player id")
)
