// Package rating implements the maintained rating models: a pairwise Elo
// decomposition, an expected-rank contest model, and a batch Whole-History
// Rating optimizer. Each model is a pure strategy object over plain inputs;
// callers own fetching prior state and persisting results.
package rating

import "math"

// Display scale shared by every model.
const (
	// BaseRating is the rating every player starts with.
	BaseRating = 1000
	// logisticScale is the rating gap giving 10-to-1 win odds.
	logisticScale = 400
	logisticBase  = 10
)

// Default K-factor curve parameters. The curve is continuous in the number
// of games played so sensitivity decays smoothly instead of stepping at
// arbitrary thresholds.
const (
	defaultKMin   = 16.0
	defaultKMax   = 32.0
	defaultKDecay = 20.0
)

// Standing is one player's prior state going into a game.
type Standing struct {
	PlayerID    string
	Rating      float64
	GamesPlayed int     // ranked games before this one; drives the K-factor
	Position    float64 // normalized position in this game; lower is better
}

// Model applies a single game to prior ratings, producing one delta per
// participant. Implementations keep no state between calls.
type Model interface {
	Name() string

	// Deltas returns the exact, unrounded rating change per player.
	// The changes sum to zero when every participant shares a K-factor.
	Deltas(standings []Standing) (map[string]float64, error)

	// ApplyGame returns integer deltas, rounded half away from zero.
	ApplyGame(standings []Standing) (map[string]int, error)
}

// kCurve is the exponential K-factor decay shared by the per-game models.
type kCurve struct {
	min, max, decay float64
}

func defaultKCurve() kCurve {
	return kCurve{min: defaultKMin, max: defaultKMax, decay: defaultKDecay}
}

func (k kCurve) factor(gamesPlayed int) float64 {
	return k.min + (k.max-k.min)*math.Exp(-float64(gamesPlayed)/k.decay)
}

// KFactor evaluates the default K-factor curve: K(0) = 32, decaying
// smoothly toward a floor of 16 as games accumulate.
func KFactor(gamesPlayed int) float64 {
	return defaultKCurve().factor(gamesPlayed)
}

// winProbability is the standard logistic expectation: the chance that a
// player rated r beats a player rated opponent.
func winProbability(r, opponent float64) float64 {
	return 1 / (1 + math.Pow(logisticBase, (opponent-r)/logisticScale))
}

// roundDelta rounds half away from zero, applied identically to every model
// so After-Before always equals the rounded Change.
func roundDelta(d float64) int {
	return int(math.Round(d))
}

func roundDeltas(deltas map[string]float64) map[string]int {
	out := make(map[string]int, len(deltas))
	for id, d := range deltas {
		out[id] = roundDelta(d)
	}
	return out
}

func validateStandings(standings []Standing) error {
	if len(standings) == 0 {
		return ErrNoParticipants
	}
	seen := make(map[string]struct{}, len(standings))
	for _, s := range standings {
		if s.PlayerID == "" {
			return ErrMissingPlayer
		}
		if _, dup := seen[s.PlayerID]; dup {
			return ErrDuplicatePlayer
		}
		seen[s.PlayerID] = struct{}{}
		if math.IsNaN(s.Rating) || math.IsInf(s.Rating, 0) {
			return ErrRatingRange
		}
	}
	return nil
}
