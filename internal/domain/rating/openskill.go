package rating

import (
	"context"
	"math"
)

// Defaults for the external OpenSkill-style provider's state. A fresh
// player's ordinal is zero, which displays as BaseRating.
const (
	DefaultMu    = 25.0
	DefaultSigma = 25.0 / 3.0
	ordinalScale = 24.0
)

// ProviderInput is one participant handed to the external provider.
type ProviderInput struct {
	PlayerID string
	Mu       float64
	Sigma    float64
	Position float64 // normalized position; lower is better
}

// ProviderResult is the provider's updated state for one participant.
type ProviderResult struct {
	PlayerID string
	Mu       float64
	Sigma    float64
	Ordinal  float64 // mu - 3*sigma
	Change   float64
}

// Provider is implemented by an external OpenSkill-style rating capability.
// The update rule itself is out of this module's hands; the core only
// depends on this contract and on the ordinal display mapping below.
// Implementations must honor the tie-aware ranks derived from positions.
type Provider interface {
	Rate(ctx context.Context, players []ProviderInput) ([]ProviderResult, error)
}

// Ordinal is the provider's conservative skill estimate.
func Ordinal(mu, sigma float64) float64 {
	return mu - 3*sigma
}

// DisplayOrdinal scales and offsets the ordinal onto the 1000-centred range
// shared with the other models.
func DisplayOrdinal(mu, sigma float64) int {
	return int(math.Round(BaseRating + ordinalScale*Ordinal(mu, sigma)))
}

// TieAwareRanks converts normalized positions into the 0-based rank array
// the provider expects: a player's rank is the count of strictly better
// positions, so tied players share a rank.
func TieAwareRanks(positions []float64) []int {
	ranks := make([]int, len(positions))
	for i, p := range positions {
		for _, q := range positions {
			if q < p {
				ranks[i]++
			}
		}
	}
	return ranks
}
