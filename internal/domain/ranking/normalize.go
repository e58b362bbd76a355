// Package ranking converts a game's raw elimination events into one ordinal
// position per player.
//
// A player can be knocked out more than once per game under the rejoin
// mechanic. Averaging every elimination index a player occupied yields a
// fractional position strictly between their best and worst knockout, which
// is the intended penalty for repeated rejoining.
package ranking

import (
	"fmt"
	"slices"

	"github.com/amaydixit11/UnoLeaderboard/internal/domain/model"
)

// Placement is one player's normalized result for a single game.
type Placement struct {
	PlayerID           string
	NormalizedPosition float64
	RawPositions       []int // elimination indices, sorted ascending
}

// Normalize groups elimination events by player and averages each player's
// elimination indices into a single normalized position.
//
// The result holds one Placement per distinct player, ordered ascending by
// normalized position. Equal normalized positions are legal and must be
// treated as draws by every downstream model; Normalize keeps them adjacent
// in input order rather than breaking the tie.
func Normalize(elims []model.Elimination) ([]Placement, error) {
	if len(elims) == 0 {
		return nil, ErrEmptyGame
	}

	byPlayer := make(map[string][]int)
	order := make([]string, 0, len(elims))
	for _, e := range elims {
		if e.PlayerID == "" {
			return nil, ErrMissingPlayer
		}
		if e.Index <= 0 {
			return nil, fmt.Errorf("player %s: index %d: %w", e.PlayerID, e.Index, ErrInvalidIndex)
		}
		if _, seen := byPlayer[e.PlayerID]; !seen {
			order = append(order, e.PlayerID)
		}
		byPlayer[e.PlayerID] = append(byPlayer[e.PlayerID], e.Index)
	}

	placements := make([]Placement, 0, len(order))
	for _, id := range order {
		raw := byPlayer[id]
		slices.Sort(raw)
		sum := 0
		for _, idx := range raw {
			sum += idx
		}
		placements = append(placements, Placement{
			PlayerID:           id,
			NormalizedPosition: float64(sum) / float64(len(raw)),
			RawPositions:       raw,
		})
	}

	// Stable keeps tied players in first-elimination order.
	slices.SortStableFunc(placements, func(a, b Placement) int {
		switch {
		case a.NormalizedPosition < b.NormalizedPosition:
			return -1
		case a.NormalizedPosition > b.NormalizedPosition:
			return 1
		}
		return 0
	})

	return placements, nil
}
