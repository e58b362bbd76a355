// Package repository defines the rating store interface and errors.
package repository

import (
	"context"

	"github.com/amaydixit11/UnoLeaderboard/internal/domain/model"
	"github.com/amaydixit11/UnoLeaderboard/internal/domain/rating"
	"github.com/amaydixit11/UnoLeaderboard/internal/domain/types"
)

// Entry represents a leaderboard row for one rating model.
type Entry = types.Entry

// Store provides read/write access to players and the game record.
//
// Writes happen one game at a time and in chronological order; the worker
// is the only writer, so readers always observe a consistent history.
type Store interface {
	// RecordGame appends a processed game and applies its per-model
	// snapshots to every participant's live rating state. Unknown players
	// are created with default ratings. Returns ErrDuplicateGame when the
	// game id was recorded before.
	RecordGame(ctx context.Context, g model.Game) error

	// ApplyTrajectory overwrites every player's whole-history rating with
	// the freshly fitted value. Called after each full recomputation.
	ApplyTrajectory(ctx context.Context, t *rating.Trajectory) error

	// Player returns the live rating state for one player.
	// Returns ErrNotFound if the player is unknown.
	Player(ctx context.Context, playerID string) (model.Player, error)

	// Players returns the live state for the given ids, substituting
	// default state for players that have not been recorded yet.
	Players(ctx context.Context, playerIDs []string) []model.Player

	// TopN returns the top-N entries for one model, best rating first.
	TopN(ctx context.Context, m types.ModelID, n int) ([]Entry, error)

	// History returns the chronological game record in the shape the
	// whole-history optimizer consumes. The copy is defensive; mutating
	// it does not touch stored state.
	History(ctx context.Context) []rating.HistoryGame

	// Games returns a copy of the processed game record, oldest first.
	Games(ctx context.Context) []model.Game

	// Count returns the number of tracked players.
	Count(ctx context.Context) int

	// GameCount returns the number of recorded games.
	GameCount(ctx context.Context) int
}
