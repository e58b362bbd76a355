// Package model contains domain models passed between layers.
package model

import "time"

// Elimination is a single knockout event inside a game. Index is the 1-based
// order of elimination; the same player may appear more than once when they
// rejoin the table after being knocked out.
type Elimination struct {
	PlayerID string
	Index    int
}

// Submission represents a game result submitted by clients.
// Fields mirror the request schema for POST /games.
type Submission struct {
	GameID       string    // unique id for idempotency
	PlayedAt     time.Time // game timestamp; sole ordering key for every model
	Eliminations []Elimination
}

// RatingSnapshot records how one model moved a player in one game.
// After == Before + Change always holds.
type RatingSnapshot struct {
	Before int `json:"before"`
	After  int `json:"after"`
	Change int `json:"change"`
}

// Participation is one player's outcome in one game.
type Participation struct {
	PlayerID           string
	RawPositions       []int   // elimination indices, sorted ascending
	NormalizedPosition float64 // mean of RawPositions; lower is better
	Elo                RatingSnapshot
	CF                 RatingSnapshot
	WHR                RatingSnapshot

	// OpenSkill carries the external provider's display ordinal movement;
	// Mu/Sigma are its raw posterior. All three stay zero when no provider
	// is configured.
	OpenSkill      RatingSnapshot
	OpenSkillMu    float64
	OpenSkillSigma float64
}

// Game is a processed game result. Immutable once stored.
type Game struct {
	GameID       string
	PlayedAt     time.Time
	PlayerCount  int
	Participants []Participation
}

// ModelRating is one model's live rating state for a player.
type ModelRating struct {
	Rating      int
	GamesPlayed int
}

// OpenSkillState is the opaque per-player state owned by the external
// OpenSkill-style provider. Ordinal is its display rating.
type OpenSkillState struct {
	Mu          float64
	Sigma       float64
	Ordinal     int
	GamesPlayed int
}

// Player aggregates one rating state per model. States are disjoint: each
// model reads and writes only its own column.
type Player struct {
	ID        string
	Elo       ModelRating
	CF        ModelRating
	WHR       ModelRating
	OpenSkill OpenSkillState
}
