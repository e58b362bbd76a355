// Package types contains common types used across the application
package types

// ModelID identifies one of the maintained rating models.
type ModelID string

// The rating models tracked for every player.
const (
	ModelElo       ModelID = "elo"
	ModelCF        ModelID = "cf"
	ModelWHR       ModelID = "whr"
	ModelOpenSkill ModelID = "openskill"
)

// Models lists every model id in display order.
func Models() []ModelID {
	return []ModelID{ModelElo, ModelCF, ModelWHR, ModelOpenSkill}
}

// Valid reports whether m names a known rating model.
func (m ModelID) Valid() bool {
	switch m {
	case ModelElo, ModelCF, ModelWHR, ModelOpenSkill:
		return true
	}
	return false
}

// Entry represents a leaderboard row for one rating model.
type Entry struct {
	Rank        int    `json:"rank"`
	PlayerID    string `json:"player_id"`
	Rating      int    `json:"rating"`
	GamesPlayed int    `json:"games_played"`
}
