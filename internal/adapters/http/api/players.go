// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/amaydixit11/UnoLeaderboard/internal/domain/model"
)

// PlayerDependencies defines the interface for player lookups.
type PlayerDependencies interface {
	Player(ctx context.Context, playerID string) (model.Player, error)
}

// PlayersHandler handles player rating lookups.
type PlayersHandler struct {
	deps PlayerDependencies
}

// NewPlayersHandler creates a new players handler.
func NewPlayersHandler(deps PlayerDependencies) *PlayersHandler {
	return &PlayersHandler{deps: deps}
}

// playerResponse reports a player's state under every rating model.
type playerResponse struct {
	PlayerID  string         `json:"player_id"`
	Elo       ratingState    `json:"elo"`
	CF        ratingState    `json:"cf"`
	WHR       ratingState    `json:"whr"`
	OpenSkill openSkillState `json:"openskill"`
}

type ratingState struct {
	Rating      int `json:"rating"`
	GamesPlayed int `json:"games_played"`
}

type openSkillState struct {
	Mu          float64 `json:"mu"`
	Sigma       float64 `json:"sigma"`
	Ordinal     int     `json:"ordinal"`
	GamesPlayed int     `json:"games_played"`
}

// HandleGetPlayer handles GET /players/{player_id} requests.
func (h *PlayersHandler) HandleGetPlayer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	// Extract path parameter after /players/
	path := strings.TrimPrefix(r.URL.Path, "/players/")
	if path == "" || strings.Contains(path, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	p, err := h.deps.Player(r.Context(), path)
	if err != nil {
		// If upstream exposes not-found, translate; otherwise 500
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, playerResponse{
		PlayerID:  p.ID,
		Elo:       ratingState{Rating: p.Elo.Rating, GamesPlayed: p.Elo.GamesPlayed},
		CF:        ratingState{Rating: p.CF.Rating, GamesPlayed: p.CF.GamesPlayed},
		WHR:       ratingState{Rating: p.WHR.Rating, GamesPlayed: p.WHR.GamesPlayed},
		OpenSkill: openSkillState{Mu: p.OpenSkill.Mu, Sigma: p.OpenSkill.Sigma, Ordinal: p.OpenSkill.Ordinal, GamesPlayed: p.OpenSkill.GamesPlayed},
	})
}
