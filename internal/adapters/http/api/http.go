// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/amaydixit11/UnoLeaderboard/internal/domain/dedupe"
	"github.com/amaydixit11/UnoLeaderboard/internal/domain/model"
	"github.com/amaydixit11/UnoLeaderboard/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	dedupe.Deduper

	// Enqueue pushes a game submission for async processing. Returns false on backpressure.
	Enqueue(ctx context.Context, sub model.Submission) bool

	// Read operations expose leaderboard data.
	TopN(ctx context.Context, modelID types.ModelID, n int) ([]Entry, error)
	Player(ctx context.Context, playerID string) (model.Player, error)
}

// Entry mirrors the read shape returned by leaderboard queries.
type Entry = types.Entry

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	gamesHandler       *GamesHandler
	leaderboardHandler *LeaderboardHandler
	playersHandler     *PlayersHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxLimit int) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		gamesHandler:       NewGamesHandler(deps),
		leaderboardHandler: NewLeaderboardHandler(deps, maxLimit),
		playersHandler:     NewPlayersHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/games", MetricsMiddleware(s.gamesHandler.HandlePostGame, "games"))
	mux.HandleFunc("/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
	mux.HandleFunc("/players/", MetricsMiddleware(s.playersHandler.HandleGetPlayer, "players"))
}

// gameRequest mirrors the wire schema for POST /games.
type gameRequest struct {
	GameID       string               `json:"game_id"`
	PlayedAt     string               `json:"played_at"`
	Eliminations []eliminationRequest `json:"eliminations"`
}

type eliminationRequest struct {
	PlayerID string `json:"player_id"`
	Index    int    `json:"index"`
}

func (g gameRequest) validate() error {
	switch {
	case strings.TrimSpace(g.GameID) == "":
		return errors.New("missing game_id")
	case strings.TrimSpace(g.PlayedAt) == "":
		return errors.New("missing played_at")
	case len(g.Eliminations) == 0:
		return errors.New("missing eliminations")
	}
	if _, err := time.Parse(time.RFC3339, g.PlayedAt); err != nil {
		return errors.New("invalid played_at; must be RFC3339")
	}
	for _, e := range g.Eliminations {
		if strings.TrimSpace(e.PlayerID) == "" {
			return errors.New("missing player_id in elimination")
		}
		if e.Index < 1 {
			return errors.New("elimination index must be >= 1")
		}
	}
	return nil
}

// submission converts a validated request to the domain shape.
func (g gameRequest) submission() model.Submission {
	playedAt, _ := time.Parse(time.RFC3339, g.PlayedAt)
	elims := make([]model.Elimination, len(g.Eliminations))
	for i, e := range g.Eliminations {
		elims[i] = model.Elimination{PlayerID: e.PlayerID, Index: e.Index}
	}
	return model.Submission{
		GameID:       g.GameID,
		PlayedAt:     playedAt,
		Eliminations: elims,
	}
}

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// isNotFound allows the API to translate upstream not-found errors to 404.
// This stays generic to avoid tight coupling with specific packages.
func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "not found")
}
