package simgames

import (
	"context"
	"crypto/rand"
	"math/big"
	"time"

	"github.com/amaydixit11/UnoLeaderboard/pkg/logger"
	"github.com/google/uuid"
)

// Constants for random number generation.
const (
	randomFloatDivisor = 1000000
	minGameSize        = 3
	maxGameSize        = 8
	gameSpacing        = 10 * time.Minute
)

// getRandomFloat returns a random float64 between 0.0 and 1.0 using crypto/rand.
func getRandomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

// randomInt returns a random int in [0, n).
func randomInt(n int) int {
	v, _ := rand.Int(rand.Reader, big.NewInt(int64(n)))
	return int(v.Int64())
}

// generateGames creates random finished games drawn from a fixed player pool.
// Timestamps are spaced evenly so the whole-history model sees a real
// chronology rather than a burst of identical instants.
func generateGames(ctx context.Context, config *Config, stats *Stats) ([]Game, error) {
	logger.Get().Info(ctx, "generating games",
		logger.Int("numGames", config.NumGames),
		logger.Int("playerPool", config.PlayerPool),
	)

	pool := make([]string, config.PlayerPool)
	for i := range pool {
		pool[i] = uuid.New().String()
	}

	start := time.Now().UTC().Add(-time.Duration(config.NumGames) * gameSpacing)

	games := make([]Game, config.NumGames)
	for i := 0; i < config.NumGames; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		games[i] = generateSingleGame(config, pool, start.Add(time.Duration(i)*gameSpacing))
	}

	stats.GamesGenerated = len(games)
	logger.Get().Info(ctx, "generated games successfully", logger.Int("count", len(games)))

	return games, nil
}

// generateSingleGame draws a random subset of the pool, shuffles it into a
// finishing order, and optionally injects a rejoin for one player.
func generateSingleGame(config *Config, pool []string, playedAt time.Time) Game {
	size := minGameSize
	if span := maxGameSize - minGameSize; span > 0 {
		size += randomInt(span + 1)
	}
	if size > len(pool) {
		size = len(pool)
	}

	// Partial Fisher-Yates over a copy picks size distinct players.
	picked := make([]string, len(pool))
	copy(picked, pool)
	for i := 0; i < size; i++ {
		j := i + randomInt(len(picked)-i)
		picked[i], picked[j] = picked[j], picked[i]
	}
	order := picked[:size]

	elims := make([]Elimination, 0, size+1)
	for i, id := range order {
		elims = append(elims, Elimination{PlayerID: id, Index: i + 1})
	}

	// A rejoin shows up as the same player holding a second, later index.
	if getRandomFloat() < config.RejoinChance && size > 1 {
		victim := order[randomInt(size-1)]
		elims = append(elims, Elimination{PlayerID: victim, Index: size + 1})
	}

	return Game{
		GameID:       "game_" + uuid.New().String(),
		PlayedAt:     playedAt.Format(time.RFC3339),
		Eliminations: elims,
	}
}

// playerIDs returns the distinct player ids appearing across the games.
func playerIDs(games []Game) []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, g := range games {
		for _, e := range g.Eliminations {
			if _, ok := seen[e.PlayerID]; !ok {
				seen[e.PlayerID] = struct{}{}
				ids = append(ids, e.PlayerID)
			}
		}
	}
	return ids
}
