package simgames

import "time"

// Config holds configuration for the game simulation run.
type Config struct {
	BaseURL      string        // Base URL of the service
	NumGames     int           // Number of games to generate
	PlayerPool   int           // Number of distinct players to draw from
	TopN         int           // Number of top entries to fetch per model
	Workers      int           // Number of concurrent workers
	Timeout      time.Duration // HTTP request timeout
	RejoinChance float64       // Probability that a game contains a rejoin
	OutputFile   string        // Output file for generated games
	LogFile      string        // Log file for run output
	Verbose      bool          // Enable verbose logging
}

// Elimination is one knockout event on the wire.
type Elimination struct {
	PlayerID string `json:"player_id"`
	Index    int    `json:"index"`
}

// Game represents a finished game to be submitted.
type Game struct {
	GameID       string        `json:"game_id"`
	PlayedAt     string        `json:"played_at"`
	Eliminations []Elimination `json:"eliminations"`
}

// Entry represents a leaderboard entry.
type Entry struct {
	Rank        int    `json:"rank"`
	PlayerID    string `json:"player_id"`
	Rating      int    `json:"rating"`
	GamesPlayed int    `json:"games_played"`
}

// AckResponse represents the response from game submission.
type AckResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

// Stats tracks run statistics.
type Stats struct {
	GamesGenerated     int
	GamesSubmitted     int
	GamesSuccessful    int
	GamesDuplicate     int
	GamesFailed        int
	PlayersRetrieved   int
	LeaderboardEntries int
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
}
