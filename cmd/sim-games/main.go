package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/amaydixit11/UnoLeaderboard/internal/simgames"
)

// Default configuration constants.
const (
	defaultNumGames     = 1000
	defaultPlayerPool   = 100
	defaultTopN         = 50
	defaultWorkers      = 2 // multiplier for runtime.NumCPU()
	defaultTimeout      = 30 * time.Second
	defaultRejoinChance = 0.15
	defaultRunTimeout   = 10 * time.Minute
)

func main() {
	var (
		baseURL      = flag.String("url", "http://localhost:9080", "Base URL of the service")
		numGames     = flag.Int("games", defaultNumGames, "Number of games to generate and submit")
		playerPool   = flag.Int("players", defaultPlayerPool, "Size of the player pool the games draw from")
		topN         = flag.Int("top", defaultTopN, "Number of top entries to fetch per model leaderboard")
		workers      = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout      = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		rejoinChance = flag.Float64("rejoin", defaultRejoinChance, "Probability that a game contains a rejoin")
		outputFile   = flag.String("output", "", "Output file for generated games (default: generated_games_TIMESTAMP.json)")
		logFile      = flag.String("log", "", "Log file for run output (default: sim_log_TIMESTAMP.log)")
		verbose      = flag.Bool("verbose", false, "Enable verbose logging")
		help         = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		simgames.ShowHelp()
		return
	}

	// Setup logging
	if err := simgames.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	// Create context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	// Create run configuration
	config := &simgames.Config{
		BaseURL:      *baseURL,
		NumGames:     *numGames,
		PlayerPool:   *playerPool,
		TopN:         *topN,
		Workers:      *workers,
		Timeout:      *timeout,
		RejoinChance: *rejoinChance,
		OutputFile:   *outputFile,
		LogFile:      *logFile,
		Verbose:      *verbose,
	}

	// Run the simulation
	if err := simgames.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Simulation failed: " + err.Error() + "\n")
		return
	}
}
