package simgames

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/amaydixit11/UnoLeaderboard/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging configures logging to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string) error {
	// Initialize the logger first
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "sim_log_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	multiWriter := io.MultiWriter(os.Stdout, file)
	log.SetOutput(multiWriter)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the game simulation tool.
func ShowHelp() {
	os.Stdout.WriteString(`UNO Rating Simulation Tool
==========================

A concurrent tool for exercising the rating service with simulated games.

Usage:
  go run cmd/sim-games/main.go [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -games int
        Number of games to generate and submit (default 1000)
  -players int
        Size of the player pool the games draw from (default 100)
  -top int
        Number of top entries to fetch per model leaderboard (default 50)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -rejoin float
        Probability that a game contains a rejoin (default 0.15)
  -output string
        Output file for generated games (default: generated_games_TIMESTAMP.json)
  -log string
        Log file for run output (default: sim_log_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Run with default settings
  go run cmd/sim-games/main.go

  # Run with custom parameters
  go run cmd/sim-games/main.go -games 5000 -players 300 -workers 16

  # Run with frequent rejoins
  go run cmd/sim-games/main.go -rejoin 0.5 -verbose
`)
}
