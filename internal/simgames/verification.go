package simgames

import (
	"fmt"
	"log"
)

// verifyResults checks the internal consistency of every model leaderboard.
func verifyResults(boards map[string][]Entry, stats *Stats) error {
	log.Println("verifying leaderboards...")

	if len(boards) == 0 {
		return fmt.Errorf("no leaderboards to verify")
	}

	for model, entries := range boards {
		if err := verifyBoard(entries); err != nil {
			return fmt.Errorf("%s leaderboard inconsistent: %w", model, err)
		}
		if len(entries) > 0 {
			log.Printf("%s: %d entries, leader %s at %d",
				model, len(entries), entries[0].PlayerID, entries[0].Rating)
		}
	}

	log.Println("leaderboard verification completed")
	return nil
}

// verifyBoard checks one board: ratings non-increasing, ranks non-decreasing,
// tied ratings sharing a rank.
func verifyBoard(entries []Entry) error {
	for i := 1; i < len(entries); i++ {
		prev, cur := entries[i-1], entries[i]
		if cur.Rating > prev.Rating {
			return fmt.Errorf("rating increases at position %d (%d > %d)", i, cur.Rating, prev.Rating)
		}
		if cur.Rank < prev.Rank {
			return fmt.Errorf("rank decreases at position %d (%d < %d)", i, cur.Rank, prev.Rank)
		}
		if cur.Rating == prev.Rating && cur.Rank != prev.Rank {
			return fmt.Errorf("tied ratings at position %d do not share a rank", i)
		}
	}
	return nil
}
