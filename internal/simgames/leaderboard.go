package simgames

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"sync"
	"sync/atomic"
)

// ratingModels lists the leaderboards the service maintains.
var ratingModels = []string{"elo", "cf", "whr", "openskill"}

// getLeaderboards fetches the top-N leaderboard for every rating model.
func getLeaderboards(ctx context.Context, config *Config, stats *Stats) (map[string][]Entry, error) {
	log.Printf("fetching top %d for %d model leaderboards...", config.TopN, len(ratingModels))

	client := newHTTPClient(config.Timeout)
	boards := make(map[string][]Entry, len(ratingModels))

	for _, m := range ratingModels {
		u := fmt.Sprintf("%s/leaderboard?model=%s&limit=%d", config.BaseURL, url.QueryEscape(m), config.TopN)
		resp, err := client.Get(ctx, u)
		if err != nil {
			return nil, fmt.Errorf("leaderboard request for %s failed: %w", m, err)
		}
		body, err := readResponseBody(resp)
		if err != nil {
			return nil, fmt.Errorf("leaderboard read for %s failed: %w", m, err)
		}
		if resp.StatusCode != StatusOK {
			return nil, fmt.Errorf("leaderboard for %s returned status %d", m, resp.StatusCode)
		}
		var entries []Entry
		if err := json.Unmarshal(body, &entries); err != nil {
			return nil, fmt.Errorf("leaderboard decode for %s failed: %w", m, err)
		}
		boards[m] = entries
		stats.LeaderboardEntries += len(entries)
	}

	return boards, nil
}

// retrievePlayers fetches per-player state concurrently and counts successes.
func retrievePlayers(ctx context.Context, config *Config, ids []string, stats *Stats) error {
	log.Printf("retrieving %d players with %d workers...", len(ids), config.Workers)

	client := newHTTPClient(config.Timeout)

	var (
		retrieved int64
		failed    int64
	)

	idChan := make(chan string, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range idChan {
				select {
				case <-ctx.Done():
					return
				default:
					resp, err := client.Get(ctx, config.BaseURL+"/players/"+url.PathEscape(id))
					if err != nil {
						atomic.AddInt64(&failed, 1)
						continue
					}
					_, _ = readResponseBody(resp)
					if resp.StatusCode == StatusOK {
						atomic.AddInt64(&retrieved, 1)
					} else {
						atomic.AddInt64(&failed, 1)
						if config.Verbose {
							log.Printf("player %s returned status %d", id, resp.StatusCode)
						}
					}
				}
			}
		}()
	}

	go func() {
		defer close(idChan)
		for _, id := range ids {
			select {
			case <-ctx.Done():
				return
			case idChan <- id:
			}
		}
	}()

	wg.Wait()

	stats.PlayersRetrieved = int(atomic.LoadInt64(&retrieved))
	log.Printf("player retrieval completed: success=%d failed=%d", retrieved, failed)

	if failed > 0 {
		return fmt.Errorf("%d player lookups failed", failed)
	}
	return nil
}
