// Package worker processes queued game submissions: normalize the
// eliminations, move every rating model, and refit the whole-history curve.
//
// Exactly one worker runs at a time. Rating updates are order-dependent and
// the whole-history refit needs exclusive, consistent access to the full
// game record, so submissions are deliberately processed sequentially.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/amaydixit11/UnoLeaderboard/internal/domain/model"
	"github.com/amaydixit11/UnoLeaderboard/internal/domain/ranking"
	"github.com/amaydixit11/UnoLeaderboard/internal/domain/rating"
	"github.com/amaydixit11/UnoLeaderboard/pkg/logger"
	"github.com/amaydixit11/UnoLeaderboard/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 30 * time.Second

// Submission is what the worker reads off the queue.
type Submission = model.Submission

// Store is the repository subset the worker reads and writes.
type Store interface {
	Players(ctx context.Context, playerIDs []string) []model.Player
	History(ctx context.Context) []rating.HistoryGame
	RecordGame(ctx context.Context, g model.Game) error
	ApplyTrajectory(ctx context.Context, t *rating.Trajectory) error
}

// Queue defines how the worker receives submissions.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Submission
}

// Deduper releases a submission id when processing fails, so the caller can
// retry it.
type Deduper interface {
	Unrecord(ctx context.Context, id string)
}

// Worker drains the queue until ctx is canceled or Shutdown is called.
type Worker struct {
	queue   Queue
	store   Store
	deduper Deduper

	pairwise     rating.Model
	expectedRank rating.Model
	wholeHistory *rating.WholeHistory
	provider     rating.Provider // optional external capability

	name     string
	shutdown chan struct{}
	done     chan struct{}
	logger   logger.Logger
}

// New creates a worker with configuration options.
func New(q Queue, store Store, deduper Deduper, opts ...Option) *Worker {
	w := &Worker{
		queue:        q,
		store:        store,
		deduper:      deduper,
		pairwise:     rating.NewPairwiseModel(),
		expectedRank: rating.NewExpectedRankModel(),
		wholeHistory: rating.NewWholeHistory(),
		name:         "worker",
		shutdown:     make(chan struct{}),
		done:         make(chan struct{}),
		logger:       logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)

	submissions := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case sub, ok := <-submissions:
			if !ok {
				return
			}
			if err := w.processSubmission(ctx, sub); err != nil {
				w.logger.Error(ctx, "submission rejected",
					logger.String("gameID", sub.GameID),
					logger.Error(err),
				)
			}
		}
	}
}

// Shutdown gracefully stops the worker, letting an in-flight submission
// finish.
func (w *Worker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	select {
	case <-w.done:
		return nil
	case <-shutdownCtx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", shutdownCtx.Err())
	}
}

// processSubmission moves every rating model for one game.
//
// Validation failures unrecord the game id and leave all ratings untouched.
// A failed optional provider only skips the external model; the game still
// counts for the in-house ones.
func (w *Worker) processSubmission(ctx context.Context, sub Submission) error {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	placements, err := ranking.Normalize(sub.Eliminations)
	if err != nil {
		w.deduper.Unrecord(ctx, sub.GameID)
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "validation_error")
		return fmt.Errorf("normalize game %s: %w", sub.GameID, err)
	}

	ids := make([]string, len(placements))
	for i, pl := range placements {
		ids[i] = pl.PlayerID
	}
	players := w.store.Players(ctx, ids)
	byID := make(map[string]model.Player, len(players))
	for _, p := range players {
		byID[p.ID] = p
	}

	// The per-game models own disjoint rating columns, so they can run
	// concurrently. Games-played counts always come from stored state.
	var (
		eloDeltas map[string]int
		cfDeltas  map[string]int
		osResults map[string]rating.ProviderResult
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		eloDeltas, err = w.pairwise.ApplyGame(standings(placements, byID, eloState))
		return err
	})
	g.Go(func() error {
		var err error
		cfDeltas, err = w.expectedRank.ApplyGame(standings(placements, byID, cfState))
		return err
	})
	if w.provider != nil {
		g.Go(func() error {
			var err error
			osResults, err = w.rateExternal(gctx, placements, byID)
			if err != nil {
				// The external capability is best-effort; don't fail the game.
				w.logger.Warn(gctx, "external provider failed; skipping openskill update",
					logger.String("gameID", sub.GameID),
					logger.Error(err),
				)
				osResults = nil
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		w.deduper.Unrecord(ctx, sub.GameID)
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "rating_error")
		return fmt.Errorf("rate game %s: %w", sub.GameID, err)
	}

	game := w.buildGame(sub, placements, byID, eloDeltas, cfDeltas, osResults)

	// Refit the whole history including this game, then fill in the
	// whole-history snapshot reported for it.
	history := append(w.store.History(ctx), rating.HistoryGame{
		GameID:     game.GameID,
		PlayedAt:   game.PlayedAt,
		Placements: historyPlacements(placements),
	})

	fitStart := time.Now()
	traj, err := w.wholeHistory.Fit(history)
	if err != nil {
		w.deduper.Unrecord(ctx, sub.GameID)
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "whr_error")
		return fmt.Errorf("fit history for game %s: %w", sub.GameID, err)
	}
	metrics.RecordHistoryFitDuration(float64(time.Since(fitStart).Milliseconds()))

	for i := range game.Participants {
		part := &game.Participants[i]
		after := traj.Snapshots[game.GameID][part.PlayerID]
		change := traj.Changes[game.GameID][part.PlayerID]
		part.WHR = model.RatingSnapshot{Before: after - change, After: after, Change: change}
	}

	if err := w.store.RecordGame(ctx, game); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "store_error")
		return fmt.Errorf("record game %s: %w", sub.GameID, err)
	}
	if err := w.store.ApplyTrajectory(ctx, traj); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "store_error")
		return fmt.Errorf("apply trajectory for game %s: %w", sub.GameID, err)
	}

	metrics.RecordGameProcessed()
	for range game.Participants {
		metrics.RecordRatingUpdate()
	}
	w.logger.Debug(ctx, "game processed",
		logger.String("gameID", sub.GameID),
		logger.Int("players", len(game.Participants)),
	)
	return nil
}

// stateFn selects one model's prior state from a player.
type stateFn func(p model.Player) model.ModelRating

func eloState(p model.Player) model.ModelRating { return p.Elo }
func cfState(p model.Player) model.ModelRating  { return p.CF }

func standings(placements []ranking.Placement, byID map[string]model.Player, state stateFn) []rating.Standing {
	out := make([]rating.Standing, len(placements))
	for i, pl := range placements {
		prior := state(byID[pl.PlayerID])
		out[i] = rating.Standing{
			PlayerID:    pl.PlayerID,
			Rating:      float64(prior.Rating),
			GamesPlayed: prior.GamesPlayed,
			Position:    pl.NormalizedPosition,
		}
	}
	return out
}

func historyPlacements(placements []ranking.Placement) []rating.HistoryPlacement {
	out := make([]rating.HistoryPlacement, len(placements))
	for i, pl := range placements {
		out[i] = rating.HistoryPlacement{PlayerID: pl.PlayerID, Position: pl.NormalizedPosition}
	}
	return out
}

// rateExternal invokes the optional OpenSkill-style provider.
func (w *Worker) rateExternal(ctx context.Context, placements []ranking.Placement, byID map[string]model.Player) (map[string]rating.ProviderResult, error) {
	inputs := make([]rating.ProviderInput, len(placements))
	for i, pl := range placements {
		st := byID[pl.PlayerID].OpenSkill
		inputs[i] = rating.ProviderInput{
			PlayerID: pl.PlayerID,
			Mu:       st.Mu,
			Sigma:    st.Sigma,
			Position: pl.NormalizedPosition,
		}
	}
	results, err := w.provider.Rate(ctx, inputs)
	if err != nil {
		return nil, err
	}
	out := make(map[string]rating.ProviderResult, len(results))
	for _, r := range results {
		out[r.PlayerID] = r
	}
	return out, nil
}

// buildGame assembles the immutable game record from the engines' outputs.
func (w *Worker) buildGame(
	sub Submission,
	placements []ranking.Placement,
	byID map[string]model.Player,
	eloDeltas, cfDeltas map[string]int,
	osResults map[string]rating.ProviderResult,
) model.Game {
	game := model.Game{
		GameID:       sub.GameID,
		PlayedAt:     sub.PlayedAt,
		PlayerCount:  len(placements),
		Participants: make([]model.Participation, len(placements)),
	}
	for i, pl := range placements {
		p := byID[pl.PlayerID]
		part := model.Participation{
			PlayerID:           pl.PlayerID,
			RawPositions:       pl.RawPositions,
			NormalizedPosition: pl.NormalizedPosition,
			Elo:                snapshot(p.Elo.Rating, eloDeltas[pl.PlayerID]),
			CF:                 snapshot(p.CF.Rating, cfDeltas[pl.PlayerID]),
		}
		if res, ok := osResults[pl.PlayerID]; ok {
			after := rating.DisplayOrdinal(res.Mu, res.Sigma)
			part.OpenSkill = model.RatingSnapshot{
				Before: p.OpenSkill.Ordinal,
				After:  after,
				Change: after - p.OpenSkill.Ordinal,
			}
			part.OpenSkillMu = res.Mu
			part.OpenSkillSigma = res.Sigma
		}
		game.Participants[i] = part
	}
	return game
}

func snapshot(before, change int) model.RatingSnapshot {
	return model.RatingSnapshot{Before: before, After: before + change, Change: change}
}
