package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/amaydixit11/UnoLeaderboard/internal/adapters/repository"
	"github.com/amaydixit11/UnoLeaderboard/internal/domain/dedupe"
	"github.com/amaydixit11/UnoLeaderboard/internal/domain/model"
	"github.com/amaydixit11/UnoLeaderboard/internal/domain/rating"
	"github.com/amaydixit11/UnoLeaderboard/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// chanQueue feeds submissions to the worker straight from a channel.
type chanQueue struct {
	ch chan Submission
}

func newChanQueue() *chanQueue {
	return &chanQueue{ch: make(chan Submission, 16)}
}

func (q *chanQueue) Dequeue(ctx context.Context) <-chan Submission { return q.ch }

// recordingDeduper remembers which ids were released back.
type recordingDeduper struct {
	unrecorded []string
}

func (d *recordingDeduper) Unrecord(ctx context.Context, id string) {
	d.unrecorded = append(d.unrecorded, id)
}

// stubProvider returns canned posteriors, winner first.
type stubProvider struct {
	err   error
	calls int
}

func (p *stubProvider) Rate(ctx context.Context, inputs []rating.ProviderInput) ([]rating.ProviderResult, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	out := make([]rating.ProviderResult, len(inputs))
	for i, in := range inputs {
		mu := in.Mu + 1.0 - 2.0*in.Position/float64(len(inputs))
		out[i] = rating.ProviderResult{
			PlayerID: in.PlayerID,
			Mu:       mu,
			Sigma:    in.Sigma * 0.95,
			Ordinal:  rating.Ordinal(mu, in.Sigma*0.95),
		}
	}
	return out, nil
}

func submission(id string, playedAt time.Time, order ...string) Submission {
	s := model.Submission{GameID: id, PlayedAt: playedAt}
	for i, p := range order {
		s.Eliminations = append(s.Eliminations, model.Elimination{PlayerID: p, Index: i + 1})
	}
	return s
}

func TestProcessSubmission(t *testing.T) {
	Convey("Given a worker over a live store", t, func() {
		ctx := context.Background()
		store := repository.NewMemStore(ctx)
		deduper := &recordingDeduper{}
		w := New(newChanQueue(), store, deduper, WithName("test"))
		playedAt := time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC)

		Convey("When a three-player game is processed", func() {
			err := w.processSubmission(ctx, submission("g-1", playedAt, "alice", "bob", "carol"))
			So(err, ShouldBeNil)

			Convey("The game lands in the store", func() {
				So(store.GameCount(ctx), ShouldEqual, 1)
				So(store.Count(ctx), ShouldEqual, 3)
				So(deduper.unrecorded, ShouldBeEmpty)
			})

			Convey("Every in-house model moved the players", func() {
				alice, err := store.Player(ctx, "alice")
				So(err, ShouldBeNil)
				carol, err := store.Player(ctx, "carol")
				So(err, ShouldBeNil)

				So(alice.Elo.Rating, ShouldBeGreaterThan, rating.BaseRating)
				So(carol.Elo.Rating, ShouldBeLessThan, rating.BaseRating)
				So(alice.CF.Rating, ShouldBeGreaterThan, rating.BaseRating)
				So(carol.CF.Rating, ShouldBeLessThan, rating.BaseRating)
				So(alice.WHR.Rating, ShouldBeGreaterThan, carol.WHR.Rating)
				So(alice.WHR.GamesPlayed, ShouldEqual, 1)
			})

			Convey("The recorded snapshots are internally consistent", func() {
				g := store.Games(ctx)[0]
				So(g.PlayerCount, ShouldEqual, 3)
				for _, part := range g.Participants {
					So(part.Elo.After, ShouldEqual, part.Elo.Before+part.Elo.Change)
					So(part.WHR.After, ShouldEqual, part.WHR.Before+part.WHR.Change)
				}
			})

			Convey("Without a provider the openskill column stays untouched", func() {
				alice, err := store.Player(ctx, "alice")
				So(err, ShouldBeNil)
				So(alice.OpenSkill.GamesPlayed, ShouldEqual, 0)
				So(alice.OpenSkill.Ordinal, ShouldEqual, rating.BaseRating)
			})
		})

		Convey("When eliminations reference a rejoining player", func() {
			sub := Submission{
				GameID:   "g-rejoin",
				PlayedAt: playedAt,
				Eliminations: []model.Elimination{
					{PlayerID: "gus", Index: 1},
					{PlayerID: "hana", Index: 2},
					{PlayerID: "gus", Index: 3},
					{PlayerID: "ivy", Index: 4},
				},
			}
			So(w.processSubmission(ctx, sub), ShouldBeNil)

			Convey("The averaged position ties gus with hana", func() {
				g := store.Games(ctx)[0]
				So(g.PlayerCount, ShouldEqual, 3)
				gus, err := store.Player(ctx, "gus")
				So(err, ShouldBeNil)
				hana, err := store.Player(ctx, "hana")
				So(err, ShouldBeNil)
				ivy, err := store.Player(ctx, "ivy")
				So(err, ShouldBeNil)
				So(gus.Elo.Rating, ShouldEqual, hana.Elo.Rating)
				So(ivy.Elo.Rating, ShouldBeLessThan, gus.Elo.Rating)
			})
		})

		Convey("When the submission fails validation", func() {
			sub := Submission{
				GameID:   "g-bad",
				PlayedAt: playedAt,
				Eliminations: []model.Elimination{
					{PlayerID: "alice", Index: 0},
				},
			}
			err := w.processSubmission(ctx, sub)
			So(err, ShouldNotBeNil)

			Convey("The id is released and nothing is stored", func() {
				So(deduper.unrecorded, ShouldResemble, []string{"g-bad"})
				So(store.GameCount(ctx), ShouldEqual, 0)
				So(store.Count(ctx), ShouldEqual, 0)
			})
		})

		Convey("When the store already holds the game id", func() {
			So(w.processSubmission(ctx, submission("g-dup", playedAt, "alice", "bob")), ShouldBeNil)
			err := w.processSubmission(ctx, submission("g-dup", playedAt.Add(time.Hour), "alice", "bob"))
			So(errors.Is(err, repository.ErrDuplicateGame), ShouldBeTrue)
		})

		Convey("Games played accumulate across submissions", func() {
			for i := 0; i < 3; i++ {
				id := string(rune('a'+i)) + "-game"
				at := playedAt.Add(time.Duration(i) * 24 * time.Hour)
				So(w.processSubmission(ctx, submission(id, at, "alice", "bob")), ShouldBeNil)
			}
			alice, err := store.Player(ctx, "alice")
			So(err, ShouldBeNil)
			So(alice.Elo.GamesPlayed, ShouldEqual, 3)
			So(alice.WHR.GamesPlayed, ShouldEqual, 3)
			So(alice.Elo.Rating, ShouldBeGreaterThan, rating.BaseRating)
		})
	})
}

func TestProcessSubmissionWithProvider(t *testing.T) {
	Convey("Given a worker with an external provider", t, func() {
		ctx := context.Background()
		store := repository.NewMemStore(ctx)
		deduper := &recordingDeduper{}
		playedAt := time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC)

		Convey("A healthy provider updates the openskill column", func() {
			provider := &stubProvider{}
			w := New(newChanQueue(), store, deduper, WithProvider(provider))

			So(w.processSubmission(ctx, submission("g-1", playedAt, "alice", "bob")), ShouldBeNil)
			So(provider.calls, ShouldEqual, 1)

			alice, err := store.Player(ctx, "alice")
			So(err, ShouldBeNil)
			So(alice.OpenSkill.GamesPlayed, ShouldEqual, 1)
			So(alice.OpenSkill.Sigma, ShouldBeLessThan, rating.DefaultSigma)

			bob, err := store.Player(ctx, "bob")
			So(err, ShouldBeNil)
			So(alice.OpenSkill.Ordinal, ShouldBeGreaterThan, bob.OpenSkill.Ordinal)
		})

		Convey("A failing provider skips openskill but keeps the game", func() {
			provider := &stubProvider{err: errors.New("provider offline")}
			w := New(newChanQueue(), store, deduper, WithProvider(provider))

			So(w.processSubmission(ctx, submission("g-1", playedAt, "alice", "bob")), ShouldBeNil)
			So(store.GameCount(ctx), ShouldEqual, 1)

			alice, err := store.Player(ctx, "alice")
			So(err, ShouldBeNil)
			So(alice.Elo.GamesPlayed, ShouldEqual, 1)
			So(alice.OpenSkill.GamesPlayed, ShouldEqual, 0)
			So(deduper.unrecorded, ShouldBeEmpty)
		})
	})
}

func TestWorkerLifecycle(t *testing.T) {
	Convey("Given a running worker", t, func() {
		ctx := context.Background()
		store := repository.NewMemStore(ctx)
		deduper := dedupe.NewInMemoryDeduper()
		q := newChanQueue()
		w := New(q, store, deduper)

		go w.Run(ctx)

		Convey("Queued submissions are drained and applied", func() {
			playedAt := time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC)
			q.ch <- submission("g-1", playedAt, "alice", "bob")
			q.ch <- submission("g-2", playedAt.Add(time.Hour), "bob", "alice")

			So(waitFor(func() bool { return store.GameCount(ctx) == 2 }), ShouldBeTrue)
			So(w.Shutdown(ctx), ShouldBeNil)
		})

		Convey("Closing the feed stops the loop", func() {
			close(q.ch)
			So(w.Shutdown(ctx), ShouldBeNil)
		})
	})

	Convey("Context cancellation stops the worker", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		store := repository.NewMemStore(ctx)
		w := New(newChanQueue(), store, dedupe.NewInMemoryDeduper())

		go w.Run(ctx)
		cancel()
		So(w.Shutdown(context.Background()), ShouldBeNil)
	})
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}
