package rating_test

import (
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"

	rating "github.com/amaydixit11/UnoLeaderboard/internal/domain/rating"
	. "github.com/smartystreets/goconvey/convey"
)

// history builds n three-player games spaced a day apart where "ace" always
// finishes first, "mid" second, and "tail" last.
func dominatedHistory(n int) []rating.HistoryGame {
	start := time.Date(2025, 3, 1, 20, 0, 0, 0, time.UTC)
	games := make([]rating.HistoryGame, 0, n)
	for i := 0; i < n; i++ {
		games = append(games, rating.HistoryGame{
			GameID:   "g" + string(rune('a'+i)),
			PlayedAt: start.AddDate(0, 0, i),
			Placements: []rating.HistoryPlacement{
				{PlayerID: "ace", Position: 1},
				{PlayerID: "mid", Position: 2},
				{PlayerID: "tail", Position: 3},
			},
		})
	}
	return games
}

func TestWholeHistory(t *testing.T) {
	Convey("Given a history one player dominates", t, func() {
		engine := rating.NewWholeHistory()
		history := dominatedHistory(12)

		Convey("When fitting the full history", func() {
			traj, err := engine.Fit(history)
			So(err, ShouldBeNil)

			Convey("Then the constant winner converges above the base rating", func() {
				So(traj.Ratings["ace"], ShouldBeGreaterThan, 1000)
			})

			Convey("And strictly above the constant loser", func() {
				So(traj.Ratings["ace"], ShouldBeGreaterThan, traj.Ratings["tail"])
				So(traj.Ratings["tail"], ShouldBeLessThan, 1000)
			})
		})
	})

	Convey("Given the same games submitted out of chronological order", t, func() {
		engine := rating.NewWholeHistory()
		ordered := dominatedHistory(10)
		shuffled := make([]rating.HistoryGame, len(ordered))
		copy(shuffled, ordered)
		rand.New(rand.NewSource(7)).Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		Convey("When fitting both", func() {
			a, err := engine.Fit(ordered)
			So(err, ShouldBeNil)
			b, err := engine.Fit(shuffled)
			So(err, ShouldBeNil)

			Convey("Then the engine's own timestamp sort makes the results identical", func() {
				So(b.Ratings, ShouldResemble, a.Ratings)
				So(b.Snapshots, ShouldResemble, a.Snapshots)
				So(b.Changes, ShouldResemble, a.Changes)
			})
		})
	})

	Convey("Given per-game snapshots", t, func() {
		engine := rating.NewWholeHistory()
		history := dominatedHistory(6)

		Convey("When fitting", func() {
			traj, err := engine.Fit(history)
			So(err, ShouldBeNil)

			Convey("Then each change equals the snapshot minus the previous one", func() {
				for _, id := range []string{"ace", "mid", "tail"} {
					prev := 1000
					for i := 0; i < 6; i++ {
						gameID := history[i].GameID
						snap := traj.Snapshots[gameID][id]
						So(traj.Changes[gameID][id], ShouldEqual, snap-prev)
						prev = snap
					}
					So(traj.Ratings[id], ShouldEqual, prev)
				}
			})
		})
	})

	Convey("Given a player with a single game and no temporal neighbors", t, func() {
		engine := rating.NewWholeHistory()
		history := []rating.HistoryGame{
			{
				GameID:   "solo",
				PlayedAt: time.Date(2025, 5, 1, 18, 0, 0, 0, time.UTC),
				Placements: []rating.HistoryPlacement{
					{PlayerID: "a", Position: 1},
					{PlayerID: "b", Position: 2},
				},
			},
		}

		Convey("Then the walk prior is simply omitted and the fit still completes", func() {
			traj, err := engine.Fit(history)
			So(err, ShouldBeNil)
			So(traj.Ratings["a"], ShouldBeGreaterThan, traj.Ratings["b"])
		})
	})

	Convey("Given two players who always tie", t, func() {
		engine := rating.NewWholeHistory()
		start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		var history []rating.HistoryGame
		for i := 0; i < 5; i++ {
			history = append(history, rating.HistoryGame{
				GameID:   "t" + string(rune('0'+i)),
				PlayedAt: start.AddDate(0, 0, i),
				Placements: []rating.HistoryPlacement{
					{PlayerID: "x", Position: 1.5},
					{PlayerID: "y", Position: 1.5},
					{PlayerID: "z", Position: 3},
				},
			})
		}

		Convey("Then the tied pair ends within a point of each other", func() {
			traj, err := engine.Fit(history)
			So(err, ShouldBeNil)
			So(traj.Ratings["x"], ShouldAlmostEqual, traj.Ratings["y"], 1)
			So(traj.Ratings["x"], ShouldBeGreaterThan, traj.Ratings["z"])
		})
	})

	Convey("Given degenerate input", t, func() {
		engine := rating.NewWholeHistory()

		Convey("When the history is empty", func() {
			_, err := engine.Fit(nil)
			So(errors.Is(err, rating.ErrEmptyHistory), ShouldBeTrue)
		})

		Convey("When a game has no placements", func() {
			_, err := engine.Fit([]rating.HistoryGame{{GameID: "empty", PlayedAt: time.Now()}})
			So(errors.Is(err, rating.ErrNoParticipants), ShouldBeTrue)
		})

		Convey("When a game lists a player twice", func() {
			_, err := engine.Fit([]rating.HistoryGame{{
				GameID:   "dup",
				PlayedAt: time.Now(),
				Placements: []rating.HistoryPlacement{
					{PlayerID: "a", Position: 1},
					{PlayerID: "a", Position: 2},
				},
			}})
			So(errors.Is(err, rating.ErrDuplicatePlayer), ShouldBeTrue)
		})

		Convey("When a placement carries an invalid position", func() {
			for _, pos := range []float64{0, -1, math.NaN()} {
				_, err := engine.Fit([]rating.HistoryGame{{
					GameID:   "bad-pos",
					PlayedAt: time.Now(),
					Placements: []rating.HistoryPlacement{
						{PlayerID: "a", Position: 1},
						{PlayerID: "b", Position: pos},
					},
				}})
				So(errors.Is(err, rating.ErrInvalidPosition), ShouldBeTrue)
			}
		})
	})

	Convey("Given a tighter sweep limit", t, func() {
		Convey("Then the iteration count is honored without affecting termination", func() {
			engine := rating.NewWholeHistory(rating.WithSweeps(5))
			traj, err := engine.Fit(dominatedHistory(8))
			So(err, ShouldBeNil)
			So(traj.Ratings["ace"], ShouldBeGreaterThan, traj.Ratings["tail"])
		})
	})
}
