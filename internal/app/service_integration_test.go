package service_test

import (
	"context"
	"testing"
	"time"

	service "github.com/amaydixit11/UnoLeaderboard/internal/app"
	"github.com/amaydixit11/UnoLeaderboard/internal/domain/model"
	"github.com/amaydixit11/UnoLeaderboard/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

// waitForGames polls stats until the service reports at least n processed
// games or the deadline passes.
func waitForGames(svc *service.Service, n int) bool {
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		stats := svc.GetStats()
		if total, ok := stats["totalGames"].(int); ok && total >= n {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

func submission(gameID string, playedAt time.Time, order ...string) model.Submission {
	elims := make([]model.Elimination, len(order))
	for i, id := range order {
		elims[i] = model.Elimination{PlayerID: id, Index: i + 1}
	}
	return model.Submission{GameID: gameID, PlayedAt: playedAt, Eliminations: elims}
}

func TestService_ProcessesSubmissions(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := service.New(service.WithWHRTuning(20, 0.1, 0.5, 1e-6))
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When submitting one finished game", func() {
			base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
			sub := submission("game-1", base, "alice", "bob", "carol")
			So(svc.SeenAndRecord(ctx, sub.GameID), ShouldBeFalse)
			So(svc.Enqueue(ctx, sub), ShouldBeTrue)
			So(waitForGames(svc, 1), ShouldBeTrue)

			Convey("Then the winner should lead every in-house leaderboard", func() {
				for _, m := range []types.ModelID{types.ModelElo, types.ModelCF, types.ModelWHR} {
					entries, err := svc.TopN(ctx, m, 3)
					So(err, ShouldBeNil)
					So(len(entries), ShouldEqual, 3)
					So(entries[0].PlayerID, ShouldEqual, "alice")
				}
			})

			Convey("And every participant should be queryable", func() {
				p, err := svc.Player(ctx, "alice")
				So(err, ShouldBeNil)
				So(p.Elo.GamesPlayed, ShouldEqual, 1)
				So(p.Elo.Rating, ShouldBeGreaterThan, 1000)

				loser, err := svc.Player(ctx, "carol")
				So(err, ShouldBeNil)
				So(loser.Elo.Rating, ShouldBeLessThan, 1000)
			})
		})

		Convey("When submitting a run of games with a fixed winner", func() {
			base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
			ids := []string{"run-1", "run-2", "run-3", "run-4"}
			for i, id := range ids {
				sub := submission(id, base.AddDate(0, 0, i), "frank", "erin", "dave")
				So(svc.SeenAndRecord(ctx, id), ShouldBeFalse)
				So(svc.Enqueue(ctx, sub), ShouldBeTrue)
			}
			So(waitForGames(svc, len(ids)), ShouldBeTrue)

			Convey("Then the ordering should hold under every model", func() {
				for _, m := range []types.ModelID{types.ModelElo, types.ModelCF, types.ModelWHR} {
					entries, err := svc.TopN(ctx, m, 3)
					So(err, ShouldBeNil)
					So(len(entries), ShouldEqual, 3)
					So(entries[0].PlayerID, ShouldEqual, "frank")
					So(entries[2].PlayerID, ShouldEqual, "dave")
				}
			})

			Convey("And games played should track the run length", func() {
				p, err := svc.Player(ctx, "frank")
				So(err, ShouldBeNil)
				So(p.Elo.GamesPlayed, ShouldEqual, len(ids))
				So(p.WHR.GamesPlayed, ShouldEqual, len(ids))
			})
		})

		Convey("When a player rejoins and is eliminated repeatedly", func() {
			base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
			sub := model.Submission{
				GameID:   "rejoin-1",
				PlayedAt: base,
				Eliminations: []model.Elimination{
					{PlayerID: "gus", Index: 1},
					{PlayerID: "gus", Index: 3},
					{PlayerID: "hana", Index: 2},
					{PlayerID: "ivy", Index: 4},
				},
			}
			So(svc.SeenAndRecord(ctx, sub.GameID), ShouldBeFalse)
			So(svc.Enqueue(ctx, sub), ShouldBeTrue)
			So(waitForGames(svc, 1), ShouldBeTrue)

			Convey("Then each player should count a single game", func() {
				p, err := svc.Player(ctx, "gus")
				So(err, ShouldBeNil)
				So(p.Elo.GamesPlayed, ShouldEqual, 1)
			})

			Convey("And the averaged positions should tie gus with hana", func() {
				// gus averages (1+3)/2 = 2, hana sits at 2, ivy at 4
				entries, err := svc.TopN(ctx, types.ModelElo, 3)
				So(err, ShouldBeNil)
				So(entries[2].PlayerID, ShouldEqual, "ivy")

				gus, err := svc.Player(ctx, "gus")
				So(err, ShouldBeNil)
				hana, err := svc.Player(ctx, "hana")
				So(err, ShouldBeNil)
				So(gus.Elo.Rating, ShouldEqual, hana.Elo.Rating)
			})
		})
	})
}
