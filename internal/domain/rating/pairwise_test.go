package rating_test

import (
	"errors"
	"math"
	"testing"

	rating "github.com/amaydixit11/UnoLeaderboard/internal/domain/rating"
	. "github.com/smartystreets/goconvey/convey"
)

func TestPairwiseModel(t *testing.T) {
	Convey("Given four players finishing in rating order with K fixed at 16", t, func() {
		model := rating.NewPairwiseModel(rating.WithPairwiseKCurve(16, 16, 20))
		standings := []rating.Standing{
			{PlayerID: "p1", Rating: 1200, Position: 1},
			{PlayerID: "p2", Rating: 1100, Position: 2},
			{PlayerID: "p3", Rating: 1000, Position: 3},
			{PlayerID: "p4", Rating: 900, Position: 4},
		}

		Convey("When applying the game", func() {
			deltas, err := model.ApplyGame(standings)
			So(err, ShouldBeNil)

			Convey("Then the rounded deltas match the worked example", func() {
				So(deltas["p1"], ShouldEqual, 12)
				So(deltas["p2"], ShouldEqual, 4)
				So(deltas["p3"], ShouldEqual, -4)
				So(deltas["p4"], ShouldEqual, -12)
			})
		})
	})

	Convey("Given any game where every player shares a K-factor", t, func() {
		model := rating.NewPairwiseModel()
		standings := []rating.Standing{
			{PlayerID: "a", Rating: 1340, GamesPlayed: 7, Position: 2},
			{PlayerID: "b", Rating: 980, GamesPlayed: 7, Position: 1},
			{PlayerID: "c", Rating: 1105, GamesPlayed: 7, Position: 4},
			{PlayerID: "d", Rating: 1021, GamesPlayed: 7, Position: 3},
			{PlayerID: "e", Rating: 1221, GamesPlayed: 7, Position: 5},
		}

		Convey("Then the unrounded deltas cancel exactly", func() {
			deltas, err := model.Deltas(standings)
			So(err, ShouldBeNil)
			sum := 0.0
			for _, d := range deltas {
				sum += d
			}
			So(sum, ShouldAlmostEqual, 0, 1e-9)
		})
	})

	Convey("Given a field of mismatched ratings", t, func() {
		model := rating.NewPairwiseModel(rating.WithPairwiseKCurve(16, 16, 20))
		favoriteWins := []rating.Standing{
			{PlayerID: "p1", Rating: 1200, Position: 1},
			{PlayerID: "p2", Rating: 1100, Position: 2},
			{PlayerID: "p3", Rating: 1000, Position: 3},
			{PlayerID: "p4", Rating: 900, Position: 4},
		}
		underdogWins := []rating.Standing{
			{PlayerID: "p1", Rating: 1200, Position: 4},
			{PlayerID: "p2", Rating: 1100, Position: 3},
			{PlayerID: "p3", Rating: 1000, Position: 2},
			{PlayerID: "p4", Rating: 900, Position: 1},
		}

		Convey("Then an underdog victory swings harder than a favorite victory", func() {
			expected, err := model.Deltas(favoriteWins)
			So(err, ShouldBeNil)
			upset, err := model.Deltas(underdogWins)
			So(err, ShouldBeNil)
			So(math.Abs(upset["p4"]), ShouldBeGreaterThan, math.Abs(expected["p1"]))
		})
	})

	Convey("Given two players tied on normalized position", t, func() {
		model := rating.NewPairwiseModel()

		Convey("When they are alone in the game with equal ratings", func() {
			deltas, err := model.Deltas([]rating.Standing{
				{PlayerID: "a", Rating: 1000, Position: 2.5},
				{PlayerID: "b", Rating: 1000, Position: 2.5},
			})
			So(err, ShouldBeNil)

			Convey("Then neither gains nor loses", func() {
				So(deltas["a"], ShouldAlmostEqual, 0, 1e-9)
				So(deltas["b"], ShouldAlmostEqual, 0, 1e-9)
			})
		})

		Convey("When a third player is present", func() {
			withTie, err := model.Deltas([]rating.Standing{
				{PlayerID: "a", Rating: 1000, Position: 2},
				{PlayerID: "b", Rating: 1000, Position: 2},
				{PlayerID: "c", Rating: 1000, Position: 1},
			})
			So(err, ShouldBeNil)

			Convey("Then the tied pair exchanges nothing while other pairs still settle", func() {
				// a and b each lose only to c, identically.
				So(withTie["a"], ShouldAlmostEqual, withTie["b"], 1e-9)
				So(withTie["c"], ShouldBeGreaterThan, 0)
			})
		})
	})

	Convey("Given invalid standings", t, func() {
		model := rating.NewPairwiseModel()

		Convey("When the game is empty", func() {
			_, err := model.ApplyGame(nil)
			So(errors.Is(err, rating.ErrNoParticipants), ShouldBeTrue)
		})

		Convey("When a player appears twice", func() {
			_, err := model.ApplyGame([]rating.Standing{
				{PlayerID: "a", Rating: 1000, Position: 1},
				{PlayerID: "a", Rating: 1000, Position: 2},
			})
			So(errors.Is(err, rating.ErrDuplicatePlayer), ShouldBeTrue)
		})

		Convey("When a rating is not a finite number", func() {
			_, err := model.ApplyGame([]rating.Standing{
				{PlayerID: "a", Rating: math.NaN(), Position: 1},
				{PlayerID: "b", Rating: 1000, Position: 2},
			})
			So(errors.Is(err, rating.ErrRatingRange), ShouldBeTrue)
		})
	})
}

func TestKFactorCurve(t *testing.T) {
	Convey("Given the default K-factor curve", t, func() {
		Convey("Then a new player gets maximum sensitivity", func() {
			So(rating.KFactor(0), ShouldAlmostEqual, 32, 1e-9)
		})

		Convey("Then twenty games in the factor has decayed to about 22", func() {
			So(rating.KFactor(20), ShouldAlmostEqual, 22, 0.2)
		})

		Convey("Then the curve is strictly decreasing", func() {
			for n := 0; n < 200; n++ {
				So(rating.KFactor(n+1), ShouldBeLessThan, rating.KFactor(n))
			}
		})

		Convey("Then it approaches the floor of 16 without crossing it", func() {
			So(rating.KFactor(10000), ShouldAlmostEqual, 16, 1e-6)
			// exp(-n/20) underflows to zero for huge n, so the strict
			// bound is only checkable where the tail is representable
			So(rating.KFactor(200), ShouldBeGreaterThan, 16)
		})
	})
}
