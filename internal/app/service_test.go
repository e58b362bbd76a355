package service_test

import (
	"context"
	"testing"
	"time"

	service "github.com/amaydixit11/UnoLeaderboard/internal/app"
	"github.com/amaydixit11/UnoLeaderboard/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it should have sensible defaults", func() {
			So(svc, ShouldNotBeNil)
			So(svc.MaxLeaderboardLimit(), ShouldEqual, 100)
		})
	})

	Convey("Given a new service with custom options", t, func() {
		svc := service.New(
			service.WithQueueSize(5_000),
			service.WithDedupeSize(25_000),
			service.WithMaxLeaderboardLimit(50),
			service.WithKCurve(16, 16, 20),
			service.WithWHRTuning(20, 0.2, 0.5, 1e-6),
		)

		Convey("Then it should be created successfully", func() {
			So(svc, ShouldNotBeNil)
			So(svc.MaxLeaderboardLimit(), ShouldEqual, 50)
		})
	})
}

func TestService_StartStop(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New()
		defer svc.Stop()

		Convey("When starting the service", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			err := svc.Start(ctx)

			Convey("Then it should start successfully", func() {
				So(err, ShouldBeNil)
			})

			Convey("And it should be marked as started", func() {
				stats := svc.GetStats()
				So(stats["started"], ShouldBeTrue)
			})

			Convey("And starting again should be a no-op", func() {
				So(svc.Start(ctx), ShouldBeNil)
			})
		})

		Convey("When stopping without starting", func() {
			fresh := service.New()

			Convey("Then it should not panic", func() {
				So(fresh.Stop, ShouldNotPanic)
			})
		})
	})
}

func TestService_Dedupe(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := service.New()
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When recording a game id twice", func() {
			first := svc.SeenAndRecord(ctx, "game-1")
			second := svc.SeenAndRecord(ctx, "game-1")

			Convey("Then only the second should be a duplicate", func() {
				So(first, ShouldBeFalse)
				So(second, ShouldBeTrue)
				So(svc.Size(), ShouldEqual, 1)
			})
		})

		Convey("When unrecording a seen id", func() {
			svc.SeenAndRecord(ctx, "game-2")
			svc.Unrecord(ctx, "game-2")

			Convey("Then it can be recorded again", func() {
				So(svc.SeenAndRecord(ctx, "game-2"), ShouldBeFalse)
			})
		})
	})
}
