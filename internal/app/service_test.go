package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"

	service "github.com/okian/huddle/internal/app"
	"github.com/okian/huddle/internal/domain/checkin"
	"github.com/okian/huddle/internal/domain/types"
	"github.com/okian/huddle/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

var squad = []checkin.Record{
	{ID: "1", Fields: checkin.Fields{Jersey: "4", Name: "Ava", Date: "2024-05-02", Physical: checkin.PhysicalConcern}},
	{ID: "2", Fields: checkin.Fields{Jersey: "8", Date: "2024-05-01", CoachActionNeeded: true}},
	{ID: "3", Fields: checkin.Fields{Jersey: "8", Date: "2024-04-30"}},
	{ID: "4", Fields: checkin.Fields{Jersey: "15", Date: "2024-05-02"}},
}

var morning = time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC)

func clock() time.Time { return morning }

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

// gate blocks fetches until opened; opening twice is safe.
type gate struct {
	ch   chan struct{}
	once sync.Once
}

func newGate() *gate { return &gate{ch: make(chan struct{})} }

func (g *gate) open() { g.once.Do(func() { close(g.ch) }) }

func (g *gate) list(records []checkin.Record, err error) func(context.Context) ([]checkin.Record, error) {
	return func(ctx context.Context) ([]checkin.Record, error) {
		select {
		case <-g.ch:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return records, err
	}
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a service without a source", t, func() {
		svc := service.New()

		Convey("Then Dashboard should report it is not started", func() {
			_, err := svc.Dashboard(context.Background())
			So(err, ShouldEqual, types.ErrNotStarted)
			So(svc.Refresh(context.Background()), ShouldBeFalse)
		})

		Convey("Then Start should fail", func() {
			So(svc.Start(context.Background()), ShouldEqual, service.ErrNoSource)
			So(svc.GetStats()["started"], ShouldEqual, false)
		})
	})

	Convey("Given a started service", t, func() {
		ctrl := gomock.NewController(t)
		src := NewMockSource(ctrl)
		src.EXPECT().List(gomock.Any()).Return(squad, nil).AnyTimes()

		svc := service.New(service.WithSource(src), service.WithClock(clock))
		So(svc.Start(context.Background()), ShouldBeNil)
		So(svc.Start(context.Background()), ShouldBeNil)

		Convey("When stopping the service", func() {
			svc.Stop()

			Convey("Then it should be marked as stopped", func() {
				So(svc.GetStats()["started"], ShouldEqual, false)
				_, err := svc.Dashboard(context.Background())
				So(err, ShouldEqual, types.ErrNotStarted)
			})

			Convey("And stopping again should be a no-op", func() {
				svc.Stop()
				So(svc.GetStats()["started"], ShouldEqual, false)
			})
		})
	})
}

func TestService_Dashboard(t *testing.T) {
	Convey("Given a service whose first fetch is pending", t, func() {
		ctrl := gomock.NewController(t)
		src := NewMockSource(ctrl)
		g := newGate()
		src.EXPECT().List(gomock.Any()).DoAndReturn(g.list(squad, nil)).AnyTimes()

		svc := service.New(service.WithSource(src), service.WithClock(clock))
		So(svc.Start(context.Background()), ShouldBeNil)
		defer svc.Stop()
		defer g.open()

		ctx := context.Background()

		Convey("Then Dashboard should report loading", func() {
			_, err := svc.Dashboard(ctx)
			So(err, ShouldEqual, types.ErrLoading)
			So(waitFor(func() bool { return svc.GetStats()["loading"] == true }), ShouldBeTrue)
		})

		Convey("When the fetch completes", func() {
			g.open()
			So(waitFor(func() bool { _, err := svc.Dashboard(ctx); return err == nil }), ShouldBeTrue)
			d, err := svc.Dashboard(ctx)

			Convey("Then all three views should be derived against the same date", func() {
				So(err, ShouldBeNil)
				So(d.Date, ShouldEqual, "2024-05-02")
				So(d.Policy, ShouldEqual, "distinct")
				So(d.Records, ShouldEqual, 4)
				So(d.SnapshotID, ShouldNotBeEmpty)
				So(d.FetchedAt.Equal(morning), ShouldBeTrue)
				So(d.Counts, ShouldResemble, types.Counts{Today: 2, Alerts: 2, Missing: 1})
				So(d.Missing[0].ID, ShouldEqual, "2")
				So(d.RefreshError, ShouldBeEmpty)
			})

			Convey("Then the snapshot age should be measured from the fetch", func() {
				age, ok := svc.SnapshotAge(ctx)
				So(ok, ShouldBeTrue)
				So(age, ShouldEqual, time.Duration(0))
			})

			Convey("Then stats should report the snapshot", func() {
				stats := svc.GetStats()
				So(stats["records"], ShouldEqual, 4)
				So(stats["attempts"], ShouldEqual, 1)
				So(stats["lastSuccess"], ShouldEqual, "2024-05-02T10:00:00Z")
			})
		})
	})

	Convey("Given a service with the literal policy in a zone ahead of UTC", t, func() {
		ctrl := gomock.NewController(t)
		src := NewMockSource(ctrl)
		src.EXPECT().List(gomock.Any()).Return(squad, nil).AnyTimes()

		svc := service.New(
			service.WithSource(src),
			service.WithClock(func() time.Time { return morning.Add(14 * time.Hour) }),
			service.WithLocation(time.FixedZone("UTC+10", 10*60*60)),
			service.WithMissingPolicy(checkin.PolicyLiteral),
		)
		So(svc.Start(context.Background()), ShouldBeNil)
		defer svc.Stop()

		Convey("Then today should roll over to the local date", func() {
			ctx := context.Background()
			So(waitFor(func() bool { _, err := svc.Dashboard(ctx); return err == nil }), ShouldBeTrue)
			d, _ := svc.Dashboard(ctx)
			So(d.Date, ShouldEqual, "2024-05-03")
			So(d.Policy, ShouldEqual, "literal")
			So(d.Counts.Today, ShouldEqual, 0)
			So(d.Counts.Missing, ShouldEqual, 4)
		})
	})
}

func TestService_FetchFailure(t *testing.T) {
	Convey("Given a source that fails the first fetch", t, func() {
		ctrl := gomock.NewController(t)
		src := NewMockSource(ctrl)
		boom := errors.New("unexpected status 500")
		ctx := context.Background()

		svc := service.New(service.WithSource(src), service.WithClock(clock))
		defer svc.Stop()

		Convey("When nothing has ever been fetched", func() {
			src.EXPECT().List(gomock.Any()).Return(nil, boom).AnyTimes()
			So(svc.Start(ctx), ShouldBeNil)

			Convey("Then Dashboard should report the failure", func() {
				var err error
				So(waitFor(func() bool {
					_, err = svc.Dashboard(ctx)
					return errors.Is(err, types.ErrFetchFailed)
				}), ShouldBeTrue)
				So(errors.Is(err, boom), ShouldBeTrue)
				So(svc.GetStats()["lastError"], ShouldEqual, boom.Error())
			})
		})

		Convey("When a later refresh fails after a success", func() {
			gomock.InOrder(
				src.EXPECT().List(gomock.Any()).Return(squad, nil),
				src.EXPECT().List(gomock.Any()).Return(nil, boom),
			)
			So(svc.Start(ctx), ShouldBeNil)
			So(waitFor(func() bool { _, err := svc.Dashboard(ctx); return err == nil }), ShouldBeTrue)

			So(svc.Refresh(ctx), ShouldBeTrue)
			So(waitFor(func() bool { return svc.GetStats()["failures"] == 1 }), ShouldBeTrue)

			Convey("Then the previous snapshot should still be served with the error attached", func() {
				d, err := svc.Dashboard(ctx)
				So(err, ShouldBeNil)
				So(d.Records, ShouldEqual, 4)
				So(d.RefreshError, ShouldEqual, boom.Error())
			})
		})
	})
}

func TestService_Refresh(t *testing.T) {
	Convey("Given a fetch in flight", t, func() {
		ctrl := gomock.NewController(t)
		src := NewMockSource(ctrl)
		g := newGate()
		src.EXPECT().List(gomock.Any()).DoAndReturn(g.list(squad, nil)).Times(2)

		svc := service.New(service.WithSource(src), service.WithClock(clock))
		So(svc.Start(context.Background()), ShouldBeNil)
		defer svc.Stop()
		defer g.open()

		ctx := context.Background()
		So(waitFor(func() bool { return svc.GetStats()["loading"] == true }), ShouldBeTrue)

		Convey("When several manual refreshes arrive", func() {
			first := svc.Refresh(ctx)
			second := svc.Refresh(ctx)

			Convey("Then they should coalesce into one pending fetch", func() {
				So(first, ShouldBeTrue)
				So(second, ShouldBeFalse)
				So(svc.GetStats()["queueLength"], ShouldEqual, 1)

				g.open()
				So(waitFor(func() bool {
					return svc.GetStats()["attempts"] == 2 && svc.GetStats()["loading"] == false
				}), ShouldBeTrue)
			})
		})
	})
}
