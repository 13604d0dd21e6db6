package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/talentboard/internal/adapters/repository"
	"github.com/okian/talentboard/internal/domain/filter"
	"github.com/okian/talentboard/internal/domain/model"
	"github.com/okian/talentboard/internal/domain/stats"
	. "github.com/smartystreets/goconvey/convey"
)

func TestOfficialsReviewScenario(t *testing.T) {
	Convey("Given a store seeded with two Pune users and three assessments", t, func() {
		ctx := context.Background()
		now := time.Now()
		users := []model.User{
			{ID: "U1", Name: "Maria Dsouza", Email: "maria@example.in", Location: "Pune, Maharashtra"},
			{ID: "U2", Name: "Vikram Rao", Email: "vikram@example.in", Location: "Pune, Maharashtra"},
		}
		assessments := []model.Assessment{
			{ID: "A1", UserID: "U1", Metric: model.Situps{Reps: 35}, Score: 72, Status: model.StatusPending, CreatedAt: now.Add(-72 * time.Hour)},
			{ID: "A2", UserID: "U2", Metric: model.VerticalJump{HeightCM: 44}, Score: 81, Status: model.StatusPending, CreatedAt: now.Add(-72 * time.Hour)},
			{ID: "A3", UserID: "U1", Metric: model.ShuttleRun{Seconds: 10.5}, Score: 90, Status: model.StatusVerified, CreatedAt: now},
		}
		store, err := repository.NewMemoryStore(ctx, repository.WithDemoData(users, assessments))
		So(err, ShouldBeNil)
		defer func() { _ = store.Close() }()

		seeded, err := store.SeedDemoData(ctx)
		So(err, ShouldBeNil)
		So(seeded, ShouldBeTrue)

		Convey("Then the dashboard counters match", func() {
			us, as := store.Snapshot(ctx)
			got := stats.Compute(us, as, now)
			So(got.RemoteAreas, ShouldEqual, 1)
			So(got.PendingReviews, ShouldEqual, 2)
			So(got.VerifiedToday, ShouldEqual, 1)
			So(got.TotalUsers, ShouldEqual, 2)
			So(got.TotalAssessments, ShouldEqual, 3)
		})

		Convey("Then searching for maria finds only her assessments", func() {
			us, as := store.Snapshot(ctx)
			got := filter.Apply(as, filter.Index(us), filter.Query{SearchTerm: "maria", Status: filter.All, Type: filter.All})
			So(len(got), ShouldEqual, 2)
			So(got[0].ID, ShouldEqual, "A1")
			So(got[1].ID, ShouldEqual, "A3")
		})

		Convey("When A1 is flagged and then verified", func() {
			_, flagErr := store.UpdateStatus(ctx, "A1", model.StatusFlagged)
			_, verifyErr := store.UpdateStatus(ctx, "A1", model.StatusVerified)

			Convey("Then the first call wins and the second is rejected", func() {
				So(flagErr, ShouldBeNil)
				So(errors.Is(verifyErr, repository.ErrInvalidTransition), ShouldBeTrue)

				a, err := store.Assessment(ctx, "A1")
				So(err, ShouldBeNil)
				So(a.Status, ShouldEqual, model.StatusFlagged)
			})
		})

		Convey("When seeding a second time", func() {
			again, err := store.SeedDemoData(ctx)

			Convey("Then nothing changes", func() {
				So(err, ShouldBeNil)
				So(again, ShouldBeFalse)
				So(len(store.Assessments(ctx)), ShouldEqual, 3)
			})
		})
	})
}
