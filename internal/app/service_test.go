package service_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/okian/talentboard/internal/adapters/repository"
	service "github.com/okian/talentboard/internal/app"
	"github.com/okian/talentboard/internal/domain/filter"
	"github.com/okian/talentboard/internal/domain/model"
	"github.com/okian/talentboard/internal/domain/scoring"
	"github.com/okian/talentboard/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

var errPublisherClosed = errors.New("publisher closed")

type recordingPublisher struct {
	mu      sync.Mutex
	changes []model.Change
	closed  bool
	slowFor map[model.ChangeKind]time.Duration
}

func (p *recordingPublisher) Publish(_ context.Context, c model.Change) error {
	p.mu.Lock()
	delay := p.slowFor[c.Kind]
	p.mu.Unlock()
	time.Sleep(delay)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return errPublisherClosed
	}
	p.changes = append(p.changes, c)
	return nil
}

func (p *recordingPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *recordingPublisher) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *recordingPublisher) kindsFor(key string) []model.ChangeKind {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []model.ChangeKind
	for _, c := range p.changes {
		if c.Key() == key {
			out = append(out, c.Kind)
		}
	}
	return out
}

func (p *recordingPublisher) kinds() []model.ChangeKind {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]model.ChangeKind, len(p.changes))
	for i, c := range p.changes {
		out[i] = c.Kind
	}
	return out
}

type stubPredictor struct {
	res scoring.Result
	err error
}

func (p stubPredictor) Score(context.Context, scoring.Input) (scoring.Result, error) {
	return p.res, p.err
}

func sequentialIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return "id-" + string(rune('a'+n-1))
	}
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a new service", t, func() {
		pub := &recordingPublisher{}
		svc := service.New(service.WithPublisher(pub), service.WithWorkerCount(2), service.WithQueueSize(16))
		ctx := context.Background()

		Convey("When it is used before Start", func() {
			_, err := svc.User(ctx, "U1")

			Convey("Then calls fail with ErrNotStarted", func() {
				So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
				So(svc.Users(ctx), ShouldBeNil)
				So(svc.GetStats()["started"], ShouldEqual, false)
				So(svc.Stop(ctx), ShouldBeNil)
			})
		})

		Convey("When starting the service", func() {
			err := svc.Start(ctx)
			defer func() { _ = svc.Stop(ctx) }()

			Convey("Then it should start successfully", func() {
				So(err, ShouldBeNil)
				So(svc.GetStats()["started"], ShouldEqual, true)
				So(svc.GetStats()["queueLength"], ShouldEqual, 0)
			})

			Convey("Then a second start is rejected", func() {
				So(errors.Is(svc.Start(ctx), service.ErrAlreadyStarted), ShouldBeTrue)
			})
		})

		Convey("When stopping a started service", func() {
			So(svc.Start(ctx), ShouldBeNil)
			_, err := svc.AddUser(ctx, model.User{ID: "U1", Name: "Maria Dsouza"})
			So(err, ShouldBeNil)
			So(svc.Stop(ctx), ShouldBeNil)

			Convey("Then pending changes were published and the caller's publisher left open", func() {
				So(pub.kinds(), ShouldResemble, []model.ChangeKind{model.ChangeUserAdded})
				So(pub.isClosed(), ShouldBeFalse)
				So(svc.GetStats()["started"], ShouldEqual, false)
			})
		})

		Convey("When the service is started again after a stop", func() {
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Stop(ctx), ShouldBeNil)
			So(svc.Start(ctx), ShouldBeNil)
			_, err := svc.AddUser(ctx, model.User{ID: "U2", Name: "Vikram Rao"})
			So(err, ShouldBeNil)
			So(svc.Stop(ctx), ShouldBeNil)

			Convey("Then changes of the second run reach the same publisher", func() {
				So(pub.kinds(), ShouldResemble, []model.ChangeKind{model.ChangeUserAdded})
				So(pub.isClosed(), ShouldBeFalse)
			})
		})
	})
}

func TestService_Review(t *testing.T) {
	Convey("Given a started service seeded with demo data", t, func() {
		ctx := context.Background()
		pub := &recordingPublisher{}
		svc := service.New(service.WithPublisher(pub), service.WithSeedDemo(true))
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()

		Convey("Then the dashboard counters reflect the fixture", func() {
			st := svc.Stats(ctx, time.UTC)
			So(st.TotalUsers, ShouldEqual, len(svc.Users(ctx)))
			So(st.TotalAssessments, ShouldBeGreaterThan, 0)
			So(st.PendingReviews, ShouldBeGreaterThan, 0)
			So(st.RemoteAreas, ShouldBeGreaterThan, 0)
		})

		Convey("When a pending assessment is verified", func() {
			pending := svc.FilteredAssessments(ctx, filter.Query{Status: string(model.StatusPending)}, nil)
			So(len(pending), ShouldBeGreaterThan, 0)
			before := svc.Stats(ctx, time.Local)

			a, err := svc.UpdateAssessmentStatus(ctx, pending[0].ID, model.StatusVerified)

			Convey("Then the counters move and a second decision is rejected", func() {
				So(err, ShouldBeNil)
				So(a.Status, ShouldEqual, model.StatusVerified)
				after := svc.Stats(ctx, time.Local)
				So(after.PendingReviews, ShouldEqual, before.PendingReviews-1)

				_, err = svc.UpdateAssessmentStatus(ctx, pending[0].ID, model.StatusFlagged)
				So(errors.Is(err, repository.ErrInvalidTransition), ShouldBeTrue)
			})
		})

		Convey("When seeding again", func() {
			seeded, err := svc.SeedDemoData(ctx)

			Convey("Then nothing is added", func() {
				So(err, ShouldBeNil)
				So(seeded, ShouldBeFalse)
			})
		})

		Convey("When sorting by score", func() {
			out := svc.FilteredAssessments(ctx, filter.Everything, filter.ByScore)

			Convey("Then scores are descending", func() {
				for i := 1; i < len(out); i++ {
					So(out[i-1].Score, ShouldBeGreaterThanOrEqualTo, out[i].Score)
				}
			})
		})

		Convey("Then regions and top performers are available", func() {
			So(len(svc.Regions(ctx, 3)), ShouldBeLessThanOrEqualTo, 3)
			top := svc.TopPerformers(ctx, 2)
			So(len(top), ShouldEqual, 2)
			So(top[0].AverageScore, ShouldBeGreaterThanOrEqualTo, top[1].AverageScore)
		})
	})
}

func TestService_SubmitAssessment(t *testing.T) {
	Convey("Given a started service with one athlete", t, func() {
		ctx := context.Background()
		now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
		opts := []service.Option{
			service.WithPublisher(&recordingPublisher{}),
			service.WithClock(func() time.Time { return now }),
			service.WithIDGenerator(sequentialIDs()),
		}

		start := func(extra ...service.Option) *service.Service {
			svc := service.New(append(opts, extra...)...)
			So(svc.Start(ctx), ShouldBeNil)
			_, err := svc.AddUser(ctx, model.User{ID: "U1", Name: "Maria Dsouza", Location: "Pune, Maharashtra"})
			So(err, ShouldBeNil)
			return svc
		}
		sub := model.Submission{UserID: "U1", Metric: model.Situps{Reps: 35}, Score: 72, Accuracy: 80}

		Convey("When the prediction service answers", func() {
			svc := start(service.WithPredictor(stubPredictor{res: scoring.Result{Accuracy: 95, Feedback: "Great depth.", Tier: scoring.TierSteady}}))
			defer func() { _ = svc.Stop(ctx) }()

			a, res, err := svc.SubmitAssessment(ctx, sub)

			Convey("Then its accuracy is stored and the record is pending", func() {
				So(err, ShouldBeNil)
				So(a.ID, ShouldEqual, "id-a")
				So(a.Accuracy, ShouldEqual, 95)
				So(a.Status, ShouldEqual, model.StatusPending)
				So(a.Location, ShouldEqual, "Pune, Maharashtra")
				So(a.CreatedAt, ShouldEqual, now)
				So(res.Feedback, ShouldEqual, "Great depth.")

				u, err := svc.User(ctx, "U1")
				So(err, ShouldBeNil)
				So(u.TotalAssessments, ShouldEqual, 1)
				So(u.AverageScore, ShouldEqual, 72)
			})
		})

		Convey("When the prediction service fails", func() {
			svc := start(service.WithPredictor(stubPredictor{err: errors.New("connection refused")}))
			defer func() { _ = svc.Stop(ctx) }()

			a, res, err := svc.SubmitAssessment(ctx, sub)

			Convey("Then the local result is used", func() {
				So(err, ShouldBeNil)
				So(a.Accuracy, ShouldEqual, 80)
				So(res.Feedback, ShouldEqual, scoring.Feedback(model.SitupsType, scoring.TierSteady))
			})
		})

		Convey("When the athlete is unknown", func() {
			svc := start()
			defer func() { _ = svc.Stop(ctx) }()

			_, _, err := svc.SubmitAssessment(ctx, model.Submission{UserID: "nobody", Metric: model.Situps{Reps: 1}})

			Convey("Then it is rejected", func() {
				So(errors.Is(err, repository.ErrUnknownUser), ShouldBeTrue)
			})
		})

		Convey("When the same upload is submitted twice under one key", func() {
			svc := start()
			defer func() { _ = svc.Stop(ctx) }()

			keyed := sub
			keyed.Key = "upload-7"
			first, _, err1 := svc.SubmitAssessment(ctx, keyed)
			second, res, err2 := svc.SubmitAssessment(ctx, keyed)

			Convey("Then the retry returns the stored assessment", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(second.ID, ShouldEqual, first.ID)
				So(res.Tier, ShouldEqual, scoring.TierSteady)
				So(len(svc.FilteredAssessments(ctx, filter.Query{}, nil)), ShouldEqual, 1)
			})
		})

		Convey("When a keyed submission fails", func() {
			svc := start()
			defer func() { _ = svc.Stop(ctx) }()

			bad := model.Submission{Key: "upload-8", UserID: "U1", Metric: model.Situps{Reps: 1}, Score: 140}
			_, _, err := svc.SubmitAssessment(ctx, bad)
			So(err, ShouldNotBeNil)

			bad.Score = 70
			a, _, err := svc.SubmitAssessment(ctx, bad)

			Convey("Then the key can be reused", func() {
				So(err, ShouldBeNil)
				So(a.Score, ShouldEqual, 70)
			})
		})

		Convey("When a keyed submission is retried after a restart", func() {
			svc := start()
			keyed := sub
			keyed.Key = "k1"
			_, _, err := svc.SubmitAssessment(ctx, keyed)
			So(err, ShouldBeNil)
			So(svc.Stop(ctx), ShouldBeNil)

			So(svc.Start(ctx), ShouldBeNil)
			defer func() { _ = svc.Stop(ctx) }()
			_, err = svc.AddUser(ctx, model.User{ID: "U1", Name: "Maria Dsouza", Location: "Pune, Maharashtra"})
			So(err, ShouldBeNil)
			a, _, err := svc.SubmitAssessment(ctx, keyed)

			Convey("Then the fresh store accepts it as a new assessment", func() {
				So(err, ShouldBeNil)
				So(a.Status, ShouldEqual, model.StatusPending)
				So(len(svc.FilteredAssessments(ctx, filter.Query{}, nil)), ShouldEqual, 1)
			})
		})

		Convey("When the score is out of range", func() {
			svc := start()
			defer func() { _ = svc.Stop(ctx) }()

			_, _, err := svc.SubmitAssessment(ctx, model.Submission{UserID: "U1", Metric: model.Situps{Reps: 1}, Score: 140})

			Convey("Then it is rejected as invalid", func() {
				So(errors.Is(err, model.ErrInvalidRecord), ShouldBeTrue)
			})
		})
	})
}

func TestService_Persistence(t *testing.T) {
	Convey("Given a service backed by a database file", t, func() {
		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "talent.db")
		svc := service.New(service.WithDBPath(path), service.WithPublisher(&recordingPublisher{}))
		So(svc.Start(ctx), ShouldBeNil)
		_, err := svc.AddUser(ctx, model.User{ID: "U1", Name: "Vikram Rao", Location: "Nashik, Maharashtra"})
		So(err, ShouldBeNil)
		So(svc.Stop(ctx), ShouldBeNil)

		Convey("When a new service opens the same file", func() {
			again := service.New(service.WithDBPath(path), service.WithPublisher(&recordingPublisher{}), service.WithSeedDemo(true))
			So(again.Start(ctx), ShouldBeNil)
			defer func() { _ = again.Stop(ctx) }()

			Convey("Then the athlete is still there and demo data is not seeded", func() {
				users := again.Users(ctx)
				So(len(users), ShouldEqual, 1)
				So(users[0].Name, ShouldEqual, "Vikram Rao")
				So(again.GetStats()["persistent"], ShouldEqual, true)
			})
		})
	})
}

func TestService_ChangeOrder(t *testing.T) {
	Convey("Given a service whose publisher is slow for new assessments", t, func() {
		ctx := context.Background()
		pub := &recordingPublisher{slowFor: map[model.ChangeKind]time.Duration{model.ChangeAssessmentAdded: 50 * time.Millisecond}}
		svc := service.New(
			service.WithPublisher(pub),
			service.WithWorkerCount(4),
			service.WithIDGenerator(sequentialIDs()),
		)
		So(svc.Start(ctx), ShouldBeNil)

		Convey("When an assessment is submitted and reviewed right away", func() {
			_, err := svc.AddUser(ctx, model.User{ID: "U1", Name: "Maria Dsouza"})
			So(err, ShouldBeNil)
			a, _, err := svc.SubmitAssessment(ctx, model.Submission{UserID: "U1", Metric: model.Situps{Reps: 35}, Score: 72, Accuracy: 80})
			So(err, ShouldBeNil)
			_, err = svc.UpdateAssessmentStatus(ctx, a.ID, model.StatusVerified)
			So(err, ShouldBeNil)
			So(svc.Stop(ctx), ShouldBeNil)

			Convey("Then its changes are published in the order they happened", func() {
				So(pub.kindsFor(a.ID), ShouldResemble,
					[]model.ChangeKind{model.ChangeAssessmentAdded, model.ChangeStatusUpdated})
			})
		})
	})
}
