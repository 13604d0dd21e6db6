package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/talentboard/internal/adapters/mq/queue"
	"github.com/okian/talentboard/internal/adapters/mq/worker"
	"github.com/okian/talentboard/internal/domain/model"
	logging "github.com/okian/talentboard/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
	"go.uber.org/goleak"
)

type mockPublisher struct {
	mu        sync.Mutex
	published []model.Change
	failFor   map[string]error
	slowFor   map[model.ChangeKind]time.Duration
}

func newMockPublisher() *mockPublisher {
	return &mockPublisher{failFor: make(map[string]error), slowFor: make(map[model.ChangeKind]time.Duration)}
}

func (p *mockPublisher) Publish(_ context.Context, c model.Change) error {
	p.mu.Lock()
	delay := p.slowFor[c.Kind]
	p.mu.Unlock()
	time.Sleep(delay)

	p.mu.Lock()
	defer p.mu.Unlock()
	if err, ok := p.failFor[c.Key()]; ok {
		return err
	}
	p.published = append(p.published, c)
	return nil
}

func (p *mockPublisher) keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.published))
	for i, c := range p.published {
		out[i] = c.Key()
	}
	return out
}

func (p *mockPublisher) kindsFor(key string) []model.ChangeKind {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []model.ChangeKind
	for _, c := range p.published {
		if c.Key() == key {
			out = append(out, c.Kind)
		}
	}
	return out
}

func statusChange(id string) model.Change {
	return model.Change{Kind: model.ChangeStatusUpdated, AssessmentID: id, Status: model.StatusFlagged}
}

func TestInMemoryWorker(t *testing.T) {
	defer goleak.VerifyNone(t)

	convey.Convey("Given a single worker over a queue", t, func() {
		_ = logging.Init()

		q := queue.NewInMemoryQueue(queue.WithCapacity(64))
		pub := newMockPublisher()
		w := worker.NewInMemoryWorker(q, pub, worker.WithName("test-worker"))
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		convey.Convey("When changes are queued and the queue is closed", func() {
			convey.So(q.Enqueue(ctx, statusChange("A1")), convey.ShouldBeTrue)
			convey.So(q.Enqueue(ctx, statusChange("A2")), convey.ShouldBeTrue)
			go w.Run(ctx)
			convey.So(q.Close(), convey.ShouldBeNil)

			shutdownCtx, done := context.WithTimeout(ctx, time.Second)
			defer done()
			err := w.Shutdown(shutdownCtx)

			convey.Convey("Then every change is published in order", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(pub.keys(), convey.ShouldResemble, []string{"A1", "A2"})
			})
		})

		convey.Convey("When the publisher fails for one change", func() {
			pub.failFor["A1"] = errors.New("broker down")
			convey.So(q.Enqueue(ctx, statusChange("A1")), convey.ShouldBeTrue)
			convey.So(q.Enqueue(ctx, statusChange("A2")), convey.ShouldBeTrue)
			go w.Run(ctx)
			convey.So(q.Close(), convey.ShouldBeNil)

			shutdownCtx, done := context.WithTimeout(ctx, time.Second)
			defer done()
			err := w.Shutdown(shutdownCtx)

			convey.Convey("Then the worker keeps going", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(pub.keys(), convey.ShouldResemble, []string{"A2"})
			})
		})

		convey.Convey("When shutdown is requested before the worker finishes", func() {
			go w.Run(ctx)
			shutdownCtx, done := context.WithTimeout(ctx, 10*time.Millisecond)
			defer done()
			err := w.Shutdown(shutdownCtx)

			convey.Convey("Then shutdown reports the timeout", func() {
				convey.So(err, convey.ShouldNotBeNil)
				cancel()
				convey.So(w.Shutdown(context.Background()), convey.ShouldBeNil)
			})
		})
	})
}

func TestPool(t *testing.T) {
	defer goleak.VerifyNone(t)

	convey.Convey("Given a pool of three workers", t, func() {
		_ = logging.Init()

		q := queue.NewInMemoryQueue(queue.WithCapacity(64))
		pub := newMockPublisher()
		pool := worker.NewPool(3, q, pub)
		convey.So(pool.Size(), convey.ShouldEqual, 3)

		ctx := context.Background()
		pool.Start(ctx)

		convey.Convey("When a burst of changes is queued and the pool shut down", func() {
			for i := 0; i < 50; i++ {
				convey.So(q.Enqueue(ctx, statusChange(fmt.Sprintf("A%d", i))), convey.ShouldBeTrue)
			}
			err := pool.Shutdown(ctx)

			convey.Convey("Then all changes are published once", func() {
				convey.So(err, convey.ShouldBeNil)
				keys := pub.keys()
				convey.So(len(keys), convey.ShouldEqual, 50)
				seen := make(map[string]bool, len(keys))
				for _, k := range keys {
					seen[k] = true
				}
				convey.So(len(seen), convey.ShouldEqual, 50)
			})
		})
	})

	convey.Convey("Given a pool whose publisher is slow for new assessments", t, func() {
		_ = logging.Init()

		q := queue.NewInMemoryQueue(queue.WithCapacity(64))
		pub := newMockPublisher()
		pub.slowFor[model.ChangeAssessmentAdded] = 50 * time.Millisecond
		pool := worker.NewPool(4, q, pub)
		ctx := context.Background()
		pool.Start(ctx)

		convey.Convey("When an assessment is added, another user added and the assessment reviewed", func() {
			convey.So(q.Enqueue(ctx, model.Change{Kind: model.ChangeAssessmentAdded, UserID: "U1", AssessmentID: "A1"}), convey.ShouldBeTrue)
			convey.So(q.Enqueue(ctx, model.Change{Kind: model.ChangeUserAdded, UserID: "U2"}), convey.ShouldBeTrue)
			convey.So(q.Enqueue(ctx, statusChange("A1")), convey.ShouldBeTrue)
			convey.So(pool.Shutdown(ctx), convey.ShouldBeNil)

			convey.Convey("Then the assessment's changes keep their queue order", func() {
				convey.So(pub.kindsFor("A1"), convey.ShouldResemble,
					[]model.ChangeKind{model.ChangeAssessmentAdded, model.ChangeStatusUpdated})
				convey.So(pub.kindsFor("U2"), convey.ShouldResemble, []model.ChangeKind{model.ChangeUserAdded})
			})
		})
	})

	convey.Convey("Given keys spread over shards", t, func() {
		convey.So(worker.ShardFor("A1", 1), convey.ShouldEqual, 0)
		for i := range 100 {
			key := fmt.Sprintf("A%d", i)
			n := worker.ShardFor(key, 4)
			convey.So(n, convey.ShouldBeBetweenOrEqual, 0, 3)
			convey.So(worker.ShardFor(key, 4), convey.ShouldEqual, n)
		}
	})

	convey.Convey("Given a pool built with a custom worker logger", t, func() {
		_ = logging.Init()
		q := queue.NewInMemoryQueue()
		pool := worker.NewPool(2, q, newMockPublisher(), worker.WithLogger(logging.Named("changes")))
		pool.Start(context.Background())
		convey.So(pool.Shutdown(context.Background()), convey.ShouldBeNil)
	})

	convey.Convey("Given a non-positive worker count", t, func() {
		_ = logging.Init()
		pool := worker.NewPool(0, queue.NewInMemoryQueue(), newMockPublisher())
		convey.So(pool.Size(), convey.ShouldEqual, 1)
	})
}
