// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/talentboard/internal/adapters/mq/publish"
	changequeue "github.com/okian/talentboard/internal/adapters/mq/queue"
	workerpool "github.com/okian/talentboard/internal/adapters/mq/worker"
	"github.com/okian/talentboard/internal/adapters/persist"
	"github.com/okian/talentboard/internal/adapters/repository"
	"github.com/okian/talentboard/internal/domain/dedupe"
	"github.com/okian/talentboard/internal/domain/filter"
	"github.com/okian/talentboard/internal/domain/model"
	"github.com/okian/talentboard/internal/domain/scoring"
	"github.com/okian/talentboard/internal/domain/stats"
	"github.com/okian/talentboard/pkg/logger"
	"github.com/okian/talentboard/pkg/metrics"
)

// Default service configuration constants.
const (
	defaultWorkerCount = 2
	defaultQueueSize   = 1024
	defaultDedupeSize  = 10_000
)

// Service implements the API dependencies for the officials' dashboard.
type Service struct {
	mu sync.RWMutex

	// Core components
	store     *repository.MemoryStore
	queue     *changequeue.InMemoryQueue
	pool      *workerpool.Pool
	publisher publish.Publisher
	predictor scoring.Scorer
	local     scoring.Scorer
	deduper   dedupe.Deduper

	// Configuration
	workerCount  int
	queueSize    int
	dedupeSize   int
	dbPath       string
	seedDemo     bool
	kafkaBrokers []string
	kafkaTopic   string
	now          func() time.Time
	newID        func() string

	// State
	started       bool
	ownsPublisher bool
	unsubscribe   func()
	stopPool      context.CancelFunc

	// Logging
	logger logger.Logger
}

// New creates a new service with configuration options.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: defaultWorkerCount,
		queueSize:   defaultQueueSize,
		dedupeSize:  defaultDedupeSize,
		local:       scoring.NewInMemoryScorer(),
		now:         time.Now,
		newID:       func() string { return uuid.NewString() },
		logger:      logger.Get().Named("service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens the store and starts publishing its changes.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return ErrAlreadyStarted
	}

	storeOpts := []repository.Option{repository.WithClock(s.now)}
	var db *persist.SQLite
	if s.dbPath != "" {
		var err error
		db, err = persist.Open(ctx, s.dbPath)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		storeOpts = append(storeOpts, repository.WithPersister(db))
		s.logger.Info(ctx, "using sqlite persistence", logger.String("path", s.dbPath))
	}
	store, err := repository.NewMemoryStore(ctx, storeOpts...)
	if err != nil {
		if db != nil {
			_ = db.Close()
		}
		return fmt.Errorf("open store: %w", err)
	}
	s.store = store

	if s.publisher == nil {
		s.ownsPublisher = true
		if len(s.kafkaBrokers) > 0 {
			s.publisher = publish.NewKafkaPublisher(s.kafkaBrokers, s.kafkaTopic)
			s.logger.Info(ctx, "publishing changes to kafka",
				logger.Any("brokers", s.kafkaBrokers),
				logger.String("topic", s.kafkaTopic),
			)
		} else {
			s.publisher = publish.NewLogPublisher(s.logger.Named("changes"))
		}
	}

	// Submission keys refer to records of this store, so they start empty with it.
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))

	s.queue = changequeue.NewInMemoryQueue(changequeue.WithCapacity(s.queueSize))
	s.pool = workerpool.NewPool(s.workerCount, s.queue, s.publisher, workerpool.WithLogger(s.logger.Named("worker")))
	// Workers outlive the caller's context so Stop can drain the queue.
	poolCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.stopPool = cancel
	s.pool.Start(poolCtx)
	s.unsubscribe = s.store.Subscribe(s.queue.Listener())

	if s.seedDemo {
		seeded, err := s.store.SeedDemoData(ctx)
		if err != nil {
			_ = s.shutdownLocked(ctx)
			return fmt.Errorf("seed demo data: %w", err)
		}
		if seeded {
			users, assessments := s.store.Snapshot(ctx)
			s.logger.Info(ctx, "seeded demo data",
				logger.Int("users", len(users)),
				logger.Int("assessments", len(assessments)),
			)
		}
	}

	s.started = true
	s.logger.Info(ctx, "service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queue_size", s.queueSize),
	)
	return nil
}

// Stop drains pending changes and closes the store. Calling it on a
// stopped service is a no-op.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping service...")
	err := s.shutdownLocked(ctx)
	s.started = false
	return err
}

func (s *Service) shutdownLocked(ctx context.Context) error {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	var firstErr error
	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "publisher workers did not drain", logger.Error(err))
		firstErr = err
	}
	s.stopPool()
	// An injected publisher belongs to the caller and is reused by the next Start.
	if s.ownsPublisher {
		if err := s.publisher.Close(); err != nil {
			s.logger.Error(ctx, "error closing publisher", logger.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
		s.publisher, s.ownsPublisher = nil, false
	}
	if err := s.store.Close(); err != nil {
		s.logger.Error(ctx, "error closing store", logger.Error(err))
		if firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// running returns the store once started.
func (s *Service) running() (*repository.MemoryStore, error) {
	st, _, err := s.runningWithKeys()
	return st, err
}

// runningWithKeys also returns the submission keys of the current run.
func (s *Service) runningWithKeys() (*repository.MemoryStore, dedupe.Deduper, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, nil, ErrNotStarted
	}
	return s.store, s.deduper, nil
}

// Store exposes the underlying record store, nil before Start.
func (s *Service) Store() repository.Store {
	st, err := s.running()
	if err != nil {
		return nil
	}
	return st
}

// Stats computes the dashboard counters for the calendar day of now in loc.
func (s *Service) Stats(ctx context.Context, loc *time.Location) stats.Stats {
	st, err := s.running()
	if err != nil {
		return stats.Stats{}
	}
	if loc == nil {
		loc = time.Local
	}
	users, assessments := st.Snapshot(ctx)
	return stats.Compute(users, assessments, s.now().In(loc))
}

// Users returns all users in insertion order.
func (s *Service) Users(ctx context.Context) []model.User {
	st, err := s.running()
	if err != nil {
		return nil
	}
	return st.Users(ctx)
}

// User returns one user.
func (s *Service) User(ctx context.Context, id string) (model.User, error) {
	st, err := s.running()
	if err != nil {
		return model.User{}, err
	}
	return st.User(ctx, id)
}

// AddUser registers an athlete, minting an id when none is given.
func (s *Service) AddUser(ctx context.Context, u model.User) (model.User, error) {
	st, err := s.running()
	if err != nil {
		return model.User{}, err
	}
	if u.ID == "" {
		u.ID = s.newID()
	}
	created, err := st.AddUser(ctx, u)
	if err != nil {
		return model.User{}, err
	}
	s.logger.Debug(ctx, "user added", logger.String("user_id", created.ID))
	return created, nil
}

// FilteredAssessments applies q to a snapshot and then order, if any.
func (s *Service) FilteredAssessments(ctx context.Context, q filter.Query, order filter.Sort) []model.Assessment {
	st, err := s.running()
	if err != nil {
		return nil
	}
	users, assessments := st.Snapshot(ctx)
	out := filter.Apply(assessments, filter.Index(users), q)
	if order != nil {
		order(out)
	}
	return out
}

// Assessment returns one assessment.
func (s *Service) Assessment(ctx context.Context, id string) (model.Assessment, error) {
	st, err := s.running()
	if err != nil {
		return model.Assessment{}, err
	}
	return st.Assessment(ctx, id)
}

// SubmitAssessment grades a freshly captured assessment and stores it as
// pending. The prediction service is consulted first; when it is absent or
// fails the local result is used. A submission carrying a key already seen
// returns the assessment stored for that key instead of a new one.
func (s *Service) SubmitAssessment(ctx context.Context, sub model.Submission) (model.Assessment, scoring.Result, error) {
	st, keys, err := s.runningWithKeys()
	if err != nil {
		return model.Assessment{}, scoring.Result{}, err
	}
	if _, err := st.User(ctx, sub.UserID); err != nil {
		return model.Assessment{}, scoring.Result{}, fmt.Errorf("%w: %q", repository.ErrUnknownUser, sub.UserID)
	}

	id := s.newID()
	if sub.Key != "" {
		bound, claimed := keys.Claim(ctx, sub.Key, id)
		if !claimed {
			return s.replay(ctx, st, sub.Key, bound)
		}
	}

	a, result, err := s.submit(ctx, st, id, sub)
	if err != nil {
		if sub.Key != "" {
			keys.Release(ctx, sub.Key)
		}
		return model.Assessment{}, scoring.Result{}, err
	}
	s.logger.Info(ctx, "assessment submitted",
		logger.String("assessment_id", a.ID),
		logger.String("user_id", a.UserID),
		logger.String("type", string(a.Type())),
		logger.Int("score", a.Score),
	)
	return a, result, nil
}

func (s *Service) submit(ctx context.Context, st *repository.MemoryStore, id string, sub model.Submission) (model.Assessment, scoring.Result, error) {
	in := scoring.Input{UserID: sub.UserID, Metric: sub.Metric, Score: sub.Score, Accuracy: sub.Accuracy}
	result, err := s.grade(ctx, in)
	if err != nil {
		return model.Assessment{}, scoring.Result{}, err
	}
	a, err := st.AddAssessment(ctx, model.Assessment{
		ID:            id,
		UserID:        sub.UserID,
		Metric:        sub.Metric,
		Score:         sub.Score,
		Accuracy:      result.Accuracy,
		Status:        model.StatusPending,
		VideoVerified: sub.VideoVerified,
	})
	if err != nil {
		return model.Assessment{}, scoring.Result{}, err
	}
	return a, result, nil
}

// replay answers a repeated submission key with the assessment it produced.
// The first upload may still be in flight, in which case the key conflicts.
func (s *Service) replay(ctx context.Context, st *repository.MemoryStore, key, id string) (model.Assessment, scoring.Result, error) {
	a, err := st.Assessment(ctx, id)
	if err != nil {
		return model.Assessment{}, scoring.Result{}, fmt.Errorf("%w: submission %q is still being processed", repository.ErrDuplicateID, key)
	}
	s.logger.Debug(ctx, "submission replayed", logger.String("submission_key", key), logger.String("assessment_id", id))
	tier := scoring.TierFor(a.Score)
	return a, scoring.Result{Accuracy: a.Accuracy, Feedback: scoring.Feedback(a.Type(), tier), Tier: tier}, nil
}

func (s *Service) grade(ctx context.Context, in scoring.Input) (scoring.Result, error) {
	if s.predictor != nil {
		res, err := s.predictor.Score(ctx, in)
		if err == nil {
			return res, nil
		}
		metrics.RecordPredictFallback()
		s.logger.Warn(ctx, "prediction failed; using local results", logger.Error(err))
	}
	return s.local.Score(ctx, in)
}

// UpdateAssessmentStatus records an official's verify or flag decision.
func (s *Service) UpdateAssessmentStatus(ctx context.Context, id string, status model.Status) (model.Assessment, error) {
	st, err := s.running()
	if err != nil {
		return model.Assessment{}, err
	}
	a, err := st.UpdateStatus(ctx, id, status)
	if err != nil {
		return model.Assessment{}, err
	}
	s.logger.Info(ctx, "assessment reviewed",
		logger.String("assessment_id", a.ID),
		logger.String("status", string(a.Status)),
	)
	return a, nil
}

// Regions returns the regional breakdown, best average first.
func (s *Service) Regions(ctx context.Context, limit int) []stats.Region {
	st, err := s.running()
	if err != nil {
		return nil
	}
	users, assessments := st.Snapshot(ctx)
	return stats.Regions(users, assessments, limit)
}

// TopPerformers returns the users with the highest average score.
func (s *Service) TopPerformers(ctx context.Context, limit int) []model.User {
	st, err := s.running()
	if err != nil {
		return nil
	}
	return stats.TopPerformers(st.Users(ctx), limit)
}

// SeedDemoData loads the demo records into an empty store.
func (s *Service) SeedDemoData(ctx context.Context) (bool, error) {
	st, err := s.running()
	if err != nil {
		return false, err
	}
	return st.SeedDemoData(ctx)
}

// GetStats returns runtime information about the service and refreshes the
// related gauges.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	out := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"persistent":  s.dbPath != "",
		"kafka":       len(s.kafkaBrokers) > 0,
	}
	if s.started {
		users, assessments := s.store.Snapshot(ctx)
		queueLen := s.queue.Len()
		out["queueLength"] = queueLen
		out["dedupeKeys"] = s.deduper.Size()
		out["totalUsers"] = len(users)
		out["totalAssessments"] = len(assessments)

		metrics.UpdateChangeQueueSize(queueLen)
		metrics.UpdateStoreRecords("users", len(users))
		metrics.UpdateStoreRecords("assessments", len(assessments))
	}
	return out
}
