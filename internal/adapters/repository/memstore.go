package repository

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/okian/talentboard/internal/domain/model"
	"github.com/okian/talentboard/pkg/metrics"
)

// MemoryStore is the in-memory Store. Records keep insertion order; ids are
// indexed for O(1) lookup. A sync.RWMutex serialises access from concurrent
// HTTP handlers.
type MemoryStore struct {
	mu sync.RWMutex

	users       []model.User
	assessments []model.Assessment
	userIdx     map[string]int
	assessIdx   map[string]int
	// per-user score totals backing the cached average
	scoreSum map[string]int

	seeded bool
	closed bool

	listenerMu sync.Mutex
	listeners  map[int]Listener
	nextID     int

	now       func() time.Time
	persister Persister
	demo      func(now time.Time) ([]model.User, []model.Assessment, error)
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore constructs an empty store, loading existing records when a
// persister is configured.
func NewMemoryStore(ctx context.Context, opts ...Option) (*MemoryStore, error) {
	s := &MemoryStore{
		now:       time.Now,
		listeners: make(map[int]Listener),
		demo:      DemoData,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.resetLocked()

	if s.persister != nil {
		users, assessments, err := s.persister.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: load: %w", ErrPersist, err)
		}
		s.loadLocked(users, assessments)
	}
	s.updateGauges()
	return s, nil
}

func (s *MemoryStore) resetLocked() {
	s.users = nil
	s.assessments = nil
	s.userIdx = make(map[string]int)
	s.assessIdx = make(map[string]int)
	s.scoreSum = make(map[string]int)
	s.seeded = false
}

// loadLocked appends trusted records and recomputes cached user totals.
// Assessments whose owner is unknown are skipped.
func (s *MemoryStore) loadLocked(users []model.User, assessments []model.Assessment) {
	for _, u := range users {
		if _, dup := s.userIdx[u.ID]; dup {
			continue
		}
		u = u.Clone()
		u.TotalAssessments, u.AverageScore = 0, 0
		s.userIdx[u.ID] = len(s.users)
		s.users = append(s.users, u)
	}
	for _, a := range assessments {
		if _, dup := s.assessIdx[a.ID]; dup {
			continue
		}
		ui, ok := s.userIdx[a.UserID]
		if !ok {
			continue
		}
		if a.Location == "" {
			a.Location = s.users[ui].Location
		}
		if a.Status == "" {
			a.Status = model.StatusPending
		}
		s.assessIdx[a.ID] = len(s.assessments)
		s.assessments = append(s.assessments, a)
		s.attributeLocked(ui, a.Score)
	}
}

// attributeLocked refreshes the cached totals of the user at index ui.
func (s *MemoryStore) attributeLocked(ui, score int) {
	u := &s.users[ui]
	s.scoreSum[u.ID] += score
	u.TotalAssessments++
	u.AverageScore = int(math.Round(float64(s.scoreSum[u.ID]) / float64(u.TotalAssessments)))
}

// AddUser implements Store.
func (s *MemoryStore) AddUser(ctx context.Context, u model.User) (model.User, error) {
	if err := u.Validate(); err != nil {
		return model.User{}, err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return model.User{}, ErrClosed
	}
	if _, dup := s.userIdx[u.ID]; dup {
		s.mu.Unlock()
		return model.User{}, fmt.Errorf("%w: user %q", ErrDuplicateID, u.ID)
	}

	now := s.now()
	u = u.Clone()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	if u.LastActive.IsZero() {
		u.LastActive = u.CreatedAt
	}
	u.TotalAssessments, u.AverageScore = 0, 0

	if s.persister != nil {
		if err := s.persister.SaveUser(ctx, u); err != nil {
			s.mu.Unlock()
			return model.User{}, fmt.Errorf("%w: %w", ErrPersist, err)
		}
	}
	s.userIdx[u.ID] = len(s.users)
	s.users = append(s.users, u)
	out := u.Clone()
	s.mu.Unlock()

	metrics.RecordStoreMutation("add_user")
	s.updateGauges()
	s.notify(model.Change{Kind: model.ChangeUserAdded, UserID: u.ID, At: now})
	return out, nil
}

// AddAssessment implements Store. The status must be empty or pending; the
// location is always copied from the owner.
func (s *MemoryStore) AddAssessment(ctx context.Context, a model.Assessment) (model.Assessment, error) {
	if a.Status == "" {
		a.Status = model.StatusPending
	}
	if a.Status != model.StatusPending {
		return model.Assessment{}, fmt.Errorf("%w: new assessments must be pending, got %q", model.ErrInvalidRecord, a.Status)
	}
	if err := a.Validate(); err != nil {
		return model.Assessment{}, err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return model.Assessment{}, ErrClosed
	}
	if _, dup := s.assessIdx[a.ID]; dup {
		s.mu.Unlock()
		return model.Assessment{}, fmt.Errorf("%w: assessment %q", ErrDuplicateID, a.ID)
	}
	ui, ok := s.userIdx[a.UserID]
	if !ok {
		s.mu.Unlock()
		return model.Assessment{}, fmt.Errorf("%w: %q", ErrUnknownUser, a.UserID)
	}

	now := s.now()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.Location = s.users[ui].Location

	// Work on a copy of the owner so a persist failure leaves memory untouched.
	owner := s.users[ui].Clone()
	sum := s.scoreSum[owner.ID] + a.Score
	owner.TotalAssessments++
	owner.AverageScore = int(math.Round(float64(sum) / float64(owner.TotalAssessments)))
	owner.LastActive = now

	if s.persister != nil {
		if err := s.persister.SaveAssessment(ctx, a, owner); err != nil {
			s.mu.Unlock()
			return model.Assessment{}, fmt.Errorf("%w: %w", ErrPersist, err)
		}
	}
	s.users[ui] = owner
	s.scoreSum[owner.ID] = sum
	s.assessIdx[a.ID] = len(s.assessments)
	s.assessments = append(s.assessments, a)
	s.mu.Unlock()

	metrics.RecordStoreMutation("add_assessment")
	s.updateGauges()
	s.notify(model.Change{Kind: model.ChangeAssessmentAdded, UserID: a.UserID, AssessmentID: a.ID, Status: a.Status, At: now})
	return a, nil
}

// UpdateStatus implements Store. The owner's cached average is unaffected.
func (s *MemoryStore) UpdateStatus(ctx context.Context, assessmentID string, status model.Status) (model.Assessment, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return model.Assessment{}, ErrClosed
	}
	i, ok := s.assessIdx[assessmentID]
	if !ok {
		s.mu.Unlock()
		return model.Assessment{}, fmt.Errorf("%w: assessment %q", ErrNotFound, assessmentID)
	}
	cur := s.assessments[i].Status
	if !cur.CanTransitionTo(status) {
		s.mu.Unlock()
		metrics.RecordStatusTransitionRejected()
		return model.Assessment{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, cur, status)
	}
	if s.persister != nil {
		if err := s.persister.UpdateStatus(ctx, assessmentID, status); err != nil {
			s.mu.Unlock()
			return model.Assessment{}, fmt.Errorf("%w: %w", ErrPersist, err)
		}
	}
	s.assessments[i].Status = status
	out := s.assessments[i]
	s.mu.Unlock()

	metrics.RecordStatusTransition(string(status))
	s.notify(model.Change{Kind: model.ChangeStatusUpdated, UserID: out.UserID, AssessmentID: out.ID, Status: status, At: s.now()})
	return out, nil
}

// SeedDemoData implements Store. It seeds at most once per store lifetime
// (until Reset) and never into a store that already holds records.
func (s *MemoryStore) SeedDemoData(ctx context.Context) (bool, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false, ErrClosed
	}
	if s.seeded || len(s.users) > 0 || len(s.assessments) > 0 {
		s.mu.Unlock()
		return false, nil
	}
	now := s.now()
	users, assessments, err := s.demo(now)
	if err != nil {
		s.mu.Unlock()
		return false, err
	}
	if s.persister != nil {
		if err := s.persister.SaveBatch(ctx, users, assessments); err != nil {
			s.mu.Unlock()
			return false, fmt.Errorf("%w: %w", ErrPersist, err)
		}
	}
	s.loadLocked(users, assessments)
	s.seeded = true
	s.mu.Unlock()

	metrics.RecordStoreMutation("seed")
	s.updateGauges()
	s.notify(model.Change{Kind: model.ChangeSeeded, At: now})
	return true, nil
}

// Users implements Store.
func (s *MemoryStore) Users(_ context.Context) []model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyUsersLocked()
}

// Assessments implements Store.
func (s *MemoryStore) Assessments(_ context.Context) []model.Assessment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Assessment(nil), s.assessments...)
}

// Snapshot implements Store.
func (s *MemoryStore) Snapshot(_ context.Context) ([]model.User, []model.Assessment) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyUsersLocked(), append([]model.Assessment(nil), s.assessments...)
}

// User implements Store.
func (s *MemoryStore) User(_ context.Context, id string) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.userIdx[id]
	if !ok {
		return model.User{}, fmt.Errorf("%w: user %q", ErrNotFound, id)
	}
	return s.users[i].Clone(), nil
}

// Assessment implements Store.
func (s *MemoryStore) Assessment(_ context.Context, id string) (model.Assessment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.assessIdx[id]
	if !ok {
		return model.Assessment{}, fmt.Errorf("%w: assessment %q", ErrNotFound, id)
	}
	return s.assessments[i], nil
}

func (s *MemoryStore) copyUsersLocked() []model.User {
	out := make([]model.User, len(s.users))
	for i, u := range s.users {
		out[i] = u.Clone()
	}
	return out
}

// Subscribe implements Store.
func (s *MemoryStore) Subscribe(l Listener) func() {
	s.listenerMu.Lock()
	defer s.listenerMu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l

	var once sync.Once
	return func() {
		once.Do(func() {
			s.listenerMu.Lock()
			delete(s.listeners, id)
			s.listenerMu.Unlock()
		})
	}
}

func (s *MemoryStore) notify(c model.Change) {
	s.listenerMu.Lock()
	ls := make([]Listener, 0, len(s.listeners))
	for id := 0; id < s.nextID; id++ {
		if l, ok := s.listeners[id]; ok {
			ls = append(ls, l)
		}
	}
	s.listenerMu.Unlock()

	for _, l := range ls {
		l(c)
	}
}

// Reset drops every record and re-arms SeedDemoData. Intended for tests and
// the seed command.
func (s *MemoryStore) Reset(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.persister != nil {
		if err := s.persister.Reset(ctx); err != nil {
			s.mu.Unlock()
			return fmt.Errorf("%w: %w", ErrPersist, err)
		}
	}
	s.resetLocked()
	s.mu.Unlock()

	s.updateGauges()
	s.notify(model.Change{Kind: model.ChangeReset, At: s.now()})
	return nil
}

// Close drops all listeners and closes the persister. Mutations fail with
// ErrClosed afterwards; reads keep serving the last state.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	p := s.persister
	s.mu.Unlock()

	s.listenerMu.Lock()
	s.listeners = make(map[int]Listener)
	s.listenerMu.Unlock()

	if p != nil {
		return p.Close()
	}
	return nil
}

func (s *MemoryStore) updateGauges() {
	s.mu.RLock()
	users, assessments := len(s.users), len(s.assessments)
	s.mu.RUnlock()
	metrics.UpdateStoreRecords("users", users)
	metrics.UpdateStoreRecords("assessments", assessments)
}
