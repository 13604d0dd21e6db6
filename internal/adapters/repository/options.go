package repository

import (
	"time"

	"github.com/okian/talentboard/internal/domain/model"
)

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// WithPersister enables write-through persistence. Existing records are
// loaded from it when the store is created.
func WithPersister(p Persister) Option {
	return func(s *MemoryStore) {
		if p != nil {
			s.persister = p
		}
	}
}

// WithDemoData replaces the embedded demo fixture used by SeedDemoData.
// Records are taken as given, including their status and timestamps.
func WithDemoData(users []model.User, assessments []model.Assessment) Option {
	return func(s *MemoryStore) {
		s.demo = func(time.Time) ([]model.User, []model.Assessment, error) {
			return users, assessments, nil
		}
	}
}
