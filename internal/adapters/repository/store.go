// Package repository holds the canonical in-memory record of users and
// assessments reviewed by officials.
package repository

import (
	"context"

	"github.com/okian/talentboard/internal/domain/model"
)

// Store provides read/write access to users and assessments.
type Store interface {
	// AddUser appends a user. Returns ErrDuplicateID if the id exists.
	AddUser(ctx context.Context, u model.User) (model.User, error)
	// AddAssessment appends a pending assessment owned by an existing user and
	// refreshes the owner's cached totals. Returns ErrDuplicateID if the id exists.
	AddAssessment(ctx context.Context, a model.Assessment) (model.Assessment, error)
	// UpdateStatus applies a one-shot pending -> verified|flagged transition.
	UpdateStatus(ctx context.Context, assessmentID string, status model.Status) (model.Assessment, error)

	// SeedDemoData populates demo records once, and only into an empty store.
	SeedDemoData(ctx context.Context) (bool, error)

	Users(ctx context.Context) []model.User
	Assessments(ctx context.Context) []model.Assessment
	User(ctx context.Context, id string) (model.User, error)
	Assessment(ctx context.Context, id string) (model.Assessment, error)
	// Snapshot returns users and assessments read under a single lock.
	Snapshot(ctx context.Context) ([]model.User, []model.Assessment)

	// Subscribe registers l for every successful mutation and returns a func
	// that removes it.
	Subscribe(l Listener) (unsubscribe func())
}

// Listener observes successful mutations. It is called synchronously after
// the store lock is released and must not block for long.
type Listener func(model.Change)

// Persister is a write-through backing store. The in-memory store stays the
// source of truth; a failed write leaves memory unchanged.
type Persister interface {
	Load(ctx context.Context) ([]model.User, []model.Assessment, error)
	// SaveUser inserts or replaces u.
	SaveUser(ctx context.Context, u model.User) error
	// SaveAssessment inserts a and replaces its owner's cached totals in one unit.
	SaveAssessment(ctx context.Context, a model.Assessment, owner model.User) error
	// SaveBatch stores seeded records in one unit.
	SaveBatch(ctx context.Context, users []model.User, assessments []model.Assessment) error
	UpdateStatus(ctx context.Context, assessmentID string, status model.Status) error
	Reset(ctx context.Context) error
	Close() error
}
