// Package persist keeps a durable copy of the record store in a SQLite file.
package persist

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/okian/talentboard/internal/domain/model"
)

// MemoryDSN opens a private in-memory database, mostly for tests.
const MemoryDSN = ":memory:"

// SQLite implements repository.Persister.
type SQLite struct {
	db   *sql.DB
	path string
}

// Open creates or opens the database at path and ensures the schema exists.
func Open(ctx context.Context, path string) (*SQLite, error) {
	if path != MemoryDSN {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrOpen, err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpen, err)
	}
	// One connection: ":memory:" is per connection and SQLite serialises writers anyway.
	db.SetMaxOpenConns(1)

	s := &SQLite{db: db, path: path}
	if err := s.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %w", ErrSchema, err)
	}
	return s, nil
}

// Path returns the database location.
func (s *SQLite) Path() string { return s.path }

// Close closes the database connection.
func (s *SQLite) Close() error { return s.db.Close() }

func (s *SQLite) initSchema(ctx context.Context) error {
	schema := `
	PRAGMA foreign_keys = ON;

	CREATE TABLE IF NOT EXISTS users (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		email TEXT NOT NULL DEFAULT '',
		location TEXT NOT NULL DEFAULT '',
		bio_json TEXT,
		created_at INTEGER NOT NULL,
		last_active INTEGER NOT NULL,
		total_assessments INTEGER NOT NULL DEFAULT 0,
		average_score INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS assessments (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		user_id TEXT NOT NULL REFERENCES users(id),
		assessment_type TEXT NOT NULL,
		metric_value REAL NOT NULL,
		score INTEGER NOT NULL,
		accuracy INTEGER NOT NULL,
		location TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		video_verified INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_assessments_user ON assessments(user_id);
	CREATE INDEX IF NOT EXISTS idx_assessments_status ON assessments(status);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

const upsertUser = `
	INSERT INTO users (id, name, email, location, bio_json, created_at, last_active, total_assessments, average_score)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		name = excluded.name,
		email = excluded.email,
		location = excluded.location,
		bio_json = excluded.bio_json,
		created_at = excluded.created_at,
		last_active = excluded.last_active,
		total_assessments = excluded.total_assessments,
		average_score = excluded.average_score`

const insertAssessment = `
	INSERT INTO assessments (id, user_id, assessment_type, metric_value, score, accuracy, location, status, video_verified, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func saveUser(ctx context.Context, ex execer, u model.User) error {
	var bio sql.NullString
	if u.BioData != nil {
		b, err := json.Marshal(u.BioData)
		if err != nil {
			return err
		}
		bio = sql.NullString{String: string(b), Valid: true}
	}
	_, err := ex.ExecContext(ctx, upsertUser,
		u.ID, u.Name, u.Email, u.Location, bio,
		toUnix(u.CreatedAt), toUnix(u.LastActive),
		u.TotalAssessments, u.AverageScore,
	)
	if err != nil {
		return fmt.Errorf("save user %s: %w", u.ID, err)
	}
	return nil
}

func saveAssessment(ctx context.Context, ex execer, a model.Assessment) error {
	_, err := ex.ExecContext(ctx, insertAssessment,
		a.ID, a.UserID, string(a.Type()), model.MetricValue(a.Metric),
		a.Score, a.Accuracy, a.Location, string(a.Status), a.VideoVerified,
		toUnix(a.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("save assessment %s: %w", a.ID, err)
	}
	return nil
}

// SaveUser inserts or replaces u.
func (s *SQLite) SaveUser(ctx context.Context, u model.User) error {
	return saveUser(ctx, s.db, u)
}

// SaveAssessment inserts a and updates owner's cached totals in one transaction.
func (s *SQLite) SaveAssessment(ctx context.Context, a model.Assessment, owner model.User) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := saveUser(ctx, tx, owner); err != nil {
			return err
		}
		return saveAssessment(ctx, tx, a)
	})
}

// SaveBatch stores users then assessments in one transaction.
func (s *SQLite) SaveBatch(ctx context.Context, users []model.User, assessments []model.Assessment) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, u := range users {
			if err := saveUser(ctx, tx, u); err != nil {
				return err
			}
		}
		for _, a := range assessments {
			if err := saveAssessment(ctx, tx, a); err != nil {
				return err
			}
		}
		return nil
	})
}

// UpdateStatus sets the review status of one assessment.
func (s *SQLite) UpdateStatus(ctx context.Context, assessmentID string, status model.Status) error {
	res, err := s.db.ExecContext(ctx, `UPDATE assessments SET status = ? WHERE id = ?`, string(status), assessmentID)
	if err != nil {
		return fmt.Errorf("update status of %s: %w", assessmentID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update status of %s: %w", assessmentID, sql.ErrNoRows)
	}
	return nil
}

// Reset deletes every record.
func (s *SQLite) Reset(ctx context.Context) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM assessments`); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `DELETE FROM users`)
		return err
	})
}

// Load returns all records in insertion order.
func (s *SQLite) Load(ctx context.Context) ([]model.User, []model.Assessment, error) {
	users, err := s.loadUsers(ctx)
	if err != nil {
		return nil, nil, err
	}
	assessments, err := s.loadAssessments(ctx)
	if err != nil {
		return nil, nil, err
	}
	return users, assessments, nil
}

func (s *SQLite) loadUsers(ctx context.Context) ([]model.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, email, location, bio_json, created_at, last_active, total_assessments, average_score
		FROM users ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var (
			u                  model.User
			bio                sql.NullString
			created, lastActed int64
		)
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Location, &bio, &created, &lastActed, &u.TotalAssessments, &u.AverageScore); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		if bio.Valid {
			u.BioData = &model.BioData{}
			if err := json.Unmarshal([]byte(bio.String), u.BioData); err != nil {
				return nil, fmt.Errorf("%w: user %s bio data: %w", ErrCorrupt, u.ID, err)
			}
		}
		u.CreatedAt = fromUnix(created)
		u.LastActive = fromUnix(lastActed)
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *SQLite) loadAssessments(ctx context.Context) ([]model.Assessment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, assessment_type, metric_value, score, accuracy, location, status, video_verified, created_at
		FROM assessments ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("load assessments: %w", err)
	}
	defer rows.Close()

	var out []model.Assessment
	for rows.Next() {
		var (
			a           model.Assessment
			typ, status string
			value       float64
			created     int64
		)
		if err := rows.Scan(&a.ID, &a.UserID, &typ, &value, &a.Score, &a.Accuracy, &a.Location, &status, &a.VideoVerified, &created); err != nil {
			return nil, fmt.Errorf("scan assessment: %w", err)
		}
		t, err := model.ParseAssessmentType(typ)
		if err != nil {
			return nil, fmt.Errorf("%w: assessment %s: %w", ErrCorrupt, a.ID, err)
		}
		if a.Metric, err = model.NewMetric(t, value); err != nil {
			return nil, fmt.Errorf("%w: assessment %s: %w", ErrCorrupt, a.ID, err)
		}
		if a.Status, err = model.ParseStatus(status); err != nil {
			return nil, fmt.Errorf("%w: assessment %s: %w", ErrCorrupt, a.ID, err)
		}
		a.CreatedAt = fromUnix(created)
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLite) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(tx); err != nil {
		return errors.Join(err, tx.Rollback())
	}
	return tx.Commit()
}

func toUnix(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromUnix(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}
