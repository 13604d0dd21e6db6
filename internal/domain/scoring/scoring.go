// Package scoring grades submitted assessments and produces coaching feedback.
//
// The remote prediction service is the primary Scorer; InMemoryScorer is the
// local fallback used when that service is disabled or unavailable.
package scoring

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/okian/talentboard/internal/domain/model"
)

// Tier thresholds, in percent.
const (
	eliteThreshold  = 90
	strongThreshold = 75
	steadyThreshold = 60
)

// Tier is a coarse performance band derived from a score.
type Tier string

// Performance bands, best first.
const (
	TierElite      Tier = "elite"
	TierStrong     Tier = "strong"
	TierSteady     Tier = "steady"
	TierDeveloping Tier = "developing"
)

// TierFor maps a 0..100 score to its band.
func TierFor(score int) Tier {
	switch {
	case score >= eliteThreshold:
		return TierElite
	case score >= strongThreshold:
		return TierStrong
	case score >= steadyThreshold:
		return TierSteady
	default:
		return TierDeveloping
	}
}

// Input carries the locally captured results of an assessment.
type Input struct {
	UserID   string
	Metric   model.Metric
	Score    int
	Accuracy int
}

// Result is what a scorer reports back for an assessment.
type Result struct {
	Accuracy int
	Feedback string
	Tier     Tier
}

// Scorer grades an assessment, honoring ctx for cancellation.
type Scorer interface {
	Score(ctx context.Context, in Input) (Result, error)
}

// Option applies a configuration option to the InMemoryScorer.
type Option func(*InMemoryScorer)

// WithLatencyRange simulates the latency of a remote model.
func WithLatencyRange(minLatency, maxLatency time.Duration) Option {
	return func(s *InMemoryScorer) {
		if minLatency > 0 && maxLatency > minLatency {
			s.minLatency = minLatency
			s.maxLatency = maxLatency
		}
	}
}

// InMemoryScorer keeps the captured accuracy and attaches canned feedback.
type InMemoryScorer struct {
	minLatency time.Duration
	maxLatency time.Duration

	mu  sync.Mutex // guards rng
	rng *rand.Rand
}

// NewInMemoryScorer creates a local scorer. Without options it answers immediately.
func NewInMemoryScorer(opts ...Option) *InMemoryScorer {
	s := &InMemoryScorer{
		rng: rand.New(rand.NewSource(42)), //nolint:gosec // deterministic jitter is fine for simulated latency
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score implements Scorer.
func (s *InMemoryScorer) Score(ctx context.Context, in Input) (Result, error) {
	if s.maxLatency > 0 {
		latency := s.jitter()
		select {
		case <-ctx.Done():
			return Result{}, fmt.Errorf("context cancelled: %w", ctx.Err())
		case <-time.After(latency):
		}
	}
	if in.Metric == nil {
		return Result{}, fmt.Errorf("%w: missing metric", model.ErrInvalidRecord)
	}
	tier := TierFor(in.Score)
	return Result{
		Accuracy: clampPercent(in.Accuracy),
		Feedback: Feedback(in.Metric.Type(), tier),
		Tier:     tier,
	}, nil
}

func (s *InMemoryScorer) jitter() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.minLatency + time.Duration(s.rng.Int63n(int64(s.maxLatency-s.minLatency)))
}

// Feedback returns the coaching line for an assessment type and tier.
func Feedback(t model.AssessmentType, tier Tier) string {
	var focus string
	switch t {
	case model.VerticalJumpType:
		focus = "explosive leg power"
	case model.SitupsType:
		focus = "core endurance"
	case model.ShuttleRunType:
		focus = "agility and acceleration"
	default:
		focus = "overall fitness"
	}
	switch tier {
	case TierElite:
		return fmt.Sprintf("Outstanding %s. Performance is at selection level.", focus)
	case TierStrong:
		return fmt.Sprintf("Strong %s. Keep training consistently to reach the top band.", focus)
	case TierSteady:
		return fmt.Sprintf("Steady %s. Focused drills will lift your score.", focus)
	default:
		return fmt.Sprintf("Your %s is developing. Work on form before intensity.", focus)
	}
}

func clampPercent(v int) int {
	return max(model.MinPercent, min(model.MaxPercent, v))
}
