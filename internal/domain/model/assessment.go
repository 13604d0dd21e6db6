package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Score and accuracy bounds, in percent.
const (
	MinPercent = 0
	MaxPercent = 100
)

// Assessment is one completed physical-performance test attributed to a user.
type Assessment struct {
	ID     string
	UserID string
	// Metric carries the type-specific measurement; the assessment type is derived from it.
	Metric        Metric
	Score         int
	Accuracy      int
	Location      string // copied from the owning user at creation
	Status        Status
	VideoVerified bool
	CreatedAt     time.Time
}

// Type returns the assessment type, derived from the metric variant.
func (a *Assessment) Type() AssessmentType {
	if a.Metric == nil {
		return ""
	}
	return a.Metric.Type()
}

// Validate enforces the record invariants that do not depend on other records.
func (a *Assessment) Validate() error {
	switch {
	case strings.TrimSpace(a.ID) == "":
		return fmt.Errorf("%w: missing assessment id", ErrInvalidRecord)
	case strings.TrimSpace(a.UserID) == "":
		return fmt.Errorf("%w: missing user id", ErrInvalidRecord)
	case a.Metric == nil:
		return fmt.Errorf("%w: missing metric", ErrInvalidRecord)
	case a.Score < MinPercent || a.Score > MaxPercent:
		return fmt.Errorf("%w: score %d out of range", ErrInvalidRecord, a.Score)
	case a.Accuracy < MinPercent || a.Accuracy > MaxPercent:
		return fmt.Errorf("%w: accuracy %d out of range", ErrInvalidRecord, a.Accuracy)
	}
	return a.Metric.validate()
}

// Summary renders the result line shown to officials, e.g. "42cm jump • 88% score".
func (a *Assessment) Summary() string {
	if a.Metric == nil {
		return fmt.Sprintf("%d%% score", a.Score)
	}
	return fmt.Sprintf("%s • %d%% score", a.Metric.summary(), a.Score)
}

// assessmentJSON is the flattened wire shape: the metric variant becomes
// assessmentType plus exactly one of reps, height or time.
type assessmentJSON struct {
	ID             string         `json:"id"`
	UserID         string         `json:"userId"`
	AssessmentType AssessmentType `json:"assessmentType"`
	Score          int            `json:"score"`
	Accuracy       int            `json:"accuracy"`
	Reps           *int           `json:"reps,omitempty"`
	Height         *float64       `json:"height,omitempty"`
	Time           *float64       `json:"time,omitempty"`
	Location       string         `json:"location"`
	Status         Status         `json:"status"`
	VideoVerified  bool           `json:"videoVerified"`
	CreatedAt      time.Time      `json:"createdAt"`
}

// MarshalJSON implements json.Marshaler.
func (a Assessment) MarshalJSON() ([]byte, error) {
	out := assessmentJSON{
		ID:             a.ID,
		UserID:         a.UserID,
		AssessmentType: a.Type(),
		Score:          a.Score,
		Accuracy:       a.Accuracy,
		Location:       a.Location,
		Status:         a.Status,
		VideoVerified:  a.VideoVerified,
		CreatedAt:      a.CreatedAt,
	}
	switch m := a.Metric.(type) {
	case Situps:
		out.Reps = &m.Reps
	case VerticalJump:
		out.Height = &m.HeightCM
	case ShuttleRun:
		out.Time = &m.Seconds
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *Assessment) UnmarshalJSON(data []byte) error {
	var in assessmentJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	metric, err := metricFromFields(in.AssessmentType, in.Reps, in.Height, in.Time)
	if err != nil {
		return err
	}
	*a = Assessment{
		ID:            in.ID,
		UserID:        in.UserID,
		Metric:        metric,
		Score:         in.Score,
		Accuracy:      in.Accuracy,
		Location:      in.Location,
		Status:        in.Status,
		VideoVerified: in.VideoVerified,
		CreatedAt:     in.CreatedAt,
	}
	return nil
}

// metricFromFields picks the variant for t; the field belonging to t must be set.
func metricFromFields(t AssessmentType, reps *int, height, seconds *float64) (Metric, error) {
	switch t {
	case SitupsType:
		if reps == nil {
			return nil, fmt.Errorf("%w: situps requires reps", ErrInvalidRecord)
		}
		return Situps{Reps: *reps}, nil
	case VerticalJumpType:
		if height == nil {
			return nil, fmt.Errorf("%w: vertical-jump requires height", ErrInvalidRecord)
		}
		return VerticalJump{HeightCM: *height}, nil
	case ShuttleRunType:
		if seconds == nil {
			return nil, fmt.Errorf("%w: shuttle-run requires time", ErrInvalidRecord)
		}
		return ShuttleRun{Seconds: *seconds}, nil
	}
	return nil, fmt.Errorf("%w: unknown assessment type %q", ErrInvalidRecord, t)
}
