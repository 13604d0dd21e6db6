package model

import "fmt"

// Metric is the type-specific measurement attached to an assessment.
// Each variant carries exactly the field relevant to its assessment type.
type Metric interface {
	// Type returns the assessment type this metric belongs to.
	Type() AssessmentType
	validate() error
	summary() string
}

// Situps records the repetitions completed.
type Situps struct {
	Reps int
}

// VerticalJump records the jump height in centimetres.
type VerticalJump struct {
	HeightCM float64
}

// ShuttleRun records the completion time in seconds.
type ShuttleRun struct {
	Seconds float64
}

func (Situps) Type() AssessmentType       { return SitupsType }
func (VerticalJump) Type() AssessmentType { return VerticalJumpType }
func (ShuttleRun) Type() AssessmentType   { return ShuttleRunType }

func (m Situps) validate() error {
	if m.Reps < 0 {
		return fmt.Errorf("%w: reps must not be negative", ErrInvalidRecord)
	}
	return nil
}

func (m VerticalJump) validate() error {
	if m.HeightCM < 0 {
		return fmt.Errorf("%w: height must not be negative", ErrInvalidRecord)
	}
	return nil
}

func (m ShuttleRun) validate() error {
	if m.Seconds < 0 {
		return fmt.Errorf("%w: time must not be negative", ErrInvalidRecord)
	}
	return nil
}

func (m Situps) summary() string       { return fmt.Sprintf("%d reps", m.Reps) }
func (m VerticalJump) summary() string { return fmt.Sprintf("%gcm jump", m.HeightCM) }
func (m ShuttleRun) summary() string   { return fmt.Sprintf("%gs time", m.Seconds) }

// NewMetric builds the variant for t from a single numeric value.
// Situps truncates value to whole repetitions.
func NewMetric(t AssessmentType, value float64) (Metric, error) {
	switch t {
	case SitupsType:
		return Situps{Reps: int(value)}, nil
	case VerticalJumpType:
		return VerticalJump{HeightCM: value}, nil
	case ShuttleRunType:
		return ShuttleRun{Seconds: value}, nil
	}
	return nil, fmt.Errorf("%w: unknown assessment type %q", ErrInvalidRecord, t)
}

// MetricValue returns the numeric value carried by m.
func MetricValue(m Metric) float64 {
	switch v := m.(type) {
	case Situps:
		return float64(v.Reps)
	case VerticalJump:
		return v.HeightCM
	case ShuttleRun:
		return v.Seconds
	}
	return 0
}
