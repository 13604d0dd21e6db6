// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"strings"
)

// AssessmentType names one of the supported physical tests.
type AssessmentType string

// Supported assessment types.
const (
	VerticalJumpType AssessmentType = "vertical-jump"
	SitupsType       AssessmentType = "situps"
	ShuttleRunType   AssessmentType = "shuttle-run"
)

// AssessmentTypes lists every supported type in display order.
var AssessmentTypes = []AssessmentType{VerticalJumpType, SitupsType, ShuttleRunType}

// ParseAssessmentType validates s and returns the matching type.
func ParseAssessmentType(s string) (AssessmentType, error) {
	t := AssessmentType(strings.ToLower(strings.TrimSpace(s)))
	switch t {
	case VerticalJumpType, SitupsType, ShuttleRunType:
		return t, nil
	}
	return "", fmt.Errorf("%w: unknown assessment type %q", ErrInvalidRecord, s)
}

// Status is the review state of an assessment.
type Status string

// Review states. Pending is the only non-terminal state.
const (
	StatusPending  Status = "pending"
	StatusVerified Status = "verified"
	StatusFlagged  Status = "flagged"
)

// ParseStatus validates s and returns the matching status.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	switch st {
	case StatusPending, StatusVerified, StatusFlagged:
		return st, nil
	}
	return "", fmt.Errorf("%w: unknown status %q", ErrInvalidRecord, s)
}

// Terminal reports whether no further transition is defined out of s.
func (s Status) Terminal() bool {
	return s == StatusVerified || s == StatusFlagged
}

// CanTransitionTo reports whether s may move to next.
// Only pending -> verified and pending -> flagged are allowed.
func (s Status) CanTransitionTo(next Status) bool {
	return s == StatusPending && next.Terminal()
}
