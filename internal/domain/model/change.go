package model

import "time"

// ChangeKind identifies the mutation that produced a Change.
type ChangeKind string

// Mutation kinds emitted by the record store.
const (
	ChangeUserAdded       ChangeKind = "user_added"
	ChangeAssessmentAdded ChangeKind = "assessment_added"
	ChangeStatusUpdated   ChangeKind = "status_updated"
	ChangeSeeded          ChangeKind = "seeded"
	ChangeReset           ChangeKind = "reset"
)

// Change describes a single successful store mutation.
type Change struct {
	Kind         ChangeKind `json:"kind"`
	UserID       string     `json:"userId,omitempty"`
	AssessmentID string     `json:"assessmentId,omitempty"`
	Status       Status     `json:"status,omitempty"`
	At           time.Time  `json:"at"`
}

// Key returns the identifier a change is partitioned by.
func (c Change) Key() string {
	if c.AssessmentID != "" {
		return c.AssessmentID
	}
	if c.UserID != "" {
		return c.UserID
	}
	return string(c.Kind)
}
