package repository

import (
	"testing"
	"time"

	"github.com/okian/talentboard/internal/domain/model"
)

func TestDemoData(t *testing.T) {
	users, assessments, err := DemoData(fixedNow)
	if err != nil {
		t.Fatalf("embedded demo data must decode: %v", err)
	}
	if len(users) < 2 || len(assessments) < 2 {
		t.Fatalf("expected a useful fixture, got %d users, %d assessments", len(users), len(assessments))
	}
	var verifiedToday bool
	for _, a := range assessments {
		if a.Status == model.StatusVerified && a.CreatedAt.After(fixedNow.Add(-12*time.Hour)) {
			verifiedToday = true
		}
	}
	if !verifiedToday {
		t.Error("expected at least one recently verified assessment")
	}

	byID := make(map[string]model.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	for _, a := range assessments {
		if a.Location != byID[a.UserID].Location {
			t.Errorf("assessment %s location %q does not match its owner", a.ID, a.Location)
		}
	}
	for _, u := range users {
		if u.TotalAssessments > 0 && u.AverageScore == 0 {
			t.Errorf("user %s has assessments but no average", u.ID)
		}
	}
}

func TestParseDemo_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"malformed", "users: [\n"},
		{"unknown owner", "users:\n  - {id: u, name: U}\nassessments:\n  - {id: x, userId: v, type: situps, value: 1}\n"},
		{"unknown type", "users:\n  - {id: u, name: U}\nassessments:\n  - {id: x, userId: u, type: sprint, value: 1}\n"},
		{"unknown status", "users:\n  - {id: u, name: U}\nassessments:\n  - {id: x, userId: u, type: situps, value: 1, status: approved}\n"},
		{"score out of range", "users:\n  - {id: u, name: U}\nassessments:\n  - {id: x, userId: u, type: situps, value: 1, status: pending, score: 120}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := parseDemo([]byte(tt.yaml), fixedNow); err == nil {
				t.Error("expected an error")
			}
		})
	}
}
