// Package stats derives the officials dashboard counters from a record snapshot.
//
// Everything here is recomputed on demand from the snapshot passed in; nothing
// is cached between calls.
package stats

import (
	"strings"
	"time"

	"github.com/okian/talentboard/internal/domain/model"
)

// Stats are the summary counters shown on the officials dashboard.
type Stats struct {
	TotalUsers       int `json:"totalUsers"`
	TotalAssessments int `json:"totalAssessments"`
	PendingReviews   int `json:"pendingReviews"`
	VerifiedToday    int `json:"verifiedToday"`
	FlaggedCases     int `json:"flaggedCases"`
	RemoteAreas      int `json:"remoteAreas"`
}

// Compute derives Stats from users and assessments.
// VerifiedToday counts verified assessments created on now's calendar day,
// in now's location.
func Compute(users []model.User, assessments []model.Assessment, now time.Time) Stats {
	s := Stats{
		TotalUsers:       len(users),
		TotalAssessments: len(assessments),
	}

	dayStart, dayEnd := dayBounds(now)
	for i := range assessments {
		a := &assessments[i]
		switch a.Status {
		case model.StatusPending:
			s.PendingReviews++
		case model.StatusFlagged:
			s.FlaggedCases++
		case model.StatusVerified:
			created := a.CreatedAt.In(now.Location())
			if !created.Before(dayStart) && created.Before(dayEnd) {
				s.VerifiedToday++
			}
		}
	}

	locations := make(map[string]struct{}, len(users))
	for _, u := range users {
		loc := strings.TrimSpace(u.Location)
		if loc == "" {
			continue
		}
		locations[loc] = struct{}{}
	}
	s.RemoteAreas = len(locations)

	return s
}

// dayBounds returns [start, end) of the calendar day containing t in t's location.
func dayBounds(t time.Time) (time.Time, time.Time) {
	y, m, d := t.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 0, 1)
}
