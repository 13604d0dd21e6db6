// Package filter selects the subset of assessments shown to officials.
//
// Filtering is a pure function of a record snapshot and a Query; callers may
// run it on every keystroke.
package filter

import (
	"strings"

	"github.com/okian/talentboard/internal/domain/model"
)

// All disables the status or type predicate.
const All = "all"

// Query carries the three predicates combined with logical AND.
// Empty Status or Type behave like All.
type Query struct {
	SearchTerm string
	Status     string
	Type       string
}

// Everything matches every assessment.
var Everything = Query{Status: All, Type: All}

// Apply returns the assessments matching q, preserving input order.
// users resolves an assessment's owner for the name and email predicates;
// a missing owner only fails the search predicate when a term is set.
// The input slice is never modified.
func Apply(assessments []model.Assessment, users map[string]model.User, q Query) []model.Assessment {
	term := strings.ToLower(q.SearchTerm)
	out := make([]model.Assessment, 0, len(assessments))
	for i := range assessments {
		a := &assessments[i]
		if !matchStatus(a, q.Status) || !matchType(a, q.Type) {
			continue
		}
		if term != "" && !matchSearch(a, users[a.UserID], term) {
			continue
		}
		out = append(out, *a)
	}
	return out
}

// Index builds the user lookup Apply expects.
func Index(users []model.User) map[string]model.User {
	idx := make(map[string]model.User, len(users))
	for _, u := range users {
		idx[u.ID] = u
	}
	return idx
}

func matchStatus(a *model.Assessment, status string) bool {
	if status == "" || status == All {
		return true
	}
	return string(a.Status) == status
}

func matchType(a *model.Assessment, typ string) bool {
	if typ == "" || typ == All {
		return true
	}
	return string(a.Type()) == typ
}

// matchSearch expects term already lower-cased.
func matchSearch(a *model.Assessment, owner model.User, term string) bool {
	return containsFold(owner.Name, term) ||
		containsFold(owner.Email, term) ||
		containsFold(a.Location, term)
}

func containsFold(s, lowerTerm string) bool {
	return s != "" && strings.Contains(strings.ToLower(s), lowerTerm)
}
