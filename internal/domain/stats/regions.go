package stats

import (
	"cmp"
	"math"
	"slices"
	"strings"

	"github.com/okian/talentboard/internal/domain/model"
)

// Default result sizes used by the dashboard.
const (
	DefaultRegionLimit    = 8
	DefaultPerformerLimit = 5
)

// Region aggregates users and assessments sharing a region.
type Region struct {
	Region      string `json:"region"`
	Users       int    `json:"users"`
	Assessments int    `json:"assessments"`
	AvgScore    int    `json:"avgScore"`
}

// RegionOf extracts the region from a "City, State" location.
// Locations without a comma are their own region.
func RegionOf(location string) string {
	parts := strings.Split(location, ",")
	if len(parts) > 1 {
		if r := strings.TrimSpace(parts[1]); r != "" {
			return r
		}
	}
	return strings.TrimSpace(location)
}

// Regions groups users by region and counts assessments located in regions
// that have at least one user. Results are ordered by average user score
// descending, then region name, and truncated to limit (<=0 uses the default).
func Regions(users []model.User, assessments []model.Assessment, limit int) []Region {
	if limit <= 0 {
		limit = DefaultRegionLimit
	}

	type acc struct {
		users, assessments, scoreSum int
	}
	byRegion := make(map[string]*acc)
	for _, u := range users {
		r := RegionOf(u.Location)
		if r == "" {
			continue
		}
		a, ok := byRegion[r]
		if !ok {
			a = &acc{}
			byRegion[r] = a
		}
		a.users++
		a.scoreSum += u.AverageScore
	}
	for i := range assessments {
		if a, ok := byRegion[RegionOf(assessments[i].Location)]; ok {
			a.assessments++
		}
	}

	out := make([]Region, 0, len(byRegion))
	for name, a := range byRegion {
		out = append(out, Region{
			Region:      name,
			Users:       a.users,
			Assessments: a.assessments,
			AvgScore:    int(math.Round(float64(a.scoreSum) / float64(a.users))),
		})
	}
	slices.SortFunc(out, func(a, b Region) int {
		if a.AvgScore != b.AvgScore {
			return b.AvgScore - a.AvgScore
		}
		return cmp.Compare(a.Region, b.Region)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// TopPerformers returns users with a positive average score, best first,
// ties broken by name then id, truncated to limit (<=0 uses the default).
func TopPerformers(users []model.User, limit int) []model.User {
	if limit <= 0 {
		limit = DefaultPerformerLimit
	}
	out := make([]model.User, 0, len(users))
	for _, u := range users {
		if u.AverageScore > 0 {
			out = append(out, u.Clone())
		}
	}
	slices.SortFunc(out, func(a, b model.User) int {
		if a.AverageScore != b.AverageScore {
			return b.AverageScore - a.AverageScore
		}
		if c := cmp.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
