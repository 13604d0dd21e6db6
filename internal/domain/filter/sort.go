package filter

import (
	"cmp"
	"slices"

	"github.com/okian/talentboard/internal/domain/model"
)

// Sort orders a filtered result in place. Apply itself never sorts.
type Sort func([]model.Assessment)

// ByNewest orders by CreatedAt descending, ties by id.
func ByNewest(as []model.Assessment) {
	slices.SortStableFunc(as, func(a, b model.Assessment) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

// ByScore orders by Score descending, ties by id.
func ByScore(as []model.Assessment) {
	slices.SortStableFunc(as, func(a, b model.Assessment) int {
		if a.Score != b.Score {
			return b.Score - a.Score
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

// SortByName resolves a sort name used by the API. Unknown names return nil.
func SortByName(name string) Sort {
	switch name {
	case "newest":
		return ByNewest
	case "score":
		return ByScore
	}
	return nil
}
