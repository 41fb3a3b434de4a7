package domain

import (
	"sort"
	"strings"
)

// RatingBucket maps every rating >= Threshold (up to the next bucket)
// to a guild role.
type RatingBucket struct {
	Threshold int
	Role      string
}

// RoleTable resolves a platform tier to a guild role name. Discrete
// tiers (Codeforces ranks) resolve by exact, case-insensitive match;
// numeric ratings (CodeChef) resolve to the highest bucket whose
// threshold does not exceed the rating. The table is immutable after
// construction.
type RoleTable struct {
	exact   map[string]string
	buckets []RatingBucket
}

func NewRoleTable(exact map[string]string, buckets []RatingBucket) RoleTable {
	byRank := make(map[string]string, len(exact))
	for rank, role := range exact {
		byRank[strings.ToLower(rank)] = role
	}

	sorted := make([]RatingBucket, len(buckets))
	copy(sorted, buckets)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Threshold > sorted[j].Threshold
	})

	return RoleTable{exact: byRank, buckets: sorted}
}

// Resolve maps a tier label, falling back to the rating buckets when
// the label has no exact entry. The second return is false when the
// table has no answer.
func (t RoleTable) Resolve(label string, rating int) (string, bool) {
	if role, ok := t.exact[strings.ToLower(label)]; ok {
		return role, true
	}
	for _, b := range t.buckets {
		if rating >= b.Threshold {
			return b.Role, true
		}
	}
	return "", false
}

// DefaultRoleTable returns the stock mapping for a platform.
func DefaultRoleTable(platform Platform) RoleTable {
	switch platform {
	case PlatformCodeforces:
		return NewRoleTable(map[string]string{
			"newbie":                    "Newbie",
			"pupil":                     "Pupil",
			"specialist":                "Specialist",
			"expert":                    "Expert",
			"candidate master":          "Candidate Master",
			"master":                    "Master",
			"international master":      "International Master",
			"grandmaster":               "Grandmaster",
			"international grandmaster": "International Grandmaster",
			"legendary grandmaster":     "Legendary Grandmaster",
		}, nil)
	case PlatformCodechef:
		return NewRoleTable(nil, []RatingBucket{
			{Threshold: 0, Role: "1★ Coder"},
			{Threshold: 1400, Role: "2★ Coder"},
			{Threshold: 1600, Role: "3★ Coder"},
			{Threshold: 1800, Role: "4★ Coder"},
			{Threshold: 2000, Role: "5★ Coder"},
			{Threshold: 2200, Role: "6★ Coder"},
			{Threshold: 2500, Role: "7★ Coder"},
		})
	}
	return RoleTable{}
}
