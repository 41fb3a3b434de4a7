// Package oracle defines the read-only view of a remote
// competitive-programming platform. Implementations answer three
// questions for a handle: does its recent activity contain the
// ownership marker, what tier is it, and what do its profile stats
// look like. All calls hit the network and may take seconds; callers
// must never issue them on a path that blocks message dispatch.
package oracle

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable signals a transport or parse failure. The oracle
// degrades to "unknown" rather than crashing the caller.
var ErrUnavailable = errors.New("oracle unavailable")

// Tier is a resolved skill tier: a discrete rank label (Codeforces)
// and/or a numeric rating (CodeChef).
type Tier struct {
	Label  string
	Rating int
}

// Stats are profile statistics surfaced by the info command.
type Stats struct {
	Tier        string `json:"tier"`
	Rating      int    `json:"rating"`
	MaxRating   int    `json:"max_rating"`
	Solved      int    `json:"solved"`
	SolvedWeek  int    `json:"solved_week"`
	Streak      int    `json:"streak"`
	GlobalRank  int    `json:"global_rank,omitempty"`
	CountryRank int    `json:"country_rank,omitempty"`
}

type Oracle interface {
	// CheckOwnershipMarker reports whether the account's recent
	// public activity contains the agreed marker (a failed compile)
	// since the cutoff. Side-effect-free and safe to call repeatedly;
	// any failure reads as false.
	CheckOwnershipMarker(ctx context.Context, handle string, since time.Time) bool

	// FetchTier returns the account's current tier, or ErrUnavailable.
	FetchTier(ctx context.Context, handle string) (Tier, error)

	// FetchActivityStats returns profile statistics, or ErrUnavailable.
	FetchActivityStats(ctx context.Context, handle string) (*Stats, error)
}
