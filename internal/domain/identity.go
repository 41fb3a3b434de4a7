package domain

import (
	"fmt"
	"strings"
	"time"
)

// Platform identifies the remote competitive-programming site an
// identity is linked to. Each platform gets its own table and oracle.
type Platform string

const (
	PlatformCodeforces Platform = "codeforces"
	PlatformCodechef   Platform = "codechef"
)

func ParsePlatform(s string) (Platform, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "codeforces", "cf":
		return PlatformCodeforces, nil
	case "codechef", "cc":
		return PlatformCodechef, nil
	}
	return "", fmt.Errorf("unknown platform %q", s)
}

// TierUnknown is the tier of an identity whose rank has not been
// resolved from the oracle yet.
const TierUnknown = "Unknown"

// Identity links a Discord user to a platform handle. A row with
// Verified=false is an in-progress or abandoned verification and is
// never treated as authoritative; such rows are purged at start-up.
type Identity struct {
	UserID      int64      `db:"user_id" json:"user_id"`
	Handle      string     `db:"handle" json:"handle"`
	Tier        string     `db:"tier" json:"tier"`
	Rating      int        `db:"rating" json:"rating"`
	Verified    bool       `db:"verified" json:"verified"`
	LastChecked *time.Time `db:"last_checked" json:"last_checked,omitempty"`
}
