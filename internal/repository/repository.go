package repository

import (
	"context"

	"github.com/cplounge/ranksync/internal/domain"

	"github.com/jmoiron/sqlx"
)

type Repositories struct {
	Codeforces Identities
	Codechef   Identities
}

func NewRepositories(db *sqlx.DB) *Repositories {
	return &Repositories{
		Codeforces: newIdentityRepository(db, "codeforces_identities"),
		Codechef:   newIdentityRepository(db, "codechef_identities"),
	}
}

func (r *Repositories) ForPlatform(platform domain.Platform) Identities {
	switch platform {
	case domain.PlatformCodechef:
		return r.Codechef
	default:
		return r.Codeforces
	}
}

// Identities is the per-platform identity store. All mutations are
// single-row and atomic at the storage layer; no multi-row
// transactions are required.
type Identities interface {
	// Upsert writes the identity (insert-or-replace on user_id, last
	// writer wins). It fails with domain.ErrHandleTaken when the
	// handle is already bound to a different verified user.
	Upsert(ctx context.Context, identity *domain.Identity) error

	Get(ctx context.Context, userID int64) (*domain.Identity, error)
	GetByHandle(ctx context.Context, handle string) (*domain.Identity, error)
	Delete(ctx context.Context, userID int64) error

	// ListVerified returns a snapshot of every verified identity,
	// safe to iterate while the store is concurrently mutated.
	ListVerified(ctx context.Context) ([]domain.Identity, error)

	// PurgeUnverified deletes every unverified row. Called once at
	// process start-up, before any session may begin; rows left by
	// sessions that never confirmed are abandoned, not resumed.
	PurgeUnverified(ctx context.Context) error
}
