package service

import (
	"context"

	"github.com/cplounge/ranksync/internal/cache"
	"github.com/cplounge/ranksync/internal/config"
	"github.com/cplounge/ranksync/internal/domain"
	"github.com/cplounge/ranksync/internal/oracle"
	"github.com/cplounge/ranksync/internal/repository"

	"go.uber.org/zap"
)

// Messenger is the outbound messaging capability of the chat
// connector. Calls may block on the network.
type Messenger interface {
	SendDirect(userID int64, text string) error
	SendToChannel(channelID int64, text string) error
}

// RoleBridge maps tier names onto guild roles and grants them.
type RoleBridge interface {
	// Ready returns domain.ErrGuildUnavailable while the guild cannot
	// be resolved.
	Ready() error

	// Grant assigns the named role to the member. Returns
	// domain.ErrRoleNotFound when the guild has no such role,
	// domain.ErrMemberNotFound when the user is not a member, and
	// domain.ErrGuildUnavailable when the guild cannot be resolved.
	Grant(userID int64, roleName string) error
}

type Services struct {
	Identities     Identities
	Verification   Verification
	Reconciliation Reconciliation
}

type Deps struct {
	Logger     *zap.SugaredLogger
	Config     *config.Config
	Repos      *repository.Repositories
	Oracles    map[domain.Platform]oracle.Oracle
	Roles      map[domain.Platform]domain.RoleTable
	Messenger  Messenger
	RoleBridge RoleBridge
	StatsCache *cache.StatsCache
}

func NewServices(deps Deps) *Services {
	return &Services{
		Identities:     newIdentityService(deps.Repos, deps.Oracles, deps.StatsCache),
		Verification:   newVerificationService(deps),
		Reconciliation: newReconciliationService(deps),
	}
}

type Identities interface {
	Get(ctx context.Context, platform domain.Platform, userID int64) (*domain.Identity, error)
	List(ctx context.Context, platform domain.Platform) ([]domain.Identity, error)

	// Unlink removes the caller's identity. A later verification for
	// the same user starts from a clean slate.
	Unlink(ctx context.Context, platform domain.Platform, userID int64) error

	// Register writes a pre-verified identity, bypassing the
	// ownership check. Admin surface only.
	Register(ctx context.Context, platform domain.Platform, identity *domain.Identity) error

	// Stats returns profile statistics, cached for a short TTL.
	Stats(ctx context.Context, platform domain.Platform, handle string) (*oracle.Stats, error)
}

type Verification interface {
	// Start accepts a verification session for the user and runs its
	// poll loop in the background. Rejects a second session while one
	// is pending for the same user.
	Start(ctx context.Context, platform domain.Platform, userID int64, handle string) error

	// Close cancels every pending session and waits for their loops
	// to exit.
	Close()
}

type Reconciliation interface {
	// ReconcilePlatform re-derives the tier of every verified
	// identity on the platform and applies role/tier changes.
	ReconcilePlatform(ctx context.Context, platform domain.Platform) error
}
