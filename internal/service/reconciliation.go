package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cplounge/ranksync/internal/domain"
	"github.com/cplounge/ranksync/internal/oracle"
	"github.com/cplounge/ranksync/internal/repository"

	"go.uber.org/zap"
)

// reconciliationService re-derives stored tiers from the oracle and
// applies role/tier changes. Identities are processed sequentially to
// bound the outbound request rate; one identity's failure never
// aborts the pass. Role changes are additive only: a tier drop keeps
// the old role (achievement badges are not revoked).
type reconciliationService struct {
	log     *zap.SugaredLogger
	repos   *repository.Repositories
	oracles map[domain.Platform]oracle.Oracle
	roles   map[domain.Platform]domain.RoleTable
	bridge  RoleBridge
}

func newReconciliationService(deps Deps) *reconciliationService {
	return &reconciliationService{
		log:     deps.Logger,
		repos:   deps.Repos,
		oracles: deps.Oracles,
		roles:   deps.Roles,
		bridge:  deps.RoleBridge,
	}
}

func (s *reconciliationService) ReconcilePlatform(ctx context.Context, platform domain.Platform) error {
	if err := s.bridge.Ready(); err != nil {
		// Skip the whole tick; the next scheduled one retries
		// independently, no catch-up.
		s.log.Warnw("reconciliation tick skipped", "platform", platform, "error", err)
		return err
	}

	repo := s.repos.ForPlatform(platform)
	identities, err := repo.ListVerified(ctx)
	if err != nil {
		return fmt.Errorf("list verified identities failed: %w", err)
	}

	log := s.log.With("platform", platform)
	log.Infow("reconciliation tick started", "identities", len(identities))

	updated := 0
	for _, identity := range identities {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if s.reconcileOne(ctx, platform, repo, identity, log) {
			updated++
		}
	}

	log.Infow("reconciliation tick finished", "updated", updated)
	return nil
}

// reconcileOne applies at-most-the-necessary changes for a single
// identity and reports whether the stored row was mutated.
func (s *reconciliationService) reconcileOne(ctx context.Context, platform domain.Platform, repo repository.Identities, identity domain.Identity, log *zap.SugaredLogger) bool {
	tier, err := s.oracles[platform].FetchTier(ctx, identity.Handle)
	if err != nil {
		// Oracle degraded to unknown; leave the stored tier alone.
		log.Debugw("tier fetch failed, skipping", "handle", identity.Handle, "error", err)
		return false
	}

	if tier.Label == identity.Tier && tier.Rating == identity.Rating {
		return false
	}

	role, ok := s.roles[platform].Resolve(tier.Label, tier.Rating)
	if !ok {
		log.Warnw("no role mapping for new tier", "handle", identity.Handle, "tier", tier.Label, "rating", tier.Rating)
		return false
	}

	switch err := s.bridge.Grant(identity.UserID, role); {
	case errors.Is(err, domain.ErrMemberNotFound):
		// Left the server; keep the row, they may return.
		return false
	case errors.Is(err, domain.ErrRoleNotFound):
		log.Warnw("mapped role missing from guild", "handle", identity.Handle, "role", role)
		return false
	case err != nil:
		log.Errorw("role grant failed", "handle", identity.Handle, "role", role, "error", err)
		return false
	}

	now := time.Now()
	identity.Tier = tier.Label
	identity.Rating = tier.Rating
	identity.LastChecked = &now
	if err := repo.Upsert(ctx, &identity); err != nil {
		log.Errorw("tier update failed", "handle", identity.Handle, "error", err)
		return false
	}

	log.Infow("tier updated", "handle", identity.Handle, "tier", tier.Label, "role", role)
	return true
}
