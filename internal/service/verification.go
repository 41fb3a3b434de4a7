package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cplounge/ranksync/internal/config"
	"github.com/cplounge/ranksync/internal/domain"
	"github.com/cplounge/ranksync/internal/oracle"
	"github.com/cplounge/ranksync/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// verificationService drives the ownership-verification state machine:
// Pending -> Confirmed | Expired. Sessions are ephemeral; a restart
// abandons them and the start-up purge removes their unverified rows.
type verificationService struct {
	log       *zap.SugaredLogger
	repos     *repository.Repositories
	oracles   map[domain.Platform]oracle.Oracle
	roles     map[domain.Platform]domain.RoleTable
	messenger Messenger
	bridge    RoleBridge

	attempts          int
	pollInterval      time.Duration
	announceChannelID int64

	mu      sync.Mutex
	pending map[int64]struct{}

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func newVerificationService(deps Deps) *verificationService {
	ctx, cancel := context.WithCancel(context.Background())

	var verifyCfg config.Verify
	var announceChannelID int64
	if deps.Config != nil {
		verifyCfg = deps.Config.Verify
		announceChannelID = deps.Config.Discord.AnnounceChannelID
	}

	return &verificationService{
		log:               deps.Logger,
		repos:             deps.Repos,
		oracles:           deps.Oracles,
		roles:             deps.Roles,
		messenger:         deps.Messenger,
		bridge:            deps.RoleBridge,
		attempts:          verifyCfg.Attempts,
		pollInterval:      verifyCfg.PollInterval,
		announceChannelID: announceChannelID,
		pending:           make(map[int64]struct{}),
		ctx:               ctx,
		cancel:            cancel,
	}
}

func (s *verificationService) Start(ctx context.Context, platform domain.Platform, userID int64, handle string) error {
	s.mu.Lock()
	if _, inFlight := s.pending[userID]; inFlight {
		s.mu.Unlock()
		return domain.ErrVerificationInFlight
	}
	s.pending[userID] = struct{}{}
	s.mu.Unlock()

	accepted := false
	defer func() {
		if !accepted {
			s.release(userID)
		}
	}()

	repo := s.repos.ForPlatform(platform)

	existing, err := repo.GetByHandle(ctx, handle)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("handle lookup failed: %w", err)
	}
	if existing != nil && existing.UserID != userID && existing.Verified {
		return domain.ErrHandleTaken
	}

	// The unverified row marks the session as accepted; it is purged
	// at the next start-up if the session never confirms.
	if err := repo.Upsert(ctx, &domain.Identity{
		UserID: userID,
		Handle: handle,
		Tier:   domain.TierUnknown,
	}); err != nil {
		return fmt.Errorf("create unverified identity failed: %w", err)
	}

	deadline := time.Duration(s.attempts) * s.pollInterval
	if err := s.messenger.SendDirect(userID, fmt.Sprintf(
		"To verify ownership of `%s` on %s, submit a solution that fails to compile, then wait. I will check every %s for up to %s.",
		handle, platform, s.pollInterval, deadline,
	)); err != nil {
		s.log.Warnw("verification instruction dm failed", "user_id", userID, "error", err)
	}

	accepted = true
	s.wg.Add(1)
	go s.run(platform, userID, handle, time.Now())

	return nil
}

// run is the poll loop of a single pending session. It owns its
// counters exclusively; the only shared resource it touches is the
// store.
func (s *verificationService) run(platform domain.Platform, userID int64, handle string, since time.Time) {
	defer s.wg.Done()
	defer s.release(userID)

	sessionID := uuid.NewString()
	log := s.log.With("session_id", sessionID, "platform", platform, "user_id", userID, "handle", handle)
	log.Infow("verification session started", "attempts", s.attempts, "interval", s.pollInterval)

	ora := s.oracles[platform]
	timer := time.NewTimer(s.pollInterval)
	defer timer.Stop()

	for attempt := 1; attempt <= s.attempts; attempt++ {
		select {
		case <-s.ctx.Done():
			log.Infow("verification session abandoned on shutdown", "attempt", attempt)
			return
		case <-timer.C:
		}

		if ora.CheckOwnershipMarker(s.ctx, handle, since) {
			log.Infow("ownership marker observed", "attempt", attempt)
			s.confirm(platform, userID, handle, log)
			return
		}

		timer.Reset(s.pollInterval)
	}

	// Expired: no store mutation; the user may simply re-invoke.
	log.Infow("verification session expired")
	if err := s.messenger.SendDirect(userID, fmt.Sprintf(
		"Verification for `%s` expired: no failed compile was observed in time. Run the command again to retry.", handle,
	)); err != nil {
		log.Warnw("expiry dm failed", "error", err)
	}
}

func (s *verificationService) confirm(platform domain.Platform, userID int64, handle string, log *zap.SugaredLogger) {
	identity := &domain.Identity{
		UserID:   userID,
		Handle:   handle,
		Tier:     domain.TierUnknown,
		Verified: true,
	}

	tier, err := s.oracles[platform].FetchTier(s.ctx, handle)
	if err != nil {
		log.Warnw("tier fetch at confirmation failed", "error", err)
	} else {
		identity.Tier = tier.Label
		identity.Rating = tier.Rating
	}

	if err := s.repos.ForPlatform(platform).Upsert(s.ctx, identity); err != nil {
		log.Errorw("verified upsert failed", "error", err)
		s.notify(userID, "Verification failed while saving your identity. Please try again later.", log)
		return
	}

	role, ok := s.roles[platform].Resolve(identity.Tier, identity.Rating)
	if !ok {
		log.Warnw("no role mapping for tier", "tier", identity.Tier, "rating", identity.Rating)
		s.notify(userID, fmt.Sprintf("You are verified as `%s` (%s). No role is mapped for this tier yet.", handle, identity.Tier), log)
		return
	}

	switch err := s.bridge.Grant(userID, role); {
	case errors.Is(err, domain.ErrRoleNotFound):
		// Verification still succeeds; only the grant is skipped.
		log.Warnw("mapped role missing from guild", "role", role)
		s.notify(userID, fmt.Sprintf("You are verified as `%s` (%s), but the `%s` role does not exist in this server, so it was not assigned.", handle, identity.Tier, role), log)
	case err != nil:
		log.Errorw("role grant failed", "role", role, "error", err)
		s.notify(userID, fmt.Sprintf("You are verified as `%s` (%s), but assigning the `%s` role failed.", handle, identity.Tier, role), log)
	default:
		log.Infow("verification confirmed", "tier", identity.Tier, "role", role)
		s.notify(userID, fmt.Sprintf("You are verified as `%s` and the `%s` role has been assigned.", handle, role), log)
		if s.announceChannelID != 0 {
			msg := fmt.Sprintf("<@%d> verified their %s handle `%s` and earned the `%s` role!", userID, platform, handle, role)
			if err := s.messenger.SendToChannel(s.announceChannelID, msg); err != nil {
				log.Warnw("announcement failed", "error", err)
			}
		}
	}
}

func (s *verificationService) notify(userID int64, text string, log *zap.SugaredLogger) {
	if err := s.messenger.SendDirect(userID, text); err != nil {
		log.Warnw("notification dm failed", "error", err)
	}
}

func (s *verificationService) release(userID int64) {
	s.mu.Lock()
	delete(s.pending, userID)
	s.mu.Unlock()
}

func (s *verificationService) Close() {
	s.cancel()
	s.wg.Wait()
}
