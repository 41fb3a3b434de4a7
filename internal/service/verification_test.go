package service

import (
	"context"
	"testing"
	"time"

	"github.com/cplounge/ranksync/internal/config"
	"github.com/cplounge/ranksync/internal/domain"
	"github.com/cplounge/ranksync/internal/oracle"
	"github.com/cplounge/ranksync/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const announceChannel = int64(555)

type verifyFixture struct {
	svc       *verificationService
	store     *countingStore
	oracle    *fakeOracle
	messenger *fakeMessenger
	bridge    *fakeBridge
}

func newVerifyFixture(t *testing.T, attempts int, interval time.Duration, ora *fakeOracle) *verifyFixture {
	t.Helper()

	cfg := &config.Config{}
	cfg.Verify.Attempts = attempts
	cfg.Verify.PollInterval = interval
	cfg.Discord.AnnounceChannelID = announceChannel

	store := &countingStore{Identities: repository.NewMemoryIdentities()}
	messenger := newFakeMessenger()
	bridge := newFakeBridge()

	svc := newVerificationService(Deps{
		Logger: zap.NewNop().Sugar(),
		Config: cfg,
		Repos:  &repository.Repositories{Codeforces: store, Codechef: repository.NewMemoryIdentities()},
		Oracles: map[domain.Platform]oracle.Oracle{
			domain.PlatformCodeforces: ora,
		},
		Roles: map[domain.Platform]domain.RoleTable{
			domain.PlatformCodeforces: domain.DefaultRoleTable(domain.PlatformCodeforces),
		},
		Messenger:  messenger,
		RoleBridge: bridge,
	})
	t.Cleanup(svc.Close)

	return &verifyFixture{svc: svc, store: store, oracle: ora, messenger: messenger, bridge: bridge}
}

func TestSessionExpiresWithoutMarker(t *testing.T) {
	ora := &fakeOracle{trueOn: 0}
	f := newVerifyFixture(t, 3, time.Millisecond, ora)

	require.NoError(t, f.svc.Start(context.Background(), domain.PlatformCodeforces, 1, "alice"))

	// Instruction DM, then the expiry DM after all polls fail.
	require.Eventually(t, func() bool {
		return f.messenger.dmCount(1) == 2
	}, time.Second, time.Millisecond)
	assert.True(t, f.messenger.lastDMContains(1, "expired"))

	// The only write is the accept-time unverified row; the expired
	// session itself mutates nothing.
	assert.Equal(t, 1, f.store.upsertCount())

	list, err := f.store.ListVerified(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)

	row, err := f.store.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, row.Verified)
}

func TestSessionConfirmsOnThirdPoll(t *testing.T) {
	ora := &fakeOracle{
		trueOn: 3,
		tiers:  map[string]oracle.Tier{"alice": {Label: "expert", Rating: 1700}},
	}
	f := newVerifyFixture(t, 10, time.Millisecond, ora)

	require.NoError(t, f.svc.Start(context.Background(), domain.PlatformCodeforces, 1, "alice"))

	require.Eventually(t, func() bool {
		list, err := f.store.ListVerified(context.Background())
		return err == nil && len(list) == 1
	}, time.Second, time.Millisecond)

	row, err := f.store.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, row.Verified)
	assert.Equal(t, "expert", row.Tier)
	assert.Equal(t, 1700, row.Rating)

	// Exactly one verified upsert on top of the accept-time row.
	assert.Equal(t, 2, f.store.upsertCount())

	require.Eventually(t, func() bool {
		return len(f.bridge.granted()) == 1
	}, time.Second, time.Millisecond)
	assert.Equal(t, grant{userID: 1, role: "Expert"}, f.bridge.granted()[0])

	require.Eventually(t, func() bool {
		return f.messenger.channelCount(announceChannel) == 1
	}, time.Second, time.Millisecond)
}

func TestSecondSessionRejectedWhilePending(t *testing.T) {
	ora := &fakeOracle{trueOn: 0}
	f := newVerifyFixture(t, 1000, time.Hour, ora)

	require.NoError(t, f.svc.Start(context.Background(), domain.PlatformCodeforces, 1, "alice"))

	err := f.svc.Start(context.Background(), domain.PlatformCodeforces, 1, "alice2")
	assert.ErrorIs(t, err, domain.ErrVerificationInFlight)
}

func TestVerifiedHandleCannotBeHijacked(t *testing.T) {
	ora := &fakeOracle{trueOn: 0}
	f := newVerifyFixture(t, 1000, time.Hour, ora)

	require.NoError(t, f.store.Upsert(context.Background(), &domain.Identity{
		UserID: 99, Handle: "alice", Tier: "expert", Verified: true,
	}))

	err := f.svc.Start(context.Background(), domain.PlatformCodeforces, 1, "alice")
	assert.ErrorIs(t, err, domain.ErrHandleTaken)

	// The rejection released the session slot.
	require.NoError(t, f.svc.Start(context.Background(), domain.PlatformCodeforces, 1, "bob"))
}

func TestMissingRoleStillVerifies(t *testing.T) {
	ora := &fakeOracle{
		trueOn: 1,
		tiers:  map[string]oracle.Tier{"alice": {Label: "expert", Rating: 1700}},
	}
	f := newVerifyFixture(t, 10, time.Millisecond, ora)
	f.bridge.grantErr[1] = domain.ErrRoleNotFound

	require.NoError(t, f.svc.Start(context.Background(), domain.PlatformCodeforces, 1, "alice"))

	require.Eventually(t, func() bool {
		return f.messenger.dmCount(1) == 2
	}, time.Second, time.Millisecond)
	assert.True(t, f.messenger.lastDMContains(1, "does not exist"))

	row, err := f.store.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, row.Verified)
	assert.Empty(t, f.bridge.granted())
}

func TestTierUnavailableAtConfirmation(t *testing.T) {
	// fetchTier failing at confirmation must not undo the
	// verification itself.
	ora := &fakeOracle{trueOn: 1, tiers: map[string]oracle.Tier{}}
	f := newVerifyFixture(t, 10, time.Millisecond, ora)

	require.NoError(t, f.svc.Start(context.Background(), domain.PlatformCodeforces, 1, "alice"))

	require.Eventually(t, func() bool {
		row, err := f.store.Get(context.Background(), 1)
		return err == nil && row.Verified
	}, time.Second, time.Millisecond)

	row, err := f.store.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, domain.TierUnknown, row.Tier)
}
