package repository

import (
	"context"
	"testing"
	"time"

	"github.com/cplounge/ranksync/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryIdentitiesRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryIdentities()

	checked := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	identity := &domain.Identity{
		UserID:      42,
		Handle:      "tourist",
		Tier:        "legendary grandmaster",
		Rating:      3800,
		Verified:    true,
		LastChecked: &checked,
	}
	require.NoError(t, store.Upsert(ctx, identity))

	got, err := store.Get(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, identity, got)

	byHandle, err := store.GetByHandle(ctx, "tourist")
	require.NoError(t, err)
	assert.Equal(t, identity, byHandle)
}

func TestMemoryIdentitiesDeleteThenGet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryIdentities()

	require.NoError(t, store.Upsert(ctx, &domain.Identity{UserID: 1, Handle: "alice", Verified: true}))
	require.NoError(t, store.Delete(ctx, 1))

	_, err := store.Get(ctx, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// A fresh verification for the same user starts from scratch.
	require.NoError(t, store.Upsert(ctx, &domain.Identity{UserID: 1, Handle: "alice", Tier: domain.TierUnknown}))
	got, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.False(t, got.Verified)
}

func TestMemoryIdentitiesHandleConflict(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryIdentities()

	require.NoError(t, store.Upsert(ctx, &domain.Identity{UserID: 1, Handle: "alice", Verified: true}))

	// A verified binding blocks the handle for everyone else.
	err := store.Upsert(ctx, &domain.Identity{UserID: 2, Handle: "alice"})
	assert.ErrorIs(t, err, domain.ErrHandleTaken)

	// An abandoned unverified binding does not.
	require.NoError(t, store.Upsert(ctx, &domain.Identity{UserID: 3, Handle: "bob", Verified: false}))
	require.NoError(t, store.Upsert(ctx, &domain.Identity{UserID: 4, Handle: "bob", Verified: true}))

	_, err = store.Get(ctx, 3)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	got, err := store.GetByHandle(ctx, "bob")
	require.NoError(t, err)
	assert.EqualValues(t, 4, got.UserID)
}

func TestMemoryIdentitiesUpsertIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryIdentities()

	identity := &domain.Identity{UserID: 7, Handle: "carol", Tier: "pupil", Verified: true}
	require.NoError(t, store.Upsert(ctx, identity))
	require.NoError(t, store.Upsert(ctx, identity))

	list, err := store.ListVerified(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestMemoryIdentitiesPurgeUnverified(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryIdentities()

	require.NoError(t, store.Upsert(ctx, &domain.Identity{UserID: 1, Handle: "a", Verified: true}))
	require.NoError(t, store.Upsert(ctx, &domain.Identity{UserID: 2, Handle: "b", Verified: false}))
	require.NoError(t, store.Upsert(ctx, &domain.Identity{UserID: 3, Handle: "c", Verified: false}))

	require.NoError(t, store.PurgeUnverified(ctx))

	list, err := store.ListVerified(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.EqualValues(t, 1, list[0].UserID)

	_, err = store.Get(ctx, 2)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
