package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cplounge/ranksync/internal/domain"
	"github.com/cplounge/ranksync/internal/oracle"
	"github.com/cplounge/ranksync/internal/repository"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeOracle struct {
	mu          sync.Mutex
	markerCalls int
	trueOn      int // marker reads true from this call on; 0 = never

	tiers    map[string]oracle.Tier // per-handle tier; absent = unavailable
	tierCall int
}

func (f *fakeOracle) CheckOwnershipMarker(_ context.Context, _ string, _ time.Time) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markerCalls++
	return f.trueOn > 0 && f.markerCalls >= f.trueOn
}

func (f *fakeOracle) FetchTier(_ context.Context, handle string) (oracle.Tier, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tierCall++
	tier, ok := f.tiers[handle]
	if !ok {
		return oracle.Tier{}, oracle.ErrUnavailable
	}
	return tier, nil
}

func (f *fakeOracle) FetchActivityStats(_ context.Context, _ string) (*oracle.Stats, error) {
	return nil, oracle.ErrUnavailable
}

func (f *fakeOracle) tierCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tierCall
}

type fakeMessenger struct {
	mu       sync.Mutex
	direct   map[int64][]string
	channels map[int64][]string
}

func newFakeMessenger() *fakeMessenger {
	return &fakeMessenger{
		direct:   make(map[int64][]string),
		channels: make(map[int64][]string),
	}
}

func (f *fakeMessenger) SendDirect(userID int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.direct[userID] = append(f.direct[userID], text)
	return nil
}

func (f *fakeMessenger) SendToChannel(channelID int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.channels[channelID] = append(f.channels[channelID], text)
	return nil
}

func (f *fakeMessenger) dmCount(userID int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.direct[userID])
}

func (f *fakeMessenger) lastDMContains(userID int64, substr string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	msgs := f.direct[userID]
	if len(msgs) == 0 {
		return false
	}
	return strings.Contains(msgs[len(msgs)-1], substr)
}

func (f *fakeMessenger) channelCount(channelID int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.channels[channelID])
}

type grant struct {
	userID int64
	role   string
}

type fakeBridge struct {
	mu       sync.Mutex
	readyErr error
	grantErr map[int64]error // per-user grant outcome
	grants   []grant
}

func newFakeBridge() *fakeBridge {
	return &fakeBridge{grantErr: make(map[int64]error)}
}

func (f *fakeBridge) Ready() error {
	return f.readyErr
}

func (f *fakeBridge) Grant(userID int64, roleName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.grantErr[userID]; err != nil {
		return err
	}
	f.grants = append(f.grants, grant{userID: userID, role: roleName})
	return nil
}

func (f *fakeBridge) granted() []grant {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]grant, len(f.grants))
	copy(out, f.grants)
	return out
}

// countingStore wraps an Identities store and counts writes.
type countingStore struct {
	repository.Identities

	mu      sync.Mutex
	upserts int
}

func (c *countingStore) Upsert(ctx context.Context, identity *domain.Identity) error {
	c.mu.Lock()
	c.upserts++
	c.mu.Unlock()
	return c.Identities.Upsert(ctx, identity)
}

func (c *countingStore) reset() {
	c.mu.Lock()
	c.upserts = 0
	c.mu.Unlock()
}

func (c *countingStore) upsertCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.upserts
}
