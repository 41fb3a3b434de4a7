package repository

import (
	"context"
	"sync"

	"github.com/cplounge/ranksync/internal/domain"
)

// MemoryIdentities is an in-memory Identities implementation with the
// same conflict semantics as the MySQL one. It backs tests and local
// development without a database.
type MemoryIdentities struct {
	mu   sync.RWMutex
	rows map[int64]domain.Identity
}

func NewMemoryIdentities() *MemoryIdentities {
	return &MemoryIdentities{rows: make(map[int64]domain.Identity)}
}

func (m *MemoryIdentities) Upsert(_ context.Context, identity *domain.Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, row := range m.rows {
		if row.Handle != identity.Handle || id == identity.UserID {
			continue
		}
		if row.Verified {
			return domain.ErrHandleTaken
		}
		delete(m.rows, id)
	}

	m.rows[identity.UserID] = *identity
	return nil
}

func (m *MemoryIdentities) Get(_ context.Context, userID int64) (*domain.Identity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	row, ok := m.rows[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &row, nil
}

func (m *MemoryIdentities) GetByHandle(_ context.Context, handle string) (*domain.Identity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, row := range m.rows {
		if row.Handle == handle {
			row := row
			return &row, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MemoryIdentities) Delete(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.rows, userID)
	return nil
}

func (m *MemoryIdentities) ListVerified(_ context.Context) ([]domain.Identity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.Identity, 0, len(m.rows))
	for _, row := range m.rows {
		if row.Verified {
			out = append(out, row)
		}
	}
	return out, nil
}

func (m *MemoryIdentities) PurgeUnverified(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, row := range m.rows {
		if !row.Verified {
			delete(m.rows, id)
		}
	}
	return nil
}
