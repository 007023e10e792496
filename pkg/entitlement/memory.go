package entitlement

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemorySubscriptionStore is an in-memory SubscriptionStore for tests and
// local development.
type MemorySubscriptionStore struct {
	mu   sync.RWMutex
	subs map[uuid.UUID]Subscription
}

// NewMemorySubscriptionStore returns an empty in-memory subscription store.
func NewMemorySubscriptionStore() *MemorySubscriptionStore {
	return &MemorySubscriptionStore{subs: make(map[uuid.UUID]Subscription)}
}

func (m *MemorySubscriptionStore) Get(_ context.Context, userID uuid.UUID) (*Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sub, ok := m.subs[userID]
	if !ok {
		return nil, ErrSubscriptionNotFound
	}
	cp := sub
	return &cp, nil
}

func (m *MemorySubscriptionStore) Save(_ context.Context, sub *Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.subs[sub.UserID] = *sub
	return nil
}
