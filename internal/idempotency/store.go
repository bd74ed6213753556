// Package idempotency remembers which purchase an Idempotency-Key produced, so
// a retried POST /bills replays the first result instead of selling twice.
package idempotency

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

var ErrEmptyKey = errors.New("idempotency key is empty")

// MaxKeyLength bounds client supplied keys.
const MaxKeyLength = 128

// Store maps a client key to a purchase id for a limited time.
type Store interface {
	// Lookup reports the purchase id stored for key, if any.
	Lookup(ctx context.Context, key string) (int64, bool, error)
	// Remember stores purchaseID under key unless the key is already taken.
	Remember(ctx context.Context, key string, purchaseID int64) error
	// Forget drops key.
	Forget(ctx context.Context, key string) error
}

// NormalizeKey trims the key and rejects empty or oversized ones.
func NormalizeKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", ErrEmptyKey
	}
	if len(key) > MaxKeyLength {
		return "", errors.New("idempotency key too long")
	}
	return key, nil
}

type memoryEntry struct {
	purchaseID int64
	expires    time.Time
}

// MemoryStore keeps keys in process. Expired keys are dropped lazily.
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memoryEntry
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, now: time.Now, entries: make(map[string]memoryEntry)}
}

var _ Store = (*MemoryStore)(nil)

func (m *MemoryStore) Lookup(_ context.Context, key string) (int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return 0, false, nil
	}
	if !m.now().Before(e.expires) {
		delete(m.entries, key)
		return 0, false, nil
	}
	return e.purchaseID, true, nil
}

func (m *MemoryStore) Remember(_ context.Context, key string, purchaseID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	if e, ok := m.entries[key]; ok && now.Before(e.expires) {
		return nil
	}
	m.entries[key] = memoryEntry{purchaseID: purchaseID, expires: now.Add(m.ttl)}
	return nil
}

func (m *MemoryStore) Forget(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}
