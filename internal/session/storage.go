package session

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNotFound signals the session id has no durable record.
var ErrNotFound = errors.New("session: not found")

// Storage is the durable key/value store behind the session manager.
type Storage interface {
	Get(ctx context.Context, sid string) ([]byte, error)
	Set(ctx context.Context, sid string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, sid string) error
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryStorage keeps records in process memory. Used by tests and by
// single-instance deployments without Redis.
type MemoryStorage struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{entries: make(map[string]memoryEntry)}
}

func (m *MemoryStorage) Get(_ context.Context, sid string) ([]byte, error) {
	m.mu.RLock()
	e, ok := m.entries[sid]
	m.mu.RUnlock()
	if !ok || (!e.expiresAt.IsZero() && time.Now().After(e.expiresAt)) {
		return nil, ErrNotFound
	}
	return e.data, nil
}

func (m *MemoryStorage) Set(_ context.Context, sid string, data []byte, ttl time.Duration) error {
	var exp time.Time
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}
	m.mu.Lock()
	m.entries[sid] = memoryEntry{data: data, expiresAt: exp}
	m.mu.Unlock()
	return nil
}

func (m *MemoryStorage) Delete(_ context.Context, sid string) error {
	m.mu.Lock()
	delete(m.entries, sid)
	m.mu.Unlock()
	return nil
}
