package storage

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore keeps blobs in process memory. A zero capacity means unlimited.
type MemoryStore struct {
	mu       sync.RWMutex
	blobs    map[string][]byte
	capacity int
}

func NewMemoryStore(capacity int) *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte), capacity: capacity}
}

func (m *MemoryStore) Put(ctx context.Context, key string, blob []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.capacity > 0 && len(blob) > m.capacity {
		return fmt.Errorf("%w: %d bytes over %d", ErrQuotaExceeded, len(blob), m.capacity)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[key] = append([]byte(nil), blob...)
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	blob, ok := m.blobs[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), blob...), nil
}

func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, key)
	return nil
}

func (m *MemoryStore) Close() error { return nil }
