package storage

import (
	"context"
	"sync"
)

// MemoryStorage keeps items in a map. A positive Quota caps the total size
// of keys and values in bytes.
type MemoryStorage struct {
	Quota int

	mu    sync.Mutex
	items map[string][]byte
}

// NewMemoryStorage returns an empty MemoryStorage with the given quota
// (0 means unlimited).
func NewMemoryStorage(quota int) *MemoryStorage {
	return &MemoryStorage{Quota: quota, items: make(map[string][]byte)}
}

func (m *MemoryStorage) GetItem(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.items[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *MemoryStorage) SetItem(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.items == nil {
		m.items = make(map[string][]byte)
	}
	if m.Quota > 0 {
		next := usage(m.items) - len(m.items[key]) + len(value)
		if _, exists := m.items[key]; !exists {
			next += len(key)
		}
		if next > m.Quota {
			return ErrQuotaExceeded
		}
	}
	m.items[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryStorage) RemoveItem(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}

func (m *MemoryStorage) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = make(map[string][]byte)
	return nil
}

// Len returns the number of stored keys.
func (m *MemoryStorage) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}
