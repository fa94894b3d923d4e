// Package storage provides the key-value persistence used by the admin
// client stores, plus an adapter that survives quota errors.
package storage

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by GetItem when the key is absent.
	ErrNotFound = errors.New("storage: key not found")
	// ErrQuotaExceeded is returned by SetItem when the backend is full.
	ErrQuotaExceeded = errors.New("storage: quota exceeded")
)

// Storage is a string-keyed blob store.
type Storage interface {
	// GetItem returns the value stored under key or ErrNotFound.
	GetItem(ctx context.Context, key string) ([]byte, error)
	// SetItem stores value under key, replacing any previous value.
	SetItem(ctx context.Context, key string, value []byte) error
	// RemoveItem deletes key. Removing a missing key is not an error.
	RemoveItem(ctx context.Context, key string) error
	// Clear deletes every key.
	Clear(ctx context.Context) error
}

func usage(items map[string][]byte) int {
	n := 0
	for k, v := range items {
		n += len(k) + len(v)
	}
	return n
}
