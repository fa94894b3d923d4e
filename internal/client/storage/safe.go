package storage

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// SafeStorage wraps a backend so that writes never fail the caller.
//
// On ErrQuotaExceeded it clears the backend and retries the write once. If the
// retry fails too, persistence is switched off for the lifetime of the adapter:
// writes are dropped and reads report ErrNotFound. Other write errors are
// logged and swallowed.
type SafeStorage struct {
	backend Storage
	log     *zap.Logger

	mu       sync.Mutex
	disabled bool
}

// NewSafeStorage wraps backend. A nil log is replaced by a no-op logger.
func NewSafeStorage(backend Storage, log *zap.Logger) *SafeStorage {
	if log == nil {
		log = zap.NewNop()
	}
	return &SafeStorage{backend: backend, log: log}
}

// Persistent reports whether writes still reach the backend.
func (s *SafeStorage) Persistent() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.disabled
}

func (s *SafeStorage) GetItem(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disabled {
		return nil, ErrNotFound
	}
	return s.backend.GetItem(ctx, key)
}

func (s *SafeStorage) SetItem(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disabled {
		return nil
	}

	err := s.backend.SetItem(ctx, key, value)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrQuotaExceeded) {
		s.log.Warn("failed to persist item", zap.String("key", key), zap.Error(err))
		return nil
	}

	s.log.Warn("storage quota exceeded, clearing storage", zap.String("key", key))
	if err = s.backend.Clear(ctx); err == nil {
		if err = s.backend.SetItem(ctx, key, value); err == nil {
			return nil
		}
	}

	s.disabled = true
	s.log.Warn("continuing without persistence", zap.String("key", key), zap.Error(err))
	return nil
}

func (s *SafeStorage) RemoveItem(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disabled {
		return nil
	}
	if err := s.backend.RemoveItem(ctx, key); err != nil {
		s.log.Warn("failed to remove item", zap.String("key", key), zap.Error(err))
	}
	return nil
}

func (s *SafeStorage) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disabled {
		return nil
	}
	if err := s.backend.Clear(ctx); err != nil {
		s.log.Warn("failed to clear storage", zap.Error(err))
	}
	return nil
}
