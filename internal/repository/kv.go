// Package repository provides SQL-backed implementations of the admin
// client's key-value storage.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"

	"github.com/qrchalets/chalets/internal/client/storage"
	"github.com/qrchalets/chalets/internal/db"
)

// SQLStorage implements storage.Storage on the store_entries table.
type SQLStorage struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
	// Dialect selects placeholder syntax.
	Dialect db.Dialect
	// MaxValueSize rejects larger values with storage.ErrQuotaExceeded; 0 is unlimited.
	MaxValueSize int
}

var _ storage.Storage = (*SQLStorage)(nil)

// NewPostgresStorage creates a SQLStorage for a PostgreSQL connection.
func NewPostgresStorage(conn *sql.DB, maxValueSize int) *SQLStorage {
	return &SQLStorage{DB: conn, Dialect: db.Postgres, MaxValueSize: maxValueSize}
}

// NewSQLiteStorage creates a SQLStorage for a SQLite connection.
func NewSQLiteStorage(conn *sql.DB, maxValueSize int) *SQLStorage {
	return &SQLStorage{DB: conn, Dialect: db.SQLite, MaxValueSize: maxValueSize}
}

// GetItem returns the value stored under key, or storage.ErrNotFound.
func (s *SQLStorage) GetItem(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.DB.QueryRowContext(ctx,
		s.Dialect.Rebind(`SELECT value FROM store_entries WHERE key = $1`),
		key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("GetItem failed: %w", err)
	}
	return value, nil
}

// SetItem inserts or replaces the value under key.
// Values larger than MaxValueSize, and backend "storage full" errors, are
// reported as storage.ErrQuotaExceeded.
func (s *SQLStorage) SetItem(ctx context.Context, key string, value []byte) error {
	if s.MaxValueSize > 0 && len(value) > s.MaxValueSize {
		return storage.ErrQuotaExceeded
	}

	_, err := s.DB.ExecContext(ctx, s.Dialect.Rebind(`
		INSERT INTO store_entries (key, value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`), key, value, time.Now().Unix())
	if err != nil {
		if isStorageFull(err) {
			return storage.ErrQuotaExceeded
		}
		return fmt.Errorf("SetItem failed: %w", err)
	}
	return nil
}

// RemoveItem deletes the entry under key.
func (s *SQLStorage) RemoveItem(ctx context.Context, key string) error {
	_, err := s.DB.ExecContext(ctx, s.Dialect.Rebind(`DELETE FROM store_entries WHERE key = $1`), key)
	if err != nil {
		return fmt.Errorf("RemoveItem failed: %w", err)
	}
	return nil
}

// Clear deletes every entry.
func (s *SQLStorage) Clear(ctx context.Context) error {
	if _, err := s.DB.ExecContext(ctx, `DELETE FROM store_entries`); err != nil {
		return fmt.Errorf("Clear failed: %w", err)
	}
	return nil
}

// isStorageFull reports driver errors meaning the database ran out of room:
// PostgreSQL class 53 (insufficient resources) or SQLITE_FULL.
func isStorageFull(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code.Class() == "53"
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code == sqlite3.ErrFull
	}
	return false
}
