package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/qrchalets/chalets/internal/client/storage"
	"github.com/qrchalets/chalets/internal/client/store"
	"github.com/qrchalets/chalets/internal/db"
	"github.com/qrchalets/chalets/internal/repository"
)

const (
	// storageQuota mirrors the usual per-origin browser limit.
	storageQuota = 5 << 20

	cleanInterval  = time.Hour
	cleanRetention = 30 * 24 * time.Hour
)

func defaultStorePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "chalets-admin.json"
	}
	return filepath.Join(dir, "chalets-admin", "store.json")
}

// openStorage picks the cache backend from location. SQL backends are swept
// of stale entries once on open, the session excepted, and then periodically
// until the returned close func is called.
func openStorage(ctx context.Context, location string, log *zap.Logger) (storage.Storage, func(), error) {
	switch {
	case strings.HasPrefix(location, "postgres://"), strings.HasPrefix(location, "postgresql://"):
		conn, err := db.InitPostgres(location)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres store: %w", err)
		}
		cctx, cancel := context.WithCancel(ctx)
		db.StartStaleEntryCleaner(cctx, conn, db.Postgres, cleanInterval, cleanRetention, log, store.AuthStorageKey)
		return repository.NewPostgresStorage(conn, storageQuota), func() {
			cancel()
			_ = conn.Close()
		}, nil

	case strings.HasPrefix(location, "sqlite://"):
		conn, err := db.InitSQLite(strings.TrimPrefix(location, "sqlite://"))
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite store: %w", err)
		}
		cctx, cancel := context.WithCancel(ctx)
		db.StartStaleEntryCleaner(cctx, conn, db.SQLite, cleanInterval, cleanRetention, log, store.AuthStorageKey)
		return repository.NewSQLiteStorage(conn, storageQuota), func() {
			cancel()
			_ = conn.Close()
		}, nil

	default:
		if dir := filepath.Dir(location); dir != "." {
			if err := os.MkdirAll(dir, 0o700); err != nil {
				return nil, nil, fmt.Errorf("create store directory: %w", err)
			}
		}
		return storage.NewFileStorage(location, storageQuota), func() {}, nil
	}
}
