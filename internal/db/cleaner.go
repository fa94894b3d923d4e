package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// StartStaleEntryCleaner deletes store entries not written for longer than
// retention. It sweeps once before returning, then every interval until ctx
// is done. Entries whose key is in keep are never deleted.
func StartStaleEntryCleaner(
	ctx context.Context,
	db *sql.DB,
	dialect Dialect,
	interval time.Duration,
	retention time.Duration,
	log *zap.Logger,
	keep ...string,
) {
	query := staleEntryQuery(dialect, len(keep))
	sweep := func() {
		args := make([]any, 0, len(keep)+1)
		args = append(args, time.Now().Add(-retention).Unix())
		for _, k := range keep {
			args = append(args, k)
		}
		res, err := db.ExecContext(ctx, query, args...)
		if err != nil {
			log.Error("failed to clean stale store entries", zap.Error(err))
			return
		}
		if rows, _ := res.RowsAffected(); rows > 0 {
			log.Info("cleaned stale store entries", zap.Int64("removed", rows))
		}
	}

	if ctx.Err() != nil {
		return
	}
	sweep()

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sweep()
			}
		}
	}()
}

func staleEntryQuery(dialect Dialect, kept int) string {
	query := `DELETE FROM store_entries WHERE updated_at < $1`
	if kept > 0 {
		placeholders := make([]string, kept)
		for i := range placeholders {
			placeholders[i] = fmt.Sprintf("$%d", i+2)
		}
		query += ` AND key NOT IN (` + strings.Join(placeholders, ", ") + `)`
	}
	return dialect.Rebind(query)
}
