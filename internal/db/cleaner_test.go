package db

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestStartStaleEntryCleaner_SweepsOnStart(t *testing.T) {
	dbMock, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	defer dbMock.Close()

	mock.ExpectExec("DELETE FROM store_entries WHERE updated_at < $1 AND key NOT IN ($2)").
		WithArgs(sqlmock.AnyArg(), "qr-chalets-auth-storage").
		WillReturnResult(sqlmock.NewResult(0, 1))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// the ticker never fires within the test; the sweep must already be done
	StartStaleEntryCleaner(ctx, dbMock, Postgres, time.Hour, time.Hour, zap.NewNop(), "qr-chalets-auth-storage")

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("startup sweep did not run: %v", err)
	}
}

func TestStartStaleEntryCleaner_SweepsOnTick(t *testing.T) {
	dbMock, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	defer dbMock.Close()

	for range 2 {
		mock.ExpectExec("DELETE FROM store_entries").
			WithArgs(sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 3))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	StartStaleEntryCleaner(ctx, dbMock, Postgres, 10*time.Millisecond, time.Hour, zap.NewNop())

	time.Sleep(200 * time.Millisecond)
	cancel()

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestStartStaleEntryCleaner_ErrorLogged(t *testing.T) {
	dbMock, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	defer dbMock.Close()

	mock.ExpectExec("DELETE FROM store_entries").
		WithArgs(sqlmock.AnyArg()).
		WillReturnError(fmt.Errorf("db fail"))

	var buf bytes.Buffer
	encCfg := zap.NewDevelopmentEncoderConfig()
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.AddSync(&buf),
		zapcore.ErrorLevel,
	)
	logger := zap.New(core)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	StartStaleEntryCleaner(ctx, dbMock, Postgres, time.Hour, time.Hour, logger)

	out := buf.String()
	if !strings.Contains(out, "failed to clean stale store entries") {
		t.Errorf("expected error log, got:\n%s", out)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestStartStaleEntryCleaner_CanceledContext(t *testing.T) {
	dbMock, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	defer dbMock.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	StartStaleEntryCleaner(ctx, dbMock, Postgres, 10*time.Millisecond, time.Hour, zap.NewNop())
	time.Sleep(50 * time.Millisecond)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unexpected sql calls: %v", err)
	}
}

func TestStaleEntryQuery(t *testing.T) {
	tests := []struct {
		dialect Dialect
		kept    int
		want    string
	}{
		{Postgres, 0, "DELETE FROM store_entries WHERE updated_at < $1"},
		{Postgres, 2, "DELETE FROM store_entries WHERE updated_at < $1 AND key NOT IN ($2, $3)"},
		{SQLite, 0, "DELETE FROM store_entries WHERE updated_at < ?"},
		{SQLite, 2, "DELETE FROM store_entries WHERE updated_at < ? AND key NOT IN (?, ?)"},
	}
	for _, tc := range tests {
		if got := staleEntryQuery(tc.dialect, tc.kept); got != tc.want {
			t.Errorf("staleEntryQuery(%s, %d) = %q; want %q", tc.dialect, tc.kept, got, tc.want)
		}
	}
}

func TestStartStaleEntryCleaner_SQLiteKeepsListedKeys(t *testing.T) {
	conn, err := InitSQLite(filepath.Join(t.TempDir(), "store.db"))
	if err != nil {
		t.Fatalf("InitSQLite failed: %v", err)
	}
	defer conn.Close()

	old := time.Now().Add(-48 * time.Hour).Unix()
	for _, key := range []string{"qr-chalets-admin-storage", "qr-chalets-auth-storage"} {
		if _, err := conn.Exec(`INSERT INTO store_entries (key, value, updated_at) VALUES (?, ?, ?)`, key, []byte("{}"), old); err != nil {
			t.Fatalf("insert %s: %v", key, err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	StartStaleEntryCleaner(ctx, conn, SQLite, time.Hour, 24*time.Hour, zap.NewNop(), "qr-chalets-auth-storage")

	rows, err := conn.Query(`SELECT key FROM store_entries`)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	defer rows.Close()
	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			t.Fatal(err)
		}
		keys = append(keys, k)
	}
	if len(keys) != 1 || keys[0] != "qr-chalets-auth-storage" {
		t.Errorf("remaining keys = %v; want only the auth entry", keys)
	}
}
