// Package testdb opens a real PostgreSQL database for integration tests.
//
// Tests using it are skipped unless PKSIM_TEST_DB_URL or DATABASE_URL is
// set. The schema is brought up with the embedded migrations once per
// package, and each test runs inside a transaction that is rolled back.
package testdb

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/phrazzld/pksim-api/internal/platform/logger"
	"github.com/phrazzld/pksim-api/internal/platform/postgres"
	"github.com/stretchr/testify/require"
)

// Timeout bounds connection checks and migrations.
const Timeout = 30 * time.Second

var migrateOnce sync.Once

// URL returns the configured test database URL, or "".
func URL() string {
	if u := os.Getenv("PKSIM_TEST_DB_URL"); u != "" {
		return u
	}
	return os.Getenv("DATABASE_URL")
}

// Open connects to the test database, applies migrations and closes the
// pool when t finishes. It skips t when no database is configured.
func Open(t *testing.T) *sql.DB {
	t.Helper()

	url := URL()
	if url == "" {
		t.Skip("PKSIM_TEST_DB_URL or DATABASE_URL not set, skipping integration test")
	}

	db, err := sql.Open("pgx", url)
	require.NoError(t, err, "failed to open test database")
	db.SetMaxOpenConns(10)
	t.Cleanup(func() { _ = db.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), Timeout)
	defer cancel()
	require.NoError(t, db.PingContext(ctx), "test database ping failed")

	var migrateErr error
	migrateOnce.Do(func() {
		log, _ := logger.NewTestLogger(t)
		migrateErr = postgres.Migrate(ctx, db, "up", log)
	})
	require.NoError(t, migrateErr, "failed to migrate test database")

	return db
}

// WithTx runs fn in a transaction that is always rolled back.
func WithTx(t *testing.T, db *sql.DB, fn func(t *testing.T, tx *sql.Tx)) {
	t.Helper()

	tx, err := db.Begin()
	require.NoError(t, err, "failed to begin transaction")
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			t.Logf("rollback failed: %v", err)
		}
	}()

	fn(t, tx)
}
