// Package dbtest opens the Postgres database named by TEST_DB_DSN for repository tests.
package dbtest

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/AngelG-buaa/DB/internal/db"
)

// Packages run in parallel against the same database; a session advisory lock
// under this key keeps one test at a time between migration and cleanup.
const testLockKey = 7_310_442

// Open migrates the test database, empties every table and returns a pool.
// The test is skipped when TEST_DB_DSN is unset.
func Open(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := db.NewPool(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	lock, err := pool.Acquire(ctx)
	require.NoError(t, err)
	_, err = lock.Exec(ctx, "SELECT pg_advisory_lock($1)", testLockKey)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = lock.Exec(context.Background(), "SELECT pg_advisory_unlock($1)", testLockKey)
		lock.Release()
	})

	require.NoError(t, db.Migrate(pool))
	Truncate(t, pool)
	return pool
}

// Truncate removes every row of the application tables.
func Truncate(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	_, err := pool.Exec(context.Background(),
		"TRUNCATE TABLE public.booking_equipment, public.bookings, public.equipment, public.laboratories, public.users CASCADE")
	require.NoError(t, err)
}
