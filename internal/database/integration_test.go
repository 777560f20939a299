package database

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Initialize(context.Background(), filepath.Join(t.TempDir(), "gymdesk_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func insertUser(t *testing.T, db DBTX, username string) int64 {
	t.Helper()
	id, err := db.ExecReturningID(context.Background(),
		"INSERT INTO users (username, password_hash, role, created_at) VALUES (?, ?, ?, ?)",
		username, "hash", "member", time.Now().UTC())
	require.NoError(t, err)
	return id
}

func TestMigrationsCreateTables(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := openTestDB(t)
	ctx := context.Background()

	for _, table := range []string{"users", "sessions", "members", "workout_sessions", "workout_completions"} {
		var name string
		err := db.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		assert.NoError(t, err, "table %s", table)
	}

	// Running again must be a no-op
	require.NoError(t, db.RunMigrations(ctx))

	var count int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM migrations").Scan(&count))
	assert.Equal(t, 2, count)
}

func TestWithTxCommitAndRollback(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := openTestDB(t)
	ctx := context.Background()

	err := db.WithTx(ctx, func(tx *Tx) error {
		insertUser(t, tx, "committed")
		return nil
	})
	require.NoError(t, err)

	boom := errors.New("boom")
	err = db.WithTx(ctx, func(tx *Tx) error {
		insertUser(t, tx, "rolled-back")
		return boom
	})
	require.ErrorIs(t, err, boom)

	var count int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE username = ?", "committed").Scan(&count))
	assert.Equal(t, 1, count)
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE username = ?", "rolled-back").Scan(&count))
	assert.Equal(t, 0, count)
}

func TestSQLiteConstraintsAreClassified(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := openTestDB(t)
	ctx := context.Background()
	insertUser(t, db, "taken")

	_, err := db.ExecContext(ctx,
		"INSERT INTO users (username, password_hash, role, created_at) VALUES (?, ?, ?, ?)",
		"taken", "hash", "member", time.Now().UTC())
	require.Error(t, err)
	assert.ErrorIs(t, Classify(db.Dialect, err), ErrUniqueViolation)

	_, err = db.ExecContext(ctx,
		"INSERT INTO members (user_id, tax_number, created_at) VALUES (?, ?, ?)",
		9999, "TAX-1", time.Now().UTC())
	require.Error(t, err)
	assert.ErrorIs(t, Classify(db.Dialect, err), ErrForeignKeyViolation)
}

func TestConcurrentWritersOnUniqueKey(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := openTestDB(t)
	ctx := context.Background()

	const writers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		ok      int
		dupes   int
		unknown []error
	)
	start := make(chan struct{})
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := db.ExecContext(ctx,
				"INSERT INTO users (username, password_hash, role, created_at) VALUES (?, ?, ?, ?)",
				"racer", "hash", "member", time.Now().UTC())
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(Classify(db.Dialect, err), ErrUniqueViolation):
				dupes++
			default:
				unknown = append(unknown, err)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Empty(t, unknown)
	assert.Equal(t, 1, ok)
	assert.Equal(t, writers-1, dupes)
}
