package testutil

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/menagerie/menagerie/internal/repository"
	"github.com/menagerie/menagerie/migrations"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

const advisoryLockID int64 = 540540

// AcquireDBLock grabs a global advisory lock to serialize DB tests.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// OpenTestRepository connects to TEST_DATABASE_URL, applies the schema,
// and truncates both tables so each test starts clean. Skips the test
// when the variable is unset.
func OpenTestRepository(ctx context.Context, t testing.TB) *repository.Repository {
	t.Helper()

	databaseURL := RequireEnv(t, "TEST_DATABASE_URL")

	repo, err := repository.New(ctx, databaseURL)
	if err != nil {
		t.Fatalf("connect to test database: %v", err)
	}
	t.Cleanup(repo.Close)

	unlock, err := AcquireDBLock(ctx, repo.Pool())
	if err != nil {
		t.Fatalf("acquire test lock: %v", err)
	}
	t.Cleanup(func() { _ = unlock() })

	if err := repo.EnsureSchema(ctx, migrations.FS); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}

	if _, err := repo.Pool().Exec(ctx, "TRUNCATE animals RESTART IDENTITY"); err != nil {
		t.Fatalf("truncate animals: %v", err)
	}
	if _, err := repo.Pool().Exec(ctx, "TRUNCATE api_keys"); err != nil {
		t.Fatalf("truncate api_keys: %v", err)
	}

	return repo
}
