// Package testutil opens a migrated Postgres pool for repository contract tests.
package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Mikbal34/muhasebe-sub003/internal/migrations"
)

// OpenMigratedPool opens a pool against PG_DSN, resets the public schema and
// applies the embedded migrations. Tests are skipped when PG_DSN is unset.
//
// It is destructive: never point PG_DSN at a database you care about. Every
// package shares the one schema, so run contract tests with go test -p 1.
func OpenMigratedPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv("PG_DSN")
	if dsn == "" {
		t.Skip("PG_DSN not set; skipping Postgres contract tests")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect postgres: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("ping postgres: %v", err)
	}
	if _, err := pool.Exec(ctx, `DROP SCHEMA IF EXISTS public CASCADE; CREATE SCHEMA public;`); err != nil {
		t.Fatalf("reset schema: %v", err)
	}

	runner, err := migrations.NewRunner(dsn)
	if err != nil {
		t.Fatalf("migrations: %v", err)
	}
	defer func() { _ = runner.Close() }()
	if err := runner.Up(); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return pool
}
