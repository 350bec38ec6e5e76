package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/txledger/internal/domain"
	pgdb "github.com/iho/txledger/internal/infrastructure/postgres"
)

// TestSnapshotRepositoryIntegration runs against the database in
// DATABASE_URL and is skipped when it is unset.
func TestSnapshotRepositoryIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set")
	}

	if err := pgdb.RunMigrations(dbURL, zerolog.Nop()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgdb.NewPool(ctx, dbURL, 2, 1)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx, "TRUNCATE TABLE account_snapshots"); err != nil {
		t.Fatalf("failed to truncate: %v", err)
	}

	gen := NewULIDGenerator()
	first := NewSnapshotRepository(pool, NewRetrier(zerolog.Nop()), gen.Generate())
	if err := first.Write(ctx, []domain.AccountSnapshot{{
		ClientID:  1,
		Available: decimal.RequireFromString("1.5"),
		Held:      decimal.Zero,
		Total:     decimal.RequireFromString("1.5"),
	}}); err != nil {
		t.Fatalf("first write failed: %v", err)
	}

	secondRun := gen.Generate()
	second := NewSnapshotRepository(pool, NewRetrier(zerolog.Nop()), secondRun)
	if err := second.Write(ctx, []domain.AccountSnapshot{{
		ClientID:  1,
		Available: decimal.RequireFromString("0.5"),
		Held:      decimal.RequireFromString("1.0001"),
		Total:     decimal.RequireFromString("1.5001"),
		Locked:    true,
	}}); err != nil {
		t.Fatalf("second write failed: %v", err)
	}

	got, runID, err := second.Get(ctx, 1)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if runID != secondRun {
		t.Fatalf("expected run %s, got %s", secondRun, runID)
	}
	if !got.Held.Equal(decimal.RequireFromString("1.0001")) || !got.Locked {
		t.Fatalf("unexpected snapshot %+v", got)
	}

	if _, _, err := second.Get(ctx, 2); err != domain.ErrAccountNotFound {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}
