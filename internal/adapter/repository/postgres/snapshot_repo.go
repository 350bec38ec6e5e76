package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/iho/txledger/internal/domain"
)

const upsertSnapshotSQL = `
INSERT INTO account_snapshots (client_id, available, held, total, locked, run_id, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (client_id) DO UPDATE SET
    available  = EXCLUDED.available,
    held       = EXCLUDED.held,
    total      = EXCLUDED.total,
    locked     = EXCLUDED.locked,
    run_id     = EXCLUDED.run_id,
    updated_at = EXCLUDED.updated_at`

const getSnapshotSQL = `
SELECT available::text, held::text, total::text, locked, run_id
FROM account_snapshots
WHERE client_id = $1`

// SnapshotRepository persists account snapshots to PostgreSQL.
type SnapshotRepository struct {
	pool    pgxPool
	txm     *TxManager
	retrier *Retrier
	runID   string
	now     func() time.Time
}

// NewSnapshotRepository creates a new SnapshotRepository. Every row written
// by it is tagged with runID.
func NewSnapshotRepository(pool *pgxpool.Pool, retrier *Retrier, runID string) *SnapshotRepository {
	return newSnapshotRepositoryWithPool(pool, retrier, runID)
}

func newSnapshotRepositoryWithPool(pool pgxPool, retrier *Retrier, runID string) *SnapshotRepository {
	return &SnapshotRepository{
		pool:    pool,
		txm:     newTxManagerWithPool(pool),
		retrier: retrier,
		runID:   runID,
		now:     time.Now,
	}
}

// Name implements usecase.SnapshotSink.
func (r *SnapshotRepository) Name() string {
	return "postgres"
}

// Write upserts all snapshots in a single transaction. The whole
// transaction is retried on deadlock or serialization failure.
func (r *SnapshotRepository) Write(ctx context.Context, snapshots []domain.AccountSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	updatedAt := r.now().UTC()
	write := func() error {
		return r.txm.WithTx(ctx, func(tx pgx.Tx) error {
			for _, s := range snapshots {
				_, err := tx.Exec(ctx, upsertSnapshotSQL,
					int32(s.ClientID),
					decimalToNumeric(s.Available),
					decimalToNumeric(s.Held),
					decimalToNumeric(s.Total),
					s.Locked,
					r.runID,
					timeToPgTimestamptz(updatedAt),
				)
				if err != nil {
					return fmt.Errorf("failed to upsert snapshot for client %d: %w", s.ClientID, err)
				}
			}
			return nil
		})
	}

	if r.retrier == nil {
		return write()
	}
	return r.retrier.Retry(ctx, write)
}

// Get returns the stored snapshot of a client together with the run that
// wrote it.
func (r *SnapshotRepository) Get(ctx context.Context, clientID uint16) (domain.AccountSnapshot, string, error) {
	var (
		available, held, total string
		locked                 bool
		runID                  string
	)

	err := r.pool.QueryRow(ctx, getSnapshotSQL, int32(clientID)).
		Scan(&available, &held, &total, &locked, &runID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.AccountSnapshot{}, "", domain.ErrAccountNotFound
		}
		return domain.AccountSnapshot{}, "", fmt.Errorf("failed to get snapshot for client %d: %w", clientID, err)
	}

	snapshot := domain.AccountSnapshot{ClientID: clientID, Locked: locked}
	for _, f := range []struct {
		dst *decimal.Decimal
		src string
	}{
		{&snapshot.Available, available},
		{&snapshot.Held, held},
		{&snapshot.Total, total},
	} {
		if *f.dst, err = decimal.NewFromString(f.src); err != nil {
			return domain.AccountSnapshot{}, "", fmt.Errorf("failed to parse stored amount %q: %w", f.src, err)
		}
	}

	return snapshot, runID, nil
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric

	_ = n.Scan(d.String())

	return n
}

func timeToPgTimestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}
