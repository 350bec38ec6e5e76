package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/iho/txledger/internal/domain"
	"github.com/iho/txledger/internal/infrastructure/metrics"
)

// ProcessResult summarises a batch run.
type ProcessResult struct {
	Records    int
	Skipped    int
	Accounts   int
	Disputable int
}

// skipCounter is implemented by sources that drop malformed records.
type skipCounter interface {
	Skipped() int
}

// ProcessUseCase streams a transaction source through the ledger and exports
// the resulting snapshots.
type ProcessUseCase struct {
	ledger  Ledger
	sinks   []SnapshotSink
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

// NewProcessUseCase creates a new ProcessUseCase.
func NewProcessUseCase(ledger Ledger, logger zerolog.Logger, m *metrics.Metrics, sinks ...SnapshotSink) *ProcessUseCase {
	return &ProcessUseCase{
		ledger:  ledger,
		sinks:   sinks,
		logger:  logger,
		metrics: m,
	}
}

// Run applies every record of src in arrival order. It stops early only on a
// read error from src or when ctx is cancelled.
func (uc *ProcessUseCase) Run(ctx context.Context, src TransactionSource) (ProcessResult, error) {
	var result ProcessResult

	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		tx, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return result, fmt.Errorf("failed to read transaction %d: %w", result.Records+1, err)
		}

		uc.ledger.Apply(tx)
		result.Records++
	}

	if sc, ok := src.(skipCounter); ok {
		result.Skipped = sc.Skipped()
		if uc.metrics != nil {
			uc.metrics.RecordsSkipped.Add(float64(result.Skipped))
		}
	}
	result.Accounts = len(uc.ledger.Accounts())
	result.Disputable = uc.ledger.DisputableCount()

	uc.logger.Debug().
		Int("records", result.Records).
		Int("skipped", result.Skipped).
		Int("accounts", result.Accounts).
		Int("disputable", result.Disputable).
		Msg("transactions processed")

	return result, nil
}

// Export writes the current snapshots to every sink concurrently.
func (uc *ProcessUseCase) Export(ctx context.Context) ([]domain.AccountSnapshot, error) {
	snapshots := uc.ledger.Accounts()
	if len(uc.sinks) == 0 {
		return snapshots, nil
	}

	ctx, cancel := context.WithTimeout(ctx, DefaultExportTimeout)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	for _, sink := range uc.sinks {
		g.Go(func() error {
			start := time.Now()
			err := sink.Write(gctx, snapshots)
			if uc.metrics != nil {
				status := "ok"
				if err != nil {
					status = "error"
				}
				uc.metrics.SinkWrites.WithLabelValues(sink.Name(), status).Inc()
				uc.metrics.SinkDuration.WithLabelValues(sink.Name()).Observe(time.Since(start).Seconds())
			}
			if err != nil {
				return fmt.Errorf("sink %s: %w", sink.Name(), err)
			}
			uc.logger.Info().Str("sink", sink.Name()).Int("accounts", len(snapshots)).Msg("snapshots exported")
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return snapshots, err
	}
	return snapshots, nil
}
