package csvio

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/iho/txledger/internal/domain"
)

// SnapshotHeader is the header row of the output.
var SnapshotHeader = []string{"client", "available", "held", "total", "locked"}

// Writer encodes account snapshots as CSV. It implements usecase.SnapshotSink.
type Writer struct {
	out       io.Writer
	precision int32
}

// NewWriter creates a Writer rendering amounts with precision fractional digits.
func NewWriter(out io.Writer, precision int32) *Writer {
	return &Writer{out: out, precision: precision}
}

// Name identifies the sink.
func (w *Writer) Name() string {
	return "csv"
}

// Write writes the header followed by one row per snapshot.
func (w *Writer) Write(ctx context.Context, snapshots []domain.AccountSnapshot) error {
	cw := csv.NewWriter(w.out)

	if err := cw.Write(SnapshotHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, s := range snapshots {
		if err := ctx.Err(); err != nil {
			return err
		}
		row := []string{
			strconv.FormatUint(uint64(s.ClientID), 10),
			s.Available.StringFixed(w.precision),
			s.Held.StringFixed(w.precision),
			s.Total.StringFixed(w.precision),
			strconv.FormatBool(s.Locked),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write client %d: %w", s.ClientID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
