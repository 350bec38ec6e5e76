// Package csvio decodes transaction records from CSV and encodes account
// snapshots back to CSV.
package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/txledger/internal/domain"
)

// Column names of the input header.
const (
	ColumnType   = "type"
	ColumnClient = "client"
	ColumnTx     = "tx"
	ColumnAmount = "amount"
)

var (
	// ErrMissingColumn is returned when the header lacks a required column.
	ErrMissingColumn = errors.New("missing required column")
	// ErrMalformedRecord wraps every per-row decoding failure.
	ErrMalformedRecord = errors.New("malformed record")
)

// Reader lazily decodes transactions. Malformed rows are logged and skipped;
// only I/O errors and a bad header stop the stream.
type Reader struct {
	csv     *csv.Reader
	logger  zerolog.Logger
	columns map[string]int
	row     int
	skipped int
}

// NewReader creates a Reader over r.
func NewReader(r io.Reader, logger zerolog.Logger) *Reader {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	return &Reader{
		csv:    cr,
		logger: logger,
	}
}

// Next returns the next well-formed transaction, or io.EOF.
func (r *Reader) Next() (domain.Transaction, error) {
	if r.columns == nil {
		if err := r.readHeader(); err != nil {
			return domain.Transaction{}, err
		}
	}

	for {
		fields, err := r.csv.Read()
		r.row++
		if errors.Is(err, io.EOF) {
			return domain.Transaction{}, io.EOF
		}

		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			r.skip(err)
			continue
		}
		if err != nil {
			return domain.Transaction{}, fmt.Errorf("failed to read row %d: %w", r.row, err)
		}

		tx, err := r.decode(fields)
		if err != nil {
			r.skip(err)
			continue
		}
		return tx, nil
	}
}

// Skipped returns the number of malformed rows dropped so far.
func (r *Reader) Skipped() int {
	return r.skipped
}

func (r *Reader) readHeader() error {
	header, err := r.csv.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return io.EOF
		}
		return fmt.Errorf("failed to read header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{ColumnType, ColumnClient, ColumnTx} {
		if _, ok := columns[required]; !ok {
			return fmt.Errorf("%w: %s", ErrMissingColumn, required)
		}
	}

	r.columns = columns
	r.row = 1
	return nil
}

func (r *Reader) decode(fields []string) (domain.Transaction, error) {
	kind, err := domain.ParseKind(r.field(fields, ColumnType))
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("%w: %w", ErrMalformedRecord, err)
	}

	client, err := strconv.ParseUint(r.field(fields, ColumnClient), 10, 16)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("%w: client: %w", ErrMalformedRecord, err)
	}

	txID, err := strconv.ParseUint(r.field(fields, ColumnTx), 10, 32)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("%w: tx: %w", ErrMalformedRecord, err)
	}

	tx := domain.Transaction{
		Kind:     kind,
		ClientID: uint16(client),
		TxID:     uint32(txID),
	}

	// Amounts on dispute, resolve and chargeback rows are ignored.
	if kind.Disputable() {
		raw := r.field(fields, ColumnAmount)
		if raw == "" {
			return domain.Transaction{}, fmt.Errorf("%w: %w", ErrMalformedRecord, domain.ErrMissingAmount)
		}
		amount, err := domain.ParseAmount(raw)
		if err != nil {
			return domain.Transaction{}, fmt.Errorf("%w: amount: %w", ErrMalformedRecord, err)
		}
		tx.Amount = decimal.NewNullDecimal(amount)
	}

	if err := tx.Validate(); err != nil {
		return domain.Transaction{}, fmt.Errorf("%w: %w", ErrMalformedRecord, err)
	}

	return tx, nil
}

func (r *Reader) field(fields []string, column string) string {
	i, ok := r.columns[column]
	if !ok || i >= len(fields) {
		return ""
	}
	return strings.TrimSpace(fields[i])
}

func (r *Reader) skip(err error) {
	r.skipped++
	r.logger.Warn().Err(err).Int("row", r.row).Msg("skipping malformed record")
}
