package usecase

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/txledger/internal/domain"
	"github.com/iho/txledger/internal/infrastructure/metrics"
)

var (
	// ErrInconsistentLedger is returned when an account breaks a balance invariant.
	ErrInconsistentLedger = errors.New("ledger is inconsistent")
)

// LedgerConfig configures a LedgerUseCase.
type LedgerConfig struct {
	// Precision is the number of fractional digits incoming amounts are rounded to
	// when they carry more. Defaults to DefaultAmountPrecision.
	Precision int32
	Logger    *zerolog.Logger
	Metrics   *metrics.Metrics
}

// LedgerUseCase applies transaction records to accounts and drives the
// dispute lifecycle of deposits and withdrawals.
//
// It is a single-writer component; see SyncLedger for concurrent hosts.
type LedgerUseCase struct {
	accounts  AccountStore
	disputes  DisputeStore
	precision int32
	logger    zerolog.Logger
	metrics   *metrics.Metrics
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(accounts AccountStore, disputes DisputeStore, cfg LedgerConfig) *LedgerUseCase {
	if cfg.Precision <= 0 || cfg.Precision > MaxAmountPrecision {
		cfg.Precision = DefaultAmountPrecision
	}
	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	return &LedgerUseCase{
		accounts:  accounts,
		disputes:  disputes,
		precision: cfg.Precision,
		logger:    logger,
		metrics:   cfg.Metrics,
	}
}

// Precision returns the configured amount precision.
func (uc *LedgerUseCase) Precision() int32 {
	return uc.precision
}

// Apply applies a single record. Records whose preconditions do not hold are
// dropped without any state change.
func (uc *LedgerUseCase) Apply(tx domain.Transaction) {
	start := time.Now()
	err := uc.apply(tx)

	if uc.metrics != nil {
		uc.metrics.ApplyDuration.Observe(time.Since(start).Seconds())
	}

	if err != nil {
		uc.reject(tx, err)
		return
	}

	if uc.metrics != nil {
		uc.metrics.TransactionsApplied.WithLabelValues(tx.Kind.String()).Inc()
	}
}

func (uc *LedgerUseCase) apply(tx domain.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}

	if _, created := uc.accounts.GetOrCreate(tx.ClientID); created && uc.metrics != nil {
		uc.metrics.AccountsCreated.Inc()
	}

	switch tx.Kind {
	case domain.KindDeposit:
		return uc.deposit(tx)
	case domain.KindWithdrawal:
		return uc.withdraw(tx)
	case domain.KindDispute, domain.KindResolve, domain.KindChargeback:
		return uc.transition(tx)
	default:
		return domain.ErrUnknownKind
	}
}

func (uc *LedgerUseCase) deposit(tx domain.Transaction) error {
	if uc.disputes.Exists(tx.TxID) {
		return domain.ErrDuplicateTransaction
	}

	amount := uc.normalize(tx.Amount.Decimal)
	if err := uc.accounts.Deposit(tx.ClientID, amount); err != nil {
		return err
	}

	return uc.record(tx, amount)
}

func (uc *LedgerUseCase) withdraw(tx domain.Transaction) error {
	if uc.disputes.Exists(tx.TxID) {
		return domain.ErrDuplicateTransaction
	}

	amount := uc.normalize(tx.Amount.Decimal)
	if err := uc.accounts.Withdraw(tx.ClientID, amount); err != nil {
		return err
	}

	return uc.record(tx, amount)
}

func (uc *LedgerUseCase) record(tx domain.Transaction, amount decimal.Decimal) error {
	tx.Amount = decimal.NewNullDecimal(amount)
	record, err := domain.NewDisputableTransaction(tx)
	if err != nil {
		return err
	}
	return uc.disputes.Create(*record)
}

// transition moves a recorded deposit or withdrawal through the dispute
// lifecycle. The record is copied out of the dispute store, the account is
// mutated by id, and only then is the new status written back.
func (uc *LedgerUseCase) transition(tx domain.Transaction) error {
	record, err := uc.disputes.Get(tx.TxID)
	if err != nil {
		return err
	}
	if !record.BelongsTo(tx.ClientID) {
		return domain.ErrClientMismatch
	}

	next, err := record.NextStatus(tx.Kind)
	if err != nil {
		return err
	}

	switch tx.Kind {
	case domain.KindDispute:
		// A disputed withdrawal was already debited, so only held grows.
		err = uc.accounts.Hold(record.ClientID, record.Amount, record.Kind == domain.KindDeposit)
	case domain.KindResolve:
		err = uc.accounts.Release(record.ClientID, record.Amount)
	case domain.KindChargeback:
		// For a disputed withdrawal this only clears held and locks the
		// account. No compensating credit is made.
		err = uc.accounts.Chargeback(record.ClientID, record.Amount)
	default:
		err = domain.ErrUnknownKind
	}
	if err != nil {
		return err
	}

	if err := uc.disputes.UpdateStatus(record.TxID, next); err != nil {
		return err
	}

	if uc.metrics != nil {
		uc.metrics.DisputeTransitions.WithLabelValues(string(next)).Inc()
		if next == domain.DisputeStatusChargedBack {
			uc.metrics.AccountsLocked.Inc()
		}
	}

	return nil
}

// normalize rounds amounts that carry more fractional digits than the
// configured precision. Amounts with fewer digits keep their scale.
func (uc *LedgerUseCase) normalize(amount decimal.Decimal) decimal.Decimal {
	if amount.Exponent() < -uc.precision {
		return amount.Round(uc.precision)
	}
	return amount
}

func (uc *LedgerUseCase) reject(tx domain.Transaction, err error) {
	reason := RejectReason(err)

	if uc.metrics != nil {
		uc.metrics.TransactionsRejected.WithLabelValues(tx.Kind.String(), reason).Inc()
	}

	event := uc.logger.Debug()
	if errors.Is(err, domain.ErrInsufficientFunds) || errors.Is(err, domain.ErrAccountLocked) {
		event = uc.logger.Warn()
	}
	event.
		Err(err).
		Str("kind", tx.Kind.String()).
		Uint16("client", tx.ClientID).
		Uint32("tx", tx.TxID).
		Str("reason", reason).
		Msg("transaction ignored")
}

// Account returns the snapshot of a single account.
func (uc *LedgerUseCase) Account(clientID uint16) (domain.AccountSnapshot, error) {
	account, err := uc.accounts.Get(clientID)
	if err != nil {
		return domain.AccountSnapshot{}, err
	}
	return account.Snapshot(), nil
}

// Accounts returns snapshots of every account ordered by client id.
func (uc *LedgerUseCase) Accounts() []domain.AccountSnapshot {
	accounts := uc.accounts.List()
	snapshots := make([]domain.AccountSnapshot, len(accounts))
	for i := range accounts {
		snapshots[i] = accounts[i].Snapshot()
	}
	return snapshots
}

// DisputableCount returns the number of recorded deposits and withdrawals.
func (uc *LedgerUseCase) DisputableCount() int {
	return uc.disputes.Len()
}

// CheckConsistency verifies that no balance is negative and that every
// client's held funds equal the sum of its currently disputed transactions.
func (uc *LedgerUseCase) CheckConsistency() (bool, error) {
	disputed := make(map[uint16]decimal.Decimal)
	for _, record := range uc.disputes.List() {
		if record.Status == domain.DisputeStatusDisputed {
			disputed[record.ClientID] = disputed[record.ClientID].Add(record.Amount)
		}
	}

	for _, account := range uc.accounts.List() {
		if err := account.CheckInvariant(); err != nil {
			return false, fmt.Errorf("%w: client %d: %w", ErrInconsistentLedger, account.ClientID, err)
		}
		if !account.Held.Equal(disputed[account.ClientID]) {
			return false, fmt.Errorf("%w: client %d: held %s does not match disputed %s",
				ErrInconsistentLedger, account.ClientID, account.Held, disputed[account.ClientID])
		}
	}

	return true, nil
}

// RejectReason maps a rejection error to a short label.
func RejectReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, domain.ErrAccountLocked):
		return "account_locked"
	case errors.Is(err, domain.ErrDuplicateTransaction):
		return "duplicate"
	case errors.Is(err, domain.ErrTransactionNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrClientMismatch):
		return "client_mismatch"
	case errors.Is(err, domain.ErrInvalidDisputeState):
		return "invalid_state"
	case errors.Is(err, domain.ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, domain.ErrMissingAmount):
		return "missing_amount"
	case errors.Is(err, domain.ErrUnknownKind):
		return "unknown_kind"
	default:
		return "other"
	}
}
