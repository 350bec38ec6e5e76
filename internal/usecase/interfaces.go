package usecase

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/iho/txledger/internal/domain"
)

// AccountStore owns client accounts. Accounts are returned by value so callers
// never hold a live reference into the store.
type AccountStore interface {
	// GetOrCreate returns the account for clientID, creating an empty one if needed.
	// created reports whether the account did not exist before.
	GetOrCreate(clientID uint16) (account domain.Account, created bool)
	Get(clientID uint16) (domain.Account, error)
	Deposit(clientID uint16, amount decimal.Decimal) error
	Withdraw(clientID uint16, amount decimal.Decimal) error
	Hold(clientID uint16, amount decimal.Decimal, fromAvailable bool) error
	Release(clientID uint16, amount decimal.Decimal) error
	Chargeback(clientID uint16, amount decimal.Decimal) error
	// List returns all accounts ordered by client id.
	List() []domain.Account
}

// DisputeStore owns the index of disputable transactions keyed by transaction id.
type DisputeStore interface {
	// Create stores record unless its id is already taken, in which case it
	// returns domain.ErrDuplicateTransaction and leaves the first record in place.
	Create(record domain.DisputableTransaction) error
	Exists(txID uint32) bool
	Get(txID uint32) (domain.DisputableTransaction, error)
	UpdateStatus(txID uint32, status domain.DisputeStatus) error
	List() []domain.DisputableTransaction
	Len() int
}

// TransactionSource is a lazy sequence of decoded records.
// Next returns io.EOF once the sequence is exhausted.
type TransactionSource interface {
	Next() (domain.Transaction, error)
}

// Ledger is the part of the engine driven by batch processing. It is
// implemented by LedgerUseCase and SyncLedger.
type Ledger interface {
	Apply(tx domain.Transaction)
	Accounts() []domain.AccountSnapshot
	DisputableCount() int
}

// SnapshotSink receives the final account snapshots.
type SnapshotSink interface {
	Name() string
	Write(ctx context.Context, snapshots []domain.AccountSnapshot) error
}
