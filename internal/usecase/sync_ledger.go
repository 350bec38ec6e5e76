package usecase

import (
	"sync"

	"github.com/iho/txledger/internal/domain"
)

// SyncLedger serialises access to a LedgerUseCase so it can be shared by
// concurrent callers. The account store and the dispute index sit behind the
// same mutex, which keeps a single writer per account.
type SyncLedger struct {
	mu     sync.Mutex
	ledger *LedgerUseCase
}

// NewSyncLedger wraps ledger.
func NewSyncLedger(ledger *LedgerUseCase) *SyncLedger {
	return &SyncLedger{ledger: ledger}
}

// Apply applies tx under the ledger lock.
func (s *SyncLedger) Apply(tx domain.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledger.Apply(tx)
}

// Account returns the snapshot of a single account.
func (s *SyncLedger) Account(clientID uint16) (domain.AccountSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Account(clientID)
}

// Accounts returns snapshots of every account ordered by client id.
func (s *SyncLedger) Accounts() []domain.AccountSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Accounts()
}

// CheckConsistency runs the ledger consistency check under the lock.
func (s *SyncLedger) CheckConsistency() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.CheckConsistency()
}

// DisputableCount returns the number of recorded deposits and withdrawals.
func (s *SyncLedger) DisputableCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.DisputableCount()
}

// Precision returns the configured amount precision.
func (s *SyncLedger) Precision() int32 {
	return s.ledger.Precision()
}
