package memory

import (
	"maps"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/iho/txledger/internal/domain"
)

// AccountRepository implements usecase.AccountStore in memory.
// It is not safe for concurrent use.
type AccountRepository struct {
	accounts map[uint16]*domain.Account
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository() *AccountRepository {
	return &AccountRepository{
		accounts: make(map[uint16]*domain.Account),
	}
}

// GetOrCreate returns a copy of the account, creating it first if needed.
func (r *AccountRepository) GetOrCreate(clientID uint16) (domain.Account, bool) {
	if acc, ok := r.accounts[clientID]; ok {
		return *acc, false
	}
	acc := domain.NewAccount(clientID)
	r.accounts[clientID] = acc
	return *acc, true
}

// Get returns a copy of the account.
func (r *AccountRepository) Get(clientID uint16) (domain.Account, error) {
	acc, ok := r.accounts[clientID]
	if !ok {
		return domain.Account{}, domain.ErrAccountNotFound
	}
	return *acc, nil
}

// Deposit credits available funds.
func (r *AccountRepository) Deposit(clientID uint16, amount decimal.Decimal) error {
	return r.update(clientID, func(acc *domain.Account) error {
		return acc.Credit(amount)
	})
}

// Withdraw debits available funds.
func (r *AccountRepository) Withdraw(clientID uint16, amount decimal.Decimal) error {
	return r.update(clientID, func(acc *domain.Account) error {
		return acc.Debit(amount)
	})
}

// Hold moves funds into held.
func (r *AccountRepository) Hold(clientID uint16, amount decimal.Decimal, fromAvailable bool) error {
	return r.update(clientID, func(acc *domain.Account) error {
		return acc.Hold(amount, fromAvailable)
	})
}

// Release moves held funds back to available.
func (r *AccountRepository) Release(clientID uint16, amount decimal.Decimal) error {
	return r.update(clientID, func(acc *domain.Account) error {
		return acc.Release(amount)
	})
}

// Chargeback removes held funds and locks the account.
func (r *AccountRepository) Chargeback(clientID uint16, amount decimal.Decimal) error {
	return r.update(clientID, func(acc *domain.Account) error {
		return acc.Chargeback(amount)
	})
}

// List returns copies of all accounts ordered by client id.
func (r *AccountRepository) List() []domain.Account {
	ids := slices.Sorted(maps.Keys(r.accounts))
	result := make([]domain.Account, 0, len(ids))
	for _, id := range ids {
		result = append(result, *r.accounts[id])
	}
	return result
}

// update mutates a working copy and stores it only if fn succeeds, so a
// failed operation never leaves a partial change behind.
func (r *AccountRepository) update(clientID uint16, fn func(acc *domain.Account) error) error {
	acc, ok := r.accounts[clientID]
	if !ok {
		return domain.ErrAccountNotFound
	}
	working := *acc
	if err := fn(&working); err != nil {
		return err
	}
	*acc = working
	return nil
}
