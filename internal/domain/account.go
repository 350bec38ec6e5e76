package domain

import (
	"github.com/shopspring/decimal"
)

// Account is the balance state of a single client.
// Total is never stored; it is always Available + Held.
type Account struct {
	ClientID  uint16
	Available decimal.Decimal
	Held      decimal.Decimal
	Locked    bool
}

// NewAccount returns an empty, unlocked account.
func NewAccount(clientID uint16) *Account {
	return &Account{
		ClientID:  clientID,
		Available: decimal.Zero,
		Held:      decimal.Zero,
	}
}

// Total returns available plus held funds.
func (a *Account) Total() decimal.Decimal {
	return a.Available.Add(a.Held)
}

// Credit adds amount to the available funds. Locked accounts still accept credits.
func (a *Account) Credit(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return ErrInvalidAmount
	}
	a.Available = a.Available.Add(amount)
	return nil
}

// ValidateDebit checks if the account can be debited by amount.
func (a *Account) ValidateDebit(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return ErrInvalidAmount
	}
	if a.Locked {
		return ErrAccountLocked
	}
	if amount.GreaterThan(a.Available) {
		return ErrInsufficientFunds
	}
	return nil
}

// Debit removes amount from the available funds.
func (a *Account) Debit(amount decimal.Decimal) error {
	if err := a.ValidateDebit(amount); err != nil {
		return err
	}
	a.Available = a.Available.Sub(amount)
	return nil
}

// Hold freezes amount. When fromAvailable is false the held funds are added
// without touching Available (disputed withdrawals were already debited).
// Available never goes below zero.
func (a *Account) Hold(amount decimal.Decimal, fromAvailable bool) error {
	if amount.IsNegative() {
		return ErrInvalidAmount
	}
	if a.Locked {
		return ErrAccountLocked
	}
	if fromAvailable {
		if amount.GreaterThan(a.Available) {
			return ErrInsufficientFunds
		}
		a.Available = a.Available.Sub(amount)
	}
	a.Held = a.Held.Add(amount)
	return nil
}

// Release moves amount from held back to available.
func (a *Account) Release(amount decimal.Decimal) error {
	if err := a.validateHeld(amount); err != nil {
		return err
	}
	a.Held = a.Held.Sub(amount)
	a.Available = a.Available.Add(amount)
	return nil
}

// Chargeback removes amount from held and locks the account for good.
func (a *Account) Chargeback(amount decimal.Decimal) error {
	if err := a.validateHeld(amount); err != nil {
		return err
	}
	a.Held = a.Held.Sub(amount)
	a.Locked = true
	return nil
}

func (a *Account) validateHeld(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return ErrInvalidAmount
	}
	if a.Locked {
		return ErrAccountLocked
	}
	if amount.GreaterThan(a.Held) {
		return ErrInsufficientHeldFunds
	}
	return nil
}

// CheckInvariant reports whether the account balances are internally consistent.
func (a *Account) CheckInvariant() error {
	if a.Available.IsNegative() {
		return ErrNegativeAvailableBalance
	}
	if a.Held.IsNegative() {
		return ErrNegativeHeldBalance
	}
	return nil
}

// Snapshot returns the externally visible state of the account.
func (a *Account) Snapshot() AccountSnapshot {
	return AccountSnapshot{
		ClientID:  a.ClientID,
		Available: a.Available,
		Held:      a.Held,
		Total:     a.Total(),
		Locked:    a.Locked,
	}
}

// AccountSnapshot is the output record emitted for every account.
type AccountSnapshot struct {
	ClientID  uint16
	Available decimal.Decimal
	Held      decimal.Decimal
	Total     decimal.Decimal
	Locked    bool
}
