package domain

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// MaxAmountDigits bounds the number of digits accepted in an amount.
const MaxAmountDigits = 38

var plainDecimal = regexp.MustCompile(`^-?\d+(\.\d+)?$`)

// ParseAmount parses decimal text such as "12", "-0.5" or "3.1415".
// Exponent notation is rejected because a value like 1e7000000 expands to
// millions of digits as soon as it is added or printed.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if !plainDecimal.MatchString(s) {
		return decimal.Decimal{}, fmt.Errorf("%w: %q", ErrMalformedAmount, s)
	}
	if digits := len(strings.TrimLeft(s, "-")) - strings.Count(s, "."); digits > MaxAmountDigits {
		return decimal.Decimal{}, fmt.Errorf("%w: %d digits", ErrMalformedAmount, digits)
	}
	return decimal.NewFromString(s)
}

// Kind is the type of a transaction record.
type Kind uint8

const (
	KindDeposit Kind = iota + 1
	KindWithdrawal
	KindDispute
	KindResolve
	KindChargeback
)

// String returns the wire name of the kind.
func (k Kind) String() string {
	switch k {
	case KindDeposit:
		return "deposit"
	case KindWithdrawal:
		return "withdrawal"
	case KindDispute:
		return "dispute"
	case KindResolve:
		return "resolve"
	case KindChargeback:
		return "chargeback"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Disputable reports whether transactions of this kind can later be disputed.
func (k Kind) Disputable() bool {
	return k == KindDeposit || k == KindWithdrawal
}

// ParseKind parses a wire name, ignoring case and surrounding whitespace.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "deposit":
		return KindDeposit, nil
	case "withdrawal":
		return KindWithdrawal, nil
	case "dispute":
		return KindDispute, nil
	case "resolve":
		return KindResolve, nil
	case "chargeback":
		return KindChargeback, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// Transaction is a single input record.
// Amount is only set for deposits and withdrawals.
type Transaction struct {
	Kind     Kind
	ClientID uint16
	TxID     uint32
	Amount   decimal.NullDecimal
}

// NewDeposit builds a deposit record.
func NewDeposit(clientID uint16, txID uint32, amount decimal.Decimal) Transaction {
	return Transaction{Kind: KindDeposit, ClientID: clientID, TxID: txID, Amount: decimal.NewNullDecimal(amount)}
}

// NewWithdrawal builds a withdrawal record.
func NewWithdrawal(clientID uint16, txID uint32, amount decimal.Decimal) Transaction {
	return Transaction{Kind: KindWithdrawal, ClientID: clientID, TxID: txID, Amount: decimal.NewNullDecimal(amount)}
}

// NewDispute builds a dispute record referencing txID.
func NewDispute(clientID uint16, txID uint32) Transaction {
	return Transaction{Kind: KindDispute, ClientID: clientID, TxID: txID}
}

// NewResolve builds a resolve record referencing txID.
func NewResolve(clientID uint16, txID uint32) Transaction {
	return Transaction{Kind: KindResolve, ClientID: clientID, TxID: txID}
}

// NewChargeback builds a chargeback record referencing txID.
func NewChargeback(clientID uint16, txID uint32) Transaction {
	return Transaction{Kind: KindChargeback, ClientID: clientID, TxID: txID}
}

// Validate checks the record shape.
func (t Transaction) Validate() error {
	switch t.Kind {
	case KindDeposit, KindWithdrawal:
		if !t.Amount.Valid {
			return ErrMissingAmount
		}
		if t.Amount.Decimal.IsNegative() {
			return ErrInvalidAmount
		}
		return nil
	case KindDispute, KindResolve, KindChargeback:
		return nil
	default:
		return ErrUnknownKind
	}
}
