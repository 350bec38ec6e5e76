package domain

import (
	"github.com/shopspring/decimal"
)

// DisputeStatus is the position of a disputable transaction in its lifecycle.
type DisputeStatus string

const (
	DisputeStatusNormal      DisputeStatus = "normal"
	DisputeStatusDisputed    DisputeStatus = "disputed"
	DisputeStatusResolved    DisputeStatus = "resolved"
	DisputeStatusChargedBack DisputeStatus = "charged_back"
)

// DisputableTransaction is an accepted deposit or withdrawal that later
// dispute, resolve and chargeback records can reference.
type DisputableTransaction struct {
	TxID     uint32
	ClientID uint16
	Kind     Kind
	Amount   decimal.Decimal
	Status   DisputeStatus
}

// NewDisputableTransaction records an accepted deposit or withdrawal.
func NewDisputableTransaction(tx Transaction) (*DisputableTransaction, error) {
	if !tx.Kind.Disputable() {
		return nil, ErrUnknownKind
	}
	if err := tx.Validate(); err != nil {
		return nil, err
	}
	return &DisputableTransaction{
		TxID:     tx.TxID,
		ClientID: tx.ClientID,
		Kind:     tx.Kind,
		Amount:   tx.Amount.Decimal,
		Status:   DisputeStatusNormal,
	}, nil
}

// NextStatus returns the status reached by applying event, without mutating d.
// Resolved behaves like Normal; ChargedBack is terminal.
func (d *DisputableTransaction) NextStatus(event Kind) (DisputeStatus, error) {
	switch event {
	case KindDispute:
		if d.Status == DisputeStatusNormal || d.Status == DisputeStatusResolved {
			return DisputeStatusDisputed, nil
		}
	case KindResolve:
		if d.Status == DisputeStatusDisputed {
			return DisputeStatusResolved, nil
		}
	case KindChargeback:
		if d.Status == DisputeStatusDisputed {
			return DisputeStatusChargedBack, nil
		}
	default:
		return d.Status, ErrUnknownKind
	}
	return d.Status, ErrInvalidDisputeState
}

// BelongsTo reports whether the transaction is owned by clientID.
func (d *DisputableTransaction) BelongsTo(clientID uint16) bool {
	return d.ClientID == clientID
}
