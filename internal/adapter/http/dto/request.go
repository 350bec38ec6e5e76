package dto

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/iho/txledger/internal/domain"
)

// TransactionRequest is a single transaction record submitted over HTTP.
// Amount accepts either a JSON string or a JSON number, written as plain
// decimal text in both cases.
type TransactionRequest struct {
	Type   string          `json:"type"`
	Client uint16          `json:"client"`
	Tx     uint32          `json:"tx"`
	Amount json.RawMessage `json:"amount,omitempty"`
}

// ToDomain converts the request to a domain transaction and checks its shape.
// Amounts sent with a dispute, resolve or chargeback are ignored.
func (r *TransactionRequest) ToDomain() (domain.Transaction, error) {
	kind, err := domain.ParseKind(r.Type)
	if err != nil {
		return domain.Transaction{}, err
	}

	tx := domain.Transaction{
		Kind:     kind,
		ClientID: r.Client,
		TxID:     r.Tx,
	}
	if kind.Disputable() {
		amount, err := r.amount()
		if err != nil {
			return domain.Transaction{}, err
		}
		tx.Amount = amount
	}

	if err := tx.Validate(); err != nil {
		return domain.Transaction{}, err
	}
	return tx, nil
}

func (r *TransactionRequest) amount() (decimal.NullDecimal, error) {
	raw := bytes.TrimSpace(r.Amount)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return decimal.NullDecimal{}, nil
	}

	text := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return decimal.NullDecimal{}, fmt.Errorf("%w: %w", domain.ErrMalformedAmount, err)
		}
	}

	amount, err := domain.ParseAmount(text)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(amount), nil
}
