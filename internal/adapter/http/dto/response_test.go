package dto

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iho/txledger/internal/domain"
)

func TestAccountFromSnapshot(t *testing.T) {
	s := domain.AccountSnapshot{
		ClientID:  7,
		Available: decimal.RequireFromString("1.5"),
		Held:      decimal.RequireFromString("0.00005"),
		Total:     decimal.RequireFromString("1.50005"),
		Locked:    true,
	}

	got := AccountFromSnapshot(s, 4)
	want := AccountResponse{Client: 7, Available: "1.5000", Held: "0.0001", Total: "1.5001", Locked: true}
	if got != want {
		t.Fatalf("AccountFromSnapshot() = %+v, want %+v", got, want)
	}
}

func TestTransactionAccepted(t *testing.T) {
	got := TransactionAccepted(domain.NewChargeback(3, 4294967295))
	if got.Status != "accepted" || got.Type != "chargeback" || got.Client != 3 || got.Tx != 4294967295 {
		t.Fatalf("unexpected response %+v", got)
	}
}
