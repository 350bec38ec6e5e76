package dto

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iho/txledger/internal/domain"
)

func TestTransactionRequest_ToDomain(t *testing.T) {
	amount := decimal.RequireFromString("1.5")

	tests := []struct {
		name    string
		request TransactionRequest
		want    domain.Transaction
		wantErr error
	}{
		{
			name:    "deposit",
			request: TransactionRequest{Type: "deposit", Client: 1, Tx: 2, Amount: json.RawMessage(`"1.5"`)},
			want:    domain.NewDeposit(1, 2, amount),
		},
		{
			name:    "withdrawal with mixed case",
			request: TransactionRequest{Type: " Withdrawal ", Client: 3, Tx: 4, Amount: json.RawMessage(`"1.5"`)},
			want:    domain.NewWithdrawal(3, 4, amount),
		},
		{
			name:    "dispute drops amount",
			request: TransactionRequest{Type: "dispute", Client: 1, Tx: 2, Amount: json.RawMessage(`"1.5"`)},
			want:    domain.NewDispute(1, 2),
		},
		{
			name:    "deposit without amount",
			request: TransactionRequest{Type: "deposit", Client: 1, Tx: 2},
			wantErr: domain.ErrMissingAmount,
		},
		{
			name:    "negative withdrawal",
			request: TransactionRequest{Type: "withdrawal", Client: 1, Tx: 2, Amount: json.RawMessage(`"-1"`)},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name:    "exponent string",
			request: TransactionRequest{Type: "deposit", Client: 1, Tx: 2, Amount: json.RawMessage(`"1e9"`)},
			wantErr: domain.ErrMalformedAmount,
		},
		{
			name:    "exponent number",
			request: TransactionRequest{Type: "deposit", Client: 1, Tx: 2, Amount: json.RawMessage(`1e7000000`)},
			wantErr: domain.ErrMalformedAmount,
		},
		{
			name:    "null amount",
			request: TransactionRequest{Type: "deposit", Client: 1, Tx: 2, Amount: json.RawMessage(`null`)},
			wantErr: domain.ErrMissingAmount,
		},
		{
			name:    "dispute ignores malformed amount",
			request: TransactionRequest{Type: "dispute", Client: 1, Tx: 2, Amount: json.RawMessage(`"1e9"`)},
			want:    domain.NewDispute(1, 2),
		},
		{
			name:    "unknown type",
			request: TransactionRequest{Type: "transfer", Client: 1, Tx: 2},
			wantErr: domain.ErrUnknownKind,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.request.ToDomain()
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Kind != tt.want.Kind || got.ClientID != tt.want.ClientID || got.TxID != tt.want.TxID {
				t.Fatalf("ToDomain() = %+v, want %+v", got, tt.want)
			}
			if got.Amount.Valid != tt.want.Amount.Valid || !got.Amount.Decimal.Equal(tt.want.Amount.Decimal) {
				t.Fatalf("amount = %+v, want %+v", got.Amount, tt.want.Amount)
			}
		})
	}
}

func TestTransactionRequest_AmountForms(t *testing.T) {
	for _, body := range []string{
		`{"type":"deposit","client":1,"tx":1,"amount":"2.5"}`,
		`{"type":"deposit","client":1,"tx":1,"amount":2.5}`,
	} {
		var req TransactionRequest
		if err := json.Unmarshal([]byte(body), &req); err != nil {
			t.Fatalf("%s: %v", body, err)
		}
		tx, err := req.ToDomain()
		if err != nil {
			t.Fatalf("%s: %v", body, err)
		}
		if !tx.Amount.Decimal.Equal(decimal.RequireFromString("2.5")) {
			t.Fatalf("%s: unexpected amount %v", body, tx.Amount)
		}
	}
}

func TestTransactionRequest_RejectsExponentAmounts(t *testing.T) {
	for _, body := range []string{
		`{"type":"deposit","client":1,"tx":1,"amount":"1e9"}`,
		`{"type":"deposit","client":1,"tx":1,"amount":1e9}`,
		`{"type":"withdrawal","client":1,"tx":1,"amount":1e7000000}`,
	} {
		var req TransactionRequest
		if err := json.Unmarshal([]byte(body), &req); err != nil {
			t.Fatalf("%s: %v", body, err)
		}
		if _, err := req.ToDomain(); !errors.Is(err, domain.ErrMalformedAmount) {
			t.Fatalf("%s: expected malformed amount, got %v", body, err)
		}
	}
}

func TestTransactionRequest_ClientOutOfRange(t *testing.T) {
	var req TransactionRequest
	err := json.Unmarshal([]byte(`{"type":"deposit","client":70000,"tx":1,"amount":"1"}`), &req)
	if err == nil {
		t.Fatalf("expected client id overflow to fail")
	}
}
