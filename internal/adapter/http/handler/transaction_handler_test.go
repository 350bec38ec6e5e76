package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/iho/txledger/internal/domain"
)

type transactionServiceStub struct {
	applied []domain.Transaction
}

func (s *transactionServiceStub) Apply(tx domain.Transaction) {
	s.applied = append(s.applied, tx)
}

func TestTransactionHandler_Create(t *testing.T) {
	stub := &transactionServiceStub{}
	handler := NewTransactionHandler(stub)

	body := `{"type":"deposit","client":1,"tx":10,"amount":"2.5"}`
	req := httptest.NewRequest(http.MethodPost, "/transactions", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(stub.applied) != 1 {
		t.Fatalf("expected one applied transaction, got %d", len(stub.applied))
	}
	tx := stub.applied[0]
	if tx.Kind != domain.KindDeposit || tx.ClientID != 1 || tx.TxID != 10 || tx.Amount.Decimal.String() != "2.5" {
		t.Fatalf("unexpected transaction %+v", tx)
	}
}

func TestTransactionHandler_Create_Rejected(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{invalid`},
		{"unknown type", `{"type":"transfer","client":1,"tx":1,"amount":"1"}`},
		{"missing amount", `{"type":"withdrawal","client":1,"tx":1}`},
		{"negative amount", `{"type":"deposit","client":1,"tx":1,"amount":"-1"}`},
		{"bad amount", `{"type":"deposit","client":1,"tx":1,"amount":"abc"}`},
		{"exponent amount", `{"type":"deposit","client":1,"tx":1,"amount":"1e9"}`},
		{"exponent number amount", `{"type":"deposit","client":1,"tx":1,"amount":1e7000000}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &transactionServiceStub{}
			handler := NewTransactionHandler(stub)

			req := httptest.NewRequest(http.MethodPost, "/transactions", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			handler.Create(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			if len(stub.applied) != 0 {
				t.Fatalf("expected nothing applied, got %+v", stub.applied)
			}
		})
	}
}
