package handler

import (
	"encoding/json"
	"net/http"

	"github.com/iho/txledger/internal/adapter/http/dto"
	"github.com/iho/txledger/internal/domain"
)

// TransactionService applies transaction records.
type TransactionService interface {
	Apply(tx domain.Transaction)
}

// TransactionHandler accepts transaction records over HTTP.
type TransactionHandler struct {
	ledger TransactionService
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(ledger TransactionService) *TransactionHandler {
	return &TransactionHandler{ledger: ledger}
}

// Create applies a single record. Well-formed records are always accepted;
// whether they changed a balance is visible through the account endpoints.
func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.TransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	tx, err := req.ToDomain()
	if err != nil {
		writeError(w, mapDomainError(err), "invalid transaction", err.Error())
		return
	}

	h.ledger.Apply(tx)

	writeJSON(w, http.StatusAccepted, dto.TransactionAccepted(tx))
}
