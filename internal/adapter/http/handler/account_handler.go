package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/txledger/internal/adapter/http/dto"
	"github.com/iho/txledger/internal/domain"
)

// AccountService defines the behavior needed by AccountHandler.
type AccountService interface {
	Account(clientID uint16) (domain.AccountSnapshot, error)
	Accounts() []domain.AccountSnapshot
	Precision() int32
}

// AccountHandler handles account-related HTTP requests.
type AccountHandler struct {
	ledger AccountService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(ledger AccountService) *AccountHandler {
	return &AccountHandler{ledger: ledger}
}

// Get retrieves the snapshot of one client.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseClientID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid client id", err.Error())
		return
	}

	snapshot, err := h.ledger.Account(id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get account", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromSnapshot(snapshot, h.ledger.Precision()))
}

// List lists account snapshots ordered by client id.
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := parseIntQuery(r, "limit", 100)
	offset := parseIntQuery(r, "offset", 0)
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	snapshots := h.ledger.Accounts()
	total := len(snapshots)

	page := snapshots[min(offset, total):min(offset+limit, total)]

	writeJSON(w, http.StatusOK, dto.ListAccountsResponse{
		Accounts: dto.AccountsFromSnapshots(page, h.ledger.Precision()),
		Total:    total,
	})
}
