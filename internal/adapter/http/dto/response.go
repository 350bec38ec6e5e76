package dto

import (
	"github.com/iho/txledger/internal/domain"
)

// AccountResponse represents an account snapshot in API responses.
// Amounts are fixed-point strings at the ledger precision.
type AccountResponse struct {
	Client    uint16 `json:"client"`
	Available string `json:"available"`
	Held      string `json:"held"`
	Total     string `json:"total"`
	Locked    bool   `json:"locked"`
}

// AccountFromSnapshot converts a snapshot to a response.
func AccountFromSnapshot(s domain.AccountSnapshot, precision int32) AccountResponse {
	return AccountResponse{
		Client:    s.ClientID,
		Available: s.Available.StringFixed(precision),
		Held:      s.Held.StringFixed(precision),
		Total:     s.Total.StringFixed(precision),
		Locked:    s.Locked,
	}
}

// AccountsFromSnapshots converts a list of snapshots.
func AccountsFromSnapshots(snapshots []domain.AccountSnapshot, precision int32) []AccountResponse {
	result := make([]AccountResponse, len(snapshots))
	for i, s := range snapshots {
		result[i] = AccountFromSnapshot(s, precision)
	}
	return result
}

// ListAccountsResponse represents a page of accounts.
type ListAccountsResponse struct {
	Accounts []AccountResponse `json:"accounts"`
	Total    int               `json:"total"`
}

// TransactionAcceptedResponse acknowledges a submitted record. Acceptance
// does not mean the record changed any balance.
type TransactionAcceptedResponse struct {
	Status string `json:"status"`
	Type   string `json:"type"`
	Client uint16 `json:"client"`
	Tx     uint32 `json:"tx"`
}

// TransactionAccepted builds the acknowledgement for tx.
func TransactionAccepted(tx domain.Transaction) TransactionAcceptedResponse {
	return TransactionAcceptedResponse{
		Status: "accepted",
		Type:   tx.Kind.String(),
		Client: tx.ClientID,
		Tx:     tx.TxID,
	}
}

// ConsistencyResponse reports the result of a ledger consistency check.
type ConsistencyResponse struct {
	Status     string `json:"status"`
	Consistent bool   `json:"consistent"`
	Message    string `json:"message,omitempty"`
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
