package memory

import (
	"maps"
	"slices"

	"github.com/iho/txledger/internal/domain"
)

// DisputeRepository implements usecase.DisputeStore in memory.
// Records are never deleted. It is not safe for concurrent use.
type DisputeRepository struct {
	records map[uint32]domain.DisputableTransaction
}

// NewDisputeRepository creates a new DisputeRepository.
func NewDisputeRepository() *DisputeRepository {
	return &DisputeRepository{
		records: make(map[uint32]domain.DisputableTransaction),
	}
}

// Create stores record. The first record stored under an id wins.
func (r *DisputeRepository) Create(record domain.DisputableTransaction) error {
	if _, ok := r.records[record.TxID]; ok {
		return domain.ErrDuplicateTransaction
	}
	r.records[record.TxID] = record
	return nil
}

// Exists reports whether an id is already taken.
func (r *DisputeRepository) Exists(txID uint32) bool {
	_, ok := r.records[txID]
	return ok
}

// Get returns a copy of the record.
func (r *DisputeRepository) Get(txID uint32) (domain.DisputableTransaction, error) {
	record, ok := r.records[txID]
	if !ok {
		return domain.DisputableTransaction{}, domain.ErrTransactionNotFound
	}
	return record, nil
}

// UpdateStatus sets the dispute status of a record.
func (r *DisputeRepository) UpdateStatus(txID uint32, status domain.DisputeStatus) error {
	record, ok := r.records[txID]
	if !ok {
		return domain.ErrTransactionNotFound
	}
	record.Status = status
	r.records[txID] = record
	return nil
}

// List returns all records ordered by transaction id.
func (r *DisputeRepository) List() []domain.DisputableTransaction {
	ids := slices.Sorted(maps.Keys(r.records))
	result := make([]domain.DisputableTransaction, 0, len(ids))
	for _, id := range ids {
		result = append(result, r.records[id])
	}
	return result
}

// Len returns the number of records.
func (r *DisputeRepository) Len() int {
	return len(r.records)
}
