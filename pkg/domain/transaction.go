package domain

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EntryKind is the direction of a balance movement.
type EntryKind string

// Entry kinds recorded in the transaction log.
const (
	EntryCredit EntryKind = "credit"
	EntryDebit  EntryKind = "debit"
)

// Signed returns amount with the sign this kind applies to a balance.
func (k EntryKind) Signed(amount decimal.Decimal) decimal.Decimal {
	if k == EntryDebit {
		return amount.Neg()
	}
	return amount
}

// TransactionRecord is one immutable entry of an account's transaction log.
type TransactionRecord struct {
	ID               uuid.UUID       `json:"id"`
	AccountID        uuid.UUID       `json:"account_id"`
	Kind             EntryKind       `json:"kind"`
	Amount           decimal.Decimal `json:"amount"`
	ResultingBalance decimal.Decimal `json:"resulting_balance"`
	Timestamp        time.Time       `json:"timestamp"`
	// Sequence is assigned by the store and breaks timestamp ties.
	Sequence int64 `json:"sequence"`
}

// NewTransactionRecord creates a record for a movement that left the
// account at resultingBalance.
func NewTransactionRecord(
	accountID uuid.UUID,
	kind EntryKind,
	amount decimal.Decimal,
	resultingBalance decimal.Decimal,
	at time.Time,
) *TransactionRecord {
	return &TransactionRecord{
		ID:               uuid.New(),
		AccountID:        accountID,
		Kind:             kind,
		Amount:           amount,
		ResultingBalance: resultingBalance,
		Timestamp:        at.UTC(),
	}
}

// SortNewestFirst orders records most recent first.
func SortNewestFirst(records []TransactionRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return recordBefore(records[j], records[i])
	})
}

func recordBefore(a, b TransactionRecord) bool {
	if a.Timestamp.Equal(b.Timestamp) {
		return a.Sequence < b.Sequence
	}
	return a.Timestamp.Before(b.Timestamp)
}

// Replay accumulates the signed amounts of records in chronological order,
// starting from zero. The input order does not matter and is not modified.
func Replay(records []TransactionRecord) decimal.Decimal {
	ordered := make([]TransactionRecord, len(records))
	copy(ordered, records)
	sort.SliceStable(ordered, func(i, j int) bool {
		return recordBefore(ordered[i], ordered[j])
	})
	total := decimal.Zero
	for _, r := range ordered {
		total = total.Add(r.Kind.Signed(r.Amount))
	}
	return total
}
