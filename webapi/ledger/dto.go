package ledger

import (
	"time"

	"github.com/amirasaad/walletledger/pkg/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FundRequest represents the request body for adding funds.
type FundRequest struct {
	Amount *decimal.Decimal `json:"amt" validate:"required"`
}

// PayRequest represents the request body for paying another user.
type PayRequest struct {
	To     string           `json:"to" validate:"required,max=64"`
	Amount *decimal.Decimal `json:"amt" validate:"required"`
}

// BuyRequest represents the request body for buying a product.
type BuyRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
}

// BalanceResponse is returned by mutations and balance queries.
type BalanceResponse struct {
	Balance  decimal.Decimal `json:"balance"`
	Currency string          `json:"currency,omitempty"`
	Replayed bool            `json:"replayed,omitempty"`
}

// PurchaseResponse is returned by a successful purchase.
type PurchaseResponse struct {
	Balance    decimal.Decimal `json:"balance"`
	PurchaseID uuid.UUID       `json:"purchase_id"`
	Replayed   bool            `json:"replayed,omitempty"`
}

// StatementEntry is one line of a statement.
type StatementEntry struct {
	Kind       domain.EntryKind `json:"kind"`
	Amount     decimal.Decimal  `json:"amt"`
	UpdatedBal decimal.Decimal  `json:"updated_bal"`
	Timestamp  time.Time        `json:"timestamp"`
}

func toStatement(records []domain.TransactionRecord) []StatementEntry {
	out := make([]StatementEntry, 0, len(records))
	for _, r := range records {
		out = append(out, StatementEntry{
			Kind:       r.Kind,
			Amount:     r.Amount,
			UpdatedBal: r.ResultingBalance,
			Timestamp:  r.Timestamp,
		})
	}
	return out
}
