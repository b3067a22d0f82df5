package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EventType represents the type of an event in the system.
type EventType string

// Ledger event types
const (
	EventTypeCredited    EventType = "Ledger.Credited"
	EventTypeTransferred EventType = "Ledger.Transferred"
	EventTypePurchased   EventType = "Ledger.Purchased"
)

// String returns the string representation of the event type.
func (et EventType) String() string {
	return string(et)
}

// CreditedEvent is emitted after funds were added to an account.
type CreditedEvent struct {
	AccountID     uuid.UUID       `json:"account_id"`
	TransactionID uuid.UUID       `json:"transaction_id"`
	Amount        decimal.Decimal `json:"amount"`
	Balance       decimal.Decimal `json:"balance"`
	Timestamp     time.Time       `json:"timestamp"`
}

// TransferredEvent is emitted after funds moved between two accounts.
type TransferredEvent struct {
	SenderID            uuid.UUID       `json:"sender_id"`
	RecipientID         uuid.UUID       `json:"recipient_id"`
	DebitTransactionID  uuid.UUID       `json:"debit_transaction_id"`
	CreditTransactionID uuid.UUID       `json:"credit_transaction_id"`
	Amount              decimal.Decimal `json:"amount"`
	SenderBalance       decimal.Decimal `json:"sender_balance"`
	RecipientBalance    decimal.Decimal `json:"recipient_balance"`
	Timestamp           time.Time       `json:"timestamp"`
}

// PurchasedEvent is emitted after a catalog item was paid for.
type PurchasedEvent struct {
	AccountID     uuid.UUID       `json:"account_id"`
	PurchaseID    uuid.UUID       `json:"purchase_id"`
	ItemID        uuid.UUID       `json:"item_id"`
	TransactionID uuid.UUID       `json:"transaction_id"`
	Price         decimal.Decimal `json:"price"`
	Balance       decimal.Decimal `json:"balance"`
	Timestamp     time.Time       `json:"timestamp"`
}
