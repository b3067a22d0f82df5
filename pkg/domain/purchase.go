package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Purchase links a catalog item to the debit that paid for it.
type Purchase struct {
	ID            uuid.UUID `json:"id"`
	AccountID     uuid.UUID `json:"account_id"`
	ItemID        uuid.UUID `json:"item_id"`
	TransactionID uuid.UUID `json:"transaction_id"`
	Timestamp     time.Time `json:"timestamp"`
}

// Item is a catalog product that can be bought with wallet funds.
type Item struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// NewItem validates and creates a catalog item.
func NewItem(name string, price decimal.Decimal, description string) (*Item, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, WithMessage(ErrValidation, "product name is required")
	}
	if err := ValidateAmount(price, decimal.Zero); err != nil {
		return nil, WithMessage(ErrValidation, "product price must be positive with at most 2 decimal places")
	}
	return &Item{
		ID:          uuid.New(),
		Name:        name,
		Price:       price,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}, nil
}
