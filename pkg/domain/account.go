package domain

import (
	"bytes"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AmountScale is the number of fractional digits balances are stored with.
const AmountScale = 2

// Account is a custodial wallet owned by a single user.
// Balances are kept in the base currency and are never negative.
type Account struct {
	ID           uuid.UUID       `json:"id"`
	Username     string          `json:"username"`
	PasswordHash string          `json:"-"`
	Balance      decimal.Decimal `json:"balance"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// NewAccount creates an account with a zero balance.
func NewAccount(username, passwordHash string) *Account {
	now := time.Now().UTC()
	return &Account{
		ID:           uuid.New(),
		Username:     strings.TrimSpace(username),
		PasswordHash: passwordHash,
		Balance:      decimal.Zero,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// ValidateAmount checks that amount is strictly positive, carries no more
// than AmountScale fractional digits and, when max is positive, does not
// exceed max.
func ValidateAmount(amount, max decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if !amount.Equal(amount.Truncate(AmountScale)) {
		return ErrInvalidAmount
	}
	if max.IsPositive() && amount.GreaterThan(max) {
		return WithMessage(ErrInvalidAmount, "amount exceeds the maximum allowed of "+max.StringFixed(AmountScale))
	}
	return nil
}

// CanDebit reports whether the account holds at least amount.
func (a *Account) CanDebit(amount decimal.Decimal) bool {
	return a.Balance.GreaterThanOrEqual(amount)
}

// LockOrder returns ids deduplicated and sorted ascending. Accounts touched
// by one atomic unit are always locked in this order.
func LockOrder(ids ...uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i][:], out[j][:]) < 0
	})
	return out
}
