package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/amirasaad/walletledger/pkg/domain"
	"github.com/amirasaad/walletledger/pkg/provider"
	"github.com/shopspring/decimal"
)

// FixedExchangeRate serves rates from a static table. It is used when no
// API key is configured and in tests.
type FixedExchangeRate struct {
	base  string
	rates map[string]decimal.Decimal
}

var _ provider.ExchangeRate = (*FixedExchangeRate)(nil)

// NewFixedExchangeRate creates a provider quoting rates against base.
func NewFixedExchangeRate(base string, rates map[string]decimal.Decimal) *FixedExchangeRate {
	return &FixedExchangeRate{base: base, rates: rates}
}

// DefaultFixedRates returns approximate INR quotes for common currencies.
func DefaultFixedRates() map[string]decimal.Decimal {
	return map[string]decimal.Decimal{
		"USD": decimal.RequireFromString("0.012"),
		"EUR": decimal.RequireFromString("0.011"),
		"GBP": decimal.RequireFromString("0.0094"),
		"JPY": decimal.RequireFromString("1.78"),
		"AUD": decimal.RequireFromString("0.018"),
		"CAD": decimal.RequireFromString("0.016"),
		"SGD": decimal.RequireFromString("0.016"),
	}
}

func (p *FixedExchangeRate) Name() string {
	return "fixed"
}

// GetRate supports base to quote and quote to base pairs.
func (p *FixedExchangeRate) GetRate(_ context.Context, from, to string) (*domain.ExchangeRate, error) {
	rate, ok := p.lookup(from, to)
	if !ok {
		return nil, fmt.Errorf("no fixed rate for %s/%s", from, to)
	}
	return &domain.ExchangeRate{
		FromCurrency: from,
		ToCurrency:   to,
		Rate:         rate,
		LastUpdated:  time.Now().UTC(),
		Source:       p.Name(),
	}, nil
}

func (p *FixedExchangeRate) lookup(from, to string) (decimal.Decimal, bool) {
	if from == to {
		return decimal.NewFromInt(1), true
	}
	if from == p.base {
		r, ok := p.rates[to]
		return r, ok
	}
	if to == p.base {
		r, ok := p.rates[from]
		if !ok || r.IsZero() {
			return decimal.Zero, false
		}
		return decimal.NewFromInt(1).DivRound(r, 8), true
	}
	return decimal.Zero, false
}
