// Package currency converts base-currency amounts for display. Converted
// values are never written back to the ledger.
package currency

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/amirasaad/walletledger/pkg/cache"
	"github.com/amirasaad/walletledger/pkg/domain"
	"github.com/amirasaad/walletledger/pkg/provider"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

// Converter quotes balances in other currencies.
type Converter struct {
	provider provider.ExchangeRate
	cache    cache.ExchangeRateCache
	ttl      time.Duration
	validate *validator.Validate
	inflight singleflight.Group
	logger   *slog.Logger
}

// New creates a converter. cache may be nil to disable caching.
func New(
	rates provider.ExchangeRate,
	rateCache cache.ExchangeRateCache,
	ttl time.Duration,
	logger *slog.Logger,
) *Converter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Converter{
		provider: rates,
		cache:    rateCache,
		ttl:      ttl,
		validate: validator.New(),
		logger:   logger.With("service", "Currency"),
	}
}

// NormalizeCode upper-cases code and checks it is an ISO 4217 currency.
func (c *Converter) NormalizeCode(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if err := c.validate.Var(code, "required,iso4217"); err != nil {
		return "", domain.WithMessage(domain.ErrValidation, "unsupported currency code: "+code)
	}
	return code, nil
}

// Convert returns amount expressed in to, rounded to two decimals.
func (c *Converter) Convert(ctx context.Context, amount decimal.Decimal, from, to string) (decimal.Decimal, error) {
	from, err := c.NormalizeCode(from)
	if err != nil {
		return decimal.Zero, err
	}
	to, err = c.NormalizeCode(to)
	if err != nil {
		return decimal.Zero, err
	}
	if from == to {
		return amount.Round(domain.AmountScale), nil
	}

	rate, err := c.rate(ctx, from, to)
	if err != nil {
		c.logger.Error("conversion failed", "from", from, "to", to, "error", err)
		return decimal.Zero, domain.Wrap(domain.ErrRateUnavailable, err)
	}
	return amount.Mul(rate.Rate).Round(domain.AmountScale), nil
}

func (c *Converter) rate(ctx context.Context, from, to string) (*domain.ExchangeRate, error) {
	key := from + ":" + to
	if c.cache != nil {
		cached, err := c.cache.Get(ctx, key)
		if err != nil {
			c.logger.Warn("rate cache unavailable", "key", key, "error", err)
		} else if cached != nil {
			return cached, nil
		}
	}

	v, err, _ := c.inflight.Do(key, func() (any, error) {
		rate, err := c.provider.GetRate(ctx, from, to)
		if err != nil {
			return nil, err
		}
		if c.cache != nil {
			if err := c.cache.Set(ctx, key, rate, c.ttl); err != nil {
				c.logger.Warn("failed to cache rate", "key", key, "error", err)
			}
		}
		return rate, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.ExchangeRate), nil
}
