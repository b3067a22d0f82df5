package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/amirasaad/walletledger/pkg/config"
	"github.com/amirasaad/walletledger/pkg/domain"
	"github.com/amirasaad/walletledger/pkg/provider"
	"github.com/shopspring/decimal"
)

const currencyAPIName = "currencyapi"

// CurrencyAPIProvider implements provider.ExchangeRate for currencyapi.com (v3).
type CurrencyAPIProvider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ provider.ExchangeRate = (*CurrencyAPIProvider)(nil)

// CurrencyAPIResponse is the v3 /latest payload.
// Example: { "meta": { "last_updated_at": "2023-06-23T10:15:59Z" }, "data": { "USD": { "code": "USD", "value": 0.012 } } }
type CurrencyAPIResponse struct {
	Meta struct {
		LastUpdatedAt time.Time `json:"last_updated_at"`
	} `json:"meta"`
	Data map[string]struct {
		Code  string          `json:"code"`
		Value decimal.Decimal `json:"value"`
	} `json:"data"`
	Message string `json:"message,omitempty"`
}

// NewCurrencyAPIProvider creates a currencyapi.com provider using config
func NewCurrencyAPIProvider(cfg *config.ExchangeRate, logger *slog.Logger) *CurrencyAPIProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &CurrencyAPIProvider{
		apiKey:  cfg.ApiKey,
		baseURL: strings.TrimRight(cfg.ApiUrl, "/"), // Should be like https://api.currencyapi.com/v3
		httpClient: &http.Client{
			Timeout: cfg.HTTPTimeout,
		},
		logger: logger.With("provider", currencyAPIName),
	}
}

// Name returns the provider's name.
func (p *CurrencyAPIProvider) Name() string {
	return currencyAPIName
}

// GetRate fetches the current exchange rate for a currency pair
func (p *CurrencyAPIProvider) GetRate(ctx context.Context, from, to string) (*domain.ExchangeRate, error) {
	q := url.Values{}
	q.Set("base_currency", from)
	q.Set("currencies", to)
	endpoint := p.baseURL + "/latest?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("apikey", p.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	var apiResp CurrencyAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	quote, ok := apiResp.Data[to]
	if !ok {
		return nil, fmt.Errorf("currency %s not found in response", to)
	}
	if !quote.Value.IsPositive() {
		return nil, fmt.Errorf("non-positive rate %s for %s", quote.Value, to)
	}

	updated := apiResp.Meta.LastUpdatedAt
	if updated.IsZero() {
		updated = time.Now().UTC()
	}
	p.logger.Debug("rate fetched", "from", from, "to", to, "rate", quote.Value.String())
	return &domain.ExchangeRate{
		FromCurrency: from,
		ToCurrency:   to,
		Rate:         quote.Value,
		LastUpdated:  updated,
		Source:       currencyAPIName,
	}, nil
}
