package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/amirasaad/walletledger/pkg/config"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *CurrencyAPIProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewCurrencyAPIProvider(&config.ExchangeRate{
		ApiKey:      "secret",
		ApiUrl:      srv.URL + "/v3/",
		HTTPTimeout: 2 * time.Second,
	}, nil)
}

func TestCurrencyAPIProvider_GetRate(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/latest", r.URL.Path)
		assert.Equal(t, "INR", r.URL.Query().Get("base_currency"))
		assert.Equal(t, "USD", r.URL.Query().Get("currencies"))
		assert.Equal(t, "secret", r.Header.Get("apikey"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"meta":{"last_updated_at":"2024-05-01T23:59:59Z"},"data":{"USD":{"code":"USD","value":0.01199}}}`))
	})

	rate, err := p.GetRate(context.Background(), "INR", "USD")
	require.NoError(t, err)
	assert.True(t, rate.Rate.Equal(decimal.RequireFromString("0.01199")))
	assert.Equal(t, "currencyapi", rate.Source)
	assert.Equal(t, 2024, rate.LastUpdated.Year())
}

func TestCurrencyAPIProvider_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"upstream failure", http.StatusTooManyRequests, `{"message":"rate limit"}`},
		{"missing currency", http.StatusOK, `{"data":{}}`},
		{"malformed body", http.StatusOK, `{"data":`},
		{"zero rate", http.StatusOK, `{"data":{"USD":{"code":"USD","value":0}}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := p.GetRate(context.Background(), "INR", "USD")
			assert.Error(t, err)
		})
	}
}

func TestFixedExchangeRate(t *testing.T) {
	p := NewFixedExchangeRate("INR", map[string]decimal.Decimal{
		"USD": decimal.RequireFromString("0.0125"),
	})
	ctx := context.Background()

	rate, err := p.GetRate(ctx, "INR", "USD")
	require.NoError(t, err)
	assert.True(t, rate.Rate.Equal(decimal.RequireFromString("0.0125")))

	rate, err = p.GetRate(ctx, "USD", "INR")
	require.NoError(t, err)
	assert.True(t, rate.Rate.Equal(decimal.NewFromInt(80)))

	rate, err = p.GetRate(ctx, "INR", "INR")
	require.NoError(t, err)
	assert.True(t, rate.Rate.Equal(decimal.NewFromInt(1)))

	_, err = p.GetRate(ctx, "INR", "XYZ")
	assert.Error(t, err)
	_, err = p.GetRate(ctx, "USD", "EUR")
	assert.Error(t, err)
}
