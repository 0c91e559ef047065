package exchange

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-checkout/internal/resilience"
)

// RateSource supplies live exchange rates quoted against a base currency.
type RateSource interface {
	Rates(ctx context.Context, base string) (map[string]decimal.Decimal, error)
}

// APIClient fetches rates from the live rate service: GET <base-url>/<FROM>
// returning {"rates": {"CODE": <float>, ...}}. The service is treated as
// untrusted; a missing target code is the caller's failure signal.
type APIClient struct {
	BaseURL string
	HTTP    *resilience.HTTPClient
}

// Rates performs a single request for the given base currency.
func (c *APIClient) Rates(ctx context.Context, base string) (map[string]decimal.Decimal, error) {
	if c == nil || c.HTTP == nil {
		return nil, errors.New("exchange: rate client not configured")
	}
	base = strings.ToUpper(strings.TrimSpace(base))
	if base == "" {
		return nil, errors.New("exchange: base currency is required")
	}
	url := strings.TrimRight(c.BaseURL, "/") + "/" + base
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("exchange: rate service returned %s", resp.Status)
	}

	var payload struct {
		Rates map[string]float64 `json:"rates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("exchange: decode rates: %w", err)
	}
	if len(payload.Rates) == 0 {
		return nil, errors.New("exchange: empty rates payload")
	}
	rates := make(map[string]decimal.Decimal, len(payload.Rates))
	for code, value := range payload.Rates {
		if value <= 0 {
			continue
		}
		rates[strings.ToUpper(code)] = decimal.NewFromFloat(value)
	}
	return rates, nil
}
