package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-checkout/internal/obs"
	"github.com/noah-isme/backend-checkout/internal/resilience"
)

// Locator detects a buyer's country from their IP address. Detection is
// best-effort: any failure resolves to the configured default country so
// checkout can always pick a jurisdiction.
type Locator struct {
	BaseURL        string
	HTTP           *resilience.HTTPClient
	DefaultCountry string
	Logger         zerolog.Logger
}

// Country returns the ISO country code for the given IP, or the default.
func (l *Locator) Country(ctx context.Context, ip string) string {
	cc, err := l.lookup(ctx, ip)
	if err != nil {
		l.Logger.Warn().Err(err).Str("ip", ip).Msg("country detection failed, using default")
		l.count("fallback")
		return l.fallback()
	}
	l.count("ok")
	return cc
}

func (l *Locator) lookup(ctx context.Context, ip string) (string, error) {
	if l == nil || l.HTTP == nil || strings.TrimSpace(l.BaseURL) == "" {
		return "", errors.New("geo: locator not configured")
	}
	ip = strings.TrimSpace(ip)
	if ip == "" {
		return "", errors.New("geo: ip is required")
	}
	url := strings.TrimRight(l.BaseURL, "/") + "/" + ip
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := l.HTTP.Do(ctx, req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("geo: service returned %s", resp.Status)
	}

	var payload struct {
		CountryCode string `json:"countryCode"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("geo: decode response: %w", err)
	}
	cc := strings.ToUpper(strings.TrimSpace(payload.CountryCode))
	if len(cc) != 2 {
		return "", fmt.Errorf("geo: invalid country code %q", payload.CountryCode)
	}
	return cc, nil
}

func (l *Locator) fallback() string {
	if strings.TrimSpace(l.DefaultCountry) == "" {
		return "US"
	}
	return strings.ToUpper(strings.TrimSpace(l.DefaultCountry))
}

func (l *Locator) count(result string) {
	if obs.GeoLookupTotal != nil {
		obs.GeoLookupTotal.WithLabelValues(result).Inc()
	}
}
