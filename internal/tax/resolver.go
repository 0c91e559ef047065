package tax

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-checkout/internal/cache"
	"github.com/noah-isme/backend-checkout/internal/obs"
	"github.com/noah-isme/backend-checkout/internal/resilience"
)

// Resolved is the effective tax rate and classification for a jurisdiction.
// Federal and Regional carry the component breakdown for additive composite
// systems (GST+PST/QST); both are zero otherwise.
type Resolved struct {
	Rate     decimal.Decimal
	Type     RateType
	Federal  decimal.Decimal
	Regional decimal.Decimal
}

// Resolver resolves jurisdiction tax rates from a lazily loaded table. The
// table is fetched once and cached for the process lifetime; Refresh replaces
// it (the worker calls Refresh on a schedule). Every failure path degrades to
// a zero rate so tax lookup can never block checkout.
type Resolver struct {
	Sources  []string
	HTTP     *resilience.HTTPClient
	Cache    *cache.JSON
	CacheKey string
	Logger   zerolog.Logger

	mu    sync.Mutex
	table Table
}

// Rate returns the effective rate and classification for a country and
// optional sub-national region.
func (r *Resolver) Rate(ctx context.Context, countryCode, regionCode string) Resolved {
	table := r.ensureLoaded(ctx)

	country, ok := table[strings.ToUpper(strings.TrimSpace(countryCode))]
	if !ok {
		r.countLookup(TypeNone)
		return Resolved{Type: TypeNone}
	}

	resolved := resolveEntry(country, strings.ToUpper(strings.TrimSpace(regionCode)))
	r.countLookup(resolved.Type)
	return resolved
}

func resolveEntry(country CountryEntry, region string) Resolved {
	if region != "" {
		if override, ok := country.States[region]; ok {
			switch override.Type {
			case TypeHST:
				// Harmonised rate replaces the federal layer entirely.
				return Resolved{Rate: override.Rate, Type: TypeHST}
			case TypeGSTPST, TypeGSTQST:
				return Resolved{
					Rate:     country.Rate.Add(override.Rate),
					Type:     override.Type,
					Federal:  country.Rate,
					Regional: override.Rate,
				}
			case TypeGSTOnly:
				return Resolved{Rate: country.Rate, Type: country.Type}
			default:
				// Unrecognised override types add to the federal rate.
				rateType := override.Type
				if rateType == "" {
					rateType = country.Type
				}
				return Resolved{Rate: country.Rate.Add(override.Rate), Type: rateType}
			}
		}
	}
	return Resolved{Rate: country.Rate, Type: country.Type}
}

// Refresh forces a reload from the remote sources, bypassing the Redis cache.
// The previous table keeps serving lookups if every source fails.
func (r *Resolver) Refresh(ctx context.Context) error {
	table, err := r.fetchRemote(ctx)
	if err != nil {
		return err
	}
	if cacheErr := r.Cache.Set(ctx, r.cacheKey(), table); cacheErr != nil {
		r.Logger.Warn().Err(cacheErr).Msg("tax table cache write failed")
	}
	r.mu.Lock()
	r.table = table
	r.mu.Unlock()
	r.Logger.Info().Int("countries", len(table)).Msg("tax table refreshed")
	return nil
}

func (r *Resolver) ensureLoaded(ctx context.Context) Table {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.table == nil {
		r.table = r.load(ctx)
	}
	return r.table
}

func (r *Resolver) cacheKey() string {
	if strings.TrimSpace(r.CacheKey) == "" {
		return "tax:table"
	}
	return r.CacheKey
}

func (r *Resolver) countLookup(rateType RateType) {
	if obs.TaxLookupTotal != nil {
		obs.TaxLookupTotal.WithLabelValues(string(rateType)).Inc()
	}
}
