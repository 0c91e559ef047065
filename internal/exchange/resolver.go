package exchange

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-checkout/internal/obs"
)

// Rate resolution source labels, in cascade order.
const (
	SourceLive            = "live"
	SourceFallback        = "fallback"
	SourceFallbackInverse = "fallback_inverse"
	SourcePivot           = "pivot"
	SourceIdentity        = "identity"
	SourceNone            = "none"
)

// Conversion is the outcome of a convert request. Amount always carries a
// usable value: when no rate could be resolved it is the input unchanged and
// Converted is false.
type Conversion struct {
	Amount    decimal.Decimal
	Rate      decimal.Decimal
	Source    string
	Converted bool
}

// RateResult is a resolved rate plus the strategy that produced it.
type RateResult struct {
	Rate   decimal.Decimal
	Source string
}

// Resolver converts amounts between currencies with a layered fallback
// cascade. It never returns an error: a conversion that cannot be resolved
// degrades to the unconverted amount, logged at warn level.
type Resolver struct {
	Source   RateSource
	Fallback FallbackTable
	Pivot    string
	Logger   zerolog.Logger
}

// Convert converts amount from one currency to another. Identity conversions
// are exact and never touch the network.
func (r *Resolver) Convert(ctx context.Context, amount decimal.Decimal, from, to string) Conversion {
	from = strings.ToUpper(strings.TrimSpace(from))
	to = strings.ToUpper(strings.TrimSpace(to))
	if from == to || from == "" || to == "" {
		r.count(SourceIdentity)
		return Conversion{Amount: amount, Rate: decimal.NewFromInt(1), Source: SourceIdentity, Converted: false}
	}
	result, ok := r.Rate(ctx, from, to)
	if !ok {
		r.count(SourceNone)
		r.Logger.Warn().
			Str("from", from).
			Str("to", to).
			Msg("no conversion path available, keeping native amount")
		return Conversion{Amount: amount, Rate: decimal.NewFromInt(1), Source: SourceNone, Converted: false}
	}
	r.count(result.Source)
	return Conversion{
		Amount:    amount.Mul(result.Rate).Round(2),
		Rate:      result.Rate,
		Source:    result.Source,
		Converted: true,
	}
}

// Rate resolves a conversion rate by walking the strategy cascade in order:
// live service, direct fallback, inverse fallback, pivot-chained fallback.
func (r *Resolver) Rate(ctx context.Context, from, to string) (RateResult, bool) {
	for _, strategy := range []func(context.Context, string, string) (RateResult, bool){
		r.liveRate,
		r.fallbackDirect,
		r.fallbackInverse,
		r.fallbackPivot,
	} {
		if result, ok := strategy(ctx, from, to); ok {
			return result, true
		}
	}
	return RateResult{}, false
}

func (r *Resolver) liveRate(ctx context.Context, from, to string) (RateResult, bool) {
	if r.Source == nil {
		return RateResult{}, false
	}
	rates, err := r.Source.Rates(ctx, from)
	if err != nil {
		r.Logger.Warn().Err(err).Str("base", from).Msg("live rate lookup failed")
		return RateResult{}, false
	}
	rate, ok := rates[to]
	if !ok || !rate.IsPositive() {
		return RateResult{}, false
	}
	return RateResult{Rate: rate, Source: SourceLive}, true
}

func (r *Resolver) fallbackDirect(_ context.Context, from, to string) (RateResult, bool) {
	rate, ok := r.Fallback.Direct(from, to)
	if !ok {
		return RateResult{}, false
	}
	return RateResult{Rate: rate, Source: SourceFallback}, true
}

func (r *Resolver) fallbackInverse(_ context.Context, from, to string) (RateResult, bool) {
	rate, ok := r.Fallback.Inverse(from, to)
	if !ok {
		return RateResult{}, false
	}
	return RateResult{Rate: rate, Source: SourceFallbackInverse}, true
}

// fallbackPivot chains two tabulated legs through the pivot currency. Each leg
// may come from a direct entry or the inverse of the reverse entry.
func (r *Resolver) fallbackPivot(_ context.Context, from, to string) (RateResult, bool) {
	pivot := r.pivot()
	if from == pivot || to == pivot {
		return RateResult{}, false
	}
	leg1, ok := r.tabulated(from, pivot)
	if !ok {
		return RateResult{}, false
	}
	leg2, ok := r.tabulated(pivot, to)
	if !ok {
		return RateResult{}, false
	}
	return RateResult{Rate: leg1.Mul(leg2), Source: SourcePivot}, true
}

func (r *Resolver) tabulated(from, to string) (decimal.Decimal, bool) {
	if rate, ok := r.Fallback.Direct(from, to); ok {
		return rate, true
	}
	return r.Fallback.Inverse(from, to)
}

func (r *Resolver) pivot() string {
	if strings.TrimSpace(r.Pivot) == "" {
		return "USD"
	}
	return strings.ToUpper(strings.TrimSpace(r.Pivot))
}

func (r *Resolver) count(source string) {
	if obs.ConversionTotal != nil {
		obs.ConversionTotal.WithLabelValues(source).Inc()
	}
}
