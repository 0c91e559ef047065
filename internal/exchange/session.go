package exchange

import (
	"context"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
)

// Session memoizes resolved rates for the lifetime of a single checkout flow.
// Rates are time-sensitive, so sessions must not be shared across flows; each
// quote recomputation within one flow reuses the same rate, which keeps every
// price component scaled by a single ratio.
type Session struct {
	Resolver *Resolver

	mu    sync.Mutex
	rates map[Pair]sessionEntry
}

type sessionEntry struct {
	result RateResult
	ok     bool
}

// NewSession constructs a session bound to the given resolver.
func NewSession(resolver *Resolver) *Session {
	return &Session{Resolver: resolver, rates: make(map[Pair]sessionEntry)}
}

// Convert behaves like Resolver.Convert but resolves each pair at most once
// per session, including negative outcomes.
func (s *Session) Convert(ctx context.Context, amount decimal.Decimal, from, to string) Conversion {
	from = strings.ToUpper(strings.TrimSpace(from))
	to = strings.ToUpper(strings.TrimSpace(to))
	if from == to || from == "" || to == "" {
		return Conversion{Amount: amount, Rate: decimal.NewFromInt(1), Source: SourceIdentity, Converted: false}
	}

	s.mu.Lock()
	entry, seen := s.rates[Pair{From: from, To: to}]
	s.mu.Unlock()

	if !seen {
		entry.result, entry.ok = s.Resolver.Rate(ctx, from, to)
		s.mu.Lock()
		s.rates[Pair{From: from, To: to}] = entry
		s.mu.Unlock()
	}

	if !entry.ok {
		return Conversion{Amount: amount, Rate: decimal.NewFromInt(1), Source: SourceNone, Converted: false}
	}
	return Conversion{
		Amount:    amount.Mul(entry.result.Rate).Round(2),
		Rate:      entry.result.Rate,
		Source:    entry.result.Source,
		Converted: true,
	}
}
