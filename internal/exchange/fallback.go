package exchange

import "github.com/shopspring/decimal"

// Pair identifies a directed currency pair.
type Pair struct {
	From string
	To   string
}

// FallbackTable holds static last-resort rates used when the live service is
// unavailable. Entries are directional; the resolver derives inverses and
// pivot chains when a direct entry is missing.
type FallbackTable map[Pair]decimal.Decimal

// Direct returns the tabulated rate for the pair, if any.
func (t FallbackTable) Direct(from, to string) (decimal.Decimal, bool) {
	rate, ok := t[Pair{From: from, To: to}]
	return rate, ok
}

// Inverse returns the algebraic inverse of the reverse pair, if tabulated.
func (t FallbackTable) Inverse(from, to string) (decimal.Decimal, bool) {
	rate, ok := t[Pair{From: to, To: from}]
	if !ok || rate.IsZero() {
		return decimal.Decimal{}, false
	}
	return decimal.NewFromInt(1).DivRound(rate, 12), true
}

// DefaultFallbackTable returns the built-in static table. Rates are
// deliberately coarse; they only keep checkout alive when the live feed is
// down and are tabulated against the USD pivot.
func DefaultFallbackTable() FallbackTable {
	entries := map[Pair]string{
		{From: "USD", To: "EUR"}: "0.92",
		{From: "USD", To: "GBP"}: "0.79",
		{From: "USD", To: "BRL"}: "5.05",
		{From: "USD", To: "NGN"}: "1550",
		{From: "USD", To: "CAD"}: "1.36",
		{From: "USD", To: "AUD"}: "1.52",
		{From: "USD", To: "JPY"}: "148.5",
		{From: "USD", To: "INR"}: "83.2",
		{From: "USD", To: "MXN"}: "17.1",
		{From: "USD", To: "KES"}: "129",
		{From: "USD", To: "GHS"}: "15.6",
		{From: "USD", To: "ZAR"}: "18.2",
		{From: "USD", To: "PHP"}: "56.3",
		{From: "USD", To: "IDR"}: "15900",
		{From: "USD", To: "EGP"}: "48.3",
		{From: "USD", To: "TRY"}: "32.5",
		{From: "USD", To: "AED"}: "3.6725",
		{From: "USD", To: "CNY"}: "7.24",
		{From: "USD", To: "KRW"}: "1350",
		{From: "USD", To: "SGD"}: "1.34",
		{From: "USD", To: "CHF"}: "0.88",
		{From: "EUR", To: "USD"}: "1.09",
		{From: "GBP", To: "USD"}: "1.27",
		{From: "EUR", To: "GBP"}: "0.86",
	}
	table := make(FallbackTable, len(entries))
	for pair, raw := range entries {
		table[pair] = decimal.RequireFromString(raw)
	}
	return table
}
