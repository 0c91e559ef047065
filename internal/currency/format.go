package currency

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Format renders an amount in the target currency's display style with exactly
// two fraction digits. Unknown codes borrow the default currency's style
// rather than failing; formatting is a display concern and must never error.
func (r *Registry) Format(amount decimal.Decimal, code string) string {
	c, ok := r.Lookup(code)
	if !ok {
		c = r.byCode[DefaultCode]
	}

	rounded := amount.Round(2)
	negative := rounded.IsNegative()
	fixed := rounded.Abs().StringFixed(2)

	intPart := fixed
	fracPart := "00"
	if i := strings.IndexByte(fixed, '.'); i >= 0 {
		intPart = fixed[:i]
		fracPart = fixed[i+1:]
	}

	var b strings.Builder
	if negative {
		b.WriteByte('-')
	}
	if !c.SymbolAfter {
		b.WriteString(c.Symbol)
	}
	b.WriteString(groupDigits(intPart, c.GroupSep))
	b.WriteString(c.DecimalSep)
	b.WriteString(fracPart)
	if c.SymbolAfter {
		b.WriteByte(' ')
		b.WriteString(c.Symbol)
	}
	return b.String()
}

func groupDigits(digits, sep string) string {
	if sep == "" || len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteString(sep)
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
