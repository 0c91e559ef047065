package pricing

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-checkout/internal/exchange"
	"github.com/noah-isme/backend-checkout/internal/obs"
	"github.com/noah-isme/backend-checkout/internal/tax"
)

// ErrInvalidQuantity is returned when the requested quantity is not positive.
var ErrInvalidQuantity = errors.New("pricing: quantity must be a positive integer")

// defaultMaxQuantity bounds quantities on products without stock tracking.
const defaultMaxQuantity = 100

// Converter resolves currency conversions for the engine.
type Converter interface {
	Convert(ctx context.Context, amount decimal.Decimal, from, to string) exchange.Conversion
}

// TaxSource resolves jurisdiction tax rates for the engine.
type TaxSource interface {
	Rate(ctx context.Context, countryCode, regionCode string) tax.Resolved
}

// Engine composes unit price, quantity, tax, shipping and an optional currency
// conversion into one consistent quote.
type Engine struct {
	Taxes       TaxSource
	Rates       Converter
	MaxQuantity int
}

// Request carries everything a quote depends on. Quotes are pure functions of
// the request plus the resolver state, so identical requests yield identical
// quotes.
type Request struct {
	Product         Product
	Quantity        int
	VariantID       string
	ShippingMethod  string
	DisplayCurrency string
	Country         string
	Region          string
}

// Original holds the native-currency amounts retained for conversion audit.
type Original struct {
	Currency  string
	UnitPrice decimal.Decimal
	Subtotal  decimal.Decimal
	Tax       decimal.Decimal
	Shipping  decimal.Decimal
	Total     decimal.Decimal
}

// Quote is the computed price breakdown. Total always equals
// Subtotal + Tax + Shipping in the quote's currency.
type Quote struct {
	Currency        string
	UnitPrice       decimal.Decimal
	Subtotal        decimal.Decimal
	Tax             decimal.Decimal
	Shipping        decimal.Decimal
	Total           decimal.Decimal
	TaxRate         decimal.Decimal
	TaxType         tax.RateType
	TaxFederal      decimal.Decimal
	TaxRegional     decimal.Decimal
	Quantity        int
	QuantityClamped bool
	ShippingMethod  string
	Ratio           decimal.Decimal
	RateSource      string
	Original        *Original
}

// Compute produces a quote for the request. The only error condition is a
// non-positive quantity; every data-unavailable path (missing tax data, rate
// service down) degrades inside the resolvers instead of failing the quote.
func (e *Engine) Compute(ctx context.Context, req Request) (Quote, error) {
	if req.Quantity < 1 {
		e.count("invalid")
		return Quote{}, ErrInvalidQuantity
	}

	qty, clamped := e.clampQuantity(req)

	product := req.Product
	unitPrice := product.Price.Round(2)
	subtotal := unitPrice.Mul(decimal.NewFromInt(int64(qty))).Round(2)

	var resolved tax.Resolved
	if product.VATEnabled && e.Taxes != nil {
		resolved = e.Taxes.Rate(ctx, req.Country, req.Region)
	} else {
		resolved = tax.Resolved{Type: tax.TypeNone}
	}
	taxAmount := subtotal.Mul(resolved.Rate).Round(2)

	shippingAmount, methodName := shippingPrice(product, req.ShippingMethod)
	shippingAmount = shippingAmount.Round(2)

	total := subtotal.Add(taxAmount).Add(shippingAmount)

	quote := Quote{
		Currency:        strings.ToUpper(strings.TrimSpace(product.Currency)),
		UnitPrice:       unitPrice,
		Subtotal:        subtotal,
		Tax:             taxAmount,
		Shipping:        shippingAmount,
		Total:           total,
		TaxRate:         resolved.Rate,
		TaxType:         resolved.Type,
		TaxFederal:      resolved.Federal,
		TaxRegional:     resolved.Regional,
		Quantity:        qty,
		QuantityClamped: clamped,
		ShippingMethod:  methodName,
		Ratio:           decimal.NewFromInt(1),
		RateSource:      exchange.SourceIdentity,
	}

	quote = e.localise(ctx, quote, req)
	e.count("ok")
	return quote, nil
}

// localise rescales the quote into the display currency using a single
// conversion ratio derived from the unit price. Converting each component with
// separately fetched rates would break Total == Subtotal+Tax+Shipping under
// independent rounding, so the ratio is the sole multiplier.
func (e *Engine) localise(ctx context.Context, quote Quote, req Request) Quote {
	display := strings.ToUpper(strings.TrimSpace(req.DisplayCurrency))
	if display == "" || display == quote.Currency || !req.Product.AutoLocalPrice {
		return quote
	}
	if e.Rates == nil || !quote.UnitPrice.IsPositive() {
		return quote
	}

	conv := e.Rates.Convert(ctx, quote.UnitPrice, quote.Currency, display)
	quote.RateSource = conv.Source
	if !conv.Converted {
		return quote
	}

	ratio := conv.Amount.DivRound(quote.UnitPrice, 12)
	original := Original{
		Currency:  quote.Currency,
		UnitPrice: quote.UnitPrice,
		Subtotal:  quote.Subtotal,
		Tax:       quote.Tax,
		Shipping:  quote.Shipping,
		Total:     quote.Total,
	}

	quote.Currency = display
	quote.UnitPrice = conv.Amount
	quote.Subtotal = original.Subtotal.Mul(ratio).Round(2)
	quote.Tax = original.Tax.Mul(ratio).Round(2)
	quote.Shipping = original.Shipping.Mul(ratio).Round(2)
	quote.Total = quote.Subtotal.Add(quote.Tax).Add(quote.Shipping).Round(2)
	quote.Ratio = ratio
	quote.Original = &original
	return quote
}

// clampQuantity bounds the quantity by available stock (variant stock when a
// tracked variant is selected) or the configured ceiling. Clamping is reported
// on the quote rather than rejected so the UI can show feedback.
func (e *Engine) clampQuantity(req Request) (int, bool) {
	qty := req.Quantity
	limit := e.MaxQuantity
	if limit <= 0 {
		limit = defaultMaxQuantity
	}

	if variant, ok := req.Product.VariantByID(req.VariantID); ok && variant.Stock != nil {
		limit = *variant.Stock
	} else if req.Product.Stock != nil {
		limit = *req.Product.Stock
	}

	if limit < 1 {
		limit = 1
	}
	if qty > limit {
		return limit, true
	}
	return qty, false
}

func (e *Engine) count(result string) {
	if obs.QuoteTotal != nil {
		obs.QuoteTotal.WithLabelValues(result).Inc()
	}
}
