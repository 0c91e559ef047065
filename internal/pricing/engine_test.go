package pricing

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-checkout/internal/exchange"
	"github.com/noah-isme/backend-checkout/internal/tax"
)

type stubTaxes struct {
	resolved tax.Resolved
}

func (s stubTaxes) Rate(_ context.Context, _, _ string) tax.Resolved {
	return s.resolved
}

// stubRates converts with a fixed rate, or degrades when rate is zero.
type stubRates struct {
	rate   decimal.Decimal
	source string
}

func (s stubRates) Convert(_ context.Context, amount decimal.Decimal, from, to string) exchange.Conversion {
	if from == to {
		return exchange.Conversion{Amount: amount, Rate: decimal.NewFromInt(1), Source: exchange.SourceIdentity}
	}
	if s.rate.IsZero() {
		return exchange.Conversion{Amount: amount, Rate: decimal.NewFromInt(1), Source: exchange.SourceNone}
	}
	return exchange.Conversion{
		Amount:    amount.Mul(s.rate).Round(2),
		Rate:      s.rate,
		Source:    s.source,
		Converted: true,
	}
}

func vatTaxes(rate string) stubTaxes {
	return stubTaxes{resolved: tax.Resolved{
		Rate: decimal.RequireFromString(rate),
		Type: tax.TypeVAT,
	}}
}

func physicalProduct(price string) Product {
	return Product{
		ID:             "prod-1",
		Title:          "Widget",
		Price:          decimal.RequireFromString(price),
		Currency:       "USD",
		AutoLocalPrice: true,
		VATEnabled:     true,
		ShippingMethods: []ShippingMethod{
			{Name: "Standard", Price: decimal.RequireFromString("10.00")},
			{Name: "Express", Price: decimal.RequireFromString("25.00")},
		},
	}
}

func TestComputeNativeCurrency(t *testing.T) {
	engine := &Engine{Taxes: vatTaxes("0.17"), Rates: stubRates{}}

	quote, err := engine.Compute(context.Background(), Request{
		Product:         physicalProduct("100.00"),
		Quantity:        2,
		ShippingMethod:  "Standard",
		DisplayCurrency: "USD",
		Country:         "BR",
	})
	require.NoError(t, err)

	assert.Equal(t, "USD", quote.Currency)
	assert.Equal(t, "200.00", quote.Subtotal.StringFixed(2))
	assert.Equal(t, "34.00", quote.Tax.StringFixed(2))
	assert.Equal(t, "10.00", quote.Shipping.StringFixed(2))
	assert.Equal(t, "244.00", quote.Total.StringFixed(2))
	assert.Nil(t, quote.Original)
	assert.Equal(t, exchange.SourceIdentity, quote.RateSource)
}

func TestComputeConvertedQuoteStaysConsistent(t *testing.T) {
	engine := &Engine{
		Taxes: vatTaxes("0.17"),
		Rates: stubRates{rate: decimal.RequireFromString("5.88"), source: exchange.SourceLive},
	}

	quote, err := engine.Compute(context.Background(), Request{
		Product:         physicalProduct("100.00"),
		Quantity:        2,
		ShippingMethod:  "Standard",
		DisplayCurrency: "BRL",
		Country:         "BR",
	})
	require.NoError(t, err)

	assert.Equal(t, "BRL", quote.Currency)
	assert.Equal(t, "588.00", quote.UnitPrice.StringFixed(2))
	assert.Equal(t, "1176.00", quote.Subtotal.StringFixed(2))
	assert.Equal(t, "199.92", quote.Tax.StringFixed(2))
	assert.Equal(t, "58.80", quote.Shipping.StringFixed(2))
	assert.Equal(t, "1434.72", quote.Total.StringFixed(2))

	// The converted components must still sum exactly.
	sum := quote.Subtotal.Add(quote.Tax).Add(quote.Shipping)
	assert.True(t, quote.Total.Equal(sum))

	require.NotNil(t, quote.Original)
	assert.Equal(t, "USD", quote.Original.Currency)
	assert.Equal(t, "100.00", quote.Original.UnitPrice.StringFixed(2))
	assert.Equal(t, "200.00", quote.Original.Subtotal.StringFixed(2))
	assert.Equal(t, "244.00", quote.Original.Total.StringFixed(2))
	assert.Equal(t, exchange.SourceLive, quote.RateSource)
}

func TestComputeConsistencyUnderAwkwardRates(t *testing.T) {
	// Rates chosen to produce rounding pressure on every component.
	rates := []string{"1.0007", "0.3333", "7.7777", "1550.5", "0.0101"}
	for _, rate := range rates {
		engine := &Engine{
			Taxes: vatTaxes("0.175"),
			Rates: stubRates{rate: decimal.RequireFromString(rate), source: exchange.SourceLive},
		}
		quote, err := engine.Compute(context.Background(), Request{
			Product:         physicalProduct("19.99"),
			Quantity:        3,
			ShippingMethod:  "Express",
			DisplayCurrency: "XTS",
			Country:         "GB",
		})
		require.NoError(t, err)

		sum := quote.Subtotal.Add(quote.Tax).Add(quote.Shipping)
		assert.True(t, quote.Total.Equal(sum), "rate %s: total %s != sum %s", rate, quote.Total, sum)
	}
}

func TestComputeIdempotent(t *testing.T) {
	engine := &Engine{
		Taxes: vatTaxes("0.2"),
		Rates: stubRates{rate: decimal.RequireFromString("0.79"), source: exchange.SourceFallback},
	}
	req := Request{
		Product:         physicalProduct("49.99"),
		Quantity:        4,
		DisplayCurrency: "GBP",
		Country:         "GB",
	}

	first, err := engine.Compute(context.Background(), req)
	require.NoError(t, err)
	second, err := engine.Compute(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, first.Total.Equal(second.Total))
	assert.True(t, first.Tax.Equal(second.Tax))
	assert.True(t, first.Ratio.Equal(second.Ratio))
}

func TestComputeDegradedConversionKeepsNativeCurrency(t *testing.T) {
	engine := &Engine{Taxes: vatTaxes("0.1"), Rates: stubRates{}}

	quote, err := engine.Compute(context.Background(), Request{
		Product:         physicalProduct("50.00"),
		Quantity:        1,
		DisplayCurrency: "XYZ",
		Country:         "AU",
	})
	require.NoError(t, err)

	assert.Equal(t, "USD", quote.Currency)
	assert.Nil(t, quote.Original)
	assert.Equal(t, exchange.SourceNone, quote.RateSource)
}

func TestComputeInvalidQuantity(t *testing.T) {
	engine := &Engine{Taxes: vatTaxes("0.1")}

	for _, qty := range []int{0, -1} {
		_, err := engine.Compute(context.Background(), Request{
			Product:  physicalProduct("10.00"),
			Quantity: qty,
		})
		assert.ErrorIs(t, err, ErrInvalidQuantity)
	}
}

func TestComputeQuantityClamping(t *testing.T) {
	stock := 5
	variantStock := 2

	t.Run("product stock", func(t *testing.T) {
		p := physicalProduct("10.00")
		p.Stock = &stock
		engine := &Engine{Taxes: vatTaxes("0")}

		quote, err := engine.Compute(context.Background(), Request{Product: p, Quantity: 9})
		require.NoError(t, err)
		assert.Equal(t, 5, quote.Quantity)
		assert.True(t, quote.QuantityClamped)
		assert.Equal(t, "50.00", quote.Subtotal.StringFixed(2))
	})

	t.Run("variant stock wins", func(t *testing.T) {
		p := physicalProduct("10.00")
		p.Stock = &stock
		p.Variants = []Variant{{ID: "v1", Label: "Small", Stock: &variantStock}}
		engine := &Engine{Taxes: vatTaxes("0")}

		quote, err := engine.Compute(context.Background(), Request{Product: p, Quantity: 9, VariantID: "v1"})
		require.NoError(t, err)
		assert.Equal(t, 2, quote.Quantity)
		assert.True(t, quote.QuantityClamped)
	})

	t.Run("out of stock clamps to one", func(t *testing.T) {
		empty := 0
		p := physicalProduct("10.00")
		p.Stock = &empty
		engine := &Engine{Taxes: vatTaxes("0")}

		quote, err := engine.Compute(context.Background(), Request{Product: p, Quantity: 3})
		require.NoError(t, err)
		assert.Equal(t, 1, quote.Quantity)
		assert.True(t, quote.QuantityClamped)
	})

	t.Run("default ceiling", func(t *testing.T) {
		engine := &Engine{Taxes: vatTaxes("0")}

		quote, err := engine.Compute(context.Background(), Request{Product: physicalProduct("1.00"), Quantity: 500})
		require.NoError(t, err)
		assert.Equal(t, defaultMaxQuantity, quote.Quantity)
		assert.True(t, quote.QuantityClamped)
	})

	t.Run("within limits", func(t *testing.T) {
		engine := &Engine{Taxes: vatTaxes("0")}

		quote, err := engine.Compute(context.Background(), Request{Product: physicalProduct("1.00"), Quantity: 3})
		require.NoError(t, err)
		assert.Equal(t, 3, quote.Quantity)
		assert.False(t, quote.QuantityClamped)
	})
}

func TestComputeShipping(t *testing.T) {
	t.Run("digital products ship free", func(t *testing.T) {
		p := physicalProduct("10.00")
		p.Digital = true
		engine := &Engine{Taxes: vatTaxes("0")}

		quote, err := engine.Compute(context.Background(), Request{Product: p, Quantity: 1, ShippingMethod: "Express"})
		require.NoError(t, err)
		assert.True(t, quote.Shipping.IsZero())
		assert.Empty(t, quote.ShippingMethod)
	})

	t.Run("named method", func(t *testing.T) {
		engine := &Engine{Taxes: vatTaxes("0")}

		quote, err := engine.Compute(context.Background(), Request{Product: physicalProduct("10.00"), Quantity: 1, ShippingMethod: "Express"})
		require.NoError(t, err)
		assert.Equal(t, "25.00", quote.Shipping.StringFixed(2))
		assert.Equal(t, "Express", quote.ShippingMethod)
	})

	t.Run("unknown method uses the first", func(t *testing.T) {
		engine := &Engine{Taxes: vatTaxes("0")}

		quote, err := engine.Compute(context.Background(), Request{Product: physicalProduct("10.00"), Quantity: 1, ShippingMethod: "Teleport"})
		require.NoError(t, err)
		assert.Equal(t, "10.00", quote.Shipping.StringFixed(2))
		assert.Equal(t, "Standard", quote.ShippingMethod)
	})

	t.Run("no methods configured", func(t *testing.T) {
		p := physicalProduct("10.00")
		p.ShippingMethods = nil
		engine := &Engine{Taxes: vatTaxes("0")}

		quote, err := engine.Compute(context.Background(), Request{Product: p, Quantity: 1})
		require.NoError(t, err)
		assert.True(t, quote.Shipping.IsZero())
	})
}

func TestComputeTaxGating(t *testing.T) {
	t.Run("vat disabled skips lookup", func(t *testing.T) {
		p := physicalProduct("100.00")
		p.VATEnabled = false
		engine := &Engine{Taxes: vatTaxes("0.2")}

		quote, err := engine.Compute(context.Background(), Request{Product: p, Quantity: 1, Country: "GB"})
		require.NoError(t, err)
		assert.True(t, quote.Tax.IsZero())
		assert.Equal(t, tax.TypeNone, quote.TaxType)
	})

	t.Run("composite breakdown carried through", func(t *testing.T) {
		engine := &Engine{Taxes: stubTaxes{resolved: tax.Resolved{
			Rate:     decimal.RequireFromString("0.14975"),
			Type:     tax.TypeGSTQST,
			Federal:  decimal.RequireFromString("0.05"),
			Regional: decimal.RequireFromString("0.09975"),
		}}}

		quote, err := engine.Compute(context.Background(), Request{Product: physicalProduct("100.00"), Quantity: 1, Country: "CA", Region: "QC"})
		require.NoError(t, err)
		assert.Equal(t, "14.98", quote.Tax.StringFixed(2))
		assert.Equal(t, "0.05", quote.TaxFederal.String())
		assert.Equal(t, "0.09975", quote.TaxRegional.String())
	})
}

func TestComputeNoAutoLocalPriceSkipsConversion(t *testing.T) {
	p := physicalProduct("100.00")
	p.AutoLocalPrice = false
	engine := &Engine{
		Taxes: vatTaxes("0"),
		Rates: stubRates{rate: decimal.RequireFromString("5"), source: exchange.SourceLive},
	}

	quote, err := engine.Compute(context.Background(), Request{
		Product:         p,
		Quantity:        1,
		DisplayCurrency: "BRL",
		Country:         "BR",
	})
	require.NoError(t, err)
	assert.Equal(t, "USD", quote.Currency)
	assert.Nil(t, quote.Original)
}
