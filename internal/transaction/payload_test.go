package transaction

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-checkout/internal/exchange"
	"github.com/noah-isme/backend-checkout/internal/pricing"
)

func testProduct() pricing.Product {
	return pricing.Product{
		ID:       "prod-9",
		Title:    "Widget",
		Price:    decimal.RequireFromString("100.00"),
		Currency: "USD",
	}
}

func nativeQuote() pricing.Quote {
	return pricing.Quote{
		Currency:   "USD",
		UnitPrice:  decimal.RequireFromString("100.00"),
		Subtotal:   decimal.RequireFromString("200.00"),
		Tax:        decimal.RequireFromString("34.00"),
		Shipping:   decimal.RequireFromString("10.00"),
		Total:      decimal.RequireFromString("244.00"),
		TaxRate:    decimal.RequireFromString("0.17"),
		TaxType:    "vat",
		Quantity:   2,
		Ratio:      decimal.NewFromInt(1),
		RateSource: exchange.SourceIdentity,
	}
}

func TestBuildNativeQuoteHasNoMetadata(t *testing.T) {
	buyer := Buyer{Name: "Ana", Email: "ana@example.com", Country: "BR"}

	payload := Build(testProduct(), map[string]string{"size": "M"}, nativeQuote(), buyer, "card")

	assert.Equal(t, "USD", payload.Currency)
	assert.Equal(t, "244.00", payload.Total.StringFixed(2))
	assert.Equal(t, "vat", payload.TaxType)
	assert.Equal(t, "card", payload.PaymentMethod)
	assert.Nil(t, payload.Metadata)

	require.Len(t, payload.Items, 1)
	item := payload.Items[0]
	assert.Equal(t, "prod-9", item.ProductID)
	assert.Equal(t, 2, item.Quantity)
	assert.Equal(t, map[string]string{"size": "M"}, item.VariantSelections)
	assert.Equal(t, "100.00", item.UnitPrice.StringFixed(2))
}

func TestBuildConvertedQuoteRetainsAudit(t *testing.T) {
	quote := nativeQuote()
	quote.Currency = "BRL"
	quote.UnitPrice = decimal.RequireFromString("588.00")
	quote.Subtotal = decimal.RequireFromString("1176.00")
	quote.Tax = decimal.RequireFromString("199.92")
	quote.Shipping = decimal.RequireFromString("58.80")
	quote.Total = decimal.RequireFromString("1434.72")
	quote.Ratio = decimal.RequireFromString("5.88")
	quote.RateSource = exchange.SourceLive
	quote.Original = &pricing.Original{
		Currency:  "USD",
		UnitPrice: decimal.RequireFromString("100.00"),
		Subtotal:  decimal.RequireFromString("200.00"),
		Tax:       decimal.RequireFromString("34.00"),
		Shipping:  decimal.RequireFromString("10.00"),
		Total:     decimal.RequireFromString("244.00"),
	}

	payload := Build(testProduct(), nil, quote, Buyer{Name: "Ana", Email: "ana@example.com"}, "pix")

	assert.Equal(t, "BRL", payload.Currency)
	require.NotNil(t, payload.Metadata)
	assert.Equal(t, "USD", payload.Metadata["originalCurrency"])
	assert.Equal(t, "100.00", payload.Metadata["originalUnitPrice"])
	assert.Equal(t, "200.00", payload.Metadata["originalSubtotal"])
	assert.Equal(t, "244.00", payload.Metadata["originalTotal"])
	assert.Equal(t, "5.88", payload.Metadata["conversionRatio"])
	assert.Equal(t, exchange.SourceLive, payload.Metadata["rateSource"])
}
