package transaction

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-checkout/internal/pricing"
)

// Buyer carries the billing fields submitted with a transaction.
type Buyer struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Country      string `json:"country"`
	Region       string `json:"region,omitempty"`
	City         string `json:"city,omitempty"`
	PostalCode   string `json:"postalCode,omitempty"`
	AddressLine1 string `json:"addressLine1,omitempty"`
}

// Item is one purchased line in the submission payload.
type Item struct {
	ProductID         string            `json:"productId"`
	Title             string            `json:"title"`
	Quantity          int               `json:"quantity"`
	VariantSelections map[string]string `json:"variantSelections,omitempty"`
	UnitPrice         decimal.Decimal   `json:"unitPrice"`
	Currency          string            `json:"currency"`
}

// Payload is the transaction creation request sent to the external ledger.
// The receiving system assigns the canonical transaction identifier.
type Payload struct {
	Currency       string            `json:"currency"`
	Subtotal       decimal.Decimal   `json:"subtotal"`
	Tax            decimal.Decimal   `json:"tax"`
	Shipping       decimal.Decimal   `json:"shipping"`
	Total          decimal.Decimal   `json:"total"`
	TaxRate        decimal.Decimal   `json:"taxRate"`
	TaxType        string            `json:"taxType"`
	Items          []Item            `json:"items"`
	Buyer          Buyer             `json:"buyer"`
	PaymentMethod  string            `json:"paymentMethod"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	IdempotencyKey string            `json:"idempotencyKey,omitempty"`
}

// BuildItem assembles a line item from a quote. Pure data assembly; no
// computation happens here.
func BuildItem(product pricing.Product, quantity int, selections map[string]string, quote pricing.Quote) Item {
	return Item{
		ProductID:         product.ID,
		Title:             product.Title,
		Quantity:          quantity,
		VariantSelections: selections,
		UnitPrice:         quote.UnitPrice,
		Currency:          quote.Currency,
	}
}

// Build assembles the full submission payload. When the quote was converted,
// the metadata bag retains the native-currency amounts so the receiving system
// can audit the conversion later.
func Build(product pricing.Product, selections map[string]string, quote pricing.Quote, buyer Buyer, paymentMethod string) Payload {
	payload := Payload{
		Currency:      quote.Currency,
		Subtotal:      quote.Subtotal,
		Tax:           quote.Tax,
		Shipping:      quote.Shipping,
		Total:         quote.Total,
		TaxRate:       quote.TaxRate,
		TaxType:       string(quote.TaxType),
		Items:         []Item{BuildItem(product, quote.Quantity, selections, quote)},
		Buyer:         buyer,
		PaymentMethod: paymentMethod,
	}
	if quote.Original != nil {
		payload.Metadata = map[string]string{
			"originalCurrency":  quote.Original.Currency,
			"originalUnitPrice": quote.Original.UnitPrice.StringFixed(2),
			"originalSubtotal":  quote.Original.Subtotal.StringFixed(2),
			"originalTotal":     quote.Original.Total.StringFixed(2),
			"conversionRatio":   quote.Ratio.String(),
			"rateSource":        quote.RateSource,
		}
	}
	return payload
}
