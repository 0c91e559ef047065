package pricing

import "github.com/shopspring/decimal"

// ShippingMethod is one of a product's configured delivery options.
type ShippingMethod struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// Variant is a sellable variation of a product. A nil Stock means the variant
// is not stock-tracked.
type Variant struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Stock *int   `json:"stock,omitempty"`
}

// Product is the snapshot of a catalogue entry consumed by the engine. It is
// owned by the merchant catalogue upstream; the engine only reads it.
type Product struct {
	ID              string           `json:"id"`
	Title           string           `json:"title"`
	Price           decimal.Decimal  `json:"price"`
	Currency        string           `json:"currency"`
	AutoLocalPrice  bool             `json:"autoLocalPrice"`
	VATEnabled      bool             `json:"vatEnabled"`
	Digital         bool             `json:"digital"`
	ShippingMethods []ShippingMethod `json:"shippingMethods,omitempty"`
	Variants        []Variant        `json:"variants,omitempty"`
	Stock           *int             `json:"stock,omitempty"`
}

// VariantByID returns the matching variant, if any.
func (p Product) VariantByID(id string) (Variant, bool) {
	if id == "" {
		return Variant{}, false
	}
	for _, v := range p.Variants {
		if v.ID == id {
			return v, true
		}
	}
	return Variant{}, false
}

// shippingPrice resolves the fee for the named method. Digital products ship
// for free; an unknown method name means "use the default", never an error.
func shippingPrice(p Product, methodName string) (decimal.Decimal, string) {
	if p.Digital || len(p.ShippingMethods) == 0 {
		return decimal.Decimal{}, ""
	}
	if methodName != "" {
		for _, m := range p.ShippingMethods {
			if m.Name == methodName {
				return m.Price, m.Name
			}
		}
	}
	first := p.ShippingMethods[0]
	return first.Price, first.Name
}
