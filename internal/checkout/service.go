package checkout

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/noah-isme/backend-checkout/internal/common"
	"github.com/noah-isme/backend-checkout/internal/currency"
	"github.com/noah-isme/backend-checkout/internal/exchange"
	"github.com/noah-isme/backend-checkout/internal/geo"
	"github.com/noah-isme/backend-checkout/internal/pricing"
	"github.com/noah-isme/backend-checkout/internal/transaction"
)

// QuoteInput is a request for a price quote. Country and DisplayCurrency are
// optional; missing values are derived from the buyer's IP and the detected
// country's currency.
type QuoteInput struct {
	Product         pricing.Product `json:"product"`
	Quantity        int             `json:"quantity" validate:"required,gte=1"`
	VariantID       string          `json:"variantId,omitempty"`
	ShippingMethod  string          `json:"shippingMethod,omitempty"`
	DisplayCurrency string          `json:"displayCurrency,omitempty" validate:"omitempty,len=3,alpha"`
	Country         string          `json:"country,omitempty" validate:"omitempty,len=2,alpha"`
	Region          string          `json:"region,omitempty"`

	ClientIP string `json:"-"`
}

// TransactionInput extends a quote request with the buyer and payment fields
// needed to submit the transaction.
type TransactionInput struct {
	QuoteInput
	VariantSelections map[string]string `json:"variantSelections,omitempty"`
	Buyer             transaction.Buyer `json:"buyer"`
	PaymentMethod     string            `json:"paymentMethod" validate:"required"`
}

// QuoteResult is a computed quote plus the resolved locale context.
type QuoteResult struct {
	Quote          pricing.Quote
	Country        string
	FormattedTotal string
	InstantRail    bool
}

// Service wires the pricing core together: country detection, currency
// resolution, quoting and transaction submission. When Rates is set, each
// request runs against its own rate session so every conversion within the
// flow observes a single rate.
type Service struct {
	Registry *currency.Registry
	Engine   *pricing.Engine
	Geo      *geo.Locator
	Submit   transaction.Submitter
	Rates    *exchange.Resolver
}

// Quote resolves the buyer's jurisdiction and display currency, then computes
// the price breakdown.
func (s *Service) Quote(ctx context.Context, in QuoteInput) (QuoteResult, error) {
	if s == nil || s.Engine == nil || s.Registry == nil {
		return QuoteResult{}, errors.New("checkout service not configured")
	}
	if err := validateProduct(in.Product); err != nil {
		return QuoteResult{}, err
	}

	country := strings.ToUpper(strings.TrimSpace(in.Country))
	if country == "" && s.Geo != nil {
		country = s.Geo.Country(ctx, in.ClientIP)
	}

	display := strings.ToUpper(strings.TrimSpace(in.DisplayCurrency))
	if display == "" {
		display = s.Registry.ForCountry(country)
	}

	engine := s.Engine
	if s.Rates != nil {
		scoped := *s.Engine
		scoped.Rates = exchange.NewSession(s.Rates)
		engine = &scoped
	}

	quote, err := engine.Compute(ctx, pricing.Request{
		Product:         in.Product,
		Quantity:        in.Quantity,
		VariantID:       in.VariantID,
		ShippingMethod:  in.ShippingMethod,
		DisplayCurrency: display,
		Country:         country,
		Region:          strings.ToUpper(strings.TrimSpace(in.Region)),
	})
	if err != nil {
		if errors.Is(err, pricing.ErrInvalidQuantity) {
			return QuoteResult{}, common.NewAppError("VALIDATION", "quantity must be a positive integer", http.StatusBadRequest, err)
		}
		return QuoteResult{}, err
	}

	return QuoteResult{
		Quote:          quote,
		Country:        country,
		FormattedTotal: s.Registry.Format(quote.Total, quote.Currency),
		InstantRail:    s.Registry.InstantRailSupported(quote.Currency),
	}, nil
}

// CreateTransaction recomputes the quote server-side, assembles the payload
// and submits it to the external ledger. Submission failures surface to the
// buyer; nothing is recorded locally until the ledger confirms.
func (s *Service) CreateTransaction(ctx context.Context, in TransactionInput) (transaction.Receipt, QuoteResult, error) {
	if s == nil || s.Submit == nil {
		return transaction.Receipt{}, QuoteResult{}, errors.New("transaction submitter not configured")
	}
	if err := validateBuyer(in.Buyer); err != nil {
		return transaction.Receipt{}, QuoteResult{}, err
	}

	result, err := s.Quote(ctx, in.QuoteInput)
	if err != nil {
		return transaction.Receipt{}, QuoteResult{}, err
	}

	payload := transaction.Build(in.Product, in.VariantSelections, result.Quote, in.Buyer, in.PaymentMethod)
	if payload.Buyer.Country == "" {
		payload.Buyer.Country = result.Country
	}

	receipt, err := s.Submit.Submit(ctx, payload)
	if err != nil {
		return transaction.Receipt{}, result, common.NewAppError(
			"SUBMISSION_FAILED",
			"transaction could not be created, please retry",
			http.StatusBadGateway,
			err,
		)
	}
	return receipt, result, nil
}

func validateProduct(p pricing.Product) error {
	switch {
	case strings.TrimSpace(p.ID) == "":
		return common.NewAppError("VALIDATION", "product.id is required", http.StatusBadRequest, nil)
	case strings.TrimSpace(p.Currency) == "":
		return common.NewAppError("VALIDATION", "product.currency is required", http.StatusBadRequest, nil)
	case p.Price.IsNegative():
		return common.NewAppError("VALIDATION", "product.price must not be negative", http.StatusBadRequest, nil)
	}
	return nil
}

func validateBuyer(b transaction.Buyer) error {
	switch {
	case strings.TrimSpace(b.Name) == "":
		return common.NewAppError("VALIDATION", "buyer.name is required", http.StatusBadRequest, nil)
	case strings.TrimSpace(b.Email) == "":
		return common.NewAppError("VALIDATION", "buyer.email is required", http.StatusBadRequest, nil)
	}
	return nil
}
