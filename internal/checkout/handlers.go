package checkout

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"

	"github.com/noah-isme/backend-checkout/internal/common"
	"github.com/noah-isme/backend-checkout/internal/tax"
)

// Handler exposes the pricing core over HTTP.
type Handler struct {
	Svc      *Service
	Taxes    *tax.Resolver
	Validate *validator.Validate
}

// Quote computes a price quote for a product snapshot.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	var in QuoteInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return
	}
	if err := h.validate(in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		return
	}
	in.ClientIP = common.ClientIP(r)

	result, err := h.Svc.Quote(r.Context(), in)
	if err != nil {
		h.renderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": serialiseResult(result)})
}

// CreateTransaction computes the quote server-side and submits the
// transaction to the external ledger.
func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var in TransactionInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", nil)
		return
	}
	if err := h.validate(in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		return
	}
	in.ClientIP = common.ClientIP(r)

	receipt, result, err := h.Svc.CreateTransaction(r.Context(), in)
	if err != nil {
		h.renderError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{
		"data": map[string]any{
			"transactionId": receipt.TransactionID,
			"status":        receipt.Status,
			"quote":         serialiseResult(result),
		},
	})
}

// Currencies lists the currency registry.
func (h *Handler) Currencies(w http.ResponseWriter, _ *http.Request) {
	all := h.Svc.Registry.All()
	out := make([]map[string]any, 0, len(all))
	for _, c := range all {
		out = append(out, map[string]any{
			"code":        c.Code,
			"symbol":      c.Symbol,
			"name":        c.Name,
			"countries":   c.Countries,
			"instantRail": c.InstantRail,
		})
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": out})
}

// CurrencyForCountry resolves a country to its currency.
func (h *Handler) CurrencyForCountry(w http.ResponseWriter, r *http.Request) {
	country := strings.ToUpper(chi.URLParam(r, "country"))
	code := h.Svc.Registry.ForCountry(country)
	common.JSON(w, http.StatusOK, map[string]any{
		"data": map[string]any{
			"country":     country,
			"currency":    code,
			"instantRail": h.Svc.Registry.InstantRailSupported(code),
		},
	})
}

// TaxRate resolves the effective tax rate for a jurisdiction.
func (h *Handler) TaxRate(w http.ResponseWriter, r *http.Request) {
	if h.Taxes == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "tax resolver not configured", nil)
		return
	}
	country := chi.URLParam(r, "country")
	region := r.URL.Query().Get("region")
	resolved := h.Taxes.Rate(r.Context(), country, region)

	data := map[string]any{
		"country": strings.ToUpper(country),
		"rate":    resolved.Rate,
		"type":    string(resolved.Type),
	}
	if region != "" {
		data["region"] = strings.ToUpper(region)
	}
	if resolved.Regional.IsPositive() {
		data["federalRate"] = resolved.Federal
		data["regionalRate"] = resolved.Regional
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": data})
}

func (h *Handler) validate(v any) error {
	if h.Validate == nil {
		return nil
	}
	return h.Validate.Struct(v)
}

func (h *Handler) renderError(w http.ResponseWriter, err error) {
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		common.JSONError(w, appErr.HTTPStatus, appErr.Code, appErr.Message, appErr.Details)
		return
	}
	common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to process request", nil)
}

func serialiseResult(result QuoteResult) map[string]any {
	q := result.Quote
	data := map[string]any{
		"currency":        q.Currency,
		"unitPrice":       q.UnitPrice.StringFixed(2),
		"subtotal":        q.Subtotal.StringFixed(2),
		"tax":             q.Tax.StringFixed(2),
		"shipping":        q.Shipping.StringFixed(2),
		"total":           q.Total.StringFixed(2),
		"formattedTotal":  result.FormattedTotal,
		"taxRate":         q.TaxRate,
		"taxType":         string(q.TaxType),
		"quantity":        q.Quantity,
		"quantityClamped": q.QuantityClamped,
		"country":         result.Country,
		"instantRail":     result.InstantRail,
		"rateSource":      q.RateSource,
	}
	if q.ShippingMethod != "" {
		data["shippingMethod"] = q.ShippingMethod
	}
	if q.TaxRegional.IsPositive() {
		data["taxBreakdown"] = map[string]any{
			"federal":  q.TaxFederal,
			"regional": q.TaxRegional,
		}
	}
	if q.Original != nil {
		data["original"] = map[string]any{
			"currency":  q.Original.Currency,
			"unitPrice": q.Original.UnitPrice.StringFixed(2),
			"subtotal":  q.Original.Subtotal.StringFixed(2),
			"total":     q.Original.Total.StringFixed(2),
		}
		data["conversionRatio"] = q.Ratio.String()
	}
	return data
}
