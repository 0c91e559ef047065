package checkout

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-checkout/internal/tax"
	"github.com/noah-isme/backend-checkout/internal/transaction"
)

func testRouter(t *testing.T, svc *Service) *chi.Mux {
	t.Helper()
	taxes := &tax.Resolver{Logger: zerolog.Nop()}
	h := &Handler{Svc: svc, Taxes: taxes, Validate: validator.New()}

	r := chi.NewRouter()
	r.Post("/v1/quotes", h.Quote)
	r.Post("/v1/transactions", h.CreateTransaction)
	r.Get("/v1/currencies", h.Currencies)
	r.Get("/v1/currencies/{country}", h.CurrencyForCountry)
	r.Get("/v1/tax-rates/{country}", h.TaxRate)
	return r
}

func doJSON(t *testing.T, router *chi.Mux, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var envelope struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope.Data
}

func TestQuoteHandler(t *testing.T) {
	svc, _ := testService("5.88", "0.17")
	router := testRouter(t, svc)

	rec := doJSON(t, router, http.MethodPost, "/v1/quotes", quoteInput())
	require.Equal(t, http.StatusOK, rec.Code)

	data := decodeData(t, rec)
	assert.Equal(t, "BRL", data["currency"])
	assert.Equal(t, "1434.72", data["total"])
	assert.Equal(t, "199.92", data["tax"])
	assert.Equal(t, "R$1.434,72", data["formattedTotal"])

	original, ok := data["original"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "USD", original["currency"])
	assert.Equal(t, "244.00", original["total"])
}

func TestQuoteHandlerBadBody(t *testing.T) {
	svc, _ := testService("0", "0")
	router := testRouter(t, svc)

	req := httptest.NewRequest(http.MethodPost, "/v1/quotes", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "BAD_REQUEST")
}

func TestQuoteHandlerValidation(t *testing.T) {
	svc, _ := testService("0", "0")
	router := testRouter(t, svc)

	in := quoteInput()
	in.Quantity = 0
	rec := doJSON(t, router, http.MethodPost, "/v1/quotes", in)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "VALIDATION")
}

func TestCreateTransactionHandler(t *testing.T) {
	svc, submitter := testService("0", "0.2")
	router := testRouter(t, svc)

	in := quoteInput()
	in.DisplayCurrency = "USD"
	rec := doJSON(t, router, http.MethodPost, "/v1/transactions", TransactionInput{
		QuoteInput:    in,
		Buyer:         transaction.Buyer{Name: "Ana", Email: "ana@example.com"},
		PaymentMethod: "card",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	data := decodeData(t, rec)
	assert.Equal(t, "tx-1", data["transactionId"])
	assert.Equal(t, "pending", data["status"])
	assert.Equal(t, 1, submitter.calls)

	quote, ok := data["quote"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "USD", quote["currency"])
}

func TestCreateTransactionHandlerMissingPaymentMethod(t *testing.T) {
	svc, _ := testService("0", "0")
	router := testRouter(t, svc)

	rec := doJSON(t, router, http.MethodPost, "/v1/transactions", TransactionInput{
		QuoteInput: quoteInput(),
		Buyer:      transaction.Buyer{Name: "Ana", Email: "ana@example.com"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "VALIDATION")
}

func TestCurrenciesHandler(t *testing.T) {
	svc, _ := testService("0", "0")
	router := testRouter(t, svc)

	rec := doJSON(t, router, http.MethodGet, "/v1/currencies", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data []map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NotEmpty(t, envelope.Data)
	assert.Equal(t, "USD", envelope.Data[0]["code"])
}

func TestCurrencyForCountryHandler(t *testing.T) {
	svc, _ := testService("0", "0")
	router := testRouter(t, svc)

	rec := doJSON(t, router, http.MethodGet, "/v1/currencies/br", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	data := decodeData(t, rec)
	assert.Equal(t, "BR", data["country"])
	assert.Equal(t, "BRL", data["currency"])
	assert.Equal(t, true, data["instantRail"])
}

func TestTaxRateHandler(t *testing.T) {
	svc, _ := testService("0", "0")
	router := testRouter(t, svc)

	t.Run("composite region includes breakdown", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/v1/tax-rates/CA?region=QC", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		data := decodeData(t, rec)
		assert.Equal(t, "CA", data["country"])
		assert.Equal(t, "QC", data["region"])
		assert.Equal(t, "gst_qst", data["type"])
		assert.Equal(t, "0.14975", data["rate"])
		assert.Equal(t, "0.05", data["federalRate"])
		assert.Equal(t, "0.09975", data["regionalRate"])
	})

	t.Run("unknown country resolves to none", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/v1/tax-rates/ZZ", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		data := decodeData(t, rec)
		assert.Equal(t, "none", data["type"])
		assert.Equal(t, "0", data["rate"])
	})
}
