package transaction

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-checkout/internal/obs"
	"github.com/noah-isme/backend-checkout/internal/resilience"
)

// Receipt is the external ledger's acknowledgement of a created transaction.
type Receipt struct {
	TransactionID string `json:"transactionId"`
	Status        string `json:"status"`
}

// Submitter creates transactions in the external ledger. Unlike the pricing
// resolvers, submission failures are real errors: they surface to the buyer
// with a retry affordance instead of degrading silently.
type Submitter interface {
	Submit(ctx context.Context, payload Payload) (Receipt, error)
}

// HTTPSubmitter posts the payload to the transaction-creation endpoint.
type HTTPSubmitter struct {
	URL  string
	HTTP *resilience.HTTPClient
}

// Submit performs the creation call. An idempotency key is attached so the
// buyer's retry after a transport failure cannot double-charge.
func (s *HTTPSubmitter) Submit(ctx context.Context, payload Payload) (Receipt, error) {
	if s == nil || s.HTTP == nil || strings.TrimSpace(s.URL) == "" {
		return Receipt{}, errors.New("transaction: submitter not configured")
	}
	if payload.IdempotencyKey == "" {
		payload.IdempotencyKey = uuid.NewString()
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return Receipt{}, fmt.Errorf("transaction: encode payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(body))
	if err != nil {
		return Receipt{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", payload.IdempotencyKey)

	resp, err := s.HTTP.Do(ctx, req)
	if err != nil {
		s.count("error")
		return Receipt{}, fmt.Errorf("transaction: submit: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		s.count("rejected")
		return Receipt{}, fmt.Errorf("transaction: ledger returned %s", resp.Status)
	}

	var receipt Receipt
	if err := json.NewDecoder(resp.Body).Decode(&receipt); err != nil {
		s.count("error")
		return Receipt{}, fmt.Errorf("transaction: decode receipt: %w", err)
	}
	if receipt.TransactionID == "" {
		s.count("error")
		return Receipt{}, errors.New("transaction: ledger response missing transaction id")
	}
	s.count("ok")
	return receipt, nil
}

func (s *HTTPSubmitter) count(result string) {
	if obs.TransactionSubmitTotal != nil {
		obs.TransactionSubmitTotal.WithLabelValues(result).Inc()
	}
}
