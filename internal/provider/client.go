// Package provider implements the outbound RPC client for the external
// payment provider. The provider is treated as a black box: create a
// checkout, create a refund, and wait for webhooks to report everything else.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"

	"github.com/movelane/payments/internal/config"
)

// Checkout is the provider-side representation of a payment attempt.
type Checkout struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	RedirectURL string `json:"redirectUrl"`
	Mode        string `json:"mode"`
}

// Refund is the provider-side representation of a refund request.
type Refund struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// CreateCheckoutRequest is the payload for creating a checkout.
type CreateCheckoutRequest struct {
	AmountCents int64             `json:"amount"`
	Currency    string            `json:"currency"`
	SuccessURL  string            `json:"successUrl,omitempty"`
	CancelURL   string            `json:"cancelUrl,omitempty"`
	FailureURL  string            `json:"failureUrl,omitempty"`
	ExternalRef string            `json:"externalId"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// CreateRefundRequest is the payload for refunding a checkout.
type CreateRefundRequest struct {
	AmountCents int64  `json:"amount"`
	Reason      string `json:"reason,omitempty"`
}

// APIError is a non-2xx response from the provider.
type APIError struct {
	StatusCode int
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("provider returned %d: %s (%s)", e.StatusCode, e.Message, e.Code)
}

// Client talks HTTP to the provider with explicit connect and request
// timeouts. Checkout creation carries the caller's idempotency key so a
// retried request cannot double-charge.
type Client struct {
	baseURL   string
	secretKey string
	http      *http.Client
	logger    *slog.Logger
}

// NewClient creates a provider client from configuration.
func NewClient(cfg *config.ProviderConfig, logger *slog.Logger) *Client {
	transport := &http.Transport{
		DialContext: (&net.Dialer{Timeout: cfg.ConnectTimeout}).DialContext,
	}

	return &Client{
		baseURL:   cfg.BaseURL,
		secretKey: cfg.SecretKey,
		http: &http.Client{
			Timeout:   cfg.RequestTimeout,
			Transport: transport,
		},
		logger: logger,
	}
}

// CreateCheckout asks the provider to open a new checkout.
func (c *Client) CreateCheckout(ctx context.Context, idempotencyKey string, req CreateCheckoutRequest) (*Checkout, error) {
	var checkout Checkout
	headers := map[string]string{"Idempotency-Key": idempotencyKey}
	if err := c.post(ctx, "/checkouts", headers, req, &checkout); err != nil {
		return nil, err
	}

	c.logger.Info("created provider checkout",
		"checkout_id", checkout.ID,
		"external_reference", req.ExternalRef,
		"amount_cents", req.AmountCents,
		"currency", req.Currency,
	)
	return &checkout, nil
}

// CreateRefund asks the provider to refund part or all of a checkout.
func (c *Client) CreateRefund(ctx context.Context, checkoutID string, req CreateRefundRequest) (*Refund, error) {
	var refund Refund
	path := fmt.Sprintf("/checkouts/%s/refund", checkoutID)
	if err := c.post(ctx, path, nil, req, &refund); err != nil {
		return nil, err
	}

	c.logger.Info("created provider refund",
		"checkout_id", checkoutID,
		"refund_id", refund.ID,
		"amount_cents", req.AmountCents,
	)
	return &refund, nil
}

func (c *Client) post(ctx context.Context, path string, headers map[string]string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode provider request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build provider request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("provider request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
		//nolint:errcheck // body may not be JSON; status code alone is enough
		json.Unmarshal(data, apiErr)
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode provider response: %w", err)
	}
	return nil
}
