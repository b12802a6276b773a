// Package stripe implements payment.Gateway against the Stripe
// PaymentIntents REST API.
package stripe

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/dram-store/internal/domain/payment"
)

const defaultBaseURL = "https://api.stripe.com/v1"

var _ payment.Gateway = (*Client)(nil)

// Client talks to the Stripe PaymentIntents API with a secret key.
type Client struct {
	secretKey string
	baseURL   string
	http      *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL. Used by tests and stripe-mock.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// NewClient creates a Stripe client with the given secret key.
func NewClient(secretKey string, opts ...Option) *Client {
	c := &Client{
		secretKey: secretKey,
		baseURL:   defaultBaseURL,
		http:      &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// intentResponse is the subset of Stripe's PaymentIntent object we consume.
type intentResponse struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
	Status       string `json:"status"`
	Error        *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// CreateIntent creates a payment intent for the amount. It is never retried
// here or by callers: a duplicate create risks charging the customer twice.
func (c *Client) CreateIntent(ctx context.Context, amountMinorUnits int64, currency string) (*payment.Intent, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amountMinorUnits, 10))
	form.Set("currency", currency)
	form.Set("metadata[integration_check]", "accept_a_payment")

	return c.do(ctx, http.MethodPost, "/payment_intents", form)
}

// RetrieveIntent fetches an existing intent by id. Safe to retry.
func (c *Client) RetrieveIntent(ctx context.Context, id string) (*payment.Intent, error) {
	return c.do(ctx, http.MethodGet, "/payment_intents/"+url.PathEscape(id), nil)
}

func (c *Client) do(ctx context.Context, method, path string, form url.Values) (*payment.Intent, error) {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "call stripe")
	}
	defer func() { _ = resp.Body.Close() }()

	var ir intentResponse
	if err := json.NewDecoder(resp.Body).Decode(&ir); err != nil {
		return nil, errors.Wrap(err, "decode stripe response")
	}

	if resp.StatusCode >= http.StatusBadRequest {
		msg := resp.Status
		if ir.Error != nil {
			msg = ir.Error.Message
		}
		return nil, errors.Errorf("stripe %s %s: %s", method, path, msg)
	}

	return &payment.Intent{
		ID:               ir.ID,
		ClientSecret:     ir.ClientSecret,
		AmountMinorUnits: ir.Amount,
		Currency:         ir.Currency,
		Status:           ir.Status,
	}, nil
}
