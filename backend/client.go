// Package backend is the HTTP client for the billing service that owns
// billings, payments and delivery runs.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/satheeshds/driverdesk/models"
)

// Upstream endpoints.
const (
	pathBillingByID       = "/api/billing/%s"
	pathBillingByInvoice  = "/api/billing/getinvoice/%s"
	pathStartDelivery     = "/api/users/billing/start-delivery"
	pathEndDelivery       = "/api/users/billing/end-delivery"
	pathAbandonDelivery   = "/api/users/billing/abandon-delivery"
	pathUpdatePayment     = "/api/users/billing/update-payment"
	pathLocationByInvoice = "/api/users/locations/invoice/%s"

	// BillingSuggestions is the search template used for invoice lookups.
	BillingSuggestions = "/api/billing/billing/suggestions?search={q}"
)

// Error is a non-2xx answer from the billing service.
type Error struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: billing service returned %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: billing service returned %d: %s", e.Op, e.StatusCode, e.Message)
}

// IsNotFound reports whether err is a 404 from the billing service.
func IsNotFound(err error) bool {
	var be *Error
	return errors.As(err, &be) && be.StatusCode == http.StatusNotFound
}

// ObserveFunc receives the outcome of every call. status is 0 on transport errors.
type ObserveFunc func(op string, status int, elapsed time.Duration)

// Client talks JSON over HTTP to the billing service.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	observe ObserveFunc
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithObserver installs a callback invoked after every request.
func WithObserver(fn ObserveFunc) Option {
	return func(c *Client) { c.observe = fn }
}

// New creates a client for the billing service at baseURL. token, when set,
// is sent as a bearer token on every request.
func New(baseURL, token string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetBilling fetches a billing by its backend id.
func (c *Client) GetBilling(ctx context.Context, id string) (*models.Billing, error) {
	var b models.Billing
	if err := c.do(ctx, "get_billing", http.MethodGet, fmt.Sprintf(pathBillingByID, url.PathEscape(id)), nil, "", &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// GetBillingByInvoice fetches a billing by its invoice number.
func (c *Client) GetBillingByInvoice(ctx context.Context, invoiceNo string) (*models.Billing, error) {
	var b models.Billing
	if err := c.do(ctx, "get_invoice", http.MethodGet, fmt.Sprintf(pathBillingByInvoice, url.PathEscape(invoiceNo)), nil, "", &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// Suggestions runs a search. template is an endpoint path where {q} stands
// for the escaped query, e.g. BillingSuggestions.
func (c *Client) Suggestions(ctx context.Context, template, query string) ([]models.Suggestion, error) {
	path := strings.ReplaceAll(template, "{q}", url.QueryEscape(query))
	var out []models.Suggestion
	if err := c.do(ctx, "suggestions", http.MethodGet, path, nil, "", &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.Suggestion{}
	}
	return out, nil
}

// StartDelivery opens a delivery run.
func (c *Client) StartDelivery(ctx context.Context, req models.StartDeliveryRequest) error {
	return c.do(ctx, "start_delivery", http.MethodPost, pathStartDelivery, req, "", nil)
}

// EndDelivery closes a delivery run.
func (c *Client) EndDelivery(ctx context.Context, req models.EndDeliveryRequest, idempotencyKey string) error {
	return c.do(ctx, "end_delivery", http.MethodPost, pathEndDelivery, req, idempotencyKey, nil)
}

// AbandonDelivery tells the billing service a started run was given up.
func (c *Client) AbandonDelivery(ctx context.Context, req models.AbandonDeliveryRequest) error {
	return c.do(ctx, "abandon_delivery", http.MethodPost, pathAbandonDelivery, req, "", nil)
}

// UpdatePayment records a payment. The service answers either with the
// updated billing or with a bare acknowledgement, in which case the
// returned billing is nil.
func (c *Client) UpdatePayment(ctx context.Context, req models.UpdatePaymentRequest, idempotencyKey string) (*models.Billing, error) {
	var raw json.RawMessage
	if err := c.do(ctx, "update_payment", http.MethodPost, pathUpdatePayment, req, idempotencyKey, &raw); err != nil {
		return nil, err
	}
	var b models.Billing
	if len(raw) == 0 || json.Unmarshal(raw, &b) != nil || b.InvoiceNo == "" {
		return nil, nil
	}
	return &b, nil
}

// DeliveryLocation fetches the start/end positions recorded for an invoice.
func (c *Client) DeliveryLocation(ctx context.Context, invoiceNo string) (*models.DeliveryLocationRecord, error) {
	var rec models.DeliveryLocationRecord
	if err := c.do(ctx, "delivery_location", http.MethodGet, fmt.Sprintf(pathLocationByInvoice, url.PathEscape(invoiceNo)), nil, "", &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, body any, idempotencyKey string, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encoding request: %w", op, err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s: building request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.record(op, 0, start)
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()
	c.record(op, resp.StatusCode, start)

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: reading response: %w", op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{Op: op, StatusCode: resp.StatusCode, Message: errorMessage(data)}
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: decoding response: %w", op, err)
	}
	return nil
}

func (c *Client) record(op string, status int, start time.Time) {
	if c.observe != nil {
		c.observe(op, status, time.Since(start))
	}
}

// errorMessage pulls a human readable message out of an error body.
func errorMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}
