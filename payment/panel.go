// Package payment records payments against a billing without ever taking
// more than is still owed.
package payment

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/satheeshds/driverdesk/billing"
	"github.com/satheeshds/driverdesk/events"
	"github.com/satheeshds/driverdesk/models"
	"github.com/shopspring/decimal"
)

// Upstream records a payment on the billing service.
type Upstream interface {
	UpdatePayment(ctx context.Context, req models.UpdatePaymentRequest, idempotencyKey string) (*models.Billing, error)
}

// Observer counts payment submissions.
type Observer interface {
	Payment(err error)
}

// State is what the panel shows.
type State struct {
	Billing *models.BillingView `json:"billing"`
	Amount  decimal.Decimal     `json:"amount"`
	Method  string              `json:"method"`
	Error   string              `json:"error,omitempty"`
	Success bool                `json:"success"`
}

// Result describes an accepted payment.
type Result struct {
	InvoiceNo string              `json:"invoiceNo"`
	Amount    decimal.Decimal     `json:"amount"`
	Method    string              `json:"method"`
	Status    string              `json:"paymentStatus"`
	Clamped   bool                `json:"clamped"`
	Billing   *models.BillingView `json:"billing"`
}

// Panel is the payment form for the billing held by its fetcher.
type Panel struct {
	up       Upstream
	fetcher  *billing.Fetcher
	basis    Basis
	events   events.Publisher
	observer Observer
	inFlight atomic.Bool

	mu      sync.Mutex
	amount  decimal.Decimal
	method  string
	err     string
	success bool
}

// Option configures a Panel.
type Option func(*Panel)

// WithEvents publishes a payment.recorded event for each accepted payment.
func WithEvents(p events.Publisher) Option {
	return func(pn *Panel) { pn.events = p }
}

// WithObserver reports each submission outcome.
func WithObserver(o Observer) Option {
	return func(pn *Panel) { pn.observer = o }
}

// NewPanel creates a panel posting to up and refreshing through fetcher.
func NewPanel(up Upstream, fetcher *billing.Fetcher, basis Basis, opts ...Option) *Panel {
	p := &Panel{up: up, fetcher: fetcher, basis: basis, events: events.Noop{}}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// State returns a copy of the panel state.
func (p *Panel) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return State{
		Billing: p.fetcher.Current(),
		Amount:  p.amount,
		Method:  p.method,
		Error:   p.err,
		Success: p.success,
	}
}

// Submit validates and records a payment of amount by method. The amount is
// clamped to what is still owed. On success the billing is refetched and the
// inputs are reset; on failure they are kept for a retry.
func (p *Panel) Submit(ctx context.Context, amount decimal.Decimal, method string) (res *Result, err error) {
	if !p.inFlight.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer p.inFlight.Store(false)
	defer func() {
		if p.observer != nil {
			p.observer.Payment(err)
		}
	}()

	method = strings.TrimSpace(method)
	p.mu.Lock()
	p.amount, p.method, p.success = amount, method, false
	p.mu.Unlock()

	res, err = p.submit(ctx, amount, method)

	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		p.err = err.Error()
		return nil, err
	}
	p.amount, p.method, p.err, p.success = decimal.Zero, "", "", true
	return res, nil
}

func validate(amount decimal.Decimal, method string) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(method) == "" {
		return ErrMissingMethod
	}
	return nil
}

func (p *Panel) submit(ctx context.Context, amount decimal.Decimal, method string) (*Result, error) {
	if err := validate(amount, method); err != nil {
		return nil, err
	}
	view := p.fetcher.Current()
	if view == nil {
		return nil, ErrNoBilling
	}

	clamped := Clamp(amount, view.RemainingAmount)
	if clamped.IsZero() {
		return nil, ErrSettled
	}
	req := models.UpdatePaymentRequest{
		InvoiceNo:     view.InvoiceNo,
		PaymentAmount: clamped,
		PaymentMethod: method,
		PaymentStatus: StatusFor(p.basis, clamped, view.BillingAmount, view.RemainingAmount),
	}

	if _, err := p.up.UpdatePayment(ctx, req, uuid.NewString()); err != nil {
		slog.Error("update payment failed", "invoiceNo", req.InvoiceNo, "error", err)
		return nil, fmt.Errorf("recording payment: %w", err)
	}
	slog.Info("payment recorded", "invoiceNo", req.InvoiceNo, "amount", clamped.String(), "method", method, "paymentStatus", req.PaymentStatus)

	res := &Result{
		InvoiceNo: req.InvoiceNo,
		Amount:    clamped,
		Method:    method,
		Status:    req.PaymentStatus,
		Clamped:   !clamped.Equal(amount),
	}
	// The payment is already recorded; a failed refresh leaves the old view.
	if fresh, err := p.fetcher.Reload(ctx); err == nil {
		res.Billing = fresh
	} else {
		res.Billing = p.fetcher.Current()
	}

	if err := p.events.Publish(context.WithoutCancel(ctx), events.Event{
		Type:          events.TypePaymentRecorded,
		InvoiceNo:     req.InvoiceNo,
		PaymentStatus: req.PaymentStatus,
		Amount:        clamped.String(),
		Method:        method,
	}); err != nil {
		slog.Warn("publishing payment event failed", "invoiceNo", req.InvoiceNo, "error", err)
	}
	return res, nil
}
