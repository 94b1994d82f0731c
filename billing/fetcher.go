// Package billing loads a billing from the billing service and keeps the
// last good copy with its derived fields.
package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/satheeshds/driverdesk/models"
)

var (
	// ErrNoRef is returned when a Ref carries neither an id nor an invoice number.
	ErrNoRef = errors.New("billing id or invoice number is required")
	// ErrInvalidRecord is returned when the service sends a billing that breaks
	// the product invariants.
	ErrInvalidRecord = errors.New("invalid billing record")
	// ErrNothingLoaded is returned by Reload before any successful Load.
	ErrNothingLoaded = errors.New("no billing loaded")
)

// Source is where billings come from.
type Source interface {
	GetBilling(ctx context.Context, id string) (*models.Billing, error)
	GetBillingByInvoice(ctx context.Context, invoiceNo string) (*models.Billing, error)
}

// Ref identifies a billing by id or invoice number. ID wins when both are set.
type Ref struct {
	ID        string
	InvoiceNo string
}

// ByID references a billing by its backend id.
func ByID(id string) Ref { return Ref{ID: id} }

// ByInvoice references a billing by its invoice number.
func ByInvoice(invoiceNo string) Ref { return Ref{InvoiceNo: invoiceNo} }

func (r Ref) String() string {
	if r.ID != "" {
		return "id " + r.ID
	}
	return "invoice " + r.InvoiceNo
}

// Fetcher loads billings and remembers the last one that loaded cleanly.
type Fetcher struct {
	src Source

	mu   sync.Mutex
	view *models.BillingView
	err  string
}

// New creates a fetcher reading from src.
func New(src Source) *Fetcher {
	return &Fetcher{src: src}
}

// Load fetches the billing for ref and replaces the current view. On failure
// the previous view is kept and the error message is recorded.
func (f *Fetcher) Load(ctx context.Context, ref Ref) (*models.BillingView, error) {
	b, err := f.fetch(ctx, ref)

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		slog.Warn("billing load failed", "ref", ref.String(), "error", err)
		f.err = err.Error()
		return nil, err
	}
	view := models.NewBillingView(*b)
	f.view = &view
	f.err = ""
	return f.copyView(), nil
}

// Reload refetches the current billing by its invoice number.
func (f *Fetcher) Reload(ctx context.Context) (*models.BillingView, error) {
	f.mu.Lock()
	if f.view == nil {
		f.mu.Unlock()
		return nil, ErrNothingLoaded
	}
	ref := Ref{ID: f.view.ID, InvoiceNo: f.view.InvoiceNo}
	if ref.InvoiceNo != "" {
		ref.ID = ""
	}
	f.mu.Unlock()
	return f.Load(ctx, ref)
}

// Current returns a copy of the loaded view, or nil.
func (f *Fetcher) Current() *models.BillingView {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.copyView()
}

// Err returns the message of the last failed load, cleared by a successful one.
func (f *Fetcher) Err() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

// Reset forgets the loaded billing.
func (f *Fetcher) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.view = nil
	f.err = ""
}

func (f *Fetcher) fetch(ctx context.Context, ref Ref) (*models.Billing, error) {
	var (
		b   *models.Billing
		err error
	)
	switch {
	case ref.ID != "":
		b, err = f.src.GetBilling(ctx, ref.ID)
	case ref.InvoiceNo != "":
		b, err = f.src.GetBillingByInvoice(ctx, ref.InvoiceNo)
	default:
		return nil, ErrNoRef
	}
	if err != nil {
		return nil, fmt.Errorf("fetching billing %s: %w", ref, err)
	}
	if b == nil {
		return nil, fmt.Errorf("%w: empty response for %s", ErrInvalidRecord, ref)
	}
	if err := b.CheckProducts(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	return b, nil
}

func (f *Fetcher) copyView() *models.BillingView {
	if f.view == nil {
		return nil
	}
	v := *f.view
	v.SelectedProducts = append([]string{}, f.view.SelectedProducts...)
	return &v
}
