package payment

import (
	"context"
	"time"

	"github.com/satheeshds/driverdesk/billing"
	"github.com/satheeshds/driverdesk/models"
	"golang.org/x/sync/singleflight"
)

// Source is where the service loads billings from.
type Source interface {
	billing.Source
	Upstream
}

// Service records payments arriving as independent requests. Identical
// payments for the same invoice that arrive while one is in flight share
// its outcome instead of being sent twice.
type Service struct {
	src     Source
	basis   Basis
	opts    []Option
	timeout time.Duration
	group   singleflight.Group
}

// DefaultTimeout bounds one shared payment submission.
const DefaultTimeout = 30 * time.Second

// NewService creates a payment service.
func NewService(src Source, basis Basis, opts ...Option) *Service {
	return &Service{src: src, basis: basis, opts: opts, timeout: DefaultTimeout}
}

// WithTimeout sets how long a shared submission may run once started.
func (s *Service) WithTimeout(d time.Duration) *Service {
	if d > 0 {
		s.timeout = d
	}
	return s
}

// Record loads the invoice's billing and submits the payment through a panel.
func (s *Service) Record(ctx context.Context, in models.PaymentInput) (*Result, error) {
	if err := validate(in.Amount, in.Method); err != nil {
		return nil, err
	}
	key := in.InvoiceNo + "|" + in.Amount.String() + "|" + in.Method
	// The call is shared by every caller with the same key, so it must not
	// die with whichever request happened to start it.
	shared := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (any, error) {
		sctx, cancel := context.WithTimeout(shared, s.timeout)
		defer cancel()
		fetcher := billing.New(s.src)
		if _, err := fetcher.Load(sctx, billing.ByInvoice(in.InvoiceNo)); err != nil {
			return nil, err
		}
		panel := NewPanel(s.src, fetcher, s.basis, s.opts...)
		return panel.Submit(sctx, in.Amount, in.Method)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Result), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
