// Package workflow drives a driver's delivery from picking a billing to
// submitting the end-of-delivery report.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/satheeshds/driverdesk/auth"
	"github.com/satheeshds/driverdesk/billing"
	"github.com/satheeshds/driverdesk/events"
	"github.com/satheeshds/driverdesk/models"
	"github.com/satheeshds/driverdesk/store"
	"github.com/satheeshds/driverdesk/triplog"
)

// State is a step of the delivery workflow.
type State string

const (
	Idle                 State = "Idle"
	Loaded               State = "Loaded"
	ConfirmingSummary    State = "ConfirmingSummary"
	CapturingTripDetails State = "CapturingTripDetails"
	Submitting           State = "Submitting"
)

// View is what a front end renders for a driver.
type View struct {
	UserID           string              `json:"userId"`
	DriverName       string              `json:"driverName"`
	State            State               `json:"state"`
	Billing          *models.BillingView `json:"billing"`
	SelectedProducts []string            `json:"selectedProducts"`
	DeliveryStatus   string              `json:"deliveryStatus,omitempty"`
	Trip             models.Trip         `json:"trip"`
	Started          bool                `json:"started"`
	Error            string              `json:"error,omitempty"`
	Success          bool                `json:"success"`
}

// Machine is one driver's delivery workflow. It is safe for concurrent use.
type Machine struct {
	id      auth.Identity
	deps    Deps
	fetcher *billing.Fetcher
	bg      *sync.WaitGroup
	now     func() time.Time
	release func(*Machine)

	mu        sync.Mutex
	state     State
	billing   *models.Billing
	selected  []string
	trip      models.Trip
	started   bool
	startDone chan struct{}
	submitKey string
	err       string
	success   bool
}

// NewMachine creates an idle machine for the driver. Background calls are
// tracked on bg when it is non-nil.
func NewMachine(id auth.Identity, deps Deps, bg *sync.WaitGroup) *Machine {
	if deps.Events == nil {
		deps.Events = events.Noop{}
	}
	if deps.StartTimeout <= 0 {
		deps.StartTimeout = 15 * time.Second
	}
	if bg == nil {
		bg = &sync.WaitGroup{}
	}
	return &Machine{
		id:      id,
		deps:    deps,
		fetcher: billing.New(deps.Upstream),
		bg:      bg,
		now:     time.Now,
		state:   Idle,
	}
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// View returns a copy of everything a screen needs.
func (m *Machine) View() View {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := View{
		UserID:           m.id.UserID,
		DriverName:       m.id.Name,
		State:            m.state,
		SelectedProducts: append([]string{}, m.selected...),
		Trip:             m.trip,
		Started:          m.started,
		Error:            m.err,
		Success:          m.success,
	}
	if m.billing != nil {
		bv := models.NewBillingView(*m.billing)
		v.Billing = &bv
		v.DeliveryStatus = models.DeliveryStatusFor(m.billing.Products, m.selected)
	}
	return v
}

// Load fetches a billing and makes it the current delivery. A start-delivery
// call is fired in the background once the billing is known. loc may be nil.
func (m *Machine) Load(ctx context.Context, ref billing.Ref, loc *models.Coordinates) (err error) {
	defer m.observe("load", &err)
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.expect("load", Idle, Loaded); err != nil {
		return err
	}
	m.success = false

	view, err := m.fetcher.Load(ctx, ref)
	if err != nil {
		m.err = err.Error()
		return err
	}

	sameRun := m.started && m.billing != nil && m.billing.InvoiceNo == view.InvoiceNo
	if m.started && m.billing != nil && !sameRun {
		m.abandonLocked(ctx, m.billing.InvoiceNo, "replaced")
	}

	b := view.Billing
	m.billing = &b
	m.selected = view.SelectedProducts
	m.trip = models.Trip{}
	m.submitKey = ""
	m.err = ""
	m.state = Loaded
	m.started = true
	m.saveLocked(ctx)

	// A reload of the running invoice keeps the delivery already started.
	if !sameRun {
		m.startDelivery(ctx, b.InvoiceNo, loc)
	}
	return nil
}

// Continue opens the summary confirmation.
func (m *Machine) Continue() (err error) {
	defer m.observe("continue", &err)
	return m.move("continue", ConfirmingSummary, Loaded)
}

// Next moves from the summary to the trip details form.
func (m *Machine) Next() (err error) {
	defer m.observe("next", &err)
	return m.move("next", CapturingTripDetails, ConfirmingSummary)
}

// Back closes either modal step and returns to the loaded billing.
func (m *Machine) Back() (err error) {
	defer m.observe("back", &err)
	return m.move("back", Loaded, ConfirmingSummary, CapturingTripDetails)
}

func (m *Machine) move(cmd string, to State, from ...State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.expect(cmd, from...); err != nil {
		return err
	}
	m.success = false
	m.state = to
	return nil
}

// ToggleProduct flips one item in the delivered-products checklist.
func (m *Machine) ToggleProduct(ctx context.Context, itemID string) (err error) {
	defer m.observe("toggle_product", &err)
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.expect("toggle_product", Loaded, ConfirmingSummary); err != nil {
		return err
	}
	if !m.billing.HasProduct(itemID) {
		return fmt.Errorf("%w: %s", ErrUnknownProduct, itemID)
	}
	picked := make(map[string]bool, len(m.selected)+1)
	for _, id := range m.selected {
		picked[id] = true
	}
	picked[itemID] = !picked[itemID]
	m.setSelectedLocked(picked)
	m.saveLocked(ctx)
	return nil
}

// SetSelected replaces the delivered-products checklist.
func (m *Machine) SetSelected(ctx context.Context, ids []string) (err error) {
	defer m.observe("set_selected", &err)
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.expect("set_selected", Loaded, ConfirmingSummary); err != nil {
		return err
	}
	picked := make(map[string]bool, len(ids))
	for _, id := range ids {
		if !m.billing.HasProduct(id) {
			return fmt.Errorf("%w: %s", ErrUnknownProduct, id)
		}
		picked[id] = true
	}
	m.setSelectedLocked(picked)
	m.saveLocked(ctx)
	return nil
}

// setSelectedLocked stores the picked items in product order.
func (m *Machine) setSelectedLocked(picked map[string]bool) {
	selected := []string{}
	for _, p := range m.billing.Products {
		if picked[p.ItemID] {
			selected = append(selected, p.ItemID)
		}
	}
	m.selected = selected
	m.success = false
	m.submitKey = ""
}

// SetTrip updates the trip details and recomputes kmTravelled.
func (m *Machine) SetTrip(ctx context.Context, in models.TripInput) (err error) {
	defer m.observe("set_trip", &err)
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.expect("set_trip", Loaded, CapturingTripDetails); err != nil {
		return err
	}
	m.trip.Apply(in)
	m.success = false
	m.submitKey = ""
	m.saveLocked(ctx)
	return nil
}

// Submit sends the end-of-delivery report. On success the machine resets to
// Idle; on failure it returns to the trip details with the error recorded.
func (m *Machine) Submit(ctx context.Context, loc *models.Coordinates) (err error) {
	defer m.idle(&err)
	defer m.observe("submit", &err)
	m.mu.Lock()
	if err := m.expect("submit", CapturingTripDetails); err != nil {
		m.mu.Unlock()
		return err
	}
	if m.submitKey == "" {
		m.submitKey = uuid.NewString()
	}
	key := m.submitKey
	b := *m.billing
	selected := append([]string{}, m.selected...)
	trip := m.trip
	req := m.endRequestLocked(loc)
	m.state = Submitting
	m.err = ""
	m.mu.Unlock()

	if loc == nil {
		slog.Warn("end location unavailable, submitting without it", "userId", m.id.UserID, "invoiceNo", b.InvoiceNo)
	}

	sendErr := m.deps.Upstream.EndDelivery(ctx, req, key)

	m.mu.Lock()
	defer m.mu.Unlock()
	if sendErr != nil {
		slog.Error("end delivery failed", "userId", m.id.UserID, "invoiceNo", b.InvoiceNo, "error", sendErr)
		m.state = CapturingTripDetails
		m.err = sendErr.Error()
		return sendErr
	}

	slog.Info("delivery submitted", "userId", m.id.UserID, "invoiceNo", b.InvoiceNo, "deliveryStatus", req.DeliveryStatus)
	m.clearLocked(ctx)
	m.resetLocked()
	m.success = true
	m.afterSubmit(ctx, b, selected, trip, req)
	return nil
}

func (m *Machine) endRequestLocked(loc *models.Coordinates) models.EndDeliveryRequest {
	b := m.billing
	status := b.PaymentStatus
	if status == "" {
		status = models.PaymentStatusFor(b.BillingAmount, b.ReceivedSum())
	}
	expenses := m.trip.OtherExpenses
	if expenses == nil {
		expenses = []models.Expense{}
	}
	return models.EndDeliveryRequest{
		UserID:            m.id.UserID,
		InvoiceNo:         b.InvoiceNo,
		EndLocation:       loc,
		DeliveryStatus:    models.DeliveryStatusFor(b.Products, m.selected),
		DeliveredProducts: append([]string{}, m.selected...),
		PaymentStatus:     status,
		KmTravelled:       m.trip.KmTravelled,
		StartingKm:        m.trip.StartingKm,
		EndKm:             m.trip.EndKm,
		FuelCharge:        m.trip.FuelCharge,
		OtherExpenses:     expenses,
	}
}

// afterSubmit records the trip and publishes the completion event. Failures
// are logged; the delivery is already closed upstream.
func (m *Machine) afterSubmit(ctx context.Context, b models.Billing, selected []string, trip models.Trip, req models.EndDeliveryRequest) {
	if m.deps.Trips != nil {
		entry := triplog.Entry{
			UserID:            m.id.UserID,
			DriverName:        m.id.Name,
			InvoiceNo:         b.InvoiceNo,
			DeliveryStatus:    req.DeliveryStatus,
			PaymentStatus:     req.PaymentStatus,
			DeliveredProducts: len(selected),
			TotalProducts:     len(b.Products),
			Trip:              trip,
			CompletedAt:       m.now(),
		}
		if err := m.deps.Trips.Record(ctx, entry); err != nil {
			slog.Error("recording trip failed", "invoiceNo", b.InvoiceNo, "error", err)
		}
	}
	m.publish(ctx, events.Event{
		Type:              events.TypeDeliveryCompleted,
		UserID:            m.id.UserID,
		DriverName:        m.id.Name,
		InvoiceNo:         b.InvoiceNo,
		DeliveryStatus:    req.DeliveryStatus,
		PaymentStatus:     req.PaymentStatus,
		DeliveredProducts: selected,
		KmTravelled:       trip.KmTravelled,
	})
}

// Cancel abandons the current delivery from any state except Submitting.
// When a start-delivery was issued the billing service is told the run was
// abandoned; if that fails the signal is queued for retry.
func (m *Machine) Cancel(ctx context.Context) (err error) {
	defer m.idle(&err)
	defer m.observe("cancel", &err)
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == Submitting {
		return ErrBusy
	}
	if m.started && m.billing != nil {
		m.abandonLocked(ctx, m.billing.InvoiceNo, "cancelled")
	}
	m.clearLocked(ctx)
	m.resetLocked()
	return nil
}

// abandonLocked sends the abandon signal for invoiceNo, queueing it on
// failure. The billing service must see the start before the abandon, so a
// start still in flight is waited for; if it does not finish in time the
// abandon goes to the queue instead.
func (m *Machine) abandonLocked(ctx context.Context, invoiceNo, reason string) {
	req := models.AbandonDeliveryRequest{UserID: m.id.UserID, InvoiceNo: invoiceNo, Reason: reason}
	var err error
	if m.waitStartLocked(ctx) {
		err = m.deps.Upstream.AbandonDelivery(ctx, req)
	} else if m.deps.Abandons != nil {
		err = ErrStartPending
	} else {
		// No queue to hold it, so send it late.
		err = m.deps.Upstream.AbandonDelivery(ctx, req)
	}
	if err != nil {
		slog.Warn("abandon signal failed", "userId", m.id.UserID, "invoiceNo", invoiceNo, "error", err)
		if m.deps.Abandons != nil {
			if _, qerr := m.deps.Abandons.EnqueueAbandon(context.WithoutCancel(ctx), req, err); qerr != nil {
				slog.Error("queueing abandon signal failed", "invoiceNo", invoiceNo, "error", qerr)
			}
		}
	}
	m.publish(ctx, events.Event{
		Type:       events.TypeDeliveryAbandoned,
		UserID:     m.id.UserID,
		DriverName: m.id.Name,
		InvoiceNo:  invoiceNo,
	})
}

// Restore re-enters Loaded from a stored snapshot. It reports whether a
// snapshot was found.
func (m *Machine) Restore(ctx context.Context) (bool, error) {
	if m.deps.Snapshots == nil {
		return false, nil
	}
	snap, err := m.deps.Snapshots.LoadSnapshot(ctx, m.id.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("restoring snapshot: %w", err)
	}
	if snap.Billing == nil {
		return false, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Idle {
		return false, nil
	}
	b := *snap.Billing
	m.billing = &b
	m.selected = append([]string{}, snap.SelectedProducts...)
	m.trip = snap.Trip
	m.started = snap.Started
	m.state = Loaded
	slog.Info("delivery restored", "userId", m.id.UserID, "invoiceNo", b.InvoiceNo)
	return true, nil
}

// UpdateBilling replaces the loaded billing with a fresher copy of the same
// invoice, e.g. after a payment. Other invoices are ignored.
func (m *Machine) UpdateBilling(ctx context.Context, b models.Billing) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.billing == nil || m.billing.InvoiceNo != b.InvoiceNo || m.state == Submitting {
		return
	}
	m.billing = &b
	m.saveLocked(ctx)
}

// startDelivery fires the start-delivery call without blocking the caller.
func (m *Machine) startDelivery(ctx context.Context, invoiceNo string, loc *models.Coordinates) {
	if loc == nil {
		slog.Warn("start location unavailable, starting without it", "userId", m.id.UserID, "invoiceNo", invoiceNo)
	}
	req := models.StartDeliveryRequest{
		UserID:        m.id.UserID,
		DriverName:    m.id.Name,
		InvoiceNo:     invoiceNo,
		StartLocation: loc,
	}
	base := context.WithoutCancel(ctx)
	done := make(chan struct{})
	m.startDone = done
	m.bg.Add(1)
	go func() {
		defer m.bg.Done()
		defer close(done)
		cctx, cancel := context.WithTimeout(base, m.deps.StartTimeout)
		defer cancel()
		if err := m.deps.Upstream.StartDelivery(cctx, req); err != nil {
			slog.Error("start delivery failed", "userId", req.UserID, "invoiceNo", invoiceNo, "error", err)
			return
		}
		m.publish(cctx, events.Event{
			Type:       events.TypeDeliveryStarted,
			UserID:     req.UserID,
			DriverName: req.DriverName,
			InvoiceNo:  invoiceNo,
		})
	}()
}

// waitStartLocked blocks until the last start-delivery call has returned,
// bounded by StartTimeout and ctx. It reports whether the call finished.
// The start goroutine never takes mu, so waiting with mu held is safe.
func (m *Machine) waitStartLocked(ctx context.Context) bool {
	done := m.startDone
	if done == nil {
		return true
	}
	timer := time.NewTimer(m.deps.StartTimeout)
	defer timer.Stop()
	select {
	case <-done:
		m.startDone = nil
		return true
	case <-timer.C:
	case <-ctx.Done():
	}
	slog.Warn("start delivery still running, queueing abandon", "userId", m.id.UserID)
	return false
}

func (m *Machine) saveLocked(ctx context.Context) {
	if m.deps.Snapshots == nil || m.billing == nil {
		return
	}
	snap := models.WorkflowSnapshot{
		UserID:           m.id.UserID,
		DriverName:       m.id.Name,
		State:            string(m.state),
		Billing:          m.billing,
		SelectedProducts: m.selected,
		Trip:             m.trip,
		Started:          m.started,
		SavedAt:          m.now(),
	}
	if err := m.deps.Snapshots.SaveSnapshot(ctx, snap); err != nil {
		slog.Error("saving snapshot failed", "userId", m.id.UserID, "error", err)
	}
}

func (m *Machine) clearLocked(ctx context.Context) {
	if m.deps.Snapshots == nil {
		return
	}
	if err := m.deps.Snapshots.ClearSnapshot(context.WithoutCancel(ctx), m.id.UserID); err != nil {
		slog.Error("clearing snapshot failed", "userId", m.id.UserID, "error", err)
	}
}

func (m *Machine) resetLocked() {
	m.state = Idle
	m.billing = nil
	m.selected = nil
	m.trip = models.Trip{}
	m.started = false
	m.startDone = nil
	m.submitKey = ""
	m.err = ""
	m.success = false
	m.fetcher.Reset()
}

// expect checks the current state. It must be called with mu held.
func (m *Machine) expect(cmd string, allowed ...State) error {
	for _, s := range allowed {
		if m.state == s {
			return nil
		}
	}
	if m.state == Submitting {
		return ErrBusy
	}
	return fmt.Errorf("%w: %s from %s", ErrInvalidTransition, cmd, m.state)
}

func (m *Machine) publish(ctx context.Context, e events.Event) {
	if err := m.deps.Events.Publish(context.WithoutCancel(ctx), e); err != nil {
		slog.Warn("publishing event failed", "type", e.Type, "invoiceNo", e.InvoiceNo, "error", err)
	}
}

// idle hands the machine back to its manager after a delivery closes.
func (m *Machine) idle(err *error) {
	if *err == nil && m.release != nil {
		m.release(m)
	}
}

func (m *Machine) observe(cmd string, err *error) {
	if m.deps.Observer != nil {
		m.deps.Observer.Transition(cmd, *err)
	}
}
