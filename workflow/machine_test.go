package workflow

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/satheeshds/driverdesk/auth"
	"github.com/satheeshds/driverdesk/billing"
	"github.com/satheeshds/driverdesk/models"
	"github.com/satheeshds/driverdesk/store"
	"github.com/satheeshds/driverdesk/triplog"
	"github.com/shopspring/decimal"
)

// --- fakes ---

type fakeUpstream struct {
	mu        sync.Mutex
	billings  map[string]*models.Billing
	getErr    error
	endErr    error
	abortErr  error
	endGate   chan struct{}
	starts    []models.StartDeliveryRequest
	ends      []models.EndDeliveryRequest
	endKeys   []string
	abandons  []models.AbandonDeliveryRequest
	startGate chan struct{}
	calls     []string
}

func (f *fakeUpstream) GetBilling(_ context.Context, id string) (*models.Billing, error) {
	for _, b := range f.billings {
		if b.ID == id {
			return f.copyOf(b), f.getErr
		}
	}
	return nil, errors.New("not found")
}

func (f *fakeUpstream) GetBillingByInvoice(_ context.Context, no string) (*models.Billing, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	b, ok := f.billings[no]
	if !ok {
		return nil, errors.New("not found")
	}
	return f.copyOf(b), nil
}

func (f *fakeUpstream) copyOf(b *models.Billing) *models.Billing {
	c := *b
	c.Products = append([]models.Product(nil), b.Products...)
	return &c
}

func (f *fakeUpstream) StartDelivery(_ context.Context, req models.StartDeliveryRequest) error {
	if f.startGate != nil {
		<-f.startGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts = append(f.starts, req)
	f.calls = append(f.calls, "start:"+req.InvoiceNo)
	return nil
}

func (f *fakeUpstream) EndDelivery(_ context.Context, req models.EndDeliveryRequest, key string) error {
	if f.endGate != nil {
		<-f.endGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ends = append(f.ends, req)
	f.endKeys = append(f.endKeys, key)
	return f.endErr
}

func (f *fakeUpstream) AbandonDelivery(_ context.Context, req models.AbandonDeliveryRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.abandons = append(f.abandons, req)
	f.calls = append(f.calls, "abandon:"+req.InvoiceNo)
	return f.abortErr
}

type memSnapshots struct {
	mu    sync.Mutex
	snaps map[string]models.WorkflowSnapshot
	saves int
}

func newMemSnapshots() *memSnapshots {
	return &memSnapshots{snaps: map[string]models.WorkflowSnapshot{}}
}

func (m *memSnapshots) SaveSnapshot(_ context.Context, s models.WorkflowSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snaps[s.UserID] = s
	m.saves++
	return nil
}

func (m *memSnapshots) LoadSnapshot(_ context.Context, userID string) (*models.WorkflowSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.snaps[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &s, nil
}

func (m *memSnapshots) ClearSnapshot(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.snaps, userID)
	return nil
}

func (m *memSnapshots) has(userID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.snaps[userID]
	return ok
}

type memQueue struct {
	queued []models.AbandonDeliveryRequest
}

func (q *memQueue) EnqueueAbandon(_ context.Context, req models.AbandonDeliveryRequest, cause error) (*store.PendingAbandon, error) {
	q.queued = append(q.queued, req)
	return &store.PendingAbandon{ID: "p1", UserID: req.UserID, InvoiceNo: req.InvoiceNo}, nil
}

type memTrips struct {
	entries []triplog.Entry
}

func (m *memTrips) Record(_ context.Context, e triplog.Entry) error {
	m.entries = append(m.entries, e)
	return nil
}

// --- helpers ---

func abBilling() *models.Billing {
	return &models.Billing{
		ID:            "b1",
		InvoiceNo:     "INV-1",
		BillingAmount: decimal.NewFromInt(1000),
		PaymentStatus: models.PaymentPending,
		Products: []models.Product{
			{ItemID: "A", Name: "Rice", Quantity: 2},
			{ItemID: "B", Name: "Dal", Quantity: 1},
		},
	}
}

type harness struct {
	up    *fakeUpstream
	snaps *memSnapshots
	queue *memQueue
	trips *memTrips
	m     *Machine
	bg    *sync.WaitGroup
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		up:    &fakeUpstream{billings: map[string]*models.Billing{"INV-1": abBilling()}},
		snaps: newMemSnapshots(),
		queue: &memQueue{},
		trips: &memTrips{},
		bg:    &sync.WaitGroup{},
	}
	h.m = NewMachine(auth.Identity{UserID: "u1", Name: "Ravi"}, Deps{
		Upstream:  h.up,
		Snapshots: h.snaps,
		Abandons:  h.queue,
		Trips:     h.trips,
	}, h.bg)
	return h
}

func (h *harness) loadTo(t *testing.T, target State) {
	t.Helper()
	ctx := context.Background()
	if err := h.m.Load(ctx, billing.ByInvoice("INV-1"), &models.Coordinates{Lon: 77.59, Lat: 12.97}); err != nil {
		t.Fatalf("Load: %v", err)
	}
	h.bg.Wait()
	if target == Loaded {
		return
	}
	if err := h.m.Continue(); err != nil {
		t.Fatalf("Continue: %v", err)
	}
	if target == ConfirmingSummary {
		return
	}
	if err := h.m.Next(); err != nil {
		t.Fatalf("Next: %v", err)
	}
}

func kmPtr(v float64) *float64 { return &v }

// --- tests ---

func TestSubmitPartialSelection(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.loadTo(t, Loaded)

	if err := h.m.SetSelected(ctx, []string{"A"}); err != nil {
		t.Fatalf("SetSelected: %v", err)
	}
	if v := h.m.View(); v.DeliveryStatus != models.DeliveryPartiallyDelivered {
		t.Errorf("preview status = %q", v.DeliveryStatus)
	}
	h.m.Continue()
	h.m.Next()
	if err := h.m.SetTrip(ctx, models.TripInput{StartingKm: kmPtr(100), EndKm: kmPtr(250)}); err != nil {
		t.Fatalf("SetTrip: %v", err)
	}

	if err := h.m.Submit(ctx, nil); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if len(h.up.ends) != 1 {
		t.Fatalf("end-delivery calls = %d", len(h.up.ends))
	}
	req := h.up.ends[0]
	if req.DeliveryStatus != models.DeliveryPartiallyDelivered {
		t.Errorf("deliveryStatus = %q", req.DeliveryStatus)
	}
	if len(req.DeliveredProducts) != 1 || req.DeliveredProducts[0] != "A" {
		t.Errorf("deliveredProducts = %v", req.DeliveredProducts)
	}
	if req.KmTravelled == nil || *req.KmTravelled != 150 {
		t.Errorf("kmTravelled = %v", req.KmTravelled)
	}
	if req.EndLocation != nil {
		t.Errorf("endLocation = %v, want nil", req.EndLocation)
	}

	v := h.m.View()
	if v.State != Idle || !v.Success || v.Billing != nil || len(v.SelectedProducts) != 0 {
		t.Errorf("after submit view = %+v", v)
	}
	if h.snaps.has("u1") {
		t.Error("snapshot not cleared")
	}
	if len(h.trips.entries) != 1 || h.trips.entries[0].DeliveredProducts != 1 {
		t.Errorf("trip entries = %+v", h.trips.entries)
	}
}

func TestDeliveryStatusBySelection(t *testing.T) {
	tests := []struct {
		name     string
		selected []string
		want     string
	}{
		{"all", []string{"B", "A"}, models.DeliveryDelivered},
		{"some", []string{"B"}, models.DeliveryPartiallyDelivered},
		{"none", nil, models.DeliveryPending},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			ctx := context.Background()
			h.loadTo(t, Loaded)
			if err := h.m.SetSelected(ctx, tt.selected); err != nil {
				t.Fatalf("SetSelected: %v", err)
			}
			h.m.Continue()
			h.m.Next()
			if err := h.m.Submit(ctx, nil); err != nil {
				t.Fatalf("Submit: %v", err)
			}
			if got := h.up.ends[0].DeliveryStatus; got != tt.want {
				t.Errorf("deliveryStatus = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNegativeKmIsKept(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.loadTo(t, CapturingTripDetails)
	h.m.SetTrip(ctx, models.TripInput{StartingKm: kmPtr(250), EndKm: kmPtr(100)})
	if km := h.m.View().Trip.KmTravelled; km == nil || *km != -150 {
		t.Fatalf("kmTravelled = %v, want -150", km)
	}
}

func TestInvalidTransitions(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if err := h.m.Continue(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Continue from Idle: %v", err)
	}
	if err := h.m.Submit(ctx, nil); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Submit from Idle: %v", err)
	}

	h.loadTo(t, Loaded)
	if err := h.m.Next(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Next from Loaded: %v", err)
	}
	if err := h.m.ToggleProduct(ctx, "Z"); !errors.Is(err, ErrUnknownProduct) {
		t.Errorf("ToggleProduct unknown: %v", err)
	}

	h.m.Continue()
	if err := h.m.Load(ctx, billing.ByInvoice("INV-1"), nil); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Load from ConfirmingSummary: %v", err)
	}
	if err := h.m.Back(); err != nil {
		t.Errorf("Back: %v", err)
	}
	if s := h.m.State(); s != Loaded {
		t.Errorf("state after Back = %s", s)
	}
}

func TestToggleKeepsProductOrder(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.loadTo(t, Loaded)

	h.m.ToggleProduct(ctx, "B")
	h.m.ToggleProduct(ctx, "A")
	if got := h.m.View().SelectedProducts; len(got) != 2 || got[0] != "A" || got[1] != "B" {
		t.Errorf("selected = %v", got)
	}
	h.m.ToggleProduct(ctx, "A")
	if got := h.m.View().SelectedProducts; len(got) != 1 || got[0] != "B" {
		t.Errorf("selected = %v", got)
	}
	if snap, _ := h.snaps.LoadSnapshot(ctx, "u1"); len(snap.SelectedProducts) != 1 {
		t.Errorf("snapshot selection = %v", snap.SelectedProducts)
	}
}

func TestSubmitFailureReturnsToTripDetails(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.loadTo(t, CapturingTripDetails)
	h.m.SetTrip(ctx, models.TripInput{StartingKm: kmPtr(10), EndKm: kmPtr(30)})

	h.up.endErr = errors.New("bad gateway")
	if err := h.m.Submit(ctx, nil); err == nil {
		t.Fatal("expected error")
	}
	v := h.m.View()
	if v.State != CapturingTripDetails || v.Error == "" {
		t.Errorf("view after failure = %+v", v)
	}
	if v.Trip.KmTravelled == nil || *v.Trip.KmTravelled != 20 {
		t.Errorf("trip inputs lost: %+v", v.Trip)
	}

	h.up.endErr = nil
	if err := h.m.Submit(ctx, nil); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if h.up.endKeys[0] != h.up.endKeys[1] {
		t.Errorf("retry used a new idempotency key: %v", h.up.endKeys)
	}
}

func TestSubmitWhileSubmittingIsBusy(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.loadTo(t, CapturingTripDetails)

	h.up.endGate = make(chan struct{})
	done := make(chan error, 1)
	go func() { done <- h.m.Submit(ctx, nil) }()

	deadline := time.Now().Add(2 * time.Second)
	for h.m.State() != Submitting {
		if time.Now().After(deadline) {
			t.Fatal("machine never reached Submitting")
		}
		time.Sleep(time.Millisecond)
	}
	if err := h.m.Submit(ctx, nil); !errors.Is(err, ErrBusy) {
		t.Errorf("second Submit: %v", err)
	}
	if err := h.m.Cancel(ctx); !errors.Is(err, ErrBusy) {
		t.Errorf("Cancel while submitting: %v", err)
	}

	close(h.up.endGate)
	if err := <-done; err != nil {
		t.Fatalf("first Submit: %v", err)
	}
	if len(h.up.ends) != 1 {
		t.Errorf("end-delivery calls = %d, want 1", len(h.up.ends))
	}
}

func TestLoadStartsDeliveryInBackground(t *testing.T) {
	h := newHarness(t)
	h.loadTo(t, Loaded)

	if len(h.up.starts) != 1 {
		t.Fatalf("start-delivery calls = %d", len(h.up.starts))
	}
	req := h.up.starts[0]
	if req.UserID != "u1" || req.DriverName != "Ravi" || req.InvoiceNo != "INV-1" {
		t.Errorf("start request = %+v", req)
	}
	if req.StartLocation == nil || req.StartLocation.Lat != 12.97 {
		t.Errorf("startLocation = %+v", req.StartLocation)
	}
	if !h.snaps.has("u1") {
		t.Error("snapshot not saved on load")
	}
}

func TestLoadFailureKeepsState(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.loadTo(t, Loaded)

	h.up.getErr = errors.New("timeout")
	if err := h.m.Load(ctx, billing.ByInvoice("INV-1"), nil); err == nil {
		t.Fatal("expected error")
	}
	v := h.m.View()
	if v.State != Loaded || v.Billing == nil || v.Error == "" {
		t.Errorf("view = %+v", v)
	}
}

func TestCancelSendsAbandon(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.loadTo(t, ConfirmingSummary)

	if err := h.m.Cancel(ctx); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if len(h.up.abandons) != 1 || h.up.abandons[0].InvoiceNo != "INV-1" {
		t.Errorf("abandons = %+v", h.up.abandons)
	}
	if h.m.State() != Idle || h.snaps.has("u1") {
		t.Error("cancel did not reset")
	}
	if len(h.queue.queued) != 0 {
		t.Errorf("queued = %+v", h.queue.queued)
	}
}

func TestCancelQueuesFailedAbandon(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.loadTo(t, Loaded)

	h.up.abortErr = errors.New("offline")
	if err := h.m.Cancel(ctx); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if len(h.queue.queued) != 1 || h.queue.queued[0].UserID != "u1" {
		t.Errorf("queued = %+v", h.queue.queued)
	}
}

func TestCancelFromIdleSendsNothing(t *testing.T) {
	h := newHarness(t)
	if err := h.m.Cancel(context.Background()); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if len(h.up.abandons) != 0 {
		t.Errorf("abandons = %+v", h.up.abandons)
	}
}

func TestManagerRestoresSnapshot(t *testing.T) {
	snaps := newMemSnapshots()
	b := abBilling()
	snaps.snaps["u1"] = models.WorkflowSnapshot{
		UserID:           "u1",
		State:            string(CapturingTripDetails),
		Billing:          b,
		SelectedProducts: []string{"B"},
		Trip:             models.Trip{KmTravelled: kmPtr(42)},
		Started:          true,
	}
	mgr := NewManager(Deps{Upstream: &fakeUpstream{}, Snapshots: snaps}, nil)

	m, err := mgr.Session(context.Background(), auth.Identity{UserID: "u1"})
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	v := m.View()
	if v.State != Loaded || v.Billing == nil || v.Billing.InvoiceNo != "INV-1" {
		t.Fatalf("restored view = %+v", v)
	}
	if len(v.SelectedProducts) != 1 || v.Trip.KmTravelled == nil || *v.Trip.KmTravelled != 42 {
		t.Errorf("restored inputs = %+v", v)
	}

	again, _ := mgr.Session(context.Background(), auth.Identity{UserID: "u1"})
	if again != m {
		t.Error("Session returned a different machine for the same driver")
	}
	if _, err := mgr.Session(context.Background(), auth.Identity{}); err == nil {
		t.Error("expected error for empty identity")
	}
	if err := mgr.Drain(context.Background()); err != nil {
		t.Errorf("Drain: %v", err)
	}
}

func TestUpdateBillingSameInvoiceOnly(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.loadTo(t, Loaded)

	paid := *abBilling()
	paid.PaymentStatus = models.PaymentPaid
	h.m.UpdateBilling(ctx, paid)
	if got := h.m.View().Billing.PaymentStatus; got != models.PaymentPaid {
		t.Errorf("paymentStatus = %q", got)
	}

	other := *abBilling()
	other.InvoiceNo = "INV-9"
	h.m.UpdateBilling(ctx, other)
	if got := h.m.View().Billing.InvoiceNo; got != "INV-1" {
		t.Errorf("invoice replaced by %q", got)
	}
}

func TestAbandonWaitsForStart(t *testing.T) {
	tests := []struct {
		name  string
		close func(context.Context, *Machine) error
	}{
		{"cancel", func(ctx context.Context, m *Machine) error { return m.Cancel(ctx) }},
		{"replace", func(ctx context.Context, m *Machine) error {
			return m.Load(ctx, billing.ByInvoice("INV-2"), nil)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			other := abBilling()
			other.ID, other.InvoiceNo = "b2", "INV-2"
			h.up.billings["INV-2"] = other
			h.up.startGate = make(chan struct{})
			ctx := context.Background()

			if err := h.m.Load(ctx, billing.ByInvoice("INV-1"), nil); err != nil {
				t.Fatalf("Load: %v", err)
			}
			go func() {
				time.Sleep(20 * time.Millisecond)
				close(h.up.startGate)
			}()
			if err := tt.close(ctx, h.m); err != nil {
				t.Fatalf("close: %v", err)
			}
			h.bg.Wait()

			if len(h.up.calls) < 2 || h.up.calls[0] != "start:INV-1" || h.up.calls[1] != "abandon:INV-1" {
				t.Errorf("calls = %v, want start:INV-1 before abandon:INV-1", h.up.calls)
			}
			if len(h.queue.queued) != 0 {
				t.Errorf("queued = %+v", h.queue.queued)
			}
		})
	}
}

func TestAbandonQueuedWhenStartHangs(t *testing.T) {
	h := newHarness(t)
	h.m.deps.StartTimeout = 20 * time.Millisecond
	h.up.startGate = make(chan struct{})
	ctx := context.Background()

	if err := h.m.Load(ctx, billing.ByInvoice("INV-1"), nil); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := h.m.Cancel(ctx); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	close(h.up.startGate)
	h.bg.Wait()

	if len(h.up.abandons) != 0 {
		t.Errorf("abandon sent ahead of start: %v", h.up.calls)
	}
	if len(h.queue.queued) != 1 || h.queue.queued[0].InvoiceNo != "INV-1" {
		t.Errorf("queued = %+v", h.queue.queued)
	}
	if h.m.State() != Idle {
		t.Errorf("state = %s", h.m.State())
	}
}

func TestReloadSameInvoiceStartsOnce(t *testing.T) {
	h := newHarness(t)
	h.loadTo(t, Loaded)

	if err := h.m.Load(context.Background(), billing.ByInvoice("INV-1"), nil); err != nil {
		t.Fatalf("reload: %v", err)
	}
	h.bg.Wait()
	if len(h.up.starts) != 1 {
		t.Errorf("start-delivery calls = %d, want 1", len(h.up.starts))
	}
	if len(h.up.abandons) != 0 {
		t.Errorf("abandons = %+v", h.up.abandons)
	}
}

type gaugeValue struct {
	mu sync.Mutex
	v  float64
}

func (g *gaugeValue) Set(v float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.v = v
}

func (g *gaugeValue) get() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.v
}

func TestManagerReleasesClosedSessions(t *testing.T) {
	tests := []struct {
		name  string
		close func(context.Context, *Machine) error
	}{
		{"cancel", func(ctx context.Context, m *Machine) error { return m.Cancel(ctx) }},
		{"submit", func(ctx context.Context, m *Machine) error {
			if err := m.Continue(); err != nil {
				return err
			}
			if err := m.Next(); err != nil {
				return err
			}
			return m.Submit(ctx, nil)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			up := &fakeUpstream{billings: map[string]*models.Billing{"INV-1": abBilling()}}
			gauge := &gaugeValue{}
			mgr := NewManager(Deps{Upstream: up, Snapshots: newMemSnapshots()}, gauge)
			ctx := context.Background()
			id := auth.Identity{UserID: "u1", Name: "Ravi"}

			m, err := mgr.Session(ctx, id)
			if err != nil {
				t.Fatalf("Session: %v", err)
			}
			if err := m.Load(ctx, billing.ByInvoice("INV-1"), nil); err != nil {
				t.Fatalf("Load: %v", err)
			}
			if _, ok := mgr.Find("u1"); !ok || gauge.get() != 1 {
				t.Fatalf("session not held while loaded, gauge %v", gauge.get())
			}

			if err := tt.close(ctx, m); err != nil {
				t.Fatalf("close: %v", err)
			}
			if _, ok := mgr.Find("u1"); ok {
				t.Error("closed session still held")
			}
			if gauge.get() != 0 {
				t.Errorf("gauge = %v, want 0", gauge.get())
			}

			next, err := mgr.Session(ctx, id)
			if err != nil {
				t.Fatalf("Session: %v", err)
			}
			if next == m || next.State() != Idle {
				t.Errorf("expected a fresh idle machine, got state %s", next.State())
			}
			if err := mgr.Drain(ctx); err != nil {
				t.Errorf("Drain: %v", err)
			}
		})
	}
}

func TestFailedSubmitKeepsSession(t *testing.T) {
	up := &fakeUpstream{billings: map[string]*models.Billing{"INV-1": abBilling()}, endErr: errors.New("offline")}
	mgr := NewManager(Deps{Upstream: up}, nil)
	ctx := context.Background()

	m, _ := mgr.Session(ctx, auth.Identity{UserID: "u1"})
	if err := m.Load(ctx, billing.ByInvoice("INV-1"), nil); err != nil {
		t.Fatalf("Load: %v", err)
	}
	m.Continue()
	m.Next()
	if err := m.Submit(ctx, nil); err == nil {
		t.Fatal("expected submit error")
	}
	if got, ok := mgr.Find("u1"); !ok || got != m {
		t.Error("session dropped after a failed submit")
	}
	mgr.Drain(ctx)
}
