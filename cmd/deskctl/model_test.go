package main

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/satheeshds/driverdesk/auth"
	"github.com/satheeshds/driverdesk/models"
	"github.com/satheeshds/driverdesk/payment"
	"github.com/satheeshds/driverdesk/workflow"
	"github.com/shopspring/decimal"
)

type fakeService struct {
	mu      sync.Mutex
	billing models.Billing
	ends    []models.EndDeliveryRequest
}

func newFakeService() *fakeService {
	return &fakeService{billing: models.Billing{
		ID:            "b1",
		InvoiceNo:     "INV-1",
		CustomerName:  "Kumar Stores",
		BillingAmount: decimal.NewFromInt(1000),
		PaymentStatus: models.PaymentPending,
		Products: []models.Product{
			{ItemID: "A", Name: "Rice", Quantity: 2},
			{ItemID: "B", Name: "Dal", Quantity: 1},
		},
	}}
}

func (f *fakeService) GetBilling(ctx context.Context, id string) (*models.Billing, error) {
	if id != f.billing.ID {
		return nil, errors.New("not found")
	}
	return f.GetBillingByInvoice(ctx, f.billing.InvoiceNo)
}

func (f *fakeService) GetBillingByInvoice(_ context.Context, no string) (*models.Billing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if no != f.billing.InvoiceNo {
		return nil, errors.New("not found")
	}
	b := f.billing
	b.Payments = append([]models.Payment(nil), f.billing.Payments...)
	return &b, nil
}

func (f *fakeService) Suggestions(_ context.Context, _, query string) ([]models.Suggestion, error) {
	return []models.Suggestion{{ID: "b1", InvoiceNo: "INV-1", CustomerName: "Kumar Stores"}}, nil
}

func (f *fakeService) UpdatePayment(_ context.Context, req models.UpdatePaymentRequest, _ string) (*models.Billing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.billing.Payments = append(f.billing.Payments, models.Payment{Amount: req.PaymentAmount, Method: req.PaymentMethod})
	f.billing.PaymentStatus = models.PaymentStatusFor(f.billing.BillingAmount, f.billing.ReceivedSum())
	return nil, nil
}

func (f *fakeService) StartDelivery(context.Context, models.StartDeliveryRequest) error { return nil }

func (f *fakeService) EndDelivery(_ context.Context, req models.EndDeliveryRequest, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ends = append(f.ends, req)
	return nil
}

func (f *fakeService) AbandonDelivery(context.Context, models.AbandonDeliveryRequest) error {
	return nil
}

func newTestModel(t *testing.T) (*model, *fakeService) {
	t.Helper()
	svc := newFakeService()
	mgr := workflow.NewManager(workflow.Deps{Upstream: svc}, nil)
	t.Cleanup(func() { mgr.Drain(context.Background()) })
	machine, err := mgr.Session(context.Background(), auth.Identity{UserID: "u1", Name: "Ravi"})
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	return newModel(context.Background(), machine, svc, payment.BasisBilling, 1, nil), svc
}

// press delivers a key and runs the command it returns, if any.
func press(m *model, k tea.KeyMsg) {
	_, cmd := m.Update(k)
	if cmd != nil {
		m.Update(cmd())
	}
}

func keyRune(r rune) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}} }

var (
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyDown  = tea.KeyMsg{Type: tea.KeyDown}
	keySpace = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
)

func TestDeliveryThroughTerminal(t *testing.T) {
	m, svc := newTestModel(t)

	m.search.SetValue("INV-1")
	press(m, keyEnter)
	if m.screen != screenDelivery || m.machine.State() != workflow.Loaded {
		t.Fatalf("after load: screen %v, state %s, err %v", m.screen, m.machine.State(), m.err)
	}

	press(m, keySpace)
	if got := m.machine.View().SelectedProducts; len(got) != 1 || got[0] != "A" {
		t.Fatalf("selected = %v", got)
	}

	press(m, keyRune('c'))
	press(m, keyRune('n'))
	if m.machine.State() != workflow.CapturingTripDetails {
		t.Fatalf("state = %s, err %v", m.machine.State(), m.err)
	}

	m.trip[fieldStartKm].SetValue("100")
	m.trip[fieldEndKm].SetValue("250")
	m.trip[fieldFuel].SetValue("40")
	m.trip[fieldExpense].SetValue("25")
	m.trip[fieldRemark].SetValue("toll")
	press(m, keyEnter)

	if m.err != nil {
		t.Fatalf("submit: %v", m.err)
	}
	if m.screen != screenSearch || m.notice != "Delivery recorded" {
		t.Errorf("screen %v, notice %q", m.screen, m.notice)
	}
	if len(svc.ends) != 1 {
		t.Fatalf("end-delivery calls = %d", len(svc.ends))
	}
	end := svc.ends[0]
	if end.DeliveryStatus != models.DeliveryPartiallyDelivered || *end.KmTravelled != 150 {
		t.Errorf("end = %+v", end)
	}
	if len(end.OtherExpenses) != 1 || end.OtherExpenses[0].Remark != "toll" || !end.OtherExpenses[0].Amount.Equal(decimal.NewFromInt(25)) {
		t.Errorf("otherExpenses = %+v", end.OtherExpenses)
	}
}

func TestSuggestionPick(t *testing.T) {
	m, _ := newTestModel(t)

	if err := m.lookup.Query(context.Background(), "Kum"); err != nil {
		t.Fatalf("Query: %v", err)
	}
	press(m, keyDown)
	press(m, keyEnter)
	if m.machine.State() != workflow.Loaded {
		t.Fatalf("state = %s, err %v", m.machine.State(), m.err)
	}
	if items := m.lookup.Snapshot().Items; len(items) != 0 {
		t.Errorf("list not cleared: %v", items)
	}
}

func TestPaymentFromTerminal(t *testing.T) {
	m, _ := newTestModel(t)
	m.search.SetValue("INV-1")
	press(m, keyEnter)

	press(m, keyRune('p'))
	if m.screen != screenPayment || m.panel == nil {
		t.Fatalf("screen %v, err %v", m.screen, m.err)
	}

	m.pay[fieldAmount].SetValue("1500")
	m.pay[fieldMethod].SetValue("cash")
	press(m, keyEnter)

	if m.err != nil {
		t.Fatalf("payment: %v", m.err)
	}
	if m.screen != screenDelivery || !strings.Contains(m.notice, "capped") {
		t.Errorf("screen %v, notice %q", m.screen, m.notice)
	}
	if v := m.machine.View(); !v.Billing.RemainingAmount.IsZero() || v.Billing.PaymentStatus != models.PaymentPaid {
		t.Errorf("billing not refreshed: %+v", v.Billing)
	}
}

func TestCancelFromTerminal(t *testing.T) {
	m, _ := newTestModel(t)
	m.search.SetValue("INV-1")
	press(m, keyEnter)
	press(m, tea.KeyMsg{Type: tea.KeyCtrlX})
	if m.screen != screenSearch || m.machine.State() != workflow.Idle {
		t.Errorf("screen %v, state %s", m.screen, m.machine.State())
	}
}

func TestParseTrip(t *testing.T) {
	in, err := parseTrip(tripForm{startKm: " 100 ", fuel: "35.5"})
	if err != nil {
		t.Fatalf("parseTrip: %v", err)
	}
	if *in.StartingKm != 100 || in.EndKm != nil || in.FuelCharge.String() != "35.5" {
		t.Errorf("in = %+v", in)
	}
	if in.OtherExpenses != nil {
		t.Errorf("blank expense should leave the list alone, got %+v", in.OtherExpenses)
	}

	in, err = parseTrip(tripForm{expense: "12.50", remark: " parking "})
	if err != nil {
		t.Fatalf("parseTrip: %v", err)
	}
	if len(in.OtherExpenses) != 1 || in.OtherExpenses[0].Amount.String() != "12.5" || in.OtherExpenses[0].Remark != "parking" {
		t.Errorf("otherExpenses = %+v", in.OtherExpenses)
	}

	tests := []struct {
		name string
		form tripForm
	}{
		{"bad starting km", tripForm{startKm: "x"}},
		{"bad end km", tripForm{endKm: "1o"}},
		{"negative fuel", tripForm{fuel: "-5"}},
		{"bad expense", tripForm{expense: "ten"}},
		{"negative expense", tripForm{expense: "-1"}},
		{"remark without amount", tripForm{remark: "toll"}},
	}
	for _, tt := range tests {
		if _, err := parseTrip(tt.form); err == nil {
			t.Errorf("%s: parseTrip(%+v) accepted", tt.name, tt.form)
		}
	}
}

func TestParseLocation(t *testing.T) {
	tests := []struct {
		in      string
		want    *models.Coordinates
		wantErr bool
	}{
		{"", nil, false},
		{"77.59, 12.97", &models.Coordinates{Lon: 77.59, Lat: 12.97}, false},
		{"77.59", nil, true},
		{"a,b", nil, true},
		{"200,10", nil, true},
	}
	for _, tt := range tests {
		got, err := parseLocation(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseLocation(%q) err = %v", tt.in, err)
			continue
		}
		if (got == nil) != (tt.want == nil) || (got != nil && *got != *tt.want) {
			t.Errorf("parseLocation(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
