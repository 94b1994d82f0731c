package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/satheeshds/driverdesk/backend"
	"github.com/satheeshds/driverdesk/billing"
	"github.com/satheeshds/driverdesk/lookup"
	"github.com/satheeshds/driverdesk/models"
	"github.com/satheeshds/driverdesk/payment"
	"github.com/satheeshds/driverdesk/workflow"
	"github.com/shopspring/decimal"
)

type screen int

const (
	screenSearch screen = iota
	screenDelivery
	screenPayment
)

// Trip form fields
const (
	fieldStartKm = iota
	fieldEndKm
	fieldFuel
	fieldExpense
	fieldRemark
)

// Payment form fields
const (
	fieldAmount = iota
	fieldMethod
)

// service is the part of the billing service the terminal talks to directly.
type service interface {
	lookup.Searcher
	billing.Source
	payment.Upstream
}

// suggestionsMsg signals a finished suggestion query
type suggestionsMsg struct{ err error }

// stepMsg signals a finished workflow command
type stepMsg struct{ err error }

// panelMsg carries a payment panel ready for input
type panelMsg struct {
	panel *payment.Panel
	err   error
}

// paymentMsg carries the outcome of a payment submission
type paymentMsg struct {
	res *payment.Result
	err error
}

type model struct {
	ctx      context.Context
	machine  *workflow.Machine
	lookup   *lookup.Lookup
	svc      service
	basis    payment.Basis
	location *models.Coordinates

	screen screen
	search textinput.Model
	cursor int
	trip   []textinput.Model
	pay    []textinput.Model
	focus  int
	panel  *payment.Panel
	busy   bool
	notice string
	err    error
}

func newModel(ctx context.Context, machine *workflow.Machine, svc service, basis payment.Basis, minChars int, loc *models.Coordinates) *model {
	m := &model{
		ctx:      ctx,
		machine:  machine,
		svc:      svc,
		basis:    basis,
		location: loc,
	}
	m.lookup = lookup.New(svc, backend.BillingSuggestions, minChars, func(ctx context.Context, s models.Suggestion) error {
		return machine.Load(ctx, billing.ByID(s.ID), loc)
	})

	m.search = textinput.New()
	m.search.Placeholder = "Invoice number or customer"
	m.search.Focus()
	m.trip = newInputs("Starting km", "End km", "Fuel charge", "Other expense amount", "Expense remark")
	m.pay = newInputs("Amount", "Method (cash, upi, card)")
	m.sync()
	return m
}

func newInputs(placeholders ...string) []textinput.Model {
	inputs := make([]textinput.Model, len(placeholders))
	for i, p := range placeholders {
		inputs[i] = textinput.New()
		inputs[i].Placeholder = p
	}
	return inputs
}

func (m *model) Init() tea.Cmd {
	return textinput.Blink
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.busy {
			return m, nil
		}
		switch m.screen {
		case screenSearch:
			return m, m.updateSearch(msg)
		case screenDelivery:
			return m, m.updateDelivery(msg)
		case screenPayment:
			return m, m.updatePayment(msg)
		}

	case suggestionsMsg:
		m.err = msg.err

	case stepMsg:
		m.busy = false
		m.err = msg.err
		m.sync()

	case panelMsg:
		m.busy = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.panel = msg.panel
		m.screen = screenPayment
		for i := range m.pay {
			m.pay[i].SetValue("")
		}
		m.setFocus(m.pay, fieldAmount)

	case paymentMsg:
		m.busy = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.notice = fmt.Sprintf("Payment of %s recorded, billing is %s", msg.res.Amount.StringFixed(2), msg.res.Status)
		if msg.res.Clamped {
			m.notice += " (amount capped at the remaining balance)"
		}
		if msg.res.Billing != nil {
			m.machine.UpdateBilling(m.ctx, msg.res.Billing.Billing)
		}
		m.screen = screenDelivery
	}
	return m, nil
}

// sync moves to the screen matching the machine's state.
func (m *model) sync() {
	v := m.machine.View()
	switch v.State {
	case workflow.Idle:
		m.screen = screenSearch
		m.search.Focus()
		if v.Success {
			m.notice = "Delivery recorded"
			m.search.SetValue("")
		}
	case workflow.CapturingTripDetails:
		m.screen = screenDelivery
		if m.focus >= len(m.trip) {
			m.focus = fieldStartKm
		}
	default:
		m.screen = screenDelivery
		m.search.Blur()
	}
	if v.Billing != nil && m.cursor >= len(v.Billing.Products) {
		m.cursor = 0
	}
}

func (m *model) run(fn func(ctx context.Context) error) tea.Cmd {
	m.busy = true
	m.notice = ""
	return func() tea.Msg {
		return stepMsg{err: fn(m.ctx)}
	}
}

func (m *model) query(q string) tea.Cmd {
	return func() tea.Msg {
		return suggestionsMsg{err: m.lookup.Query(m.ctx, q)}
	}
}

func (m *model) updateSearch(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "up":
		m.lookup.Up()
		return nil
	case "down":
		m.lookup.Down()
		return nil
	case "esc":
		m.lookup.Dismiss()
		return nil
	case "enter":
		if m.lookup.Snapshot().Highlighted >= 0 {
			return m.run(func(ctx context.Context) error {
				_, err := m.lookup.Enter(ctx)
				return err
			})
		}
		if q := strings.TrimSpace(m.search.Value()); q != "" {
			return m.run(func(ctx context.Context) error {
				return m.machine.Load(ctx, billing.ByInvoice(q), m.location)
			})
		}
		return nil
	}

	before := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if after := m.search.Value(); after != before {
		return tea.Batch(cmd, m.query(after))
	}
	return cmd
}

func (m *model) updateDelivery(msg tea.KeyMsg) tea.Cmd {
	key := msg.String()
	if key == "ctrl+x" {
		return m.run(m.machine.Cancel)
	}

	v := m.machine.View()
	switch v.State {
	case workflow.Loaded, workflow.ConfirmingSummary:
		switch key {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
			return nil
		case "down", "j":
			if v.Billing != nil && m.cursor < len(v.Billing.Products)-1 {
				m.cursor++
			}
			return nil
		case " ":
			if v.Billing != nil && m.cursor < len(v.Billing.Products) {
				m.err = m.machine.ToggleProduct(m.ctx, v.Billing.Products[m.cursor].ItemID)
			}
			return nil
		}
		if v.State == workflow.Loaded {
			switch key {
			case "c":
				m.err = m.machine.Continue()
			case "p":
				return m.openPayment(v.Billing.InvoiceNo)
			}
			return nil
		}
		switch key {
		case "n":
			if m.err = m.machine.Next(); m.err == nil {
				m.fillTrip(v.Trip)
			}
		case "esc", "b":
			m.err = m.machine.Back()
		}
		return nil

	case workflow.CapturingTripDetails:
		switch key {
		case "esc":
			m.err = m.machine.Back()
			return nil
		case "tab", "down":
			m.setFocus(m.trip, (m.focus+1)%len(m.trip))
			return nil
		case "shift+tab", "up":
			m.setFocus(m.trip, (m.focus+len(m.trip)-1)%len(m.trip))
			return nil
		case "enter":
			in, err := parseTrip(tripForm{
				startKm: m.trip[fieldStartKm].Value(),
				endKm:   m.trip[fieldEndKm].Value(),
				fuel:    m.trip[fieldFuel].Value(),
				expense: m.trip[fieldExpense].Value(),
				remark:  m.trip[fieldRemark].Value(),
			})
			if err != nil {
				m.err = err
				return nil
			}
			return m.run(func(ctx context.Context) error {
				if err := m.machine.SetTrip(ctx, in); err != nil {
					return err
				}
				return m.machine.Submit(ctx, m.location)
			})
		}
		var cmd tea.Cmd
		m.trip[m.focus], cmd = m.trip[m.focus].Update(msg)
		return cmd
	}
	return nil
}

func (m *model) openPayment(invoiceNo string) tea.Cmd {
	m.busy = true
	m.notice = ""
	svc, basis := m.svc, m.basis
	return func() tea.Msg {
		fetcher := billing.New(svc)
		if _, err := fetcher.Load(m.ctx, billing.ByInvoice(invoiceNo)); err != nil {
			return panelMsg{err: err}
		}
		return panelMsg{panel: payment.NewPanel(svc, fetcher, basis)}
	}
}

func (m *model) updatePayment(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		m.screen = screenDelivery
		m.err = nil
		return nil
	case "tab", "shift+tab", "up", "down":
		m.setFocus(m.pay, 1-m.focus)
		return nil
	case "enter":
		amount, err := decimal.NewFromString(strings.TrimSpace(m.pay[fieldAmount].Value()))
		if err != nil {
			m.err = errors.New("amount must be a number")
			return nil
		}
		method := m.pay[fieldMethod].Value()
		panel := m.panel
		m.busy = true
		return func() tea.Msg {
			res, err := panel.Submit(m.ctx, amount, method)
			return paymentMsg{res: res, err: err}
		}
	}
	var cmd tea.Cmd
	m.pay[m.focus], cmd = m.pay[m.focus].Update(msg)
	return cmd
}

func (m *model) setFocus(inputs []textinput.Model, i int) {
	for j := range inputs {
		if j == i {
			inputs[j].Focus()
		} else {
			inputs[j].Blur()
		}
	}
	m.focus = i
}

// fillTrip loads the current trip into the form.
func (m *model) fillTrip(t models.Trip) {
	m.trip[fieldStartKm].SetValue(formatKm(t.StartingKm))
	m.trip[fieldEndKm].SetValue(formatKm(t.EndKm))
	fuel := ""
	if !t.FuelCharge.IsZero() {
		fuel = t.FuelCharge.String()
	}
	m.trip[fieldFuel].SetValue(fuel)
	// The form edits a single expense; longer lists are left as they are.
	expense, remark := "", ""
	if len(t.OtherExpenses) == 1 {
		expense, remark = t.OtherExpenses[0].Amount.String(), t.OtherExpenses[0].Remark
	}
	m.trip[fieldExpense].SetValue(expense)
	m.trip[fieldRemark].SetValue(remark)
	m.setFocus(m.trip, fieldStartKm)
}

func formatKm(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// tripForm holds the raw trip form values.
type tripForm struct {
	startKm, endKm, fuel string
	expense, remark      string
}

// parseTrip reads the trip form. Blank fields stay unset.
func parseTrip(f tripForm) (models.TripInput, error) {
	var in models.TripInput
	var err error
	if in.StartingKm, err = parseOptionalFloat("starting km", f.startKm); err != nil {
		return in, err
	}
	if in.EndKm, err = parseOptionalFloat("end km", f.endKm); err != nil {
		return in, err
	}
	if fuel := strings.TrimSpace(f.fuel); fuel != "" {
		d, err := decimal.NewFromString(fuel)
		if err != nil {
			return in, errors.New("fuel charge must be a number")
		}
		in.FuelCharge = &d
	}
	expense, remark := strings.TrimSpace(f.expense), strings.TrimSpace(f.remark)
	switch {
	case expense != "":
		d, err := decimal.NewFromString(expense)
		if err != nil {
			return in, errors.New("expense amount must be a number")
		}
		in.OtherExpenses = []models.Expense{{Amount: d, Remark: remark}}
	case remark != "":
		return in, errors.New("expense remark needs an amount")
	}
	if msg := in.Validate(); msg != "" {
		return in, errors.New(msg)
	}
	return in, nil
}

func parseOptionalFloat(name, s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("%s must be a number", name)
	}
	return &v, nil
}

// parseLocation reads a "lon,lat" pair. An empty string means no location.
func parseLocation(s string) (*models.Coordinates, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	lon, lat, ok := strings.Cut(s, ",")
	if !ok {
		return nil, fmt.Errorf("location %q: want lon,lat", s)
	}
	var c models.Coordinates
	var err error
	if c.Lon, err = strconv.ParseFloat(strings.TrimSpace(lon), 64); err != nil {
		return nil, fmt.Errorf("location longitude: %w", err)
	}
	if c.Lat, err = strconv.ParseFloat(strings.TrimSpace(lat), 64); err != nil {
		return nil, fmt.Errorf("location latitude: %w", err)
	}
	if !c.Valid() {
		return nil, fmt.Errorf("location %q is out of range", s)
	}
	return &c, nil
}
