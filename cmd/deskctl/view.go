package main

import (
	"fmt"
	"strings"

	"github.com/satheeshds/driverdesk/models"
	"github.com/satheeshds/driverdesk/workflow"
)

func (m *model) View() string {
	v := m.machine.View()

	var b strings.Builder
	b.WriteString(titleStyle.Render(" Driverdesk ") + " " + subtitleStyle.Render(v.DriverName) + "\n\n")

	switch m.screen {
	case screenSearch:
		b.WriteString(m.renderSearch())
	case screenDelivery:
		b.WriteString(m.renderDelivery(v))
	case screenPayment:
		b.WriteString(m.renderPayment())
	}

	if m.busy {
		b.WriteString("\n  " + subtitleStyle.Render("Working...") + "\n")
	}
	if m.err != nil {
		b.WriteString("\n  " + errorStyle.Render("✗ "+m.err.Error()) + "\n")
	} else if v.Error != "" && m.screen == screenDelivery {
		b.WriteString("\n  " + errorStyle.Render("✗ "+v.Error) + "\n")
	}
	if m.notice != "" {
		b.WriteString("\n  " + successStyle.Render("✓ "+m.notice) + "\n")
	}
	b.WriteString(helpStyle.Render("  " + m.help(v.State)))
	return b.String()
}

func (m *model) help(state workflow.State) string {
	switch m.screen {
	case screenSearch:
		return "type to search  ↑/↓: choose  enter: load  esc: close list  ctrl+c: quit"
	case screenPayment:
		return "tab: next field  enter: record payment  esc: back"
	}
	switch state {
	case workflow.Loaded:
		return "↑/↓: move  space: toggle delivered  c: continue  p: payment  ctrl+x: cancel delivery"
	case workflow.ConfirmingSummary:
		return "↑/↓: move  space: toggle delivered  n: trip details  esc: back  ctrl+x: cancel delivery"
	case workflow.CapturingTripDetails:
		return "tab: next field  enter: submit delivery  esc: back  ctrl+x: cancel delivery"
	}
	return "ctrl+c: quit"
}

func (m *model) renderSearch() string {
	var b strings.Builder
	b.WriteString("  Billing\n")
	b.WriteString("  " + m.search.View() + "\n")

	st := m.lookup.Snapshot()
	for i, s := range st.Items {
		if i == st.Highlighted {
			b.WriteString("  " + selectedStyle.Render("▸ "+s.Label()) + "\n")
		} else {
			b.WriteString("    " + s.Label() + "\n")
		}
	}
	return b.String()
}

func (m *model) renderDelivery(v workflow.View) string {
	if v.Billing == nil {
		return "  No billing loaded\n"
	}
	bv := v.Billing

	var b strings.Builder
	b.WriteString(renderBilling(bv))
	b.WriteString("\n")

	switch v.State {
	case workflow.Loaded:
		b.WriteString(m.renderChecklist(bv.Products, v.SelectedProducts))
	case workflow.ConfirmingSummary:
		b.WriteString(titleStyle.Render(" Delivery summary ") + "\n\n")
		b.WriteString(m.renderChecklist(bv.Products, v.SelectedProducts))
		b.WriteString(fmt.Sprintf("\n  Delivery status: %s\n", v.DeliveryStatus))
	case workflow.CapturingTripDetails, workflow.Submitting:
		b.WriteString(m.renderTrip(v.Trip))
	}
	return b.String()
}

func renderBilling(bv *models.BillingView) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("  Invoice:   %s\n", bv.InvoiceNo))
	b.WriteString(fmt.Sprintf("  Customer:  %s\n", bv.CustomerName))
	if bv.CustomerAddress != "" {
		b.WriteString(fmt.Sprintf("  Address:   %s\n", bv.CustomerAddress))
	}
	b.WriteString(fmt.Sprintf("  Amount:    %s\n", bv.BillingAmount.StringFixed(2)))
	b.WriteString(fmt.Sprintf("  Received:  %s\n", bv.ReceivedSum().StringFixed(2)))
	b.WriteString(fmt.Sprintf("  Remaining: %s\n", bv.RemainingAmount.StringFixed(2)))
	if !bv.TotalOtherExpenses.IsZero() {
		b.WriteString(fmt.Sprintf("  Expenses:  %s\n", bv.TotalOtherExpenses.StringFixed(2)))
	}
	b.WriteString("  " + badge(bv.DeliveryStatus, bv.PaymentStatus) + "\n")
	return boxStyle.Render(b.String()) + "\n"
}

func (m *model) renderChecklist(products []models.Product, selected []string) string {
	picked := make(map[string]bool, len(selected))
	for _, id := range selected {
		picked[id] = true
	}

	var b strings.Builder
	for i, p := range products {
		box := "[ ]"
		if picked[p.ItemID] {
			box = "[x]"
		}
		line := fmt.Sprintf("%s %s × %g", box, p.Name, p.Quantity)
		if i == m.cursor {
			b.WriteString("  " + selectedStyle.Render("▸ "+line) + "\n")
		} else {
			b.WriteString("    " + line + "\n")
		}
	}
	if len(products) == 0 {
		b.WriteString("  " + subtitleStyle.Render("No products on this billing") + "\n")
	}
	return b.String()
}

func (m *model) renderTrip(t models.Trip) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(" Trip details ") + "\n\n")
	labels := []string{"Starting km:", "End km:", "Fuel charge:", "Other expense:", "Remark:"}
	for i, input := range m.trip {
		b.WriteString(fmt.Sprintf("  %s\n", labels[i]))
		b.WriteString(fmt.Sprintf("  %s\n\n", input.View()))
	}
	if t.KmTravelled != nil {
		b.WriteString(fmt.Sprintf("  Km travelled: %g\n", *t.KmTravelled))
	}
	return b.String()
}

func (m *model) renderPayment() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(" Record payment ") + "\n\n")
	if m.panel != nil {
		if st := m.panel.State(); st.Billing != nil {
			b.WriteString(fmt.Sprintf("  Remaining: %s\n\n", st.Billing.RemainingAmount.StringFixed(2)))
		}
	}
	labels := []string{"Amount:", "Method:"}
	for i, input := range m.pay {
		b.WriteString(fmt.Sprintf("  %s\n", labels[i]))
		b.WriteString(fmt.Sprintf("  %s\n\n", input.View()))
	}
	return b.String()
}
