package models

import (
	"github.com/satheeshds/driverdesk/indicator"
	"github.com/shopspring/decimal"
)

// BillingView is a billing together with the fields the screens derive from it.
type BillingView struct {
	Billing
	// Computed fields
	RemainingAmount    decimal.Decimal `json:"remainingAmount"`
	TotalOtherExpenses decimal.Decimal `json:"totalOtherExpenses"`
	SelectedProducts   []string        `json:"selectedProducts"`
	Indicator          indicator.Class `json:"indicator"`
}

// NewBillingView computes the derived fields of b.
func NewBillingView(b Billing) BillingView {
	return BillingView{
		Billing:            b,
		RemainingAmount:    b.RemainingAmount(),
		TotalOtherExpenses: b.TotalOtherExpenses(),
		SelectedProducts:   b.DeliveredItemIDs(),
		Indicator:          indicator.For(b.DeliveryStatus, b.PaymentStatus),
	}
}
