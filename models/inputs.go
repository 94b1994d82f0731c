package models

import "github.com/shopspring/decimal"

// LoadDeliveryInput resolves the billing a driver is about to deliver.
type LoadDeliveryInput struct {
	BillingID string       `json:"billingId"`
	InvoiceNo string       `json:"invoiceNo"`
	Location  *Coordinates `json:"location"`
}

func (i *LoadDeliveryInput) Validate() string {
	if i.BillingID == "" && i.InvoiceNo == "" {
		return "billingId or invoiceNo is required"
	}
	if i.Location != nil && !i.Location.Valid() {
		return "location is out of range"
	}
	return ""
}

// SelectProductsInput replaces the delivered-products checklist.
type SelectProductsInput struct {
	Selected []string `json:"selected"`
}

func (i *SelectProductsInput) Validate() string {
	seen := make(map[string]bool, len(i.Selected))
	for _, id := range i.Selected {
		if id == "" {
			return "selected must not contain empty ids"
		}
		if seen[id] {
			return "selected must not contain duplicates"
		}
		seen[id] = true
	}
	return ""
}

// TripInput updates the trip details. Nil fields are left unchanged.
type TripInput struct {
	StartingKm    *float64         `json:"startingKm"`
	EndKm         *float64         `json:"endKm"`
	KmTravelled   *float64         `json:"kmTravelled"`
	FuelCharge    *decimal.Decimal `json:"fuelCharge"`
	OtherExpenses []Expense        `json:"otherExpenses"`
}

func (i *TripInput) Validate() string {
	if i.FuelCharge != nil && i.FuelCharge.IsNegative() {
		return "fuelCharge must be non-negative"
	}
	for _, e := range i.OtherExpenses {
		if e.Amount.IsNegative() {
			return "otherExpenses amounts must be non-negative"
		}
	}
	return ""
}

// SubmitDeliveryInput carries the end position captured by the device, if any.
type SubmitDeliveryInput struct {
	Location *Coordinates `json:"location"`
}

func (i *SubmitDeliveryInput) Validate() string {
	if i.Location != nil && !i.Location.Valid() {
		return "location is out of range"
	}
	return ""
}

// PaymentInput is a payment entry from the reconciliation panel.
type PaymentInput struct {
	InvoiceNo string          `json:"invoiceNo"`
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method"`
}

func (i *PaymentInput) Validate() string {
	if i.InvoiceNo == "" {
		return "invoiceNo is required"
	}
	return ""
}
