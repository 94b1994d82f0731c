package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trip holds the metrics captured at the end of a delivery run.
type Trip struct {
	StartingKm    *float64        `json:"startingKm"`
	EndKm         *float64        `json:"endKm"`
	KmTravelled   *float64        `json:"kmTravelled"`
	FuelCharge    decimal.Decimal `json:"fuelCharge"`
	OtherExpenses []Expense       `json:"otherExpenses"`
}

// Apply merges the fields set in in, then recomputes KmTravelled.
func (t *Trip) Apply(in TripInput) {
	if in.StartingKm != nil {
		t.StartingKm = float64Ptr(*in.StartingKm)
	}
	if in.EndKm != nil {
		t.EndKm = float64Ptr(*in.EndKm)
	}
	if in.KmTravelled != nil {
		t.KmTravelled = float64Ptr(*in.KmTravelled)
	}
	if in.FuelCharge != nil {
		t.FuelCharge = *in.FuelCharge
	}
	if in.OtherExpenses != nil {
		t.OtherExpenses = append([]Expense(nil), in.OtherExpenses...)
	}
	t.Recompute()
}

// Recompute sets KmTravelled to EndKm - StartingKm when both are known.
// The difference may be negative. With a bound missing, KmTravelled keeps
// whatever value it was given.
func (t *Trip) Recompute() {
	if t.StartingKm != nil && t.EndKm != nil {
		t.KmTravelled = float64Ptr(*t.EndKm - *t.StartingKm)
	}
}

// TotalOtherExpenses sums OtherExpenses.
func (t *Trip) TotalOtherExpenses() decimal.Decimal {
	return SumExpenses(t.OtherExpenses)
}

// WorkflowSnapshot is the resume cache of a driver's in-progress delivery.
type WorkflowSnapshot struct {
	UserID           string    `json:"userId"`
	DriverName       string    `json:"driverName"`
	State            string    `json:"state"`
	Billing          *Billing  `json:"billing"`
	SelectedProducts []string  `json:"selectedProducts"`
	Trip             Trip      `json:"trip"`
	Started          bool      `json:"started"`
	SavedAt          time.Time `json:"savedAt"`
}

func float64Ptr(v float64) *float64 { return &v }
