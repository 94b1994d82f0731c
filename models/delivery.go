package models

import "github.com/shopspring/decimal"

// Suggestion is one candidate returned by a search endpoint.
type Suggestion struct {
	ID           string `json:"_id"`
	InvoiceNo    string `json:"invoiceNo,omitempty"`
	CustomerName string `json:"customerName,omitempty"`
	Name         string `json:"name,omitempty"`
}

// Label is the text shown for the suggestion in a list.
func (s Suggestion) Label() string {
	switch {
	case s.InvoiceNo != "" && s.CustomerName != "":
		return s.InvoiceNo + " - " + s.CustomerName
	case s.InvoiceNo != "":
		return s.InvoiceNo
	case s.Name != "":
		return s.Name
	}
	return s.ID
}

// StartDeliveryRequest opens a delivery run on the billing service.
type StartDeliveryRequest struct {
	UserID        string       `json:"userId"`
	DriverName    string       `json:"driverName"`
	InvoiceNo     string       `json:"invoiceNo"`
	StartLocation *Coordinates `json:"startLocation"`
}

// EndDeliveryRequest closes a delivery run with what was delivered and the trip details.
type EndDeliveryRequest struct {
	UserID            string          `json:"userId"`
	InvoiceNo         string          `json:"invoiceNo"`
	EndLocation       *Coordinates    `json:"endLocation"`
	DeliveryStatus    string          `json:"deliveryStatus"`
	DeliveredProducts []string        `json:"deliveredProducts"`
	PaymentStatus     string          `json:"paymentStatus"`
	KmTravelled       *float64        `json:"kmTravelled"`
	StartingKm        *float64        `json:"startingKm"`
	EndKm             *float64        `json:"endKm"`
	FuelCharge        decimal.Decimal `json:"fuelCharge"`
	OtherExpenses     []Expense       `json:"otherExpenses"`
}

// AbandonDeliveryRequest tells the billing service a started run was given up.
type AbandonDeliveryRequest struct {
	UserID    string `json:"userId"`
	InvoiceNo string `json:"invoiceNo"`
	Reason    string `json:"reason,omitempty"`
}

// UpdatePaymentRequest records a payment against a billing.
type UpdatePaymentRequest struct {
	InvoiceNo     string          `json:"invoiceNo"`
	PaymentAmount decimal.Decimal `json:"paymentAmount"`
	PaymentMethod string          `json:"paymentMethod"`
	PaymentStatus string          `json:"paymentStatus"`
}
