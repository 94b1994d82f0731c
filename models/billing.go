package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Delivery statuses, spelled the way the billing service stores them.
const (
	DeliveryPending            = "Pending"
	DeliveryDelivered          = "Delivered"
	DeliveryPartiallyDelivered = "Partially Delivered"
	DeliveryFailed             = "Failed"
)

// Payment statuses.
const (
	PaymentPending = "Pending"
	PaymentPartial = "Partial"
	PaymentPaid    = "Paid"
	PaymentUnpaid  = "Unpaid"
	PaymentFailed  = "Failed"
)

// Billing is a customer invoice as returned by the billing service.
type Billing struct {
	ID                    string          `json:"_id"`
	InvoiceNo             string          `json:"invoiceNo"`
	CustomerName          string          `json:"customerName"`
	CustomerAddress       string          `json:"customerAddress"`
	BillingAmount         decimal.Decimal `json:"billingAmount"`
	BillingAmountReceived decimal.Decimal `json:"billingAmountReceived"`
	DeliveryStatus        string          `json:"deliveryStatus"`
	PaymentStatus         string          `json:"paymentStatus"`
	Products              []Product       `json:"products"`
	Payments              []Payment       `json:"payments"`
	FuelCharge            decimal.Decimal `json:"fuelCharge"`
	OtherExpenses         []Expense       `json:"otherExpenses"`
	ExpectedDeliveryDate  *string         `json:"expectedDeliveryDate,omitempty"`
	InvoiceDate           *string         `json:"invoiceDate,omitempty"`
	CreatedAt             *time.Time      `json:"createdAt,omitempty"`
	UpdatedAt             *time.Time      `json:"updatedAt,omitempty"`
}

// Product is a line of a billing with its delivery progress.
type Product struct {
	ItemID            string  `json:"item_id"`
	Name              string  `json:"name"`
	Quantity          float64 `json:"quantity"`
	DeliveredQuantity float64 `json:"deliveredQuantity"`
	DeliveryStatus    string  `json:"deliveryStatus"`
}

// Payment is one entry of the append-only payments list.
type Payment struct {
	Amount      decimal.Decimal `json:"amount"`
	Method      string          `json:"method"`
	Date        string          `json:"date,omitempty"`
	SubmittedBy string          `json:"submittedBy,omitempty"`
	Remark      string          `json:"remark,omitempty"`
}

// Expense is a trip expense other than fuel.
type Expense struct {
	Amount decimal.Decimal `json:"amount"`
	Remark string          `json:"remark"`
	Date   string          `json:"date,omitempty"`
}

// IsDelivered reports whether the product is marked delivered, either by
// status or by a delivered quantity covering the ordered quantity.
func (p Product) IsDelivered() bool {
	if p.DeliveryStatus == DeliveryDelivered {
		return true
	}
	return p.Quantity > 0 && p.DeliveredQuantity >= p.Quantity
}

// ReceivedSum is the sum of all recorded payments.
func (b *Billing) ReceivedSum() decimal.Decimal {
	return SumPayments(b.Payments)
}

// RemainingAmount is billingAmount minus received payments, never below zero.
func (b *Billing) RemainingAmount() decimal.Decimal {
	remaining := b.BillingAmount.Sub(b.ReceivedSum())
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

// TotalOtherExpenses sums otherExpenses.
func (b *Billing) TotalOtherExpenses() decimal.Decimal {
	return SumExpenses(b.OtherExpenses)
}

// DeliveredItemIDs lists the item ids already marked delivered, in product order.
func (b *Billing) DeliveredItemIDs() []string {
	ids := []string{}
	for _, p := range b.Products {
		if p.IsDelivered() {
			ids = append(ids, p.ItemID)
		}
	}
	return ids
}

// HasProduct reports whether itemID is one of the billing's products.
func (b *Billing) HasProduct(itemID string) bool {
	for _, p := range b.Products {
		if p.ItemID == itemID {
			return true
		}
	}
	return false
}

// CheckProducts returns an error when an item_id is empty or repeated.
func (b *Billing) CheckProducts() error {
	seen := make(map[string]bool, len(b.Products))
	for i, p := range b.Products {
		if p.ItemID == "" {
			return fmt.Errorf("product %d has no item_id", i)
		}
		if seen[p.ItemID] {
			return fmt.Errorf("duplicate product item_id %q", p.ItemID)
		}
		seen[p.ItemID] = true
	}
	return nil
}

// PaymentStatusFor classifies a billing from its total and the amount received.
func PaymentStatusFor(billingAmount, received decimal.Decimal) string {
	remaining := billingAmount.Sub(received)
	switch {
	case !remaining.IsPositive():
		return PaymentPaid
	case received.IsPositive():
		return PaymentPartial
	default:
		return PaymentPending
	}
}

// DeliveryStatusFor derives the delivery status from how many of the
// products are in selected. Ids that are not products are ignored. A billing
// with no products has nothing left to deliver, so it counts as delivered.
func DeliveryStatusFor(products []Product, selected []string) string {
	picked := make(map[string]bool, len(selected))
	for _, id := range selected {
		picked[id] = true
	}
	n := 0
	for _, p := range products {
		if picked[p.ItemID] {
			n++
		}
	}
	switch {
	case n == len(products):
		return DeliveryDelivered
	case n > 0:
		return DeliveryPartiallyDelivered
	default:
		return DeliveryPending
	}
}
