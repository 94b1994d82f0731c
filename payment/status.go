package payment

import (
	"fmt"

	"github.com/satheeshds/driverdesk/models"
	"github.com/shopspring/decimal"
)

// Basis is what a payment amount is compared against to call it Paid.
type Basis string

const (
	// BasisBilling compares against the full billing amount.
	BasisBilling Basis = "billing"
	// BasisRemaining compares against what is still owed.
	BasisRemaining Basis = "remaining"
)

// ParseBasis validates a configured basis.
func ParseBasis(s string) (Basis, error) {
	switch Basis(s) {
	case BasisBilling, BasisRemaining:
		return Basis(s), nil
	case "":
		return BasisBilling, nil
	}
	return "", fmt.Errorf("unknown payment status basis %q", s)
}

// Clamp limits amount to [0, remaining].
func Clamp(amount, remaining decimal.Decimal) decimal.Decimal {
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	switch {
	case amount.IsNegative():
		return decimal.Zero
	case amount.GreaterThan(remaining):
		return remaining
	}
	return amount
}

// StatusFor is the payment status sent with a payment of amount.
func StatusFor(basis Basis, amount, billingAmount, remaining decimal.Decimal) string {
	target := billingAmount
	if basis == BasisRemaining {
		target = remaining
	}
	switch {
	case amount.IsPositive() && amount.GreaterThanOrEqual(target):
		return models.PaymentPaid
	case amount.IsPositive():
		return models.PaymentPartial
	default:
		return models.PaymentPending
	}
}
