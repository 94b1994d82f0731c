package payment

import "errors"

var (
	ErrInvalidAmount = errors.New("amount must be greater than zero")
	ErrMissingMethod = errors.New("payment method is required")
	ErrSettled       = errors.New("billing is already fully paid")
	ErrNoBilling     = errors.New("no billing loaded")
	ErrBusy          = errors.New("a payment is already being submitted")
)

// IsValidation reports whether err is an input error rather than a failure
// talking to the billing service.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidAmount) || errors.Is(err, ErrMissingMethod) || errors.Is(err, ErrSettled)
}
