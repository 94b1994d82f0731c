package handlers

import (
	"net/http"

	"github.com/satheeshds/driverdesk/models"
)

// CreatePayment records a payment against a billing
// @Summary      Record payment
// @Description  Record a payment. The amount is clamped to the remaining balance; a settled billing rejects further payments.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        body  body      models.PaymentInput  true  "Payment"
// @Success      201   {object}  Response{data=payment.Result}
// @Failure      400   {object}  Response{error=string}
// @Failure      409   {object}  Response{error=string}
// @Failure      502   {object}  Response{error=string}
// @Router       /payments [post]
// @Security     BearerAuth
func CreatePayment(w http.ResponseWriter, r *http.Request) {
	var input models.PaymentInput
	if err := decodeBody(r, &input, false); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if msg := input.Validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	res, err := Payments.Record(r.Context(), input)
	if err != nil {
		writeFailure(w, err)
		return
	}
	if res.Billing != nil {
		refreshSession(r.Context(), identity(r).UserID, &res.Billing.Billing)
	}
	writeJSON(w, http.StatusCreated, res)
}
