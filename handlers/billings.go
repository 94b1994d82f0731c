package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/satheeshds/driverdesk/billing"
)

// GetBilling retrieves a billing by id
// @Summary      Get billing
// @Description  Fetch a billing from the billing service with remaining amount, expenses total, delivered items and indicator.
// @Tags         billings
// @Produce      json
// @Param        id   path      string  true  "Billing ID"
// @Success      200  {object}  Response{data=models.BillingView}
// @Failure      404  {object}  Response{error=string}
// @Failure      502  {object}  Response{error=string}
// @Router       /billings/{id} [get]
// @Security     BearerAuth
func GetBilling(w http.ResponseWriter, r *http.Request) {
	loadBilling(w, r, billing.ByID(chi.URLParam(r, "id")))
}

// GetBillingByInvoice retrieves a billing by invoice number
// @Summary      Get billing by invoice number
// @Tags         billings
// @Produce      json
// @Param        invoiceNo  path      string  true  "Invoice number"
// @Success      200        {object}  Response{data=models.BillingView}
// @Failure      404        {object}  Response{error=string}
// @Failure      502        {object}  Response{error=string}
// @Router       /billings/invoice/{invoiceNo} [get]
// @Security     BearerAuth
func GetBillingByInvoice(w http.ResponseWriter, r *http.Request) {
	loadBilling(w, r, billing.ByInvoice(chi.URLParam(r, "invoiceNo")))
}

func loadBilling(w http.ResponseWriter, r *http.Request, ref billing.Ref) {
	view, err := billing.New(Upstream).Load(r.Context(), ref)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
