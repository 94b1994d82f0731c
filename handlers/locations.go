package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// GetDeliveryLocation returns the recorded start and end positions of a delivery
// @Summary      Get delivery location
// @Tags         locations
// @Produce      json
// @Param        invoiceNo  path      string  true  "Invoice number"
// @Success      200        {object}  Response{data=models.DeliveryLocationRecord}
// @Failure      404        {object}  Response{error=string}
// @Failure      502        {object}  Response{error=string}
// @Router       /locations/{invoiceNo} [get]
// @Security     BearerAuth
func GetDeliveryLocation(w http.ResponseWriter, r *http.Request) {
	rec, err := Upstream.DeliveryLocation(r.Context(), chi.URLParam(r, "invoiceNo"))
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
