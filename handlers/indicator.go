package handlers

import (
	"net/http"

	"github.com/satheeshds/driverdesk/indicator"
)

// IndicatorResult is the classification of a status pair.
type IndicatorResult struct {
	DeliveryStatus string          `json:"deliveryStatus"`
	PaymentStatus  string          `json:"paymentStatus"`
	Class          indicator.Class `json:"class"`
}

// GetIndicator classifies a delivery and payment status pair
// @Summary      Status indicator
// @Tags         indicator
// @Produce      json
// @Param        deliveryStatus  query     string  false  "Delivery status"
// @Param        paymentStatus   query     string  false  "Payment status"
// @Success      200             {object}  Response{data=IndicatorResult}
// @Router       /indicator [get]
// @Security     BearerAuth
func GetIndicator(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res := IndicatorResult{
		DeliveryStatus: q.Get("deliveryStatus"),
		PaymentStatus:  q.Get("paymentStatus"),
	}
	res.Class = indicator.For(res.DeliveryStatus, res.PaymentStatus)
	writeJSON(w, http.StatusOK, res)
}
