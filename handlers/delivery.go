package handlers

import (
	"context"
	"net/http"

	"github.com/satheeshds/driverdesk/billing"
	"github.com/satheeshds/driverdesk/models"
	"github.com/satheeshds/driverdesk/workflow"
)

func session(w http.ResponseWriter, r *http.Request) (*workflow.Machine, bool) {
	m, err := Sessions.Session(r.Context(), identity(r))
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return nil, false
	}
	return m, true
}

// GetDelivery returns the driver's current delivery
// @Summary      Get delivery
// @Description  Get the driver's delivery workflow: state, loaded billing, selected products and trip details.
// @Tags         delivery
// @Produce      json
// @Success      200  {object}  Response{data=workflow.View}
// @Router       /delivery [get]
// @Security     BearerAuth
func GetDelivery(w http.ResponseWriter, r *http.Request) {
	m, ok := session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, m.View())
}

// LoadDelivery loads a billing and starts its delivery
// @Summary      Load billing for delivery
// @Description  Fetch a billing by id or invoice number, make it the current delivery and notify the billing service that the run started.
// @Tags         delivery
// @Accept       json
// @Produce      json
// @Param        body  body      models.LoadDeliveryInput  true  "Billing reference and optional start location"
// @Success      200   {object}  Response{data=workflow.View}
// @Failure      400   {object}  Response{error=string}
// @Failure      409   {object}  Response{error=string}
// @Failure      502   {object}  Response{error=string}
// @Router       /delivery/load [post]
// @Security     BearerAuth
func LoadDelivery(w http.ResponseWriter, r *http.Request) {
	var input models.LoadDeliveryInput
	if err := decodeBody(r, &input, false); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if msg := input.Validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	m, ok := session(w, r)
	if !ok {
		return
	}

	ref := billing.Ref{ID: input.BillingID, InvoiceNo: input.InvoiceNo}
	if err := m.Load(r.Context(), ref, input.Location); err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m.View())
}

// ContinueDelivery opens the delivery summary
// @Summary      Continue to summary
// @Tags         delivery
// @Produce      json
// @Success      200  {object}  Response{data=workflow.View}
// @Failure      409  {object}  Response{error=string}
// @Router       /delivery/continue [post]
// @Security     BearerAuth
func ContinueDelivery(w http.ResponseWriter, r *http.Request) {
	step(w, r, func(m *workflow.Machine) error { return m.Continue() })
}

// NextDelivery moves to the trip details
// @Summary      Next to trip details
// @Tags         delivery
// @Produce      json
// @Success      200  {object}  Response{data=workflow.View}
// @Failure      409  {object}  Response{error=string}
// @Router       /delivery/next [post]
// @Security     BearerAuth
func NextDelivery(w http.ResponseWriter, r *http.Request) {
	step(w, r, func(m *workflow.Machine) error { return m.Next() })
}

// BackDelivery returns to the loaded billing
// @Summary      Back to billing
// @Tags         delivery
// @Produce      json
// @Success      200  {object}  Response{data=workflow.View}
// @Failure      409  {object}  Response{error=string}
// @Router       /delivery/back [post]
// @Security     BearerAuth
func BackDelivery(w http.ResponseWriter, r *http.Request) {
	step(w, r, func(m *workflow.Machine) error { return m.Back() })
}

// CancelDelivery abandons the current delivery
// @Summary      Cancel delivery
// @Description  Reset the workflow and tell the billing service the started run was abandoned.
// @Tags         delivery
// @Produce      json
// @Success      200  {object}  Response{data=workflow.View}
// @Failure      409  {object}  Response{error=string}
// @Router       /delivery/cancel [post]
// @Security     BearerAuth
func CancelDelivery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	step(w, r, func(m *workflow.Machine) error { return m.Cancel(ctx) })
}

// SelectProducts replaces the delivered products checklist
// @Summary      Select delivered products
// @Tags         delivery
// @Accept       json
// @Produce      json
// @Param        body  body      models.SelectProductsInput  true  "Delivered item ids"
// @Success      200   {object}  Response{data=workflow.View}
// @Failure      400   {object}  Response{error=string}
// @Failure      409   {object}  Response{error=string}
// @Router       /delivery/products [put]
// @Security     BearerAuth
func SelectProducts(w http.ResponseWriter, r *http.Request) {
	var input models.SelectProductsInput
	if err := decodeBody(r, &input, false); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if msg := input.Validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	ctx := r.Context()
	step(w, r, func(m *workflow.Machine) error { return m.SetSelected(ctx, input.Selected) })
}

// UpdateTrip sets the trip details
// @Summary      Update trip details
// @Description  Set odometer readings and expenses. kmTravelled is recomputed when both readings are known.
// @Tags         delivery
// @Accept       json
// @Produce      json
// @Param        body  body      models.TripInput  true  "Trip details; omitted fields are unchanged"
// @Success      200   {object}  Response{data=workflow.View}
// @Failure      400   {object}  Response{error=string}
// @Failure      409   {object}  Response{error=string}
// @Router       /delivery/trip [put]
// @Security     BearerAuth
func UpdateTrip(w http.ResponseWriter, r *http.Request) {
	var input models.TripInput
	if err := decodeBody(r, &input, false); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if msg := input.Validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	ctx := r.Context()
	step(w, r, func(m *workflow.Machine) error { return m.SetTrip(ctx, input) })
}

// SubmitDelivery sends the end of delivery report
// @Summary      Submit delivery
// @Tags         delivery
// @Accept       json
// @Produce      json
// @Param        body  body      models.SubmitDeliveryInput  false  "Optional end location"
// @Success      200   {object}  Response{data=workflow.View}
// @Failure      400   {object}  Response{error=string}
// @Failure      409   {object}  Response{error=string}
// @Failure      502   {object}  Response{error=string}
// @Router       /delivery/submit [post]
// @Security     BearerAuth
func SubmitDelivery(w http.ResponseWriter, r *http.Request) {
	var input models.SubmitDeliveryInput
	if err := decodeBody(r, &input, true); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if msg := input.Validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	ctx := r.Context()
	step(w, r, func(m *workflow.Machine) error { return m.Submit(ctx, input.Location) })
}

// step runs one workflow command and answers with the resulting view.
func step(w http.ResponseWriter, r *http.Request, cmd func(*workflow.Machine) error) {
	m, ok := session(w, r)
	if !ok {
		return
	}
	if err := cmd(m); err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m.View())
}

// refreshSession pushes a fresher billing into the driver's session, if it has that invoice loaded.
func refreshSession(ctx context.Context, userID string, b *models.Billing) {
	if b == nil {
		return
	}
	if m, ok := Sessions.Find(userID); ok {
		m.UpdateBilling(ctx, *b)
	}
}
