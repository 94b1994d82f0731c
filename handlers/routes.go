package handlers

import "github.com/go-chi/chi/v5"

// Mount registers the API routes on r. Authenticate is applied to all of them.
func Mount(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(Authenticate)

		// Suggestions
		r.Get("/suggestions/{kind}", ListSuggestions)

		// Billings
		r.Get("/billings/{id}", GetBilling)
		r.Get("/billings/invoice/{invoiceNo}", GetBillingByInvoice)

		// Delivery workflow
		r.Get("/delivery", GetDelivery)
		r.Post("/delivery/load", LoadDelivery)
		r.Post("/delivery/continue", ContinueDelivery)
		r.Post("/delivery/next", NextDelivery)
		r.Post("/delivery/back", BackDelivery)
		r.Put("/delivery/products", SelectProducts)
		r.Put("/delivery/trip", UpdateTrip)
		r.Post("/delivery/submit", SubmitDelivery)
		r.Post("/delivery/cancel", CancelDelivery)

		// Payments
		r.Post("/payments", CreatePayment)

		// Locations and tracker
		r.Get("/locations/{invoiceNo}", GetDeliveryLocation)
		r.Get("/trips/summary", GetTripSummary)
		r.Get("/indicator", GetIndicator)
	})

	r.Get("/healthz", Health)
}
