package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/satheeshds/driverdesk/auth"
	"github.com/satheeshds/driverdesk/backend"
	"github.com/satheeshds/driverdesk/billing"
	"github.com/satheeshds/driverdesk/payment"
	"github.com/satheeshds/driverdesk/triplog"
	"github.com/satheeshds/driverdesk/workflow"
)

// Response is the standard JSON envelope for all API responses.
type Response struct {
	Data  any    `json:"data"`
	Error string `json:"error,omitempty"`
}

// Shared dependencies used by all handlers, set by main before the router is built.
var (
	DB       *sql.DB
	Upstream *backend.Client
	Sessions *workflow.Manager
	Payments *payment.Service
	Trips    *triplog.Ledger
	JWT      *auth.JWTManager

	// SuggestionKinds maps a {kind} path segment to a search endpoint template.
	SuggestionKinds = map[string]string{"billing": backend.BillingSuggestions}
	// SuggestionMinChars is the shortest query that is sent upstream.
	SuggestionMinChars = 1
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(Response{Data: data})
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(Response{Error: msg})
}

// writeFailure maps a workflow, payment or billing service error to a status code.
func writeFailure(w http.ResponseWriter, err error) {
	var be *backend.Error
	switch {
	case errors.Is(err, workflow.ErrInvalidTransition),
		errors.Is(err, workflow.ErrBusy),
		errors.Is(err, payment.ErrBusy):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, workflow.ErrUnknownProduct),
		errors.Is(err, billing.ErrNoRef),
		payment.IsValidation(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case backend.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, err.Error())
	case errors.As(err, &be), errors.Is(err, billing.ErrInvalidRecord):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		slog.Error("request failed", "error", err)
		writeError(w, http.StatusBadGateway, err.Error())
	}
}

// decodeBody reads a JSON body into v. An empty body is accepted when optional is set.
func decodeBody(r *http.Request, v any, optional bool) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if optional && errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// identity returns the driver resolved by Authenticate.
func identity(r *http.Request) auth.Identity {
	id, _ := auth.FromContext(r.Context())
	return id
}

// Authenticate is middleware that resolves the driver from a bearer token.
func Authenticate(next http.Handler) http.Handler {
	// If no secret is configured, trust the identity headers
	if JWT == nil {
		slog.Warn("JWT_SECRET not set, driver identity is taken from X-User-Id headers")
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := r.Header.Get("X-User-Id")
			if userID == "" {
				writeError(w, http.StatusUnauthorized, "X-User-Id header required")
				return
			}
			id := auth.Identity{UserID: userID, Name: r.Header.Get("X-User-Name")}
			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
		})
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, _ := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		id, err := JWT.Validate(strings.TrimSpace(token))
		if err != nil {
			w.Header().Set("WWW-Authenticate", `Bearer realm="driverdesk"`)
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
	})
}
